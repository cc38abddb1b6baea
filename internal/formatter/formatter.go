package formatter

import (
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/kvedit/pkg/json5"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")
	defaultMatchColor = lipgloss.Color("11")
	defaultSelectedBG = lipgloss.Color("24")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	matchStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
)

// Theme controls the colors of rendered output. Nil fields fall back to the
// defaults (ANSI 256 codes).
type Theme struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
	MatchColor     color.Color
	SelectedBG     color.Color
}

func orDefault(c, fallback color.Color) color.Color {
	if c == nil {
		return fallback
	}
	return c
}

func applyTheme(t Theme) {
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(orDefault(t.HeaderFG, defaultHeaderFG)).
		Background(orDefault(t.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(orDefault(t.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(orDefault(t.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(orDefault(t.SeparatorColor, defaultSeparator))
	matchStyle = lipgloss.NewStyle().Bold(true).Foreground(orDefault(t.MatchColor, defaultMatchColor))
	selectedStyle = lipgloss.NewStyle().Reverse(true).Background(orDefault(t.SelectedBG, defaultSelectedBG))
}

// SetTheme overrides the global styles.
func SetTheme(t Theme) {
	applyTheme(t)
}

//nolint:gochecknoinits // initialize default theme for package consumers
func init() {
	applyTheme(Theme{})
}

// Stringify renders a decoded value on one line: strings as is with line
// breaks escaped, everything else in compact JSON5.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return escapeNewlines(t)
	}
	n, err := json5.ValueOf(v)
	if err != nil {
		return ""
	}
	return n.String()
}

// escapeNewlines flattens line breaks so table rows stay single-line.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// Truncate cuts s to at most width terminal cells, ending in "..." when
// anything was removed. A width of zero or less disables truncation.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width < 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// TerminalWidth returns the width of stdout, or 120 when it is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderRows prints a two-column table for precomputed rows. headers names
// the columns. keyWidth of zero sizes the first column to its content;
// maxWidth of zero disables truncation of the second column.
func RenderRows(headers [2]string, rows [][2]string, noColor bool, keyWidth, maxWidth int) string {
	const sepWidth = 2
	sep := strings.Repeat(" ", sepWidth)

	if keyWidth <= 0 {
		keyWidth = runewidth.StringWidth(headers[0])
		for _, row := range rows {
			if w := runewidth.StringWidth(row[0]); w > keyWidth {
				keyWidth = w
			}
		}
	}
	valueWidth := runewidth.StringWidth(headers[1])
	for _, row := range rows {
		if w := runewidth.StringWidth(row[1]); w > valueWidth {
			valueWidth = w
		}
	}
	if maxWidth > 0 && keyWidth+sepWidth+valueWidth > maxWidth {
		valueWidth = maxWidth - keyWidth - sepWidth
		if valueWidth < 5 {
			valueWidth = 5
		}
	}

	var b strings.Builder
	headerKey := padRight(headers[0], keyWidth)
	headerValue := padRight(headers[1], valueWidth)
	if !noColor {
		headerKey = headerStyle.Render(headerKey)
		headerValue = headerStyle.Render(headerValue)
	}
	b.WriteString(headerKey + sep + headerValue + "\n")

	separator := strings.Repeat("\u2500", keyWidth+sepWidth+valueWidth)
	if !noColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator + "\n")

	for _, row := range rows {
		keyStr := padRight(row[0], keyWidth)
		valStr := Truncate(row[1], valueWidth)
		if !noColor {
			keyStr = keyStyle.Render(keyStr)
			valStr = valueStyle.Render(valStr)
		}
		b.WriteString(strings.TrimRight(keyStr+sep+valStr, " ") + "\n")
	}
	return b.String()
}
