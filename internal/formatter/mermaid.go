package formatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// MermaidOptions controls Mermaid diagram output formatting.
type MermaidOptions struct {
	// Direction sets the diagram direction: TD (top-down), LR (left-right),
	// BT (bottom-top), RL (right-left). Default is TD.
	Direction string
	// NoValues hides values at leaf nodes (structure only).
	NoValues bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// MaxStringLen is max cells before truncating values.
	// 0 or negative = no truncation (unlimited).
	MaxStringLen int
	// ArrayStyle controls how array indices are displayed, see FormatArrayIndex.
	ArrayStyle string
}

// mermaidBuilder tracks state during diagram generation.
type mermaidBuilder struct {
	lines  []string
	nodeID int
	opts   MermaidOptions
}

// FormatAsMermaid renders a document value as a Mermaid flowchart. Object
// members and array elements become child nodes in source order; scalars
// show their preview.
func FormatAsMermaid(n *json5.Node, opts MermaidOptions) string {
	if opts.Direction == "" {
		opts.Direction = "TD"
	}

	b := &mermaidBuilder{
		lines: []string{fmt.Sprintf("graph %s", opts.Direction)},
		opts:  opts,
	}

	rootID := b.nextID()
	b.addNode(rootID, "root", "")
	if n != nil {
		b.buildMermaid(rootID, navigator.Adapt(n), 0)
	}

	return strings.Join(b.lines, "\n") + "\n"
}

// nextID generates a unique node identifier.
func (b *mermaidBuilder) nextID() string {
	id := fmt.Sprintf("n%d", b.nodeID)
	b.nodeID++
	return id
}

// addNode adds a node definition to the diagram.
func (b *mermaidBuilder) addNode(id, label, value string) {
	escaped := b.escapeLabel(label, value)
	b.lines = append(b.lines, fmt.Sprintf("    %s[%q]", id, escaped))
}

// addEdge adds an edge between two nodes.
func (b *mermaidBuilder) addEdge(fromID, toID string) {
	b.lines = append(b.lines, fmt.Sprintf("    %s --> %s", fromID, toID))
}

// escapeLabel creates a safe label for Mermaid nodes.
func (b *mermaidBuilder) escapeLabel(key, value string) string {
	var label string
	switch {
	case b.opts.NoValues || value == "":
		if key == "" {
			label = "(item)"
		} else {
			label = key
		}
	case key == "":
		label = value
	default:
		label = key + ": " + value
	}
	// Mermaid quotes labels, so internal quotes become apostrophes
	label = strings.ReplaceAll(label, `"`, `'`)
	label = strings.ReplaceAll(label, "\n", " ")
	label = strings.ReplaceAll(label, "\r", "")
	return label
}

func (b *mermaidBuilder) buildMermaid(parentID string, src navigator.Source, depth int) {
	if !src.Kind().IsContainer() {
		// Always show scalar roots even with NoValues since there's nothing else to display
		childID := b.nextID()
		b.addNode(childID, src.Preview(), "")
		b.addEdge(parentID, childID)
		return
	}
	b.addChildren(parentID, src, depth)
}

func (b *mermaidBuilder) addChildren(parentID string, src navigator.Source, depth int) {
	if b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth {
		ellipsisID := b.nextID()
		b.addNode(ellipsisID, "...", "")
		b.addEdge(parentID, ellipsisID)
		return
	}
	for _, c := range src.Children() {
		key := c.Key
		if c.IsIndex {
			key = FormatArrayIndex(c.Index, b.opts.ArrayStyle)
		}
		childID := b.nextID()
		if c.Node.Kind().IsContainer() {
			b.addNode(childID, key, "")
			b.addEdge(parentID, childID)
			b.addChildren(childID, c.Node, depth+1)
			continue
		}
		b.addNode(childID, key, b.formatScalar(c.Node.Preview()))
		b.addEdge(parentID, childID)
	}
}

// formatScalar applies NoValues and truncation to a scalar preview.
func (b *mermaidBuilder) formatScalar(s string) string {
	if b.opts.NoValues {
		return ""
	}
	return Truncate(s, b.opts.MaxStringLen)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeMermaidID creates a valid Mermaid node ID from a string.
// Mermaid IDs should be alphanumeric with underscores.
func SanitizeMermaidID(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "_")
}
