package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvedit/cmd"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <out-dir> [dist-dir]\n", os.Args[0])
		os.Exit(1)
	}
	outDir := os.Args[1]
	distDir := ""
	if len(os.Args) == 3 {
		distDir = os.Args[2]
	}

	readme, err := os.ReadFile("README.md")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading README.md: %v\n", err)
		os.Exit(1)
	}
	source := string(readme) + "\n" + commandReference(cmd.Root())
	page := renderMarkdown(source)
	if distDir != "" {
		page = insertDownloads(page, downloadsHTML(distDir))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outDir, err)
		os.Exit(1)
	}
	indexPath := filepath.Join(outDir, "index.html")
	f, err := os.Create(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating index.html: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := writePage(f, page); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing index.html: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
}

func renderMarkdown(source string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	doc := parser.NewWithExtensions(extensions).Parse([]byte(source))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.Render(doc, renderer))
}

// commandReference documents every visible command below root as markdown,
// one section per command in command-path order.
func commandReference(root *cobra.Command) string {
	var cmds []*cobra.Command
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, sub := range c.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			cmds = append(cmds, sub)
			walk(sub)
		}
	}
	walk(root)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].CommandPath() < cmds[j].CommandPath() })

	var b strings.Builder
	b.WriteString("## Command reference\n\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", c.CommandPath(), c.Short)
		if c.Long != "" {
			fmt.Fprintf(&b, "%s\n\n", c.Long)
		}
		fmt.Fprintf(&b, "```\n%s```\n\n", c.UsageString())
	}
	return b.String()
}

var archivePattern = regexp.MustCompile(`^kvedit_([^_]+)_(Darwin|Linux|Windows)_(arm64|x86_64)\.(?:tar\.gz|zip)$`)

var platformNames = map[string]string{
	"Darwin_arm64":   "macOS (Apple Silicon)",
	"Darwin_x86_64":  "macOS (Intel)",
	"Linux_arm64":    "Linux (ARM64)",
	"Linux_x86_64":   "Linux (x86_64)",
	"Windows_arm64":  "Windows (ARM64)",
	"Windows_x86_64": "Windows (x86_64)",
}

// downloadsHTML lists the release archives goreleaser left in distDir.
func downloadsHTML(distDir string) string {
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return ""
	}
	version := "unknown"
	var rows []string
	for _, e := range entries {
		m := archivePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		version = m[1]
		rows = append(rows, fmt.Sprintf("        <tr><td class=\"platform-name\">%s</td><td><a href=\"%s\">download</a></td></tr>\n", platformNames[m[2]+"_"+m[3]], e.Name()))
	}
	sort.Strings(rows)

	var sb strings.Builder
	sb.WriteString("  <div class=\"downloads\">\n    <h2>Downloads</h2>\n")
	fmt.Fprintf(&sb, "    <h3>%s</h3>\n      <table class=\"download-table\">\n", version)
	for _, r := range rows {
		sb.WriteString(r)
	}
	sb.WriteString("      </table>\n  </div>\n")
	return sb.String()
}

// insertDownloads puts the downloads block right after the installation
// heading, or at the top when there is none.
func insertDownloads(page, downloads string) string {
	for _, id := range []string{`<h2 id="installation">`, `<h2 id="install">`} {
		if i := strings.Index(page, id); i >= 0 {
			end := strings.Index(page[i:], "</h2>")
			if end >= 0 {
				at := i + end + len("</h2>")
				return page[:at] + "\n" + downloads + page[at:]
			}
		}
	}
	return downloads + page
}

func writePage(w io.Writer, body string) error {
	_, err := fmt.Fprintf(w, `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>kvedit - JSON and JSON5 editor</title>
  <style>
    body { font-family: system-ui, -apple-system, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #333; }
    h1 { color: #2563eb; border-bottom: 2px solid #2563eb; padding-bottom: 10px; }
    h2 { color: #1e40af; margin-top: 30px; }
    h3 { color: #1e3a8a; margin-top: 20px; }
    code { background: #f1f5f9; padding: 2px 6px; border-radius: 3px; font-family: Monaco, Menlo, monospace; font-size: 0.9em; }
    pre { background: #1e293b; color: #e2e8f0; padding: 16px; border-radius: 6px; overflow-x: auto; }
    pre code { background: none; color: inherit; padding: 0; }
    .downloads { background: #eff6ff; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #2563eb; }
    .download-table { width: 100%%; border-collapse: collapse; }
    .platform-name { font-weight: 500; color: #1e3a8a; width: 200px; }
  </style>
</head>
<body>
%s</body>
</html>
`, body)
	return err
}
