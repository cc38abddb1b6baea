package formatter

import (
	"fmt"
	"strconv"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// NoValues hides previews (structure only).
	NoValues bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// ExpandAll ignores the expansion state and shows every container open.
	ExpandAll bool
	// ShowPaths appends the node path to each label.
	ShowPaths bool
	// MaxStringLen is the cell width after which labels are cut with "...".
	// 0 or negative = no truncation.
	MaxStringLen int
	// ArrayStyle controls how array indices are displayed:
	// "index" = [0], [1]; "numbered" = 1, 2; "bullet" = *; "none" = value only.
	ArrayStyle string
	// NoColor disables match and selection highlighting.
	NoColor bool
}

// ValidArrayStyles contains all valid array style values.
var ValidArrayStyles = []string{"index", "numbered", "bullet", "none"}

// ValidateArrayStyle returns an error if the style is invalid.
func ValidateArrayStyle(style string) error {
	if style == "" {
		return nil // empty means use default
	}
	for _, valid := range ValidArrayStyles {
		if style == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid array-style %q: valid values are index, numbered, bullet, none", style)
}

// FormatArrayIndex formats an array index based on style.
func FormatArrayIndex(i int, style string) string {
	switch style {
	case "numbered":
		return strconv.Itoa(i + 1)
	case "bullet":
		return "*"
	case "none":
		return ""
	default: // "index" or empty
		return "[" + strconv.Itoa(i) + "]"
	}
}

// formatKeyValue formats a key-value pair for display.
// If key is empty (e.g., from array-style none), returns just the value.
func formatKeyValue(key, value string) string {
	if key == "" {
		return value
	}
	return key + ": " + value
}

// RenderTree draws the navigation tree as seen through state: only visible
// nodes appear, containers open only when expanded (or opts.ExpandAll), and
// matched and selected nodes are highlighted.
func RenderTree(root *treemodel.Node, state treemodel.State, opts TreeOptions) string {
	if root == nil {
		return ""
	}
	r := treeRenderer{state: state, opts: opts}
	tree := treeprint.NewWithRoot(r.label(root, root.Key, true))
	r.addChildren(tree, root, 0)
	return tree.String()
}

type treeRenderer struct {
	state treemodel.State
	opts  TreeOptions
}

func (r treeRenderer) open(n *treemodel.Node) bool {
	if len(n.Children) == 0 {
		return false
	}
	if n.Path == "" || r.opts.ExpandAll {
		return true
	}
	return treemodel.IsExpanded(r.state, n.Path)
}

func (r treeRenderer) addChildren(branch treeprint.Tree, n *treemodel.Node, depth int) {
	if r.opts.MaxDepth > 0 && depth >= r.opts.MaxDepth {
		branch.AddNode("...")
		return
	}
	for i, c := range n.Children {
		if !treemodel.IsVisible(r.state, c.Path) {
			continue
		}
		key := c.Key
		if n.Kind == json5.KindArray {
			key = FormatArrayIndex(i, r.opts.ArrayStyle)
		}
		if r.open(c) {
			r.addChildren(branch.AddBranch(r.label(c, key, true)), c, depth+1)
			continue
		}
		branch.AddNode(r.label(c, key, false))
	}
}

// label renders "key: preview". Open containers show only their key since
// their children follow.
func (r treeRenderer) label(n *treemodel.Node, key string, open bool) string {
	text := key
	if !r.opts.NoValues && !(open && len(n.Children) > 0) {
		text = formatKeyValue(key, n.PreviewText)
	}
	if key == "" && text == "" {
		text = `""`
	}
	text = Truncate(escapeNewlines(text), r.opts.MaxStringLen)
	if r.opts.ShowPaths {
		text += "  (" + displayPath(n.Path) + ")"
	}
	if r.opts.NoColor {
		return text
	}
	if treemodel.IsMatched(r.state, n.Path) {
		text = matchStyle.Render(text)
	}
	if treemodel.IsSelected(r.state, n.Path) {
		text = selectedStyle.Render(text)
	}
	return text
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
