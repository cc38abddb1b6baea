package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvedit/internal/cel"
	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/internal/limiter"
	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/core"
	"github.com/oakwood-commons/kvedit/pkg/json5"
)

var (
	// tree flags
	treeExpand     []string
	treeExpandAll  bool
	treeSelect     string
	treeSearch     string
	treeCEL        string
	treeShowPaths  bool
	treeNoValues   bool
	treeDepth      int
	treeMaxString  int
	treeArrayStyle string

	// search flags
	searchCEL  bool
	searchTree bool

	// get / query / export flags
	valueOutput      string
	queryFunctions   bool
	exportFormat     string
	exportIndent     int
	exportFile       string
	exportNoComments bool
	mermaidDirection string
)

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Render a document as a navigation tree",
	Long: `Render a document as a navigation tree. Containers are collapsed unless
expanded with --expand, --expand-all, --select or a search, which opens the
ancestors of every match and hides everything else.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, expr := range treeExpand {
			path, err := resolvePath(expr)
			if err != nil {
				return err
			}
			if _, ok := ed.FindByPath(path); !ok {
				return fmt.Errorf("no node at %q", expr)
			}
			ed.ExpandToPath(path)
			if !treemodel.IsExpanded(ed.State(), path) {
				ed.ToggleExpand(path)
			}
		}
		if treeSelect != "" {
			path, err := resolvePath(treeSelect)
			if err != nil {
				return err
			}
			if _, ok := ed.FindByPath(path); !ok {
				return fmt.Errorf("no node at %q", treeSelect)
			}
			ed.ExpandToPath(path)
			ed.Select(path)
		}
		switch {
		case treeCEL != "":
			p, err := newPredicate(ed, treeCEL)
			if err != nil {
				return err
			}
			ed.SearchFunc(treeCEL, p.MatchFunc())
		case treeSearch != "":
			ed.Search(treeSearch)
		}
		opts, err := treeOptions(cmd)
		if err != nil {
			return err
		}
		writeString(cmd.OutOrStdout(), formatter.RenderTree(ed.Tree(), ed.State(), opts))
		return nil
	},
}

func treeOptions(cmd *cobra.Command) (formatter.TreeOptions, error) {
	opts := formatter.TreeOptions{
		NoValues:     loaded.Display.NoValues || treeNoValues,
		MaxDepth:     treeDepth,
		ExpandAll:    treeExpandAll,
		ShowPaths:    loaded.Display.ShowPaths || treeShowPaths,
		MaxStringLen: loaded.Display.MaxStringLen,
		ArrayStyle:   loaded.Display.ArrayStyle,
		NoColor:      colorOff(cmd.Context()),
	}
	if cmd.Flags().Changed("max-string") {
		opts.MaxStringLen = treeMaxString
	}
	if opts.MaxStringLen == 0 {
		opts.MaxStringLen = outputWidth(cmd.Context())
	}
	if cmd.Flags().Changed("array-style") {
		opts.ArrayStyle = treeArrayStyle
	}
	return opts, formatter.ValidateArrayStyle(opts.ArrayStyle)
}

var pathsCmd = &cobra.Command{
	Use:   "paths <file>",
	Short: "List every path in a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		paths := treemodel.AllPaths(ed.Tree())
		for i, p := range paths {
			if p == "" {
				paths[i] = "/"
			}
		}
		printLimited(cmd, paths)
		return nil
	},
}

// printLimited prints one item per line after --limit/--offset/--tail, with
// a summary on stderr when items were left out.
func printLimited(cmd *cobra.Command, items []string) {
	cfg := limitConfig()
	for _, item := range limiter.Apply(cfg, items) {
		fmt.Fprintln(cmd.OutOrStdout(), item)
	}
	printSummary(cmd, cfg, len(items))
}

func printSummary(cmd *cobra.Command, cfg limiter.Config, length int) {
	if summary := cfg.Summary(length); summary != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), summary)
	}
}

var getCmd = &cobra.Command{
	Use:   "get <file> <path>",
	Short: "Print the value at a path",
	Long: `Print the value at a path. The default output is the value exactly as it
is written in the document, comments included.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		n, _, err := navigator.Navigate(ed.Document().Root, args[1])
		if err != nil {
			return err
		}
		out, err := renderValue(n, valueOutput)
		if err != nil {
			return err
		}
		writeString(cmd.OutOrStdout(), out)
		return nil
	},
}

// renderValue prints n as json5 (source text), json, yaml or raw (strings
// unquoted).
func renderValue(n *json5.Node, format string) (string, error) {
	switch format {
	case "", "json5":
		return n.String(), nil
	case "raw":
		if s, ok := n.StringValue(); ok {
			return s, nil
		}
		return n.String(), nil
	case "json":
		return formatter.FormatJSON(n, 2)
	case "yaml", "yml":
		return formatter.FormatYAML(n, formatter.YAMLFormatOptions{})
	default:
		return "", fmt.Errorf("invalid output %q: valid values are json5, json, yaml, raw", format)
	}
}

var searchCmd = &cobra.Command{
	Use:   "search <file> <query>",
	Short: "Find nodes by key, path or CEL predicate",
	Long: `Find nodes whose key or path contains query, ignoring case. Values are
not searched as text; use --cel for that. With --cel the query is a CEL
predicate over node (key, path, kind, preview, depth, children), value (the
decoded value at node.path) and _ (the document).`,
	Example: `  kvedit search app.json5 port
  kvedit search app.json5 --cel 'node.kind == "string" && value.startsWith("http")'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		query := args[1]
		var p *cel.Predicate
		if searchCEL {
			if p, err = newPredicate(ed, query); err != nil {
				return err
			}
			ed.SearchFunc(query, p.MatchFunc())
		} else {
			ed.Search(query)
		}
		if p != nil && p.Err() != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", p.Err())
		}

		state := ed.State()
		if searchTree {
			opts, err := treeOptions(cmd)
			if err != nil {
				return err
			}
			writeString(cmd.OutOrStdout(), formatter.RenderTree(ed.Tree(), state, opts))
			return nil
		}
		matched := matchedInOrder(ed, state)
		if len(matched) == 0 {
			return fmt.Errorf("no matches for %q", query)
		}
		cfg := limitConfig()
		rows := make([][2]string, 0, len(matched))
		for _, n := range limiter.Apply(cfg, matched) {
			path := n.Path
			if path == "" {
				path = "/"
			}
			rows = append(rows, [2]string{path, n.PreviewText})
		}
		out := formatter.RenderRows([2]string{"PATH", "VALUE"}, rows, colorOff(cmd.Context()), 0, outputWidth(cmd.Context()))
		writeString(cmd.OutOrStdout(), out)
		printSummary(cmd, cfg, len(matched))
		return nil
	},
}

// matchedInOrder returns the matched nodes in document order.
func matchedInOrder(ed *core.Editor, state treemodel.State) []*treemodel.Node {
	var out []*treemodel.Node
	treemodel.Walk(ed.Tree(), func(n *treemodel.Node) bool {
		if treemodel.IsMatched(state, n.Path) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func newPredicate(ed *core.Editor, expr string) (*cel.Predicate, error) {
	return cel.NewPredicate(expr, ed.Document().Root.Interface(), ed.GetValue)
}

var queryCmd = &cobra.Command{
	Use:   "query <file> <expression>",
	Short: "Evaluate a CEL expression against a document",
	Long: `Evaluate a CEL expression with the document bound to "_". Use --functions
to list the available functions.`,
	Example: `  kvedit query app.json5 '_.servers.map(s, s.port)'
  kvedit query app.json5 'size(_.servers)' -o yaml
  kvedit query --functions`,
	Args: func(cmd *cobra.Command, args []string) error {
		if queryFunctions {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryFunctions {
			fns, err := cel.Functions()
			if err != nil {
				return err
			}
			printLimited(cmd, fns)
			return nil
		}
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result, err := ed.Query(args[1])
		if err != nil {
			return err
		}
		n, err := json5.ValueOf(result)
		if err != nil {
			return fmt.Errorf("query result: %w", err)
		}
		out, err := renderValue(n, valueOutput)
		if err != nil {
			return err
		}
		writeString(cmd.OutOrStdout(), out)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Convert a document to YAML, TOML, JSON or Mermaid",
	Long: `Convert a document to another format. YAML keeps key order and comments;
JSON drops comments and writes strict JSON; TOML needs an object at the top
level and leaves out nulls.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		format := loaded.Export.Format
		if cmd.Flags().Changed("format") {
			format = strings.ToLower(exportFormat)
		}
		indent := loaded.Export.Indent
		if cmd.Flags().Changed("indent") {
			indent = exportIndent
		}
		root := ed.Document().Root

		var out string
		switch format {
		case formatter.ExportYAML, "yml":
			out, err = formatter.FormatYAML(root, formatter.YAMLFormatOptions{Indent: indent, NoComments: exportNoComments})
		case formatter.ExportMermaid:
			out = formatter.FormatAsMermaid(root, formatter.MermaidOptions{
				Direction:    mermaidDirection,
				NoValues:     treeNoValues,
				MaxDepth:     treeDepth,
				MaxStringLen: loaded.Display.MaxStringLen,
				ArrayStyle:   loaded.Display.ArrayStyle,
			})
		default:
			out, err = formatter.Export(root, format, indent)
		}
		if err != nil {
			return err
		}
		if exportFile == "" {
			writeString(cmd.OutOrStdout(), out)
			return nil
		}
		if err := os.WriteFile(exportFile, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", exportFile, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], exportFile)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check that documents parse",
	Long: `Check that documents parse. Each good file prints its format, encoding and
node count; a bad file prints path:line:column: message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			ed, err := openDocument(cmd.Context(), path)
			if err != nil {
				failed++
				fmt.Fprintln(cmd.ErrOrStderr(), userMessage(err))
				continue
			}
			nodes := len(treemodel.AllPaths(ed.Tree()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %s, %d nodes)\n", path, ed.Format(), ed.Encoding(), nodes)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to parse", failed, len(args))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits
	treeCmd.Flags().StringArrayVar(&treeExpand, "expand", nil, "expand the container at path (repeatable)")
	treeCmd.Flags().BoolVar(&treeExpandAll, "expand-all", false, "expand every container")
	treeCmd.Flags().StringVar(&treeSelect, "select", "", "select the node at path and expand its ancestors")
	treeCmd.Flags().StringVar(&treeSearch, "search", "", "show only nodes whose key or path contains this text")
	treeCmd.Flags().StringVar(&treeCEL, "cel", "", "show only nodes matching a CEL predicate")
	treeCmd.MarkFlagsMutuallyExclusive("search", "cel")
	for _, c := range []*cobra.Command{treeCmd, searchCmd} {
		c.Flags().BoolVar(&treeShowPaths, "show-paths", false, "append the path to each node")
		c.Flags().BoolVar(&treeNoValues, "no-values", false, "show structure only")
		c.Flags().IntVar(&treeDepth, "depth", 0, "limit tree depth (0 = unlimited)")
		c.Flags().IntVar(&treeMaxString, "max-string", 0, "cut labels longer than this many columns (default from config, else terminal width)")
		c.Flags().StringVar(&treeArrayStyle, "array-style", "index", "array index style: "+strings.Join(formatter.ValidArrayStyles, ", "))
	}

	addLimitFlags(pathsCmd)

	searchCmd.Flags().BoolVar(&searchCEL, "cel", false, "treat the query as a CEL predicate")
	searchCmd.Flags().BoolVar(&searchTree, "tree", false, "render matches and their ancestors as a tree")
	addLimitFlags(searchCmd)

	for _, c := range []*cobra.Command{getCmd, queryCmd} {
		c.Flags().StringVarP(&valueOutput, "output", "o", "json5", "output format: json5|json|yaml|raw")
	}
	queryCmd.Flags().BoolVar(&queryFunctions, "functions", false, "list available CEL functions")
	addLimitFlags(queryCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", formatter.ExportYAML, "export format: "+strings.Join(formatter.ExportFormats, ", "))
	exportCmd.Flags().IntVar(&exportIndent, "indent", 2, "indent width for yaml and json")
	exportCmd.Flags().StringVarP(&exportFile, "output-file", "O", "", "write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportNoComments, "no-comments", false, "drop comments from yaml output")
	exportCmd.Flags().StringVar(&mermaidDirection, "mermaid-direction", "TD", "Mermaid diagram direction: TD, LR, BT, RL")
	exportCmd.Flags().BoolVar(&treeNoValues, "no-values", false, "mermaid: show structure only")
	exportCmd.Flags().IntVar(&treeDepth, "depth", 0, "mermaid: limit depth (0 = unlimited)")

	rootCmd.AddCommand(treeCmd, pathsCmd, getCmd, searchCmd, queryCmd, exportCmd, checkCmd)
}
