package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/pkg/loader"
)

var (
	setString bool

	importFrom   string
	importFile   string
	importIndent int
)

var setCmd = &cobra.Command{
	Use:   "set <file> <path> <value>",
	Short: "Write a value at a path",
	Long: `Write a value at a path. value is JSON5 text and is kept as written; use
--string to store it as a plain string. Under an array the last segment is an
index, and the index equal to the array length appends. The empty path "/"
replaces the whole document.

The file is saved (with a version snapshot when versions are enabled) unless
--stage is given or autosave is enabled in the config; then the change goes to
the autosave sidecar and later edits build on it.`,
	Example: `  kvedit set app.json5 /servers/0/port 8443
  kvedit set app.json5 'servers[0].tags' '["a", "b"]'
  kvedit set app.json5 /name --string 'release 2'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args[1])
		if err != nil {
			return err
		}
		ed, err := openForEdit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var ok bool
		if setString {
			ok, err = ed.SetValue(path, args[2])
		} else {
			ok, err = ed.SetRaw(path, args[2])
		}
		if err != nil {
			return fmt.Errorf("set %s: %w", args[1], err)
		}
		if !ok {
			return fmt.Errorf("set %s: no container to hold it", args[1])
		}
		return commitEdit(cmd, ed, "set "+displayPath(path))
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <file> <path>",
	Aliases: []string{"rm"},
	Short:   "Remove the member or element at a path",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args[1])
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("cannot delete the document root")
		}
		ed, err := openForEdit(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ed.DeleteValue(path) {
			return fmt.Errorf("delete %s: nothing at that path", args[1])
		}
		return commitEdit(cmd, ed, "delete "+displayPath(path))
	},
}

var importCmd = &cobra.Command{
	Use:   "import <input>",
	Short: "Convert YAML, TOML, NDJSON or JSON5 input into a JSON document",
	Long: `Convert structured input into a JSON document. Use "-" to read stdin.
With --from auto the format is guessed. Multi-document YAML and NDJSON become
an array with one element per document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		text, _, err := loader.Decode(data)
		if err != nil {
			return err
		}
		node, err := loader.Import(text, loader.ImportFormat(importFrom))
		if err != nil {
			return err
		}
		out, err := formatter.FormatJSON(node, importIndent)
		if err != nil {
			return err
		}
		if importFile == "" {
			writeString(cmd.OutOrStdout(), out)
			return nil
		}

		ctx := cmd.Context()
		ed, err := newEditor(ctx)
		if err != nil {
			return err
		}
		if err := ed.Open("", out, loader.UTF8); err != nil {
			return err
		}
		written, err := ed.SaveAs(ctx, importFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s to %s\n", args[0], written)
		return nil
	},
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func init() { //nolint:gochecknoinits
	setCmd.Flags().BoolVar(&setString, "string", false, "store value as a string instead of parsing it")
	addEditFlags(setCmd)
	addEditFlags(deleteCmd)

	importCmd.Flags().StringVar(&importFrom, "from", string(loader.ImportAuto), "input format: auto, json5, yaml, toml, ndjson")
	importCmd.Flags().StringVarP(&importFile, "output-file", "O", "", "save the result to a file instead of printing it")
	importCmd.Flags().IntVar(&importIndent, "indent", 2, "indent width")

	rootCmd.AddCommand(setCmd, deleteCmd, importCmd)
}
