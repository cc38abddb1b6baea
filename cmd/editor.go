package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/internal/navigator"
	"github.com/oakwood-commons/kvedit/pkg/core"
	"github.com/oakwood-commons/kvedit/pkg/json5"
	"github.com/oakwood-commons/kvedit/pkg/logger"
	"github.com/oakwood-commons/kvedit/pkg/persist"
	"github.com/oakwood-commons/kvedit/pkg/settings"
)

// Flags shared by the commands that change a document.
var (
	stageEdit bool
	dryRun    bool
)

// parseError reports a document that does not parse as "line:column: message".
type parseError struct {
	Path string
	Err  *json5.SyntaxError
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Err.Line, e.Err.Column, e.Err.Msg)
}

func (e *parseError) Unwrap() error { return e.Err }

// userMessage strips the code prefix from persistence errors.
func userMessage(err error) string {
	var pe *parseError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var perr *persist.Error
	if errors.As(err, &perr) {
		if perr.Cause != nil {
			return fmt.Sprintf("%s: %v", persist.UserMessage(perr), perr.Cause)
		}
		return persist.UserMessage(perr)
	}
	return err.Error()
}

// newStore builds the persistence store described by the loaded config.
func newStore(ctx context.Context) *persist.Store {
	var opts []persist.Option
	if loaded.Versions.Enabled {
		opts = append(opts, persist.WithVersioning(loaded.Versions.Keep))
	}
	if loaded.Recent.Enabled {
		file := loaded.Recent.File
		if file == "" {
			var err error
			if file, err = persist.DefaultRecentFile(); err != nil {
				logger.FromContext(ctx).V(1).Info("recent files disabled", "error", err.Error())
			}
		}
		if file != "" {
			opts = append(opts, persist.WithRecentFile(file))
		}
	}
	return persist.NewStore(opts...)
}

// newEditor builds an editor without a document.
func newEditor(ctx context.Context) (*core.Editor, error) {
	return core.New(
		core.WithLogger(*logger.FromContext(ctx)),
		core.WithMaxDepth(loaded.Parser.MaxDepth),
		core.WithStore(newStore(ctx)),
	)
}

// openDocument opens path in a new editor and records it as recently used.
func openDocument(ctx context.Context, path string) (*core.Editor, error) {
	ed, err := newEditor(ctx)
	if err != nil {
		return nil, err
	}
	if err := ed.OpenFile(path); err != nil {
		if se, ok := json5.AsSyntaxError(err); ok {
			return nil, &parseError{Path: path, Err: se}
		}
		return nil, err
	}
	if err := ed.Store().AddRecent(ctx, path); err != nil {
		logger.FromContext(ctx).Error(err, "recording recent file failed", logger.PathKey, path)
	}
	return ed, nil
}

// openForEdit opens path and, when its autosave sidecar is newer than the
// file, continues from the sidecar so staged edits accumulate.
func openForEdit(ctx context.Context, path string) (*core.Editor, error) {
	ed, err := openDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	recovered, err := ed.RecoverAutosave(ctx)
	if err != nil {
		return nil, err
	}
	if recovered {
		logger.FromContext(ctx).V(1).Info("continuing from autosave", logger.PathKey, path)
	}
	return ed, nil
}

// resolvePath turns a user location ("/a/0", "a[0]", "a.b") into a
// canonical path.
func resolvePath(expr string) (string, error) {
	path, err := navigator.ToPath(expr)
	if err != nil {
		return "", err
	}
	if path == "/" {
		return "", nil
	}
	return path, nil
}

// commitEdit writes an edited document. --dry-run prints the text instead;
// --stage (or autosave.enabled) writes the autosave sidecar and leaves the
// file alone; otherwise the file is saved.
func commitEdit(cmd *cobra.Command, ed *core.Editor, what string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprint(out, ed.Serialize())
		return nil
	}
	if !ed.Modified() {
		fmt.Fprintf(out, "%s: no changes\n", ed.Path())
		return nil
	}
	if stageEdit || loaded.Autosave.Enabled {
		if !ed.Autosave(ctx) {
			return fmt.Errorf("writing autosave for %s failed", ed.Path())
		}
		fmt.Fprintf(out, "%s: staged in %s\n", what, persist.AutosavePath(ed.Path()))
		return nil
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: saved %s\n", what, ed.Path())
	return nil
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&stageEdit, "stage", false, "write the change to the autosave sidecar instead of the file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the edited document instead of writing it")
}

// outputWidth is the --width flag, the config width or the terminal width.
func outputWidth(ctx context.Context) int {
	if w := settings.RunFromContext(ctx).Width; w > 0 {
		return w
	}
	return formatter.TerminalWidth()
}

func colorOff(ctx context.Context) bool {
	return settings.RunFromContext(ctx).NoColor
}

func writeString(w io.Writer, s string) {
	fmt.Fprint(w, s)
	if s != "" && s[len(s)-1] != '\n' {
		fmt.Fprintln(w)
	}
}
