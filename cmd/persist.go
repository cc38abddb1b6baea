package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/internal/limiter"
	"github.com/oakwood-commons/kvedit/pkg/loader"
	"github.com/oakwood-commons/kvedit/pkg/persist"
)

const timeLayout = "2006-01-02 15:04:05"

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List, diff and restore version snapshots",
	Long: `Snapshots live in <file>.versions next to the document. A snapshot of the
previous content is taken on every save while versions are enabled.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var versionsListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List snapshots, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		ctx := cmd.Context()
		versions, err := newStore(ctx).ListVersions(ctx, args[0])
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: no versions\n", args[0])
			return nil
		}
		cfg := limitConfig()
		rows := make([][2]string, 0, len(versions))
		for _, v := range limiter.Apply(cfg, versions) {
			rows = append(rows, [2]string{v.ID, fmt.Sprintf("%s  %d bytes", v.Timestamp.Local().Format(timeLayout), v.Size)})
		}
		out := formatter.RenderRows([2]string{"ID", "SAVED"}, rows, colorOff(ctx), 0, outputWidth(ctx))
		writeString(cmd.OutOrStdout(), out)
		printSummary(cmd, cfg, len(versions))
		return nil
	},
}

var versionsRestoreCmd = &cobra.Command{
	Use:   "restore <file> <id>",
	Short: "Replace a document with a snapshot",
	Long: `Replace a document with a snapshot. The current content is itself
snapshotted by the save, so a restore can be undone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := openDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := ed.RestoreVersion(cmd.Context(), args[1]); err != nil {
			return err
		}
		return commitEdit(cmd, ed, "restore "+args[1])
	},
}

var versionsDiffCmd = &cobra.Command{
	Use:   "diff <file> <id>",
	Short: "Show the changes since a snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := loader.LoadFile(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		diff, err := newStore(ctx).DiffVersion(ctx, args[0], args[1], f.Content)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: identical to %s\n", args[0], args[1])
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	},
}

var versionsSnapshotCmd = &cobra.Command{
	Use:   "snapshot <file>",
	Short: "Snapshot the current content of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ed, err := openDocument(ctx, args[0])
		if err != nil {
			return err
		}
		data, err := loader.Encode(ed.Serialize(), ed.Encoding())
		if err != nil {
			return err
		}
		v, err := ed.Store().Snapshot(ctx, ed.Path(), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: created %s\n", args[0], v.ID)
		return nil
	},
}

var autosaveCmd = &cobra.Command{
	Use:   "autosave",
	Short: "Inspect, recover or discard the autosave sidecar",
	Long: `Staged edits (--stage, or every edit while autosave is enabled) are kept in
<file>.tmp until recovered into the file or discarded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var autosaveStatusCmd = &cobra.Command{
	Use:   "status <file>",
	Short: "Report whether a document has unsaved staged changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]
		a, ok := newStore(ctx).LoadAutosave(ctx, path)
		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintf(out, "%s: no autosave\n", path)
			return nil
		}
		state := "older than the file, recover would be skipped"
		if persist.AutosaveNewer(path, a) {
			state = "newer than the file"
		}
		fmt.Fprintf(out, "%s: autosave from %s (%s)\n", persist.AutosavePath(path), a.Timestamp.Local().Format(timeLayout), state)
		if f, err := loader.LoadFile(path); err == nil {
			diff, err := persist.Diff(f.Content, a.Content, path, persist.AutosavePath(path))
			if err != nil {
				return err
			}
			fmt.Fprint(out, diff)
		}
		return nil
	},
}

var autosaveRecoverCmd = &cobra.Command{
	Use:   "recover <file>",
	Short: "Save staged changes into the document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ed, err := openDocument(ctx, args[0])
		if err != nil {
			return err
		}
		recovered, err := ed.RecoverAutosave(ctx)
		if err != nil {
			return err
		}
		if !recovered {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: nothing to recover\n", args[0])
			return nil
		}
		if dryRun {
			fmt.Fprint(cmd.OutOrStdout(), ed.Serialize())
			return nil
		}
		if err := ed.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: recovered autosave\n", args[0])
		return nil
	},
}

var autosaveDiscardCmd = &cobra.Command{
	Use:   "discard <file>",
	Short: "Delete the autosave sidecar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := newStore(ctx).DiscardAutosave(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: autosave discarded\n", args[0])
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validateLimitingFlags(); err != nil {
			return err
		}
		ctx := cmd.Context()
		files, err := newStore(ctx).RecentFiles(ctx)
		if err != nil {
			return err
		}
		printLimited(cmd, files)
		return nil
	},
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget recently opened files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return newStore(ctx).ClearRecent(ctx)
	},
}

func init() { //nolint:gochecknoinits
	addLimitFlags(versionsListCmd)
	addEditFlags(versionsRestoreCmd)
	versionsCmd.AddCommand(versionsListCmd, versionsRestoreCmd, versionsDiffCmd, versionsSnapshotCmd)

	autosaveRecoverCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the recovered document instead of saving it")
	autosaveCmd.AddCommand(autosaveStatusCmd, autosaveRecoverCmd, autosaveDiscardCmd)

	addLimitFlags(recentCmd)
	recentCmd.AddCommand(recentClearCmd)

	rootCmd.AddCommand(versionsCmd, autosaveCmd, recentCmd)
}
