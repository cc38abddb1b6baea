package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvedit/internal/config"
	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/internal/limiter"
	"github.com/oakwood-commons/kvedit/pkg/logger"
	"github.com/oakwood-commons/kvedit/pkg/settings"
)

var (
	configFile string
	debug      bool
	noColor    bool
	width      int

	limitRecords  int
	offsetRecords int
	tailRecords   int

	versionOutput string

	// loaded is the merged configuration of the current run, set by the
	// root PersistentPreRunE.
	loaded *config.Loaded
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "kvedit - JSON and JSON5 editor core",
	Long: `kvedit opens JSON and JSON5 documents without losing comments or layout,
shows them as an addressable tree, searches and edits values by path, and
saves them back with autosave and version snapshots.

Paths use "/" separated segments, with "~0" for "~" and "~1" for "/" inside
keys: "/servers/0/name". Dotted forms such as "servers[0].name" are accepted
wherever a path is.`,
	Example: `  kvedit tree config.json5 --expand-all
  kvedit get config.json5 servers[0].name
  kvedit set config.json5 /servers/0/port 8443
  kvedit search config.json5 --cel 'node.kind == "number" && value > 1024'
  kvedit export config.json5 -f yaml`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		run := settings.NewCliParams()
		run.ConfigFile = configFile
		if debug {
			run.MinLogLevel = logger.DebugLevel
		}

		lgr := logger.Get(run.MinLogLevel)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.CommandPath())

		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		loaded = cfg
		lgr.V(1).Info("loaded config", "file", cfg.File)

		run.NoColor = noColor || cfg.Display.NoColor || !formatter.IsTerminal()
		run.Width = cfg.Display.Width
		if width > 0 {
			run.Width = width
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logger.WithLogger(ctx, lgr)
		ctx = settings.IntoContext(ctx, run)
		cmd.SetContext(ctx)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print kvedit version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := settings.VersionInformation
		out := cmd.OutOrStdout()
		switch versionOutput {
		case "", "text":
			fmt.Fprintln(out, info.String())
		case "json":
			b, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		case "yaml":
			b, err := yaml.Marshal(info)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(b))
		default:
			return fmt.Errorf("invalid output %q: valid values are text, json, yaml", versionOutput)
		}
		return nil
	},
}

// configCmd groups configuration-related subcommands similar to gh-style CLIs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kvedit configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := loaded.YAML()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if loaded.File != "" {
			fmt.Fprintf(w, "# %s\n", loaded.File)
		}
		fmt.Fprint(w, out)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := settings.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.FileName))
		return nil
	},
}

// addLimitFlags registers --limit, --offset and --tail on a list command.
func addLimitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&limitRecords, "limit", 0, "Limit total number of records displayed")
	cmd.Flags().IntVar(&offsetRecords, "offset", 0, "Skip the first N records")
	cmd.Flags().IntVar(&tailRecords, "tail", 0, "Show the last N records (mutually exclusive with --limit; ignores --offset)")
}

func limitConfig() limiter.Config {
	return limiter.Config{
		Limit:  limitRecords,
		Offset: offsetRecords,
		Tail:   tailRecords,
	}
}

// validateLimitingFlags checks that limiting flags are not in conflict and returns an error if they are.
func validateLimitingFlags() error {
	if err := limitConfig().Validate(); err != nil {
		return fmt.Errorf("record limiting: %w", err)
	}
	return nil
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/kvedit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().IntVar(&width, "width", 0, "output width in columns (0 = terminal width)")

	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text", "output format: text|json|yaml")
	rootCmd.Version = settings.VersionInformation.BuildVersion
	rootCmd.SetVersionTemplate(settings.VersionInformation.String() + "\n")

	configCmd.AddCommand(configViewCmd, configPathCmd)
	rootCmd.AddCommand(versionCmd, configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ErrorMessage renders err the way the CLI reports failures.
func ErrorMessage(err error) string {
	return "Error: " + strings.TrimSpace(userMessage(err))
}

// Root returns the root command for documentation tooling.
func Root() *cobra.Command {
	return rootCmd
}
