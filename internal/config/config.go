// Package config loads kvedit's layered configuration: built-in defaults,
// then the YAML config file, then KVEDIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/kvedit/internal/formatter"
	"github.com/oakwood-commons/kvedit/internal/treemodel"
	"github.com/oakwood-commons/kvedit/pkg/persist"
	"github.com/oakwood-commons/kvedit/pkg/settings"
)

// FileName is the config file looked up in the config directory.
const FileName = "config.yaml"

// Config is the merged configuration.
type Config struct {
	Autosave AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`
	Versions VersionsConfig `mapstructure:"versions" yaml:"versions"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Parser   ParserConfig   `mapstructure:"parser" yaml:"parser"`
	Export   ExportConfig   `mapstructure:"export" yaml:"export"`
	Recent   RecentConfig   `mapstructure:"recent" yaml:"recent"`
}

// AutosaveConfig controls staging of edits in the autosave sidecar.
type AutosaveConfig struct {
	// Enabled makes edit commands write the sidecar instead of the file.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// VersionsConfig controls snapshots taken before each save.
type VersionsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Keep    int  `mapstructure:"keep" yaml:"keep"`
}

// DisplayConfig holds tree and table rendering defaults.
type DisplayConfig struct {
	ArrayStyle   string `mapstructure:"array_style" yaml:"array_style"`
	MaxStringLen int    `mapstructure:"max_string_len" yaml:"max_string_len"`
	ShowPaths    bool   `mapstructure:"show_paths" yaml:"show_paths"`
	NoValues     bool   `mapstructure:"no_values" yaml:"no_values"`
	NoColor      bool   `mapstructure:"no_color" yaml:"no_color"`
	Width        int    `mapstructure:"width" yaml:"width"`
}

// ParserConfig bounds document nesting.
type ParserConfig struct {
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

// ExportConfig holds defaults for "kvedit export".
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Indent int    `mapstructure:"indent" yaml:"indent"`
}

// RecentConfig controls the recent files list.
type RecentConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// File overrides the list location (default: recent.json in the config dir).
	File string `mapstructure:"file" yaml:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("autosave.enabled", false)
	v.SetDefault("versions.enabled", true)
	v.SetDefault("versions.keep", persist.DefaultKeep)
	v.SetDefault("display.array_style", "index")
	v.SetDefault("display.max_string_len", 0)
	v.SetDefault("display.show_paths", false)
	v.SetDefault("display.no_values", false)
	v.SetDefault("display.no_color", false)
	v.SetDefault("display.width", 0)
	v.SetDefault("parser.max_depth", treemodel.DefaultMaxDepth)
	v.SetDefault("export.format", formatter.ExportYAML)
	v.SetDefault("export.indent", 2)
	v.SetDefault("recent.enabled", true)
	v.SetDefault("recent.file", "")
}

// Loaded is a loaded configuration plus where it came from.
type Loaded struct {
	Config
	// File is the config file that was read, "" when none was found.
	File string
}

// Load reads the configuration. An explicit file must exist; without one,
// config.yaml in the user config directory is used when present.
func Load(file string) (*Loaded, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(settings.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := settings.ConfigDir()
		if err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", v.ConfigFileUsed(), err)
	}
	return &Loaded{Config: cfg, File: v.ConfigFileUsed()}, nil
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Validate rejects values no command could use.
func (c Config) Validate() error {
	var errs []error
	if c.Versions.Keep < 0 {
		errs = append(errs, fmt.Errorf("versions.keep must be non-negative, got %d", c.Versions.Keep))
	}
	if c.Parser.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("parser.max_depth must be non-negative, got %d", c.Parser.MaxDepth))
	}
	if c.Display.Width < 0 {
		errs = append(errs, fmt.Errorf("display.width must be non-negative, got %d", c.Display.Width))
	}
	if err := formatter.ValidateArrayStyle(c.Display.ArrayStyle); err != nil {
		errs = append(errs, fmt.Errorf("display.array_style: %w", err))
	}
	if err := formatter.ValidateExportFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	return errors.Join(errs...)
}

// YAML renders the configuration for "kvedit config view".
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}
