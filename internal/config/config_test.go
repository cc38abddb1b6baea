package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points the user config directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, Default(), cfg.Config)
	assert.True(t, cfg.Versions.Enabled)
	assert.Equal(t, 20, cfg.Versions.Keep)
	assert.Equal(t, 512, cfg.Parser.MaxDepth)
	assert.Equal(t, "index", cfg.Display.ArrayStyle)
	assert.Equal(t, "yaml", cfg.Export.Format)
	assert.False(t, cfg.Autosave.Enabled)
}

func TestLoadUserConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "kvedit", FileName)
	writeConfig(t, path, "versions:\n  keep: 3\ndisplay:\n  show_paths: true\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 3, cfg.Versions.Keep)
	assert.True(t, cfg.Display.ShowPaths)
	assert.True(t, cfg.Versions.Enabled, "unset keys keep their defaults")
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeConfig(t, path, "export:\n  format: toml\nautosave:\n  enabled: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "toml", cfg.Export.Format)
	assert.True(t, cfg.Autosave.Enabled)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, filepath.Join(dir, "kvedit", FileName), "versions:\n  keep: 3\n")
	t.Setenv("KVEDIT_VERSIONS_KEEP", "7")
	t.Setenv("KVEDIT_DISPLAY_ARRAY_STYLE", "bullet")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Versions.Keep)
	assert.Equal(t, "bullet", cfg.Display.ArrayStyle)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "negative keep", body: "versions:\n  keep: -1\n", want: "versions.keep"},
		{name: "array style", body: "display:\n  array_style: dots\n", want: "display.array_style"},
		{name: "export format", body: "export:\n  format: xml\n", want: "export.format"},
		{name: "negative depth", body: "parser:\n  max_depth: -2\n", want: "parser.max_depth"},
		{name: "not yaml", body: "versions: [\n", want: "reading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), FileName)
			writeConfig(t, path, tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigYAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "array_style: index")
	assert.Contains(t, out, "max_depth: 512")

	var back Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &back))
	assert.Equal(t, Default(), back)
}
