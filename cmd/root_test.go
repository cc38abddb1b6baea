package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvedit/pkg/persist"
)

const sampleDoc = `{
  // service settings
  name: "api",
  replicas: 3,
  servers: [
    {host: "a.example", port: 8080},
    {host: "b.example", port: 8443},
  ],
}
`

// resetFlags restores every flag of every command to its default so runs do
// not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return out
}

// writeDoc writes content to name in a fresh directory and returns its path.
// The file is dated an hour back so sidecars written by the test are newer.
func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestTreeCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "tree", path, "--no-color")
	assert.True(t, strings.HasPrefix(out, "root\n"), out)
	assert.Contains(t, out, `name: "api"`)
	assert.Contains(t, out, "servers: [2]")
	assert.NotContains(t, out, "host")

	out = mustRun(t, "tree", path, "--no-color", "--expand", "servers[0]")
	assert.Contains(t, out, `host: "a.example"`)
	assert.NotContains(t, out, "b.example")

	out = mustRun(t, "tree", path, "--no-color", "--expand-all", "--show-paths")
	assert.Contains(t, out, "(/servers/1/port)")

	out = mustRun(t, "tree", path, "--no-color", "--search", "HOST")
	assert.Contains(t, out, `host: "a.example"`)
	assert.Contains(t, out, `host: "b.example"`)
	assert.NotContains(t, out, "replicas")
	assert.NotContains(t, out, "port")

	// values are not searched by text
	out = mustRun(t, "tree", path, "--no-color", "--search", "b.example")
	assert.Equal(t, "root\n", out)

	out = mustRun(t, "tree", path, "--no-color", "--cel", `node.key == "port" && value > 8080`)
	assert.Contains(t, out, "port: 8443")
	assert.NotContains(t, out, "8080")
}

func TestTreeCommandErrors(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	_, _, err := runCLI(t, "tree", path, "--expand", "/missing")
	require.Error(t, err)

	_, _, err = runCLI(t, "tree", path, "--array-style", "dots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array")

	_, _, err = runCLI(t, "tree", path, "--search", "x", "--cel", "true")
	require.Error(t, err)
}

func TestPathsCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "paths", path)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "/", lines[0])
	assert.Contains(t, lines, "/servers/1/port")
	assert.Len(t, lines, 10)

	out, stderr, err := runCLI(t, "paths", path, "--limit", "2", "--offset", "1")
	require.NoError(t, err)
	assert.Equal(t, "/name\n/replicas\n", out)
	assert.Contains(t, stderr, "of 10")

	_, _, err = runCLI(t, "paths", path, "--limit", "2", "--tail", "1")
	require.Error(t, err)
}

func TestGetCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "pointer", args: []string{"/servers/0/port"}, want: "8080\n"},
		{name: "dotted", args: []string{"servers[1].host"}, want: "\"b.example\"\n"},
		{name: "raw", args: []string{"name", "-o", "raw"}, want: "api\n"},
		{name: "source text", args: []string{"/servers/0"}, want: "{host: \"a.example\", port: 8080}\n"},
		{name: "json", args: []string{"/servers/0", "-o", "json"}, want: "{\n  \"host\": \"a.example\",\n  \"port\": 8080\n}\n"},
		{name: "yaml", args: []string{"/servers/1", "-o", "yaml"}, want: "host: b.example\nport: 8443\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustRun(t, append([]string{"get", path}, tt.args...)...)
			assert.Equal(t, tt.want, out)
		})
	}

	_, _, err := runCLI(t, "get", path, "/servers/5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	plain := writeDoc(t, "plain.json", "{\"a\": 1}\n")
	assert.Equal(t, "{\"a\": 1}\n", mustRun(t, "get", plain, "/"))
	withEmpty := writeDoc(t, "empty-key.json", "{\"\": 2, \"a\": 1}\n")
	assert.Equal(t, "2\n", mustRun(t, "get", withEmpty, "/"))
}

func TestSetCommandSavesAndKeepsComments(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "set", path, "/servers/1/port", "9443")
	assert.Contains(t, out, "saved")

	got := readFile(t, path)
	assert.Equal(t, strings.Replace(sampleDoc, "8443", "9443", 1), got)

	versions, err := os.ReadDir(persist.VersionsDir(path))
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	mustRun(t, "set", path, "servers[2]", "{host: 'c.example'}")
	assert.Contains(t, readFile(t, path), "c.example")

	mustRun(t, "set", path, "/name", "--string", "two words")
	assert.Contains(t, readFile(t, path), `name: "two words"`)
	assert.Contains(t, readFile(t, path), "// service settings")
}

func TestSetCommandErrors(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	_, _, err := runCLI(t, "set", path, "/missing/key", "1")
	require.Error(t, err)

	_, _, err = runCLI(t, "set", path, "/servers/x", "1")
	require.Error(t, err)

	_, _, err = runCLI(t, "set", path, "/name", "{unclosed")
	require.Error(t, err)

	assert.Equal(t, sampleDoc, readFile(t, path))
}

func TestSetDryRun(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "set", path, "/replicas", "5", "--dry-run")
	assert.Contains(t, out, "replicas: 5,")
	assert.Equal(t, sampleDoc, readFile(t, path))
}

func TestStagedEditsAccumulate(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "set", path, "/replicas", "5", "--stage")
	assert.Contains(t, out, "staged")
	mustRun(t, "delete", path, "/servers/0", "--stage")
	assert.Equal(t, sampleDoc, readFile(t, path))

	sidecar := readFile(t, persist.AutosavePath(path))
	assert.Contains(t, sidecar, "replicas: 5")
	assert.NotContains(t, sidecar, "a.example")

	out = mustRun(t, "autosave", "status", path)
	assert.Contains(t, out, "newer than the file")

	mustRun(t, "autosave", "recover", path)
	got := readFile(t, path)
	assert.Contains(t, got, "replicas: 5")
	assert.NotContains(t, got, "a.example")
	_, err := os.Stat(persist.AutosavePath(path))
	assert.True(t, os.IsNotExist(err), "recover removes the sidecar")

	out = mustRun(t, "autosave", "recover", path)
	assert.Contains(t, out, "nothing to recover")
}

func TestAutosaveDiscard(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)
	mustRun(t, "set", path, "/replicas", "7", "--stage")

	mustRun(t, "autosave", "discard", path)
	out := mustRun(t, "autosave", "status", path)
	assert.Contains(t, out, "no autosave")
}

func TestDeleteCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	mustRun(t, "delete", path, "/replicas")
	got := readFile(t, path)
	assert.NotContains(t, got, "replicas")
	assert.Contains(t, got, "// service settings")

	_, _, err := runCLI(t, "delete", path, "/replicas")
	require.Error(t, err)

	_, _, err = runCLI(t, "delete", path, "/")
	require.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "search", path, "host", "--no-color")
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/servers/0/host")
	assert.Contains(t, out, "/servers/1/host")
	assert.Less(t, strings.Index(out, "/servers/0/host"), strings.Index(out, "/servers/1/host"))

	out = mustRun(t, "search", path, "--cel", `node.kind == "number" && value >= 8443`)
	assert.Contains(t, out, "/servers/1/port")
	assert.NotContains(t, out, "/servers/0/port")

	out, stderr, err := runCLI(t, "search", path, "host", "--limit", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "/servers/1/host")
	assert.Contains(t, stderr, "of 2")

	out = mustRun(t, "search", path, "servers/1/port", "--tree")
	assert.Contains(t, out, "port: 8443")
	assert.NotContains(t, out, "8080")
	assert.NotContains(t, out, "name")

	_, _, err = runCLI(t, "search", path, "a.example")
	require.Error(t, err, "values are only searched with --cel")

	_, _, err = runCLI(t, "search", path, "nothing-like-this")
	require.Error(t, err)

	_, _, err = runCLI(t, "search", path, "--cel", `node.key`)
	require.Error(t, err)
}

func TestQueryCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "query", path, "_.servers.map(s, s.port)")
	assert.Equal(t, "[8080, 8443]\n", out)

	out = mustRun(t, "query", path, "size(_.servers)")
	assert.Equal(t, "2\n", out)

	out = mustRun(t, "query", path, "_.servers[0]", "-o", "json")
	assert.Equal(t, "{\n  \"host\": \"a.example\",\n  \"port\": 8080\n}\n", out)

	out = mustRun(t, "query", "--functions", "--limit", "5")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)

	_, _, err := runCLI(t, "query", path, "_.nope.deeper")
	require.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "export", path)
	assert.Contains(t, out, "# service settings")
	assert.Contains(t, out, "name: api")
	assert.Less(t, strings.Index(out, "name:"), strings.Index(out, "servers:"))

	out = mustRun(t, "export", path, "-f", "json")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "api", decoded["name"])

	out = mustRun(t, "export", path, "-f", "toml")
	assert.Contains(t, out, "replicas = 3")

	out = mustRun(t, "export", path, "-f", "mermaid", "--mermaid-direction", "LR")
	assert.Contains(t, out, "graph LR")

	target := filepath.Join(t.TempDir(), "app.yaml")
	mustRun(t, "export", path, "-O", target)
	assert.Contains(t, readFile(t, target), "replicas: 3")

	_, _, err := runCLI(t, "export", path, "-f", "xml")
	require.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	good := writeDoc(t, "good.json", `{"a": [1, 2]}`)
	bad := writeDoc(t, "bad.json5", "{\n  a: 1,\n  b: ,\n}\n")

	out := mustRun(t, "check", good)
	assert.Contains(t, out, "good.json: ok (json, UTF-8, 4 nodes)")

	out, stderr, err := runCLI(t, "check", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, stderr, bad+":3:")
	assert.Contains(t, err.Error(), "1 of 2")

	_, _, err = runCLI(t, "tree", bad)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(ErrorMessage(err), "Error: "+bad+":3:"), ErrorMessage(err))
}

func TestImportCommand(t *testing.T) {
	src := writeDoc(t, "in.yaml", "name: api\nports:\n  - 80\n  - 443\n")

	out := mustRun(t, "import", src)
	assert.Equal(t, "{\n  \"name\": \"api\",\n  \"ports\": [\n    80,\n    443\n  ]\n}\n", out)

	target := filepath.Join(t.TempDir(), "out.json")
	out = mustRun(t, "import", src, "-O", target)
	assert.Contains(t, out, "imported")
	assert.Contains(t, readFile(t, target), `"ports"`)

	toml := writeDoc(t, "in.toml", "title = \"x\"\n[owner]\nname = \"me\"\n")
	out = mustRun(t, "import", toml, "--from", "toml")
	assert.Contains(t, out, `"owner": {`)

	_, _, err := runCLI(t, "import", src, "--from", "xml")
	require.Error(t, err)
}

func TestVersionsCommands(t *testing.T) {
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "versions", "list", path)
	assert.Contains(t, out, "no versions")

	out = mustRun(t, "versions", "snapshot", path)
	assert.Contains(t, out, "created")
	mustRun(t, "set", path, "/replicas", "4")

	versions, err := persist.NewStore().ListVersions(t.Context(), path)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	oldest := versions[len(versions)-1].ID

	out = mustRun(t, "versions", "list", path, "--no-color")
	assert.Contains(t, out, oldest)

	out = mustRun(t, "versions", "diff", path, oldest)
	assert.Contains(t, out, "-  replicas: 3,")
	assert.Contains(t, out, "+  replicas: 4,")

	mustRun(t, "versions", "restore", path, oldest)
	assert.Equal(t, sampleDoc, readFile(t, path))

	_, _, err = runCLI(t, "versions", "restore", path, "../escape.json")
	require.Error(t, err)
}

func TestRecentCommand(t *testing.T) {
	cfg := writeDoc(t, "config.yaml", "recent:\n  file: "+filepath.Join(t.TempDir(), "recent.json")+"\n")
	a := writeDoc(t, "a.json", `{}`)
	b := writeDoc(t, "b.json", `[]`)

	mustRun(t, "check", a, "--config-file", cfg)
	mustRun(t, "check", b, "--config-file", cfg)

	out := mustRun(t, "recent", "--config-file", cfg)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, b, lines[0])
	assert.Equal(t, a, lines[1])

	mustRun(t, "recent", "clear", "--config-file", cfg)
	out = mustRun(t, "recent", "--config-file", cfg)
	assert.Empty(t, out)
}

func TestAutosaveConfigStagesEdits(t *testing.T) {
	cfg := writeDoc(t, "config.yaml", "autosave:\n  enabled: true\nversions:\n  enabled: false\n")
	path := writeDoc(t, "app.json5", sampleDoc)

	out := mustRun(t, "set", path, "/replicas", "9", "--config-file", cfg)
	assert.Contains(t, out, "staged")
	assert.Equal(t, sampleDoc, readFile(t, path))
	_, err := os.Stat(persist.VersionsDir(path))
	assert.True(t, os.IsNotExist(err))
}

func TestConfigView(t *testing.T) {
	cfg := writeDoc(t, "config.yaml", "display:\n  array_style: bullet\n")

	out := mustRun(t, "config", "view", "--config-file", cfg)
	assert.Contains(t, out, "# "+cfg)
	assert.Contains(t, out, "array_style: bullet")

	_, _, err := runCLI(t, "config", "view", "--config-file", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out := mustRun(t, "version")
	assert.True(t, strings.HasPrefix(out, "kvedit "), out)

	out = mustRun(t, "version", "-o", "json")
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "commit")

	_, _, err := runCLI(t, "version", "-o", "xml")
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	err := persist.Wrap(persist.CodeNotFound, os.ErrNotExist, "File or directory not found")
	assert.Equal(t, "Error: File or directory not found: file does not exist", ErrorMessage(err))

	_, _, runErr := runCLI(t, "tree", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, runErr)
	assert.True(t, strings.HasPrefix(ErrorMessage(runErr), "Error: opening "), ErrorMessage(runErr))
}
