package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rowlight/internal/highlight"
	"github.com/zjrosen/rowlight/internal/log"
)

// testEnv is a temp directory with a config file pointing all state inside it.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("line_numbers: false\ncheckpoints:\n  db_path: %s\n%s",
		filepath.Join(dir, "state", "checkpoints.db"), extra)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return testEnv{dir: dir, config: path}
}

func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func repeatRows(row string, n int) string {
	return strings.TrimSuffix(strings.Repeat(row+"\n", n), "\n")
}

func TestHighlight_NoColor(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.file(t, "main.c", "int x = 10; // c\nreturn x;")

	out, err := env.run(t, "highlight", "--no-color", path)
	require.NoError(t, err)
	require.Equal(t, "int x = 10; // c\nreturn x;\n", out)
}

func TestHighlight_RangeAndNumbers(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.file(t, "rows.go", repeatRows("x := 1", 12))

	out, err := env.run(t, "highlight", "--no-color", "--numbers", "--from", "9", "--to", "10", path)
	require.NoError(t, err)
	require.Equal(t, " 9 x := 1\n10 x := 1\n", out)

	_, err = env.run(t, "highlight", "--from", "20", "--to", "10", path)
	require.Error(t, err)
	_, err = env.run(t, "highlight", "--from", "0", path)
	require.ErrorContains(t, err, "--from")
}

func TestHighlight_Colored(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	env := newTestEnv(t, "theme:\n  preset: dracula\n")
	path := env.file(t, "main.kt", "val s = \"x\"")

	out, err := env.run(t, "highlight", path)
	require.NoError(t, err)
	require.Contains(t, out, "\x1b[")
	require.Equal(t, "val s = \"x\"\n", ansi.Strip(out))
}

func TestHighlight_MissingFile(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, "highlight", filepath.Join(env.dir, "nope.c"))
	require.Error(t, err)
}

func TestSpans_YAML(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.file(t, "a.c", "int x;\n\n/* c */")

	out, err := env.run(t, "spans", "--text", path)
	require.NoError(t, err)

	var got spansDoc
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Equal(t, "c", got.Language)
	require.Len(t, got.Rows, 3)
	require.Equal(t, 1, got.Rows[0].Row)
	require.Equal(t, "int x;", got.Rows[0].Text)
	require.Equal(t, []highlight.Span{
		{Style: highlight.StyleKeyword, Offset: 0, Length: 3},
		{Style: highlight.StyleStatementEnd, Offset: 5, Length: 1},
	}, got.Rows[0].Spans)
	require.Empty(t, got.Rows[1].Spans)
	require.Equal(t, highlight.StyleBlockComment, got.Rows[2].Spans[0].Style)
}

func TestSpans_LangOverride(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.file(t, "notes.txt", "fun main()")

	out, err := env.run(t, "spans", path)
	require.NoError(t, err)
	require.Contains(t, out, "spans: []")

	out, err = env.run(t, "spans", "--lang", "kotlin", path)
	require.NoError(t, err)
	require.Contains(t, out, "style: keyword")
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.run(t, "languages")
	require.NoError(t, err)
	for _, want := range []string{"NAME", "kotlin", "markdown", "fence", "golang"} {
		require.Contains(t, out, want)
	}
}

func TestLanguages_UserGrammarDir(t *testing.T) {
	grammars := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(grammars, "ini.yaml"),
		[]byte("name: ini\nextensions: [ini]\nline_comment: ';'\n"), 0o600))
	env := newTestEnv(t, "grammars_dir: "+grammars+"\n")

	out, err := env.run(t, "languages")
	require.NoError(t, err)
	require.Contains(t, out, "ini")
}

// TestDebugLog_LevelFromConfigAndEnv verifies that log_level filters the
// --debug log and that ROWLIGHT_LOG_LEVEL overrides it.
func TestDebugLog_LevelFromConfigAndEnv(t *testing.T) {
	t.Cleanup(func() { log.InitWriter(io.Discard, log.LevelError) })
	env := newTestEnv(t, "log_level: warn\n")
	path := env.file(t, "main.c", "int x;")
	logPath := filepath.Join(env.dir, "debug.log")
	t.Setenv("ROWLIGHT_LOG", logPath)

	_, err := env.run(t, "--debug", "highlight", "--no-color", path)
	require.NoError(t, err)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "[INFO]")
	require.NotContains(t, string(data), "[DEBUG]")

	t.Setenv("ROWLIGHT_LOG_LEVEL", "info")
	_, err = env.run(t, "--debug", "highlight", "--no-color", path)
	require.NoError(t, err)
	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] [config] rowlight starting")
	require.NotContains(t, string(data), "[DEBUG]")

	t.Setenv("ROWLIGHT_LOG_LEVEL", "loud")
	_, err = env.run(t, "--debug", "languages")
	require.ErrorContains(t, err, "unknown log level")
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "tab_width: 0\n")
	_, err := env.run(t, "languages")
	require.ErrorContains(t, err, "tab_width")
}

func TestConfig_ThemeAndFlag(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.run(t, "config", "theme", "nord")
	require.NoError(t, err)
	_, err = env.run(t, "config", "theme", "solarized")
	require.Error(t, err)

	_, err = env.run(t, "config", "flag", "row-cache", "off")
	require.NoError(t, err)
	_, err = env.run(t, "config", "flag", "nope", "on")
	require.ErrorContains(t, err, "unknown flag")
	_, err = env.run(t, "config", "flag", "row-cache", "maybe")
	require.Error(t, err)

	out, err := env.run(t, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "preset: nord")
	require.Contains(t, out, "row-cache: false")
	require.Contains(t, out, "fence-delegation: true")
}

func TestConfig_InitRefusesOverwrite(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, "config", "init")
	require.ErrorContains(t, err, "already exists")

	out, err := env.run(t, "config", "init", "--force")
	require.NoError(t, err)
	require.Contains(t, out, env.config)
}

func TestCheckpointPersistence(t *testing.T) {
	env := newTestEnv(t, "flags:\n  checkpoint-persistence: true\n")
	path := env.file(t, "big.c", repeatRows("int x;", 100))

	_, err := env.run(t, "highlight", "--no-color", path)
	require.NoError(t, err)

	out, err := env.run(t, "checkpoints", "show", path)
	require.NoError(t, err)
	require.Contains(t, out, "[0 16 32 48 64 80 96]")

	require.NoError(t, os.WriteFile(path, []byte("int y;"), 0o600))
	_, err = env.run(t, "checkpoints", "show", path)
	require.Error(t, err, "content changed")

	out, err = env.run(t, "checkpoints", "prune", path)
	require.NoError(t, err)
	require.Contains(t, out, "pruned")

	out, err = env.run(t, "checkpoints", "prune", "--older-than", "1h")
	require.NoError(t, err)
	require.Contains(t, out, "pruned 0 entries")
}

func TestCheckpointPersistence_OffByDefault(t *testing.T) {
	env := newTestEnv(t, "")
	path := env.file(t, "big.c", repeatRows("int x;", 40))

	_, err := env.run(t, "highlight", "--no-color", path)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(env.dir, "state", "checkpoints.db"))
	require.True(t, os.IsNotExist(err))
}
