package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveTheme_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sub", "config.yaml")

	err := SaveTheme(configPath, ThemeConfig{Preset: "dracula", Colors: map[string]any{"keyword": "#FF0000"}})
	require.NoError(t, err)

	cfg, _, err := Load(NewViper(), configPath)
	require.NoError(t, err)
	require.Equal(t, "dracula", cfg.Theme.Preset)
	require.Equal(t, "#FF0000", cfg.Theme.FlattenedColors()["keyword"])
}

func TestSaveTheme_PreservesOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# my settings
tab_width: 2 # narrow
theme:
  preset: nord
line_numbers: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(initial), 0o600))

	require.NoError(t, SaveTheme(configPath, ThemeConfig{Preset: "high-contrast"}))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "# my settings")
	require.Contains(t, content, "# narrow")
	require.Contains(t, content, "preset: high-contrast")
	require.NotContains(t, content, "nord")

	cfg, _, err := Load(NewViper(), configPath)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.TabWidth)
	require.False(t, cfg.LineNumbers)
}

func TestSaveFlag(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("tab_width: 8\n"), 0o600))

	require.NoError(t, SaveFlag(configPath, "row-cache", false))
	require.NoError(t, SaveFlag(configPath, "checkpoint-persistence", true))
	require.NoError(t, SaveFlag(configPath, "row-cache", true))

	cfg, _, err := Load(NewViper(), configPath)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.TabWidth)
	require.True(t, cfg.Flags["row-cache"])
	require.True(t, cfg.Flags["checkpoint-persistence"])
}

func TestSaveFlag_ReplacesScalarSection(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("flags: oops\n"), 0o600))

	require.NoError(t, SaveFlag(configPath, "row-cache", true))

	cfg, _, err := Load(NewViper(), configPath)
	require.NoError(t, err)
	require.True(t, cfg.Flags["row-cache"])
}

func TestSave_RejectsNonMappingDocument(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("- a\n- b\n"), 0o600))

	require.Error(t, SaveTheme(configPath, ThemeConfig{Preset: "nord"}))
}

func TestSave_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveTheme(configPath, ThemeConfig{Preset: "nord"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}
