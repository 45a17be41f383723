// Package config provides configuration types, defaults and loading for rowlight.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/rowlight/internal/flags"
	"github.com/zjrosen/rowlight/internal/log"
	"github.com/zjrosen/rowlight/internal/tracing"
)

// Presets are the built-in theme names.
var Presets = []string{"default", "dracula", "nord", "high-contrast"}

// Config holds all configuration options for rowlight.
type Config struct {
	Theme       ThemeConfig      `mapstructure:"theme" yaml:"theme"`
	TabWidth    int              `mapstructure:"tab_width" yaml:"tab_width"`
	LineNumbers bool             `mapstructure:"line_numbers" yaml:"line_numbers"`
	GrammarsDir string           `mapstructure:"grammars_dir" yaml:"grammars_dir,omitempty"` // extra *.yaml grammars, override built-ins by name
	LogLevel    string           `mapstructure:"log_level" yaml:"log_level"`                  // minimum level written to the --debug log
	Cache       CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Checkpoints CheckpointConfig `mapstructure:"checkpoints" yaml:"checkpoints"`
	Tracing     tracing.Config   `mapstructure:"tracing" yaml:"tracing"`
	Flags       map[string]bool  `mapstructure:"flags" yaml:"flags,omitempty"`
}

// ThemeConfig selects a preset and overrides individual style colors.
type ThemeConfig struct {
	// Preset is one of Presets. Empty means "default".
	Preset string `mapstructure:"preset" yaml:"preset,omitempty"`

	// Colors overrides the foreground of a style, keyed by style name.
	// Nested keys are flattened with dots, so both of these work:
	//   colors:
	//     keyword: "#FF0000"
	//     gutter:
	//       current: "#FFFFFF"
	Colors map[string]any `mapstructure:"colors" yaml:"colors,omitempty"`
}

// FlattenedColors returns Colors with nested maps flattened to dot-notation keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// CacheConfig sizes the row cache shared by every open document.
type CacheConfig struct {
	Expiration      time.Duration `mapstructure:"expiration" yaml:"expiration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// CheckpointConfig controls checkpoint spacing and persistence.
type CheckpointConfig struct {
	// Interval is the minimum number of rows between recorded checkpoints.
	Interval int `mapstructure:"interval" yaml:"interval"`

	// DBPath is the SQLite file used when the checkpoint-persistence flag is on.
	// Default: ~/.config/rowlight/checkpoints.db
	DBPath string `mapstructure:"db_path" yaml:"db_path,omitempty"`

	// MaxAge drops stored checkpoints not refreshed within this long. Zero keeps them forever.
	MaxAge time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

// DefaultConfigDir returns ~/.config/rowlight, or "" without a home directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rowlight")
}

// DefaultCheckpointDBPath returns the default checkpoint database location.
func DefaultCheckpointDBPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "checkpoints.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		Theme:       ThemeConfig{Preset: "default"},
		TabWidth:    4,
		LineNumbers: true,
		LogLevel:    "debug",
		Cache: CacheConfig{
			Expiration:      10 * time.Minute,
			CleanupInterval: 15 * time.Minute,
		},
		Checkpoints: CheckpointConfig{
			Interval: 16,
			DBPath:   DefaultCheckpointDBPath(),
			MaxAge:   30 * 24 * time.Hour,
		},
		Tracing: tr,
		Flags:   flags.Defaults(),
	}
}

// SetDefaults registers Defaults on v so unset keys decode to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("theme::preset", d.Theme.Preset)
	v.SetDefault("tab_width", d.TabWidth)
	v.SetDefault("line_numbers", d.LineNumbers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("cache::expiration", d.Cache.Expiration)
	v.SetDefault("cache::cleanup_interval", d.Cache.CleanupInterval)
	v.SetDefault("checkpoints::interval", d.Checkpoints.Interval)
	v.SetDefault("checkpoints::db_path", d.Checkpoints.DBPath)
	v.SetDefault("checkpoints::max_age", d.Checkpoints.MaxAge)
	v.SetDefault("tracing::enabled", d.Tracing.Enabled)
	v.SetDefault("tracing::exporter", d.Tracing.Exporter)
	v.SetDefault("tracing::file_path", d.Tracing.FilePath)
	v.SetDefault("tracing::otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing::service_name", d.Tracing.ServiceName)
}

// NewViper returns a viper instance using "::" as key delimiter so dotted
// color names under theme.colors stay single keys.
func NewViper() *viper.Viper {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	SetDefaults(v)
	return v
}

// Load reads configPath, or the first config found in .rowlight/config.yaml
// and DefaultConfigDir when configPath is empty. A missing config yields
// Defaults. It returns the file used, which is empty when none was read.
func Load(v *viper.Viper, configPath string) (Config, string, error) {
	switch {
	case configPath != "":
		v.SetConfigFile(configPath)
	case fileExists(filepath.Join(".rowlight", "config.yaml")):
		v.SetConfigFile(filepath.Join(".rowlight", "config.yaml"))
	default:
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.ErrorErr(log.CatConfig, "Failed to read config", err)
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
		log.Debug(log.CatConfig, "No config file found, using defaults")
	} else {
		used = v.ConfigFileUsed()
		log.Info(log.CatConfig, "Loaded config", "path", used)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, used, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.TabWidth < 1 || c.TabWidth > 16 {
		return fmt.Errorf("tab_width must be between 1 and 16, got %d", c.TabWidth)
	}
	if err := ValidateTheme(c.Theme); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.Checkpoints.Interval < 1 {
		return fmt.Errorf("checkpoints.interval must be positive, got %d", c.Checkpoints.Interval)
	}
	if c.Checkpoints.MaxAge < 0 {
		return fmt.Errorf("checkpoints.max_age must not be negative")
	}
	if c.Cache.Expiration < 0 {
		return fmt.Errorf("cache.expiration must not be negative")
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.GrammarsDir != "" {
		info, err := os.Stat(c.GrammarsDir)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("grammars_dir %q is not a directory", c.GrammarsDir)
		}
	}
	return nil
}

// ValidateTheme checks the preset name and that every color override is a
// hex color or an ANSI color number.
func ValidateTheme(theme ThemeConfig) error {
	if theme.Preset != "" && !slices.Contains(Presets, theme.Preset) {
		return fmt.Errorf("theme.preset must be one of %s, got %q", strings.Join(Presets, ", "), theme.Preset)
	}
	for key, color := range theme.FlattenedColors() {
		if !validColor(color) {
			return fmt.Errorf("theme.colors.%s: invalid color %q", key, color)
		}
	}
	return nil
}

func validColor(s string) bool {
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return false
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return false
			}
		}
		return true
	}
	if s == "" || len(s) > 3 {
		return false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n <= 255
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tr tracing.Config) error {
	if tr.SampleRate < 0.0 || tr.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tr.SampleRate)
	}

	if tr.Exporter != "" {
		switch tr.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tr.Exporter)
		}
	}

	if tr.Enabled {
		if tr.Exporter == "file" && tr.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tr.Exporter == "otlp" && tr.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# rowlight configuration

# Theme preset: default, dracula, nord, high-contrast
theme:
  preset: default
  # Override the foreground of individual styles:
  # colors:
  #   keyword: "#FF79C6"
  #   string: "#F1FA8C"
  #   gutter: "#6272A4"

# Columns per tab stop when rendering
tab_width: 4

# Show row numbers in highlight output and the pager
line_numbers: true

# Directory with extra grammar files (*.yaml); a grammar with the same name
# as a built-in replaces it
# grammars_dir: ~/.config/rowlight/grammars

# Minimum level written to the debug log (--debug): debug, info, warn, error
log_level: debug

# Row cache shared by open documents
cache:
  expiration: 10m
  cleanup_interval: 15m

checkpoints:
  interval: 16          # minimum rows between replay checkpoints
  # db_path: ~/.config/rowlight/checkpoints.db
  max_age: 720h         # forget stored checkpoints not refreshed for 30 days

# Feature flags
flags:
  row-cache: true
  checkpoint-persistence: false
  fence-delegation: true

# Tracing of highlight passes
# tracing:
#   enabled: true
#   exporter: file      # none, file, stdout, otlp
#   file_path: ~/.config/rowlight/traces/traces.jsonl
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
