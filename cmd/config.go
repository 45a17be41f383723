package cmd

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rowlight/internal/config"
	"github.com/zjrosen/rowlight/internal/flags"
)

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration file",
	}
	cmd.AddCommand(
		newConfigInitCmd(opts),
		newConfigShowCmd(opts),
		newConfigThemeCmd(opts),
		newConfigFlagCmd(opts),
	)
	return cmd
}

// targetPath is the file config edits go to: the file that was loaded, the
// --config path, or the user config.
func (o *options) targetPath() (string, error) {
	switch {
	case o.configUsed != "":
		return o.configUsed, nil
	case o.cfgFile != "":
		return o.cfgFile, nil
	}
	dir := config.DefaultConfigDir()
	if dir == "" {
		return "", fmt.Errorf("no home directory; pass --config")
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func newConfigInitCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := opts.targetPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			cfg.Flags = flags.WithDefaults(cfg.Flags).All()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigThemeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "theme PRESET",
		Short:     "Set the theme preset, keeping color overrides",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Presets,
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := opts.cfg.Theme
			theme.Preset = args[0]
			if err := config.ValidateTheme(theme); err != nil {
				return err
			}
			path, err := opts.targetPath()
			if err != nil {
				return err
			}
			if err := config.SaveTheme(path, theme); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s in %s\n", theme.Preset, path)
			return err
		},
	}
}

func newConfigFlagCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "flag NAME on|off",
		Short: "Turn a feature flag on or off",
		Long:  "Turn a feature flag on or off. Known flags: " + strings.Join(knownFlags(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := flags.Defaults()[name]; !ok {
				return fmt.Errorf("unknown flag %q (known: %s)", name, strings.Join(knownFlags(), ", "))
			}
			var enabled bool
			switch strings.ToLower(args[1]) {
			case "on", "true", "1":
				enabled = true
			case "off", "false", "0":
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}

			path, err := opts.targetPath()
			if err != nil {
				return err
			}
			if err := config.SaveFlag(path, name, enabled); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%t in %s\n", name, enabled, path)
			return err
		},
	}
}

func knownFlags() []string {
	return slices.Sorted(maps.Keys(flags.Defaults()))
}
