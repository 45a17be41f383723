// Package cmd wires the rowlight command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/rowlight/internal/config"
	"github.com/zjrosen/rowlight/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 response cannot race the pager's input loop.
	_ = lipgloss.HasDarkBackground()
}

var version = "dev"

// options holds what every subcommand shares after PersistentPreRunE.
type options struct {
	cfgFile    string
	debug      bool
	cfg        config.Config
	configUsed string
	logCleanup func()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "rowlight",
		Short: "Per-row syntax highlighting for the terminal",
		Long: `rowlight highlights source files one row at a time. Rows can be
requested in any order: the highlighter replays from the nearest checkpoint
instead of re-scanning the whole file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logCleanup != nil {
				opts.logCleanup()
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default: .rowlight/config.yaml or ~/.config/rowlight/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false,
		"write debug logs (also ROWLIGHT_DEBUG=1; path via ROWLIGHT_LOG, level via log_level or ROWLIGHT_LOG_LEVEL)")

	root.AddCommand(
		newHighlightCmd(opts),
		newSpansCmd(opts),
		newLanguagesCmd(opts),
		newViewCmd(opts),
		newConfigCmd(opts),
		newCheckpointsCmd(opts),
	)
	return root
}

func (o *options) init() error {
	cfg, used, err := config.Load(config.NewViper(), o.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	o.configUsed = used

	if !o.debug && os.Getenv("ROWLIGHT_DEBUG") == "" {
		return nil
	}
	name := cfg.LogLevel
	if env := os.Getenv("ROWLIGHT_LOG_LEVEL"); env != "" {
		name = env
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return err
	}
	logPath := os.Getenv("ROWLIGHT_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, "rowlight")
	if err != nil {
		return fmt.Errorf("initializing log: %w", err)
	}
	o.logCleanup = cleanup
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "rowlight starting", "version", version, "config", used, "level", level, "logPath", logPath)
	return nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
}
