package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/rowlight/internal/ui/viewer"
	"github.com/zjrosen/rowlight/internal/watcher"
)

func newViewCmd(opts *options) *cobra.Command {
	var (
		lang    string
		watch   bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Open a file in the highlighting pager",
		Long: `Open a file in a scrolling pager. Only the visible rows are highlighted.
With --watch the file is reloaded when it changes on disk and only rows from
the first changed row on are re-highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := newSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := s.open(cmd.Context(), path, lang)
			if err != nil {
				return err
			}
			defer d.lines.Close()

			vcfg := viewer.Config{
				Context:     cmd.Context(),
				Highlighter: d.hl,
				Lines:       d.lines,
				Theme:       s.theme,
				TabWidth:    opts.cfg.TabWidth,
				LineNumbers: opts.cfg.LineNumbers,
				Title:       filepath.Base(path),
				ReadFile: func() (string, error) {
					data, err := os.ReadFile(path) //nolint:gosec // G304: the file being viewed
					return string(data), err
				},
			}
			if noColor {
				vcfg.Theme = nil
			}

			if watch {
				w, err := watcher.New(watcher.DefaultConfig(path))
				if err != nil {
					return fmt.Errorf("watching %s: %w", path, err)
				}
				changes, err := w.Start()
				if err != nil {
					return fmt.Errorf("watching %s: %w", path, err)
				}
				defer func() { _ = w.Stop() }()
				vcfg.Changes = changes
			}

			p := tea.NewProgram(viewer.New(vcfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running pager: %w", err)
			}

			s.save(cmd.Context(), d)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "language name or alias (default: detect from file name)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the file changes")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI styling")
	return cmd
}
