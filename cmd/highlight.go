package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rowlight/internal/render"
)

// rangeFlags selects a 1-based inclusive row range.
type rangeFlags struct {
	lang string
	from int
	to   int
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.lang, "lang", "l", "", "language name or alias (default: detect from file name)")
	cmd.Flags().IntVar(&r.from, "from", 1, "first row to output (1-based)")
	cmd.Flags().IntVar(&r.to, "to", 0, "last row to output, inclusive (default: last row)")
}

// bounds converts the flags to a half-open 0-based range within rows.
func (r *rangeFlags) bounds(rows int) (int, int, error) {
	from, to := r.from-1, r.to
	if to <= 0 || to > rows {
		to = rows
	}
	if from < 0 {
		return 0, 0, fmt.Errorf("--from must be at least 1")
	}
	if from > to {
		return 0, 0, fmt.Errorf("--from %d is past --to %d", r.from, to)
	}
	return from, to, nil
}

func newHighlightCmd(opts *options) *cobra.Command {
	var (
		rf      rangeFlags
		noColor bool
		numbers bool
		width   int
	)

	cmd := &cobra.Command{
		Use:   "highlight FILE",
		Short: "Print a file with ANSI syntax highlighting",
		Example: `  rowlight highlight main.go
  rowlight highlight --from 200 --to 240 big.c
  rowlight highlight --lang kotlin --no-color script.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := s.open(cmd.Context(), args[0], rf.lang)
			if err != nil {
				return err
			}
			from, to, err := rf.bounds(d.hl.Rows())
			if err != nil {
				return err
			}

			theme := s.theme
			if noColor {
				theme = nil
			}
			showNumbers := opts.cfg.LineNumbers
			if cmd.Flags().Changed("numbers") {
				showNumbers = numbers
			}
			ropts := render.Options{TabWidth: opts.cfg.TabWidth, Width: width}

			out := bufio.NewWriter(cmd.OutOrStdout())
			total := d.hl.Rows()
			for i, spans := range s.highlightRange(cmd.Context(), d, from, to) {
				row := from + i
				if showNumbers {
					_, _ = out.WriteString(render.Gutter(row, total, false, theme))
				}
				_, _ = out.WriteString(render.Line(d.lines.Text(row), spans, theme, ropts))
				_ = out.WriteByte('\n')
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			s.save(cmd.Context(), d)
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI styling")
	cmd.Flags().BoolVarP(&numbers, "numbers", "n", false, "show row numbers (default from config line_numbers)")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "truncate rows to this many cells (0: no limit)")
	return cmd
}
