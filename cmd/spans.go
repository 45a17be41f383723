package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rowlight/internal/highlight"
)

// rowSpans is one row of `rowlight spans` output.
type rowSpans struct {
	Row   int              `yaml:"row"`
	Text  string           `yaml:"text,omitempty"`
	Spans []highlight.Span `yaml:"spans,flow"`
}

// spansDoc is the top-level YAML document of `rowlight spans`.
type spansDoc struct {
	File     string     `yaml:"file"`
	Language string     `yaml:"language"`
	Rows     []rowSpans `yaml:"rows"`
}

func newSpansCmd(opts *options) *cobra.Command {
	var (
		rf       rangeFlags
		withText bool
	)

	cmd := &cobra.Command{
		Use:   "spans FILE",
		Short: "Dump the style spans of each row as YAML",
		Long: `Dump the style spans of each row as YAML. Offsets and lengths count
code points, not bytes.`,
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

			out := spansDoc{File: args[0], Language: d.hl.Language()}
			for i, spans := range s.highlightRange(cmd.Context(), d, from, to) {
				r := rowSpans{Row: from + i + 1, Spans: spans}
				if r.Spans == nil {
					r.Spans = []highlight.Span{}
				}
				if withText {
					r.Text = d.lines.Text(from + i)
				}
				out.Rows = append(out.Rows, r)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encoding spans: %w", err)
			}
			if err := enc.Close(); err != nil {
				return fmt.Errorf("encoding spans: %w", err)
			}

			s.save(cmd.Context(), d)
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().BoolVar(&withText, "text", false, "include each row's text")
	return cmd
}
