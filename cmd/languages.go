package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/rowlight/internal/lexer/grammar"
)

func newLanguagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List registered grammars",
		Long: `List registered grammars with the file extensions and aliases that
select them, their keyword count and their multi-row blocks. Grammars from
grammars_dir are included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(opts.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			t := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("NAME", "EXTENSIONS", "ALIASES", "KEYWORDS", "BLOCKS")
			for _, name := range s.registry.Names() {
				desc, ok := s.registry.Lookup(name)
				if !ok {
					continue
				}
				t.Row(languageRow(desc)...)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}

func languageRow(d *grammar.Descriptor) []string {
	keywords := 0
	if d.Keywords != nil {
		keywords = d.Keywords.Len()
	}
	var blocks []string
	for _, b := range d.BlockTypes() {
		blocks = append(blocks, b.Name)
	}
	return []string{
		strings.ToLower(d.Name),
		orDash(strings.Join(d.Extensions, " ")),
		orDash(strings.Join(d.Aliases, " ")),
		strconv.Itoa(keywords),
		orDash(strings.Join(blocks, " ")),
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
