package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/rowlight/internal/document"
	"github.com/zjrosen/rowlight/internal/infrastructure/sqlite"
)

func newCheckpointsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Manage stored replay checkpoints",
		Long: `Manage the SQLite store of replay checkpoints. Checkpoints are only
stored when the checkpoint-persistence flag is on.`,
	}
	cmd.AddCommand(newCheckpointsShowCmd(opts), newCheckpointsPruneCmd(opts))
	return cmd
}

func openStore(opts *options) (*sqlite.DB, error) {
	if opts.cfg.Checkpoints.DBPath == "" {
		return nil, fmt.Errorf("checkpoints.db_path is not set")
	}
	return sqlite.NewDB(opts.cfg.Checkpoints.DBPath)
}

func newCheckpointsShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print the checkpoints stored for a file's current content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			lines, err := document.ReadFile(args[0])
			if err != nil {
				return err
			}

			set, err := db.Checkpoints().Load(args[0], document.Hash(lines.String()))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d checkpoints, saved %s\n%v\n",
				set.Path, set.Language, len(set.Rows), set.UpdatedAt.Format(time.RFC3339), set.Rows)
			return err
		},
	}
}

func newCheckpointsPruneCmd(opts *options) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune [FILE...]",
		Short: "Delete stored checkpoints",
		Long: `Delete stored checkpoints for the given files, or, without files, every
entry not saved within --older-than (default: checkpoints.max_age).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(opts)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := db.Checkpoints()
			if len(args) > 0 {
				for _, path := range args {
					deleted, err := repo.Prune(path)
					if err != nil {
						return err
					}
					if deleted {
						_, _ = fmt.Fprintln(cmd.OutOrStdout(), "pruned", path)
					}
				}
				return nil
			}

			age := opts.cfg.Checkpoints.MaxAge
			if cmd.Flags().Changed("older-than") {
				age = olderThan
			}
			n, err := repo.PruneOlderThan(age)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
			return err
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff, e.g. 72h")
	return cmd
}
