package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/changeset"
	"github.com/mconlon17/vivo-course-ingest/ingest"
)

func newUndoCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <stem>",
		Short: "Back out a previously applied change-set",
		Long: `Undo loads the add/sub pair named by <stem> from the output directory
and applies it inverted: the additions are retracted and the
retractions restored. The store refuses the undo unless it still holds
exactly what the change-set added, so an undo can never clobber later
work.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			cs, err := changeset.LoadPair(cfg.Output.Dir, args[0])
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			// Undo never touches the warehouse, only the store.
			p := &ingest.Pipeline{Store: store, Logger: slog.Default()}
			if err := p.Undo(cmd.Context(), cs); err != nil {
				return err
			}

			fmt.Printf("Backed out %s: retracted %d, restored %d\n",
				args[0], len(cs.Additions), len(cs.Retractions))
			return nil
		},
	}

	return cmd
}
