package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/reconcile"
)

func newReconcileCmd(configPath *string) *cobra.Command {
	var (
		stem   string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the read-only first pass and write the change-set pair",
		Long: `Reconcile extracts the warehouse, classifies every record against the
store, and writes the add/sub pair an apply would commit. Nothing is
written to the store.

With --verify the command exits non-zero when the change-set is
non-empty, for checking that a store is at its fixed point (for
example right after a run).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			src, err := openSource(cfg)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			p := newPipeline(cfg, src, store, nil)

			report, cs, err := p.Reconcile(cmd.Context())
			if report != nil {
				printReport(report)
			}
			if err != nil {
				var conflictErr *reconcile.ConflictError
				if errors.As(err, &conflictErr) {
					for _, c := range conflictErr.Conflicts {
						fmt.Printf("  conflict %s: %s\n", c.Key, c.Detail)
					}
				}
				return err
			}

			if stem == "" {
				stem = runStem(time.Now())
			}
			addPath, subPath, err := cs.WritePair(cfg.Output.Dir, stem)
			if err != nil {
				return fmt.Errorf("write change-set pair: %w", err)
			}
			fmt.Printf("Change-set: %d additions, %d retractions\n", len(cs.Additions), len(cs.Retractions))
			fmt.Printf("  %s\n  %s\n", addPath, subPath)

			if verify && !cs.Empty() {
				return fmt.Errorf("store is not at its fixed point")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stem, "stem", "", "File stem for the change-set pair (default: timestamped)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Exit non-zero when the change-set is non-empty")

	return cmd
}

func printReport(report *reconcile.Report) {
	fmt.Printf("Records: %d known, %d conflicting\n",
		report.Count(reconcile.KindKnown), report.Count(reconcile.KindConflicting))
	fmt.Printf("To create: %d persons, %d courses, %d positions, %d sections\n",
		len(report.NewPersons), len(report.NewCourses), len(report.NewPositions),
		len(report.NewSections))
	for _, label := range report.MissingTerms {
		fmt.Printf("  missing term: %s\n", label)
	}
}
