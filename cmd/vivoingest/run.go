package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/changeset"
	"github.com/mconlon17/vivo-course-ingest/ingest"
	"github.com/mconlon17/vivo-course-ingest/reconcile"
)

func newRunCmd(configPath *string) *cobra.Command {
	var (
		dryRun     bool
		yes        bool
		allowEmpty bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one full ingest cycle",
		Long: `Run extracts the warehouse, reconciles against the store, and applies
the resulting change-set after review. The change-set pair is written
to the output directory before anything is applied, so a rejected or
interrupted run can always be backed out with undo.

The command exits 0 only when the post-apply verification pass is
empty.`,
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
			p.AllowEmpty = allowEmpty

			stem := runStem(time.Now())
			confirm := func(cs *changeset.ChangeSet) (bool, error) {
				addPath, subPath, err := cs.WritePair(cfg.Output.Dir, stem)
				if err != nil {
					return false, fmt.Errorf("write change-set pair: %w", err)
				}
				fmt.Printf("Change-set: %d additions, %d retractions\n", len(cs.Additions), len(cs.Retractions))
				fmt.Printf("  %s\n  %s\n", addPath, subPath)

				if dryRun {
					return false, nil
				}
				if yes {
					return true, nil
				}
				return promptApproval(os.Stdin)
			}

			result, err := p.Run(cmd.Context(), confirm)
			return reportOutcome(result, err, dryRun, stem)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write the change-set pair and stop before applying")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without prompting")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "Accept a warehouse extract with zero records")

	return cmd
}

func promptApproval(in *os.File) (bool, error) {
	fmt.Print("Apply? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read approval: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func reportOutcome(result *ingest.Result, err error, dryRun bool, stem string) error {
	switch {
	case err == nil:
		if result.ChangeSet != nil && result.ChangeSet.Empty() {
			fmt.Println("Store already at fixed point; nothing to apply.")
			return nil
		}
		fmt.Println("Run verified.")
		return nil

	case errors.Is(err, ingest.ErrDeclined):
		if dryRun {
			fmt.Println("Dry run; nothing applied.")
			return nil
		}
		fmt.Println("Declined; nothing applied.")
		return err

	default:
		var fixpointErr *ingest.NonEmptyFixpointError
		if errors.As(err, &fixpointErr) {
			fmt.Printf("Run REJECTED: verification pass produced %d additions, %d retractions.\n",
				fixpointErr.Additions, fixpointErr.Retractions)
			fmt.Printf("The applied change-set can be backed out with: %s undo %s\n", appName, stem)
			return err
		}

		var conflictErr *reconcile.ConflictError
		if errors.As(err, &conflictErr) {
			fmt.Println("Run stopped before any write:")
			for _, c := range conflictErr.Conflicts {
				fmt.Printf("  %s: %s\n", c.Key, c.Detail)
			}
			return err
		}

		return err
	}
}
