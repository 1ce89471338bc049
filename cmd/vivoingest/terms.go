package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/term"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

func newTermsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms",
		Short: "Manage academic terms in the store",
		Long: `Academic terms are never created by an ingest run: a record naming a
term the store does not hold stops the run. Terms are added here,
deliberately, ahead of the extracts that reference them.`,
	}

	cmd.AddCommand(newTermsListCmd(configPath), newTermsAddCmd(configPath))
	return cmd
}

func newTermsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the academic terms the store holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snapshot, err := store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			labels := snapshot.TermLabels()
			if len(labels) == 0 {
				fmt.Println("No academic terms in store.")
				return nil
			}
			for _, label := range labels {
				fmt.Println(label)
			}
			return nil
		},
	}
}

func newTermsAddCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label>...",
		Short: `Add academic terms, e.g. "Fall 2013"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			// Parse everything before touching the store.
			terms := make([]term.Term, 0, len(args))
			for _, label := range args {
				t, err := term.Parse(strings.TrimSpace(label))
				if err != nil {
					return err
				}
				terms = append(terms, t)
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snapshot, err := store.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			mint := vivo.Minter(cfg.Site.Namespace)
			var additions []rdf.Statement
			for _, t := range terms {
				if _, ok := snapshot.TermByLabel(t.Label()); ok {
					fmt.Printf("%s already in store\n", t.Label())
					continue
				}
				additions = append(additions, t.Statements(mint())...)
				fmt.Printf("adding %s\n", t.Label())
			}
			if len(additions) == 0 {
				return nil
			}

			if err := store.Apply(cmd.Context(), additions, nil); err != nil {
				return err
			}
			return nil
		},
	}
}
