package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/export"
)

func newExportCmd(configPath *string) *cobra.Command {
	var (
		formatName string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Serialize the store snapshot for review",
		Long: `Export writes the current store snapshot to stdout or a file.
N-Triples is the exchange format used by the change-set pairs; Turtle
and JSON-LD are easier to read when reviewing what the store holds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

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

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return export.Write(out, snapshot.Statements(), format)
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "turtle", "Output format (turtle, ntriples, jsonld)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
