package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mconlon17/vivo-course-ingest/ingest"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

func newWatchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile whenever the extract directory changes",
		Long: `Watch monitors the warehouse extract directory and runs the read-only
reconcile pass after each change settles, writing the change-set pair
an apply would commit. Nothing is ever applied from watch mode; the
operator reviews the pair and runs the apply deliberately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Warehouse.Watch == "" {
				return fmt.Errorf("warehouse.watch directory is not configured")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			src, err := openSource(cfg)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			metrics := ingest.NewMetrics(prometheus.DefaultRegisterer)
			if cfg.Output.MetricsAddr != "" {
				go serveMetrics(ctx, cfg.Output.MetricsAddr)
			}

			p := newPipeline(cfg, src, store, metrics)

			runOnce := func(ctx context.Context) error {
				_, cs, err := p.Reconcile(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					// Extract and reconcile failures are expected while
					// files land; the next change retries.
					slog.Warn("Reconcile failed; waiting for next change", "error", err)
					return nil
				}
				if cs.Empty() {
					slog.Info("Store at fixed point; nothing to apply")
					return nil
				}

				stem := runStem(time.Now())
				addPath, subPath, err := cs.WritePair(cfg.Output.Dir, stem)
				if err != nil {
					return fmt.Errorf("write change-set pair: %w", err)
				}
				slog.Info("Change-set ready for review",
					"additions", len(cs.Additions),
					"retractions", len(cs.Retractions),
					"add", addPath, "sub", subPath)
				return nil
			}

			watcher := warehouse.NewWatcher(cfg.Warehouse.Watch, cfg.Warehouse.Debounce, slog.Default())
			slog.Info("Watching for extract changes", "dir", cfg.Warehouse.Watch)
			return watcher.Run(ctx, runOnce)
		},
	}

	return cmd
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
