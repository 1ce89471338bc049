package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mconlon17/vivo-course-ingest/config"
	"github.com/mconlon17/vivo-course-ingest/ingest"
	"github.com/mconlon17/vivo-course-ingest/storage"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

// openSource builds the warehouse source the config names.
func openSource(cfg *config.Config) (warehouse.Source, error) {
	switch cfg.Warehouse.Kind {
	case "csv":
		return warehouse.NewCSVSource(cfg.Warehouse.Globs, slog.Default()), nil
	case "sqlite":
		return warehouse.NewSQLiteSource(cfg.Warehouse.DSN, warehouse.DefaultQuery, cfg.Warehouse.Term), nil
	default:
		return nil, fmt.Errorf("unknown warehouse kind %q", cfg.Warehouse.Kind)
	}
}

// openStore connects to the statement store. The returned close func is
// a no-op for memory stores.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Store.Kind {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "nats":
		nc, err := nats.Connect(cfg.Store.URL,
			nats.Name(appName),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(time.Second),
		)
		if err != nil {
			return nil, nil, wrapNATSError(err, cfg.Store.URL)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("create JetStream context: %w", err)
		}
		store, err := storage.NewNATSStore(ctx, js, cfg.Store.Bucket, cfg.Store.GraphKey)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return store, nc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set store.url in the config to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func newPipeline(cfg *config.Config, src warehouse.Source, store storage.Store, metrics *ingest.Metrics) *ingest.Pipeline {
	return &ingest.Pipeline{
		Source:      src,
		Store:       store,
		Logger:      slog.Default(),
		HarvestedBy: cfg.Site.HarvestedBy,
		MintIRI:     vivo.Minter(cfg.Site.Namespace),
		Metrics:     metrics,
	}
}

// runStem names a change-set pair after the moment the run started.
func runStem(now time.Time) string {
	return "courses_" + now.UTC().Format("20060102T150405Z")
}
