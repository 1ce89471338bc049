// Package config provides configuration loading and management for the
// VIVO course ingest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ingest configuration
type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Store     StoreConfig     `yaml:"store"`
	Site      SiteConfig      `yaml:"site"`
	Output    OutputConfig    `yaml:"output"`
}

// WarehouseConfig configures the warehouse extract source
type WarehouseConfig struct {
	// Kind selects the source type: "csv" or "sqlite"
	Kind string `yaml:"kind"`
	// Globs are the file patterns for csv sources
	Globs []string `yaml:"globs"`
	// DSN is the database path for sqlite sources
	DSN string `yaml:"dsn"`
	// Term restricts a sqlite extract to one term (empty = all)
	Term string `yaml:"term"`
	// Watch is the directory to monitor in watch mode
	Watch string `yaml:"watch"`
	// Debounce is the quiet period before a watched change triggers a run
	Debounce time.Duration `yaml:"debounce"`
}

// StoreConfig configures the statement store
type StoreConfig struct {
	// Kind selects the store type: "nats" or "memory"
	Kind string `yaml:"kind"`
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Bucket is the KV bucket holding ingest graphs
	Bucket string `yaml:"bucket"`
	// GraphKey is the KV key for this site's graph
	GraphKey string `yaml:"graph_key"`
}

// SiteConfig identifies the VIVO instance being fed
type SiteConfig struct {
	// Namespace is the IRI prefix for minted individuals
	// (empty = the default VIVO individual namespace)
	Namespace string `yaml:"namespace"`
	// HarvestedBy is recorded as provenance on every created individual
	HarvestedBy string `yaml:"harvested_by"`
}

// OutputConfig configures where change-set pairs are written
type OutputConfig struct {
	// Dir receives the add/sub file pairs for each run
	Dir string `yaml:"dir"`
	// MetricsAddr serves Prometheus metrics in watch mode (empty = off)
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Kind:     "csv",
			Globs:    []string{"extract/*.csv"},
			Debounce: 2 * time.Second,
		},
		Store: StoreConfig{
			Kind:     "nats",
			URL:      "nats://localhost:4222",
			Bucket:   "VIVO_GRAPHS",
			GraphKey: "courses",
		},
		Site: SiteConfig{
			HarvestedBy: "Course Ingest",
		},
		Output: OutputConfig{
			Dir: "changesets",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Warehouse.Kind {
	case "csv":
		if len(c.Warehouse.Globs) == 0 {
			return fmt.Errorf("warehouse.globs is required for csv sources")
		}
	case "sqlite":
		if c.Warehouse.DSN == "" {
			return fmt.Errorf("warehouse.dsn is required for sqlite sources")
		}
	default:
		return fmt.Errorf("warehouse.kind must be csv or sqlite, got %q", c.Warehouse.Kind)
	}

	switch c.Store.Kind {
	case "nats":
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for nats stores")
		}
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for nats stores")
		}
		if c.Store.GraphKey == "" {
			return fmt.Errorf("store.graph_key is required for nats stores")
		}
	case "memory":
	default:
		return fmt.Errorf("store.kind must be nats or memory, got %q", c.Store.Kind)
	}

	if c.Site.HarvestedBy == "" {
		return fmt.Errorf("site.harvested_by is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. Environment
// variables referenced as $VAR or ${VAR} are expanded before parsing,
// so credentials can stay out of the file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Warehouse
	if other.Warehouse.Kind != "" {
		c.Warehouse.Kind = other.Warehouse.Kind
	}
	if len(other.Warehouse.Globs) > 0 {
		c.Warehouse.Globs = other.Warehouse.Globs
	}
	if other.Warehouse.DSN != "" {
		c.Warehouse.DSN = other.Warehouse.DSN
	}
	if other.Warehouse.Term != "" {
		c.Warehouse.Term = other.Warehouse.Term
	}
	if other.Warehouse.Watch != "" {
		c.Warehouse.Watch = other.Warehouse.Watch
	}
	if other.Warehouse.Debounce != 0 {
		c.Warehouse.Debounce = other.Warehouse.Debounce
	}

	// Store
	if other.Store.Kind != "" {
		c.Store.Kind = other.Store.Kind
	}
	if other.Store.URL != "" {
		c.Store.URL = other.Store.URL
	}
	if other.Store.Bucket != "" {
		c.Store.Bucket = other.Store.Bucket
	}
	if other.Store.GraphKey != "" {
		c.Store.GraphKey = other.Store.GraphKey
	}

	// Site
	if other.Site.Namespace != "" {
		c.Site.Namespace = other.Site.Namespace
	}
	if other.Site.HarvestedBy != "" {
		c.Site.HarvestedBy = other.Site.HarvestedBy
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.MetricsAddr != "" {
		c.Output.MetricsAddr = other.Output.MetricsAddr
	}
}
