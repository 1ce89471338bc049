package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Warehouse.Kind != "csv" {
		t.Errorf("expected default warehouse kind csv, got %s", cfg.Warehouse.Kind)
	}
	if cfg.Store.Kind != "nats" {
		t.Errorf("expected default store kind nats, got %s", cfg.Store.Kind)
	}
	if cfg.Store.Bucket != "VIVO_GRAPHS" {
		t.Errorf("expected default bucket VIVO_GRAPHS, got %s", cfg.Store.Bucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown warehouse kind",
			modify:  func(c *Config) { c.Warehouse.Kind = "oracle" },
			wantErr: true,
		},
		{
			name:    "csv without globs",
			modify:  func(c *Config) { c.Warehouse.Globs = nil },
			wantErr: true,
		},
		{
			name: "sqlite without dsn",
			modify: func(c *Config) {
				c.Warehouse.Kind = "sqlite"
				c.Warehouse.DSN = ""
			},
			wantErr: true,
		},
		{
			name: "sqlite with dsn",
			modify: func(c *Config) {
				c.Warehouse.Kind = "sqlite"
				c.Warehouse.DSN = "extract.db"
			},
			wantErr: false,
		},
		{
			name:    "unknown store kind",
			modify:  func(c *Config) { c.Store.Kind = "postgres" },
			wantErr: true,
		},
		{
			name:    "nats store without url",
			modify:  func(c *Config) { c.Store.URL = "" },
			wantErr: true,
		},
		{
			name:    "nats store without graph key",
			modify:  func(c *Config) { c.Store.GraphKey = "" },
			wantErr: true,
		},
		{
			name: "memory store needs no url",
			modify: func(c *Config) {
				c.Store.Kind = "memory"
				c.Store.URL = ""
			},
			wantErr: false,
		},
		{
			name:    "missing harvested_by",
			modify:  func(c *Config) { c.Site.HarvestedBy = "" },
			wantErr: true,
		},
		{
			name:    "missing output dir",
			modify:  func(c *Config) { c.Output.Dir = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
warehouse:
  kind: sqlite
  dsn: "/data/extract.db"
  term: "Fall 2013"
  debounce: 5s
store:
  url: "nats://vivo:4222"
  graph_key: "uf-courses"
site:
  harvested_by: "UF Course Ingest"
output:
  dir: "/data/changesets"
  metrics_addr: ":9102"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Warehouse.Kind != "sqlite" {
		t.Errorf("expected warehouse kind sqlite, got %s", cfg.Warehouse.Kind)
	}
	if cfg.Warehouse.DSN != "/data/extract.db" {
		t.Errorf("expected dsn /data/extract.db, got %s", cfg.Warehouse.DSN)
	}
	if cfg.Warehouse.Term != "Fall 2013" {
		t.Errorf("expected term Fall 2013, got %s", cfg.Warehouse.Term)
	}
	if cfg.Warehouse.Debounce != 5*time.Second {
		t.Errorf("expected debounce 5s, got %v", cfg.Warehouse.Debounce)
	}
	if cfg.Store.URL != "nats://vivo:4222" {
		t.Errorf("expected store URL nats://vivo:4222, got %s", cfg.Store.URL)
	}
	// File did not set the bucket; the default stays.
	if cfg.Store.Bucket != "VIVO_GRAPHS" {
		t.Errorf("expected bucket to remain default, got %s", cfg.Store.Bucket)
	}
	if cfg.Store.GraphKey != "uf-courses" {
		t.Errorf("expected graph key uf-courses, got %s", cfg.Store.GraphKey)
	}
	if cfg.Site.HarvestedBy != "UF Course Ingest" {
		t.Errorf("expected harvested_by UF Course Ingest, got %s", cfg.Site.HarvestedBy)
	}
	if cfg.Output.MetricsAddr != ":9102" {
		t.Errorf("expected metrics addr :9102, got %s", cfg.Output.MetricsAddr)
	}
}

func TestLoadFromFileExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("VIVO_NATS_URL", "nats://secret-host:4222")

	content := `
store:
  url: "${VIVO_NATS_URL}"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Store.URL != "nats://secret-host:4222" {
		t.Errorf("expected env-expanded store URL, got %s", cfg.Store.URL)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Warehouse: WarehouseConfig{
			Kind: "sqlite",
			DSN:  "/override/extract.db",
		},
		Store: StoreConfig{
			GraphKey: "override-graph",
		},
	}

	base.Merge(override)

	if base.Warehouse.Kind != "sqlite" {
		t.Errorf("expected warehouse kind sqlite, got %s", base.Warehouse.Kind)
	}
	if base.Warehouse.DSN != "/override/extract.db" {
		t.Errorf("expected dsn /override/extract.db, got %s", base.Warehouse.DSN)
	}
	// URL should remain from base since override didn't set it
	if base.Store.URL != "nats://localhost:4222" {
		t.Errorf("expected store URL to remain default, got %s", base.Store.URL)
	}
	if base.Store.GraphKey != "override-graph" {
		t.Errorf("expected graph key override-graph, got %s", base.Store.GraphKey)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.GraphKey = "saved-graph"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Store.GraphKey != "saved-graph" {
		t.Errorf("expected graph key saved-graph, got %s", loaded.Store.GraphKey)
	}
}
