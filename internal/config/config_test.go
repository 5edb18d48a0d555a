package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `concurrency: 8
source: "words.txt"
output: "ledger.db"
shutdownGrace: 5
dictionary:
  maxWordLength: 6
ledger:
  backend: sqlite
  maxTlds: 3
  indexTlds: [com, io]
lookup:
  endpoint: "https://lookup.example.test/services/name"
  fingerprint: chrome
rateLimit:
  requestsPerSecond: 2.5
  burst: 4
retry:
  maxRetries: -1
log:
  level: debug
  format: json`

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Concurrency != 8 {
		t.Errorf("Expected Concurrency = 8, got %d", cfg.Concurrency)
	}
	if cfg.Source != "words.txt" || cfg.Output != "ledger.db" {
		t.Errorf("unexpected paths: source=%s output=%s", cfg.Source, cfg.Output)
	}
	if cfg.ShutdownGraceDuration() != 5*time.Second {
		t.Errorf("Expected ShutdownGrace = 5s, got %v", cfg.ShutdownGraceDuration())
	}
	if cfg.Dictionary.MaxWordLength != 6 {
		t.Errorf("Expected MaxWordLength = 6, got %d", cfg.Dictionary.MaxWordLength)
	}
	if cfg.Ledger.Backend != BackendSQLite || cfg.Ledger.MaxTlds != 3 || len(cfg.Ledger.IndexTlds) != 2 {
		t.Errorf("unexpected ledger config: %+v", cfg.Ledger)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("Expected RequestsPerSecond = 2.5, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if *cfg.Retry.MaxRetries != -1 {
		t.Errorf("Expected MaxRetries = -1, got %d", *cfg.Retry.MaxRetries)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.LogLevel())
	}
	// untouched sections still receive defaults
	if cfg.Lookup.Limit != 1000 || cfg.Retry.MaxBackoff != 30000 {
		t.Errorf("defaults not applied: limit=%d maxBackoff=%d", cfg.Lookup.Limit, cfg.Retry.MaxBackoff)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Concurrency != 10 {
		t.Errorf("Expected Concurrency = 10, got %d", cfg.Concurrency)
	}
	if cfg.Source != "source.txt" || cfg.Output != "output.json" {
		t.Errorf("unexpected default paths: %s, %s", cfg.Source, cfg.Output)
	}
	if cfg.Dictionary.MaxWordLength != 7 {
		t.Errorf("Expected MaxWordLength = 7, got %d", cfg.Dictionary.MaxWordLength)
	}
	if cfg.Ledger.Backend != BackendJSON || cfg.Ledger.MaxTlds != 2 {
		t.Errorf("unexpected default ledger config: %+v", cfg.Ledger)
	}
	if len(cfg.Ledger.IndexTlds) != 1 || cfg.Ledger.IndexTlds[0] != "com" {
		t.Errorf("Expected IndexTlds = [com], got %v", cfg.Ledger.IndexTlds)
	}
	if *cfg.Retry.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries = 5, got %d", *cfg.Retry.MaxRetries)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing config file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("concurrency: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		SetDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"negative concurrency",func(c *Config) { c.Concurrency = -1 }, true},
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "postgres" }, true},
		{"negative max tlds", func(c *Config) { c.Ledger.MaxTlds = -2 }, true},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }, true},
		{"unknown fingerprint", func(c *Config) { c.Lookup.Fingerprint = "netscape" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"empty source", func(c *Config) { c.Source = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
