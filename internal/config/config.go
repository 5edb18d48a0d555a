// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/NivBraz/domainscan/pkg/fingerprint"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	Concurrency int    `yaml:"concurrency"`
	Source      string `yaml:"source"`
	Output      string `yaml:"output"`
	// ShutdownGrace is how long in-flight lookups may keep running after an
	// interrupt, in seconds.
	ShutdownGrace int  `yaml:"shutdownGrace"`
	NoProgress    bool `yaml:"noProgress"`

	Dictionary struct {
		MaxWordLength int `yaml:"maxWordLength"`
	} `yaml:"dictionary"`

	Ledger struct {
		Backend   string   `yaml:"backend"`
		MaxTlds   int      `yaml:"maxTlds"`
		IndexTlds []string `yaml:"indexTlds"`
		Pretty    bool     `yaml:"pretty"`
	} `yaml:"ledger"`

	Lookup struct {
		Endpoint        string   `yaml:"endpoint"`
		Limit           int      `yaml:"limit"`
		Timeout         int      `yaml:"timeout"`
		UserAgent       string   `yaml:"userAgent"`
		Fingerprint     string   `yaml:"fingerprint"`
		NotifyTlds      []string `yaml:"notifyTlds"`
		ConfirmEndpoint string   `yaml:"confirmEndpoint"`
	} `yaml:"lookup"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Retry struct {
		// MaxRetries < 0 retries forever; unset means 5.
		MaxRetries     *int `yaml:"maxRetries"`
		InitialBackoff int  `yaml:"initialBackoff"`
		MaxBackoff     int  `yaml:"maxBackoff"`
	} `yaml:"retry"`

	Metrics struct {
		Port int `yaml:"port"`
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads the YAML file at path, applies defaults and validates the
// result. An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error opening config file: %w", err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("error decoding config: %w", err)
		}
	}

	SetDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// SetDefaults fills every unset field.
func SetDefaults(cfg *Config) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 10
	}
	if cfg.Source == "" {
		cfg.Source = "source.txt"
	}
	if cfg.Output == "" {
		cfg.Output = "output.json"
	}
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = 30
	}
	if cfg.Dictionary.MaxWordLength == 0 {
		cfg.Dictionary.MaxWordLength = 7
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = BackendJSON
	}
	if cfg.Ledger.MaxTlds == 0 {
		cfg.Ledger.MaxTlds = 2
	}
	if cfg.Ledger.IndexTlds == nil {
		cfg.Ledger.IndexTlds = []string{"com"}
	}
	if cfg.Lookup.Limit == 0 {
		cfg.Lookup.Limit = 1000
	}
	if cfg.Lookup.Timeout == 0 {
		cfg.Lookup.Timeout = 30
	}
	if cfg.Lookup.NotifyTlds == nil {
		cfg.Lookup.NotifyTlds = []string{"com"}
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.Retry.MaxRetries == nil {
		maxRetries := 5
		cfg.Retry.MaxRetries = &maxRetries
	}
	if cfg.Retry.InitialBackoff == 0 {
		cfg.Retry.InitialBackoff = 1000
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = 30000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("shutdownGrace must not be negative")
	}
	if c.Dictionary.MaxWordLength < 0 {
		return fmt.Errorf("maxWordLength must not be negative")
	}
	if c.Ledger.Backend != BackendJSON && c.Ledger.Backend != BackendSQLite {
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Ledger.MaxTlds < 0 {
		return fmt.Errorf("maxTlds must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("requestsPerSecond must not be negative")
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative")
	}
	if _, err := fingerprint.ParseProfile(c.Lookup.Fingerprint); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) ShutdownGraceDuration() time.Duration {
	return time.Duration(c.ShutdownGrace) * time.Second
}

func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
