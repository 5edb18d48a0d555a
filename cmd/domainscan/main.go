package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NivBraz/domainscan/internal/app"
	"github.com/NivBraz/domainscan/internal/config"
	"github.com/NivBraz/domainscan/internal/metrics"
)

const defaultConfigPath = "config.yaml"

type flags struct {
	configPath  string
	concurrency int
	source      string
	output      string
	backend     string
	debug       bool
	noProgress  bool
	metricsPort int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "domainscan",
		Short: "Scan a word list for available domain names",
		Long: `domainscan looks up every word of a dictionary against a domain search
service and records which TLDs are still available. Progress is written to a
ledger after each word, so an interrupted scan resumes where it stopped.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", defaultConfigPath, "path to the YAML configuration file")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "n", 0, "number of concurrent workers")
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "dictionary file or http(s) URL")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "ledger path")
	cmd.Flags().StringVar(&f.backend, "backend", "", "ledger backend (json or sqlite)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	cmd.Flags().IntVar(&f.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port")

	return cmd
}

// loadConfig reads the config file and applies flag overrides. A missing
// default config file is not an error.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	path := f.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if cmd.Flags().Changed("source") {
		cfg.Source = f.source
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = f.output
	}
	if cmd.Flags().Changed("backend") {
		cfg.Ledger.Backend = f.backend
	}
	if f.debug {
		cfg.Log.Level = "debug"
	}
	if f.noProgress {
		cfg.NoProgress = true
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.Metrics.Port = f.metricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Port > 0 {
		srv := metrics.Start(cfg.Metrics.Port, logger)
		logger.Info("metrics server started", "port", cfg.Metrics.Port)
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.Warn("metrics server shutdown failed", "err", err)
			}
		}()
	}

	application, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize application", "err", err)
		return err
	}
	defer application.Close()

	summary, err := application.Run(ctx)
	if summary != nil {
		output, mErr := json.MarshalIndent(summary, "", "    ")
		if mErr != nil {
			return fmt.Errorf("failed to marshal summary: %w", mErr)
		}
		fmt.Println(string(output))
	}
	return err
}
