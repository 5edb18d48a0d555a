package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/NivBraz/domainscan/internal/config"
	"github.com/NivBraz/domainscan/internal/dictionary"
	"github.com/NivBraz/domainscan/internal/ledger"
	"github.com/NivBraz/domainscan/internal/ledger/jsonfile"
	"github.com/NivBraz/domainscan/internal/ledger/sqlite"
	"github.com/NivBraz/domainscan/internal/metrics"
	"github.com/NivBraz/domainscan/internal/models"
	"github.com/NivBraz/domainscan/internal/queue"
	"github.com/NivBraz/domainscan/pkg/fingerprint"
	"github.com/NivBraz/domainscan/pkg/lookup"
)

// App runs one scan of the dictionary against the ledger.
type App struct {
	config   *config.Config
	store    *ledger.Store
	resolver lookup.Resolver
	words    []string
	logger   *slog.Logger
	runID    string
	progress io.Writer
	backend  ledger.Backend
}

type Option func(*App)

// WithResolver replaces the HTTP lookup stack.
func WithResolver(r lookup.Resolver) Option {
	return func(a *App) { a.resolver = r }
}

// WithBackend replaces the backend selected by the configuration.
func WithBackend(b ledger.Backend) Option {
	return func(a *App) { a.backend = b }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithProgressWriter sets where the progress bar is drawn.
func WithProgressWriter(w io.Writer) Option {
	return func(a *App) { a.progress = w }
}

// New loads the dictionary and the ledger. Failures here are fatal: an
// unreadable dictionary is a *dictionary.InputError, an unreadable ledger a
// *ledger.StorageError.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		config:   cfg,
		logger:   slog.Default(),
		runID:    uuid.NewString(),
		progress: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("run_id", a.runID)
	if cfg.NoProgress {
		a.progress = io.Discard
	}

	words, err := dictionary.Load(ctx, cfg.Source, dictionary.Options{
		MaxWordLength: cfg.Dictionary.MaxWordLength,
	})
	if err != nil {
		return nil, err
	}
	a.words = words
	a.logger.Info("dictionary loaded", "source", cfg.Source, "words", len(words))

	if a.backend == nil {
		a.backend, err = openBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	a.store, err = ledger.Open(ctx, a.backend, ledger.Options{
		MaxTlds:   cfg.Ledger.MaxTlds,
		IndexTlds: cfg.Ledger.IndexTlds,
		Logger:    a.logger,
	})
	if err != nil {
		_ = a.backend.Close()
		return nil, err
	}
	a.logger.Info("ledger loaded", "output", cfg.Output, "backend", cfg.Ledger.Backend, "words", a.store.Len())

	if a.resolver == nil {
		a.resolver, err = buildResolver(cfg, a.logger)
		if err != nil {
			_ = a.store.Close()
			return nil, err
		}
	}

	return a, nil
}

func openBackend(cfg *config.Config) (ledger.Backend, error) {
	switch cfg.Ledger.Backend {
	case config.BackendSQLite:
		return sqlite.New(cfg.Output)
	default:
		return jsonfile.New(cfg.Output, jsonfile.WithIndent(cfg.Ledger.Pretty)), nil
	}
}

func buildResolver(cfg *config.Config, logger *slog.Logger) (lookup.Resolver, error) {
	profile, err := fingerprint.ParseProfile(cfg.Lookup.Fingerprint)
	if err != nil {
		return nil, err
	}
	transport, err := fingerprint.Transport(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client := lookup.NewClient(lookup.ClientConfig{
		Endpoint:  cfg.Lookup.Endpoint,
		Limit:     cfg.Lookup.Limit,
		Timeout:   time.Duration(cfg.Lookup.Timeout) * time.Second,
		UserAgent: cfg.Lookup.UserAgent,
		Transport: transport,
	})

	retrying := lookup.NewRetrying(client, lookup.RetryConfig{
		MaxRetries:        *cfg.Retry.MaxRetries,
		InitialBackoff:    time.Duration(cfg.Retry.InitialBackoff) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Retry.MaxBackoff) * time.Millisecond,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, lookup.WithLogger(logger), lookup.WithObserver(metrics.ObserveLookup))

	var notifier lookup.Notifier = &lookup.LogNotifier{Logger: logger}
	if cfg.Lookup.ConfirmEndpoint != "" {
		notifier = &lookup.HoverConfirmer{
			Endpoint: cfg.Lookup.ConfirmEndpoint,
			Next:     notifier,
			Logger:   logger,
		}
	}

	return lookup.NewNotifying(retrying, notifier, cfg.Lookup.NotifyTlds...), nil
}

// Ledger exposes the store for reporting.
func (a *App) Ledger() *ledger.Store {
	return a.store
}

func (a *App) Close() error {
	return a.store.Close()
}

type counters struct {
	resolved atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

// Run spawns the configured number of workers and blocks until every one of
// them has stopped. Cancelling ctx stops new claims; lookups already in
// flight get ShutdownGrace to finish and commit. The only error returned is
// a fatal ledger failure.
func (a *App) Run(ctx context.Context) (*models.Summary, error) {
	startTime := time.Now()

	q := queue.New(a.words, a.store.Contains)
	summary := &models.Summary{
		RunID:          a.runID,
		DictionarySize: len(a.words),
		Pending:        q.Len(),
	}

	a.logger.Info("left to parse", "pending", q.Len(), "resolved", a.store.Len())
	if q.Len() == 0 {
		a.logger.Info("nothing left to parse")
		summary.AlreadyParsed = true
		summary.Elapsed(startTime)
		return summary, nil
	}

	bar := progressbar.NewOptions(q.Len(),
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionSetDescription("Resolving words..."),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	g, gCtx := errgroup.WithContext(ctx)

	// Lookups run on workCtx, which outlives gCtx by the shutdown grace
	// period so an interrupted scan can still commit what is in flight.
	workCtx := withGrace(ctx, gCtx, a.config.ShutdownGraceDuration())

	var c counters
	a.logger.Info("starting workers", "concurrency", a.config.Concurrency)
	for i := 0; i < a.config.Concurrency; i++ {
		id := i
		g.Go(func() error {
			return a.worker(gCtx, workCtx, id, q, bar, &c)
		})
	}

	err := g.Wait()
	workCtx.stop()
	_ = bar.Finish()

	summary.Claimed = q.Claimed()
	summary.Resolved = int(c.resolved.Load())
	summary.Skipped = int(c.skipped.Load())
	summary.Failed = int(c.failed.Load())
	summary.Interrupted = ctx.Err() != nil
	summary.Elapsed(startTime)

	if err != nil {
		a.logger.Error("scan aborted", "err", err)
		return summary, err
	}
	if summary.Interrupted {
		a.logger.Info("scan interrupted", "resolved", summary.Resolved, "remaining", q.Remaining())
	} else {
		a.logger.Info("full list parsed", "resolved", summary.Resolved, "failed", summary.Failed)
	}
	return summary, nil
}

// worker loops Claiming → Resolving → Committing until the queue is
// exhausted or claimCtx is done.
func (a *App) worker(claimCtx, workCtx context.Context, id int, q *queue.Queue, bar *progressbar.ProgressBar, c *counters) error {
	logger := a.logger.With("worker", id)
	defer logger.Debug("worker done")

	for {
		if claimCtx.Err() != nil {
			return nil
		}
		word, ok := q.Claim()
		if !ok {
			return nil
		}

		if a.store.Contains(word) {
			c.skipped.Add(1)
			metrics.WordsSkipped.WithLabelValues(metrics.SkipResolved).Inc()
			_ = bar.Add(1)
			continue
		}

		tlds, err := a.resolver.Resolve(workCtx, word)
		if err != nil {
			if workCtx.Err() != nil {
				metrics.WordsSkipped.WithLabelValues(metrics.SkipAborted).Inc()
				logger.Warn("lookup abandoned at shutdown", "word", word)
				return nil
			}
			c.failed.Add(1)
			metrics.WordsSkipped.WithLabelValues(metrics.SkipFailed).Inc()
			logger.Warn("lookup failed, skipping word", "word", word, "err", err)
			_ = bar.Add(1)
			continue
		}

		start := time.Now()
		// A resolved word is always committed, even mid-shutdown.
		if err := a.store.Commit(context.WithoutCancel(workCtx), word, tlds); err != nil {
			return fmt.Errorf("commit %q: %w", word, err)
		}
		metrics.CommitDuration.Observe(time.Since(start).Seconds())
		metrics.WordsCommitted.Inc()
		c.resolved.Add(1)
		_ = bar.Add(1)
	}
}

// IsFatal reports whether err should terminate the process.
func IsFatal(err error) bool {
	var se *ledger.StorageError
	var ie *dictionary.InputError
	return errors.As(err, &se) || errors.As(err, &ie)
}
