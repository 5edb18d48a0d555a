package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Outcomes passed to an Observer.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailed  = "failed"
)

type RetryConfig struct {
	// MaxRetries < 0 retries until the context is cancelled.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Observer is notified after every attempt.
type Observer func(outcome string, elapsed time.Duration)

// Retrying wraps a Resolver with a shared rate limiter and exponential backoff.
type Retrying struct {
	next    Resolver
	limiter *rate.Limiter
	config  RetryConfig
	logger  *slog.Logger
	observe Observer
}

type RetryOption func(*Retrying)

func WithLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrying) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithObserver(observe Observer) RetryOption {
	return func(r *Retrying) { r.observe = observe }
}

func NewRetrying(next Resolver, config RetryConfig, opts ...RetryOption) *Retrying {
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 1 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	r := &Retrying{
		next:    next,
		limiter: rate.NewLimiter(limit, config.Burst),
		config:  config,
		logger:  slog.Default(),
		observe: func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.config.InitialBackoff)
	max := float64(r.config.MaxBackoff)
	calculated := math.Min(backoff*math.Pow(2, float64(attempt)), max)

	// ±20% jitter
	jitter := calculated * (0.8 + rand.Float64()*0.4)
	return time.Duration(jitter)
}

// Resolve retries the wrapped Resolver until it succeeds, the retry budget is
// spent, or ctx is done.
func (r *Retrying) Resolve(ctx context.Context, word string) ([]string, error) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.calculateBackoff(attempt - 1)):
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		start := time.Now()
		tlds, err := r.next.Resolve(ctx, word)
		if err == nil {
			r.observe(OutcomeSuccess, time.Since(start))
			return tlds, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if r.config.MaxRetries >= 0 && attempt >= r.config.MaxRetries {
			r.observe(OutcomeFailed, time.Since(start))
			return nil, fmt.Errorf("%w: %q after %d attempts: %w", ErrLookupFailed, word, attempt+1, err)
		}
		r.observe(OutcomeRetry, time.Since(start))
		r.logger.Warn("lookup attempt failed, retrying", "word", word, "attempt", attempt+1, "err", err)
	}
}
