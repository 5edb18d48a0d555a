package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons.
const (
	SkipResolved = "resolved"
	SkipFailed   = "lookup_failed"
	SkipAborted  = "aborted"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainscan_lookups_total",
			Help: "Lookup attempts by outcome (success, retry, failed)",
		},
		[]string{"outcome"},
	)

	LookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "domainscan_lookup_duration_seconds",
			Help:    "Duration of single lookup attempts in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	WordsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domainscan_words_committed_total",
			Help: "Words whose result was written to the ledger",
		},
	)

	WordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainscan_words_skipped_total",
			Help: "Claimed words that were not committed, by reason",
		},
		[]string{"reason"},
	)

	CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "domainscan_commit_duration_seconds",
			Help:    "Time spent merging and persisting a single result",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)
)

// ObserveLookup records one lookup attempt.
func ObserveLookup(outcome string, elapsed time.Duration) {
	LookupsTotal.WithLabelValues(outcome).Inc()
	LookupDuration.Observe(elapsed.Seconds())
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins listening on port in the background.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
