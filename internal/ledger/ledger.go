// Package ledger keeps the word → available-TLD mapping in memory and writes
// it through to a durable Backend after every commit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/NivBraz/domainscan/internal/models"
	"github.com/NivBraz/domainscan/pkg/wordbank"
)

// Backend persists ledger state. Save receives the full in-memory snapshot and
// the entry that just changed; implementations use whichever they need and
// must apply it atomically. Load returns nil, nil when nothing is stored yet.
type Backend interface {
	Load(ctx context.Context) (*models.Ledger, error)
	Save(ctx context.Context, snapshot *models.Ledger, change models.Entry) error
	Close() error
}

// StorageError reports a ledger that cannot be read or written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type Options struct {
	// MaxTlds caps how many TLDs are kept per word. Zero keeps them all.
	MaxTlds int
	// IndexTlds lists the TLDs that get a reverse index in availableTld.
	IndexTlds []string
	Logger    *slog.Logger
}

type Store struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	// mu serializes Commit end to end: merge, persist, rollback.
	mu     sync.Mutex
	ledger *models.Ledger

	// resolved mirrors the ledger keys under its own lock so Contains never
	// waits behind a commit that is busy writing.
	resolved *wordbank.WordBank
}

// Open loads the ledger from backend, writing an empty skeleton if nothing
// has been stored yet.
func Open(ctx context.Context, backend Backend, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l, err := backend.Load(ctx)
	if err != nil {
		var se *StorageError
		if !errors.As(err, &se) {
			err = &StorageError{Op: "load", Err: err}
		}
		return nil, err
	}

	if l == nil {
		l = models.NewLedger()
		if err := backend.Save(ctx, l, models.Entry{}); err != nil {
			return nil, asStorageError("init", err)
		}
		logger.Info("created empty ledger")
	}
	if l.AvailableDomains == nil {
		l.AvailableDomains = make(map[string][]string)
	}
	if l.AvailableTld == nil {
		l.AvailableTld = make(map[string][]string)
	}

	resolved := wordbank.New()
	for word := range l.AvailableDomains {
		resolved.Add(word)
	}

	return &Store{
		backend:  backend,
		opts:     opts,
		logger:   logger,
		ledger:   l,
		resolved: resolved,
	}, nil
}

// Contains reports whether word already has a committed result.
func (s *Store) Contains(word string) bool {
	return s.resolved.Contains(word)
}

func (s *Store) Len() int {
	return s.resolved.Len()
}

// Commit merges the result for word into the ledger and persists it. If the
// backend fails the in-memory ledger is left exactly as it was.
func (s *Store) Commit(ctx context.Context, word string, tlds []string) error {
	kept := truncate(tlds, s.opts.MaxTlds)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.ledger.AvailableDomains[word]
	prevIndex := make(map[string][]string, len(s.opts.IndexTlds))
	for _, tld := range s.opts.IndexTlds {
		if words, ok := s.ledger.AvailableTld[tld]; ok {
			prevIndex[tld] = slices.Clone(words)
		}
	}

	entry := models.Entry{Word: word, Tlds: kept}
	s.ledger.AvailableDomains[word] = kept
	for _, tld := range s.opts.IndexTlds {
		words := s.ledger.AvailableTld[tld]
		switch {
		case slices.Contains(kept, tld):
			entry.Indexed = append(entry.Indexed, tld)
			if !slices.Contains(words, word) {
				s.ledger.AvailableTld[tld] = append(words, word)
			}
		case existed:
			if i := slices.Index(words, word); i >= 0 {
				words = slices.Delete(slices.Clone(words), i, i+1)
				if len(words) == 0 {
					delete(s.ledger.AvailableTld, tld)
				} else {
					s.ledger.AvailableTld[tld] = words
				}
			}
		}
	}

	if err := s.backend.Save(ctx, s.ledger, entry); err != nil {
		if existed {
			s.ledger.AvailableDomains[word] = prev
		} else {
			delete(s.ledger.AvailableDomains, word)
		}
		for _, tld := range s.opts.IndexTlds {
			if words, ok := prevIndex[tld]; ok {
				s.ledger.AvailableTld[tld] = words
			} else {
				delete(s.ledger.AvailableTld, tld)
			}
		}
		return asStorageError("commit", err)
	}

	s.resolved.Add(word)
	s.logger.Debug("committed", "word", word, "tlds", kept)
	return nil
}

// Snapshot returns a deep copy of the current ledger.
func (s *Store) Snapshot() *models.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func truncate(tlds []string, max int) []string {
	n := len(tlds)
	if max > 0 && n > max {
		n = max
	}
	out := make([]string, n)
	copy(out, tlds[:n])
	return out
}

func asStorageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
