package models

import (
	"slices"
	"time"
)

// Ledger is the persisted scan state. Field order matches the on-disk layout.
type Ledger struct {
	AvailableTld     map[string][]string `json:"availableTld"`
	AvailableDomains map[string][]string `json:"availableDomains"`
}

// NewLedger returns the empty skeleton written on first run.
func NewLedger() *Ledger {
	return &Ledger{
		AvailableTld:     make(map[string][]string),
		AvailableDomains: make(map[string][]string),
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	out := NewLedger()
	for word, tlds := range l.AvailableDomains {
		out.AvailableDomains[word] = slices.Clone(tlds)
	}
	for tld, words := range l.AvailableTld {
		out.AvailableTld[tld] = slices.Clone(words)
	}
	return out
}

// Entry is a single committed word together with the index keys it belongs to.
type Entry struct {
	Word    string
	Tlds    []string
	Indexed []string
}

type Summary struct {
	RunID          string `json:"runId"`
	DictionarySize int    `json:"dictionarySize"`
	Pending        int    `json:"pending"`
	Claimed        int    `json:"claimed"`
	Resolved       int    `json:"resolved"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	AlreadyParsed  bool   `json:"alreadyParsed"`
	Interrupted    bool   `json:"interrupted"`
	TimeElapsed    int    `json:"timeElapsedMs"`
}

// Elapsed records the wall-clock duration of the run in milliseconds.
func (s *Summary) Elapsed(start time.Time) {
	s.TimeElapsed = int(time.Since(start).Milliseconds())
}
