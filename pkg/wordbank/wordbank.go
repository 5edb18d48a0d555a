package wordbank

import (
	"strings"
	"sync"
)

// WordBank is a concurrent set of lowercase words.
type WordBank struct {
	words map[string]struct{}
	mu    sync.RWMutex
}

func New(words ...string) *WordBank {
	wb := &WordBank{
		words: make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		wb.words[strings.ToLower(w)] = struct{}{}
	}
	return wb
}

// Add inserts word and reports whether it was not already present.
func (wb *WordBank) Add(word string) bool {
	key := strings.ToLower(word)
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if _, exists := wb.words[key]; exists {
		return false
	}
	wb.words[key] = struct{}{}
	return true
}

func (wb *WordBank) Contains(word string) bool {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	_, exists := wb.words[strings.ToLower(word)]
	return exists
}

func (wb *WordBank) Len() int {
	wb.mu.RLock()
	defer wb.mu.RUnlock()
	return len(wb.words)
}
