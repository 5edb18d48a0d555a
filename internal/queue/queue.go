// Package queue hands out dictionary words to workers, one claim at a time.
package queue

import "sync/atomic"

// Queue is the list of words still to be resolved. Claim is lock-free so a
// worker never waits on another worker's storage I/O to get its next word.
type Queue struct {
	words  []string
	cursor atomic.Int64
}

// New builds a queue from words, dropping those for which resolved returns
// true. Order is preserved.
func New(words []string, resolved func(string) bool) *Queue {
	pending := make([]string, 0, len(words))
	for _, w := range words {
		if resolved != nil && resolved(w) {
			continue
		}
		pending = append(pending, w)
	}
	return &Queue{words: pending}
}

// Claim returns the next unclaimed word. ok is false once the queue is exhausted.
func (q *Queue) Claim() (word string, ok bool) {
	i := q.cursor.Add(1) - 1
	if i >= int64(len(q.words)) {
		return "", false
	}
	return q.words[i], true
}

// Len is the number of words the queue started with.
func (q *Queue) Len() int {
	return len(q.words)
}

// Claimed is the number of words handed out so far.
func (q *Queue) Claimed() int {
	n := q.cursor.Load()
	if n > int64(len(q.words)) {
		return len(q.words)
	}
	return int(n)
}

func (q *Queue) Remaining() int {
	return len(q.words) - q.Claimed()
}
