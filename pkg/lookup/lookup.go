// Package lookup resolves a candidate word into the ranked list of TLDs under
// which it can still be registered.
package lookup

import (
	"context"
	"errors"
	"sort"
)

// ErrLookupFailed is returned once a bounded retry budget is exhausted.
var ErrLookupFailed = errors.New("lookup failed")

// Resolver turns a word into the TLDs it is available under, most desirable first.
type Resolver interface {
	Resolve(ctx context.Context, word string) ([]string, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, word string) ([]string, error)

func (f ResolverFunc) Resolve(ctx context.Context, word string) ([]string, error) {
	return f(ctx, word)
}

// Candidate is one TLD variant reported by the provider.
type Candidate struct {
	Label        string  `json:"label"`
	Tld          string  `json:"tld"`
	IsRegistered bool    `json:"isRegistered"`
	Rank         float64 `json:"rank"`
}

// Rank keeps the unregistered candidates and orders their TLDs by rank,
// descending. Equal ranks keep provider order.
func Rank(candidates []Candidate) []string {
	available := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.IsRegistered && c.Tld != "" {
			available = append(available, c)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Rank > available[j].Rank
	})

	tlds := make([]string, len(available))
	for i, c := range available {
		tlds[i] = c.Tld
	}
	return tlds
}
