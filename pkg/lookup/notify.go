package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultConfirmEndpoint is the registrar endpoint HoverConfirmer queries.
const DefaultConfirmEndpoint = "https://www.hover.com/api/lookup"

// Notifier is told about desirable domains as soon as they are found.
// It never influences what gets committed.
type Notifier interface {
	Notify(ctx context.Context, word, tld string)
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, word, tld string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(fmt.Sprintf("%s.%s is available", word, tld), "word", word, "tld", tld)
}

// HoverConfirmer asks a second registrar whether the domain is really free
// before passing the notification on. Any error counts as "not confirmed".
type HoverConfirmer struct {
	Endpoint string
	Client   *http.Client
	Next     Notifier
	Logger   *slog.Logger
}

type hoverResponse struct {
	Taken []string `json:"taken"`
}

func (h *HoverConfirmer) Notify(ctx context.Context, word, tld string) {
	available, err := h.confirm(ctx, word+"."+tld)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("confirmation failed", "word", word, "tld", tld, "err", err)
		}
		return
	}
	if available && h.Next != nil {
		h.Next.Notify(ctx, word, tld)
	}
}

func (h *HoverConfirmer) confirm(ctx context.Context, domain string) (bool, error) {
	endpoint := h.Endpoint
	if endpoint == "" {
		endpoint = DefaultConfirmEndpoint
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	q := url.Values{}
	q.Set("q", domain)
	q.Set("exact_search", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("error fetching %s: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data hoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return false, fmt.Errorf("error decoding response: %w", err)
	}
	for _, taken := range data.Taken {
		if taken == domain {
			return false, nil
		}
	}
	return true, nil
}

// Notifying calls Notifier for every desirable TLD in a successful result.
type Notifying struct {
	next     Resolver
	tlds     map[string]struct{}
	notifier Notifier
}

func NewNotifying(next Resolver, notifier Notifier, tlds ...string) *Notifying {
	set := make(map[string]struct{}, len(tlds))
	for _, t := range tlds {
		set[t] = struct{}{}
	}
	return &Notifying{next: next, tlds: set, notifier: notifier}
}

func (n *Notifying) Resolve(ctx context.Context, word string) ([]string, error) {
	tlds, err := n.next.Resolve(ctx, word)
	if err != nil {
		return nil, err
	}
	for _, tld := range tlds {
		if _, ok := n.tlds[tld]; ok {
			n.notifier.Notify(ctx, word, tld)
		}
	}
	return tlds, nil
}
