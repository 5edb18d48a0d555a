// Package dictionary loads the candidate word list a scan works through.
package dictionary

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NivBraz/domainscan/pkg/parser"
	"github.com/NivBraz/domainscan/pkg/wordbank"
)

// InputError reports a dictionary source that could not be read.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("dictionary %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

type Options struct {
	// MaxWordLength drops longer words. Zero disables the filter.
	MaxWordLength int
	// Client fetches http(s) sources. Defaults to a client with a 30s timeout.
	Client *http.Client
}

// Load reads source (a file path or an http(s) URL) and returns the valid,
// deduplicated words in their original order.
func Load(ctx context.Context, source string, opts Options) ([]string, error) {
	content, isHTML, err := read(ctx, source, opts.Client)
	if err != nil {
		return nil, &InputError{Source: source, Err: err}
	}

	p := parser.New()
	var raw []string
	if isHTML {
		raw, err = p.ParseHTML(content)
		if err != nil {
			return nil, &InputError{Source: source, Err: fmt.Errorf("error parsing html: %w", err)}
		}
	} else {
		raw = p.ParseWordList(content)
	}

	return Filter(raw, opts.MaxWordLength), nil
}

// Filter keeps valid domain labels no longer than maxLen, dropping repeats.
func Filter(words []string, maxLen int) []string {
	seen := wordbank.New()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if maxLen > 0 && len(w) > maxLen {
			continue
		}
		if !parser.IsDomainLabel(w) {
			continue
		}
		if seen.Add(w) {
			out = append(out, w)
		}
	}
	return out
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func read(ctx context.Context, source string, client *http.Client) ([]byte, bool, error) {
	if !isRemote(source) {
		content, err := os.ReadFile(source)
		if err != nil {
			return nil, false, err
		}
		ext := strings.ToLower(filepath.Ext(source))
		return content, ext == ".html" || ext == ".htm", nil
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, false, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("error fetching URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("error reading response body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return body, mediaType == "text/html", nil
}
