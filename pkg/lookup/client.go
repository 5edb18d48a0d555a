package lookup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultEndpoint is the instant-search name service queried by Client.
const DefaultEndpoint = "https://instantdomainsearch.com/services/name"

type ClientConfig struct {
	Endpoint  string
	Limit     int
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the default transport, e.g. with a uTLS fingerprint.
	Transport http.RoundTripper
}

// Client performs a single lookup attempt per Resolve call. Retrying is
// layered on top by Retrying.
type Client struct {
	client         *http.Client
	config         ClientConfig
	mu             sync.Mutex
	userAgents     []string
	currentUAIndex int
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

func NewClient(config ClientConfig) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Limit <= 0 {
		config.Limit = 1000
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	userAgents := defaultUserAgents
	if config.UserAgent != "" {
		userAgents = []string{config.UserAgent}
	}

	c := &http.Client{Timeout: config.Timeout}
	if config.Transport != nil {
		c.Transport = config.Transport
	}

	return &Client{
		client:     c,
		config:     config,
		userAgents: userAgents,
	}
}

func (c *Client) rotateUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentUAIndex = (c.currentUAIndex + 1) % len(c.userAgents)
	return c.userAgents[c.currentUAIndex]
}

func (c *Client) lookupURL(word string) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.config.Limit))
	q.Set("tldTags", "all")
	return strings.TrimRight(c.config.Endpoint, "/") + "/" + url.PathEscape(word) + "?" + q.Encode()
}

// Resolve issues one request for word and returns the ranked available TLDs.
func (c *Client) Resolve(ctx context.Context, word string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(word), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.rotateUserAgent())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Referer", "https://instantdomainsearch.com/domain/extensions/")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", word, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited (status %d)", resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	candidates, err := ParseCandidates(body)
	if err != nil {
		return nil, err
	}
	return Rank(candidates), nil
}

// ParseCandidates decodes a newline-delimited JSON body, one candidate per line.
func ParseCandidates(body []byte) ([]Candidate, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var candidates []Candidate
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var c Candidate
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("malformed response line %d: %w", line, err)
		}
		if c.Tld == "" {
			return nil, fmt.Errorf("malformed response line %d: missing tld", line)
		}
		candidates = append(candidates, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning response: %w", err)
	}
	return candidates, nil
}
