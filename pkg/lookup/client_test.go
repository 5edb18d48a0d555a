package lookup

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
)

const testEndpoint = "https://lookup.example.test/services/name"

func TestClientResolve(t *testing.T) {
	body := strings.Join([]string{
		`{"label":"abc","tld":"net","isRegistered":false,"rank":5}`,
		`{"label":"abc","tld":"org","isRegistered":true,"rank":9}`,
		`{"label":"abc","tld":"com","isRegistered":false,"rank":10}`,
		``,
		`{"label":"abc","tld":"io","isRegistered":false,"rank":1}`,
	}, "\n")

	tests := []struct {
		name       string
		status     int
		body       string
		expected   []string
		wantErr    bool
		errContain string
	}{
		{
			name:     "Ranked Available TLDs",
			status:   http.StatusOK,
			body:     body,
			expected: []string{"com", "net", "io"},
		},
		{
			name:     "Empty Body",
			status:   http.StatusOK,
			body:     "",
			expected: []string{},
		},
		{
			name:       "Malformed Line",
			status:     http.StatusOK,
			body:       `{"tld":"com"}` + "\n" + `not json`,
			wantErr:    true,
			errContain: "malformed response line 2",
		},
		{
			name:       "Rate Limited",
			status:     http.StatusTooManyRequests,
			wantErr:    true,
			errContain: "rate limited",
		},
		{
			name:       "Server Error",
			status:     http.StatusInternalServerError,
			wantErr:    true,
			errContain: "unexpected status code: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(ClientConfig{Endpoint: testEndpoint})
			httpmock.ActivateNonDefault(c.client)
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder(http.MethodGet, testEndpoint+"/abc",
				func(req *http.Request) (*http.Response, error) {
					if req.Header.Get("User-Agent") == "" {
						t.Error("User-Agent header not set")
					}
					if got := req.URL.Query().Get("tldTags"); got != "all" {
						t.Errorf("tldTags = %q, want all", got)
					}
					if got := req.URL.Query().Get("limit"); got != "1000" {
						t.Errorf("limit = %q, want 1000", got)
					}
					return httpmock.NewStringResponse(tt.status, tt.body), nil
				})

			got, err := c.Resolve(context.Background(), "abc")
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errContain) {
					t.Errorf("error %q does not contain %q", err, tt.errContain)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolve() = %v, want %v", got, tt.expected)
			}
			if n := httpmock.GetTotalCallCount(); n != 1 {
				t.Errorf("expected exactly one request, got %d", n)
			}
		})
	}
}

func TestRotateUserAgent(t *testing.T) {
	c := NewClient(ClientConfig{})

	seen := make(map[string]bool)
	for i := 0; i < len(defaultUserAgents)*2; i++ {
		ua := c.rotateUserAgent()
		if ua == "" {
			t.Error("Got empty user agent")
		}
		seen[ua] = true
	}
	if len(seen) != len(defaultUserAgents) {
		t.Errorf("Expected to see %d unique user agents, got %d", len(defaultUserAgents), len(seen))
	}

	fixed := NewClient(ClientConfig{UserAgent: "domainscan/1.0"})
	if ua := fixed.rotateUserAgent(); ua != "domainscan/1.0" {
		t.Errorf("expected configured user agent, got %q", ua)
	}
}

func TestLookupURLEscapesWord(t *testing.T) {
	c := NewClient(ClientConfig{Endpoint: testEndpoint + "/", Limit: 50})
	got := c.lookupURL("a b")
	want := testEndpoint + "/a%20b?limit=50&tldTags=all"
	if got != want {
		t.Errorf("lookupURL() = %q, want %q", got, want)
	}
}
