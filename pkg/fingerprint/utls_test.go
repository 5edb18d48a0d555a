package fingerprint

import (
	"net"
	"net/http"
	"testing"

	utls "github.com/refraction-networking/utls"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in      string
		want    Profile
		wantErr bool
	}{
		{"", ProfileGo, false},
		{"go", ProfileGo, false},
		{" Chrome ", ProfileChrome, false},
		{"firefox", ProfileFirefox, false},
		{"safari", ProfileSafari, false},
		{"random", ProfileRandom, false},
		{"netscape", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProfile(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProfile(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseProfile(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransport(t *testing.T) {
	for _, p := range []Profile{ProfileGo, ProfileChrome, ProfileFirefox, ProfileSafari, ProfileRandom} {
		t.Run(string(p), func(t *testing.T) {
			rt, err := Transport(p)
			if err != nil {
				t.Fatalf("Transport(%q) error = %v", p, err)
			}
			tr, ok := rt.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", rt)
			}
			if p == ProfileGo && tr.DialTLSContext != nil {
				t.Error("go profile should use the standard TLS dialer")
			}
			if p != ProfileGo && tr.DialTLSContext == nil {
				t.Error("expected a custom TLS dialer")
			}
		})
	}

	if _, err := Transport("netscape"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestRandomProfileOffersNoALPN(t *testing.T) {
	id, err := helloID(ProfileRandom)
	if err != nil {
		t.Fatalf("helloID() error = %v", err)
	}
	if id != utls.HelloRandomizedNoALPN {
		t.Errorf("random profile = %s, want a hello without ALPN", id.Str())
	}
}

func TestNewUConn(t *testing.T) {
	ids := []utls.ClientHelloID{utls.HelloChrome_Auto, utls.HelloFirefox_Auto, utls.HelloIOS_Auto, utls.HelloRandomizedNoALPN}
	for _, id := range ids {
		t.Run(id.Str(), func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			uConn, err := newUConn(client, "example.com", id)
			if err != nil {
				t.Fatalf("newUConn() error = %v", err)
			}
			if uConn == nil {
				t.Fatal("expected a connection")
			}
		})
	}
}
