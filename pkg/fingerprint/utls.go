// Package fingerprint builds HTTP transports whose TLS ClientHello looks like
// a real browser, so lookup traffic blends in with ordinary site visitors.
package fingerprint

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	utls "github.com/refraction-networking/utls"
)

type Profile string

const (
	ProfileGo      Profile = "go"
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileRandom  Profile = "random"
)

// ParseProfile maps a config value onto a Profile. Empty means ProfileGo.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return ProfileGo, nil
	case ProfileGo, ProfileChrome, ProfileFirefox, ProfileSafari, ProfileRandom:
		return p, nil
	}
	return "", fmt.Errorf("unknown fingerprint profile %q", s)
}

func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		// the ALPN variant picks its own protocols, which may include h2
		return utls.HelloRandomizedNoALPN, nil
	}
	return utls.ClientHelloID{}, fmt.Errorf("no ClientHello for profile %q", p)
}

// Transport returns a RoundTripper for p. ProfileGo is a plain clone of
// http.DefaultTransport; every other profile performs the handshake with uTLS.
func Transport(p Profile) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p == ProfileGo || p == "" {
		return transport, nil
	}

	id, err := helloID(p)
	if err != nil {
		return nil, err
	}

	// uTLS connections do not negotiate h2 through net/http.
	transport.ForceAttemptHTTP2 = false
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := transport.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		uConn, err := newUConn(conn, host, id)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		if err := uConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("utls handshake with %s failed: %w", host, err)
		}
		return uConn, nil
	}

	return transport, nil
}

// newUConn wraps conn with the ClientHello for id, restricting ALPN to
// http/1.1 since the transport cannot speak h2 over a uTLS conn.
func newUConn(conn net.Conn, host string, id utls.ClientHelloID) (*utls.UConn, error) {
	config := &utls.Config{
		ServerName: host,
		NextProtos: []string{"http/1.1"},
	}

	spec, err := utls.UTLSIdToSpec(id)
	if err != nil {
		// randomized hellos have no fixed spec
		return utls.UClient(conn, config, id), nil
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	uConn := utls.UClient(conn, config, utls.HelloCustom)
	if err := uConn.ApplyPreset(&spec); err != nil {
		return nil, fmt.Errorf("failed to apply %s hello: %w", id.Str(), err)
	}
	return uConn, nil
}
