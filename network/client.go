// Package network builds the HTTP clients used to fetch playlists, keys and segments.
package network

import (
	"crypto/x509"
	"net/http"
	"time"

	"github.com/samber/lo"
)

const defaultTimeout = time.Minute

// Options configure a client.
type Options struct {
	// Timeout bounds a single request including its body.
	Timeout time.Duration
	// Fingerprint makes TLS handshakes look like Chrome's.
	Fingerprint bool
	// RootCAs replaces the system pool when set.
	RootCAs *x509.CertPool
}

// New returns a client for stream downloads.
func New(options Options) *http.Client {
	var transport http.RoundTripper = newTransport()
	if options.Fingerprint {
		transport = NewChromeTransport(options.RootCAs)
	}

	return &http.Client{
		Timeout:   lo.Ternary(options.Timeout > 0, options.Timeout, defaultTimeout),
		Transport: transport,
	}
}

// newTransport keeps enough idle connections for back to back segment requests.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}
