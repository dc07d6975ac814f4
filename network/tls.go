package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/streamgrab/streamgrab/log"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

const http11 = "http/1.1"

// ChromeTransport sends requests over connections whose ClientHello matches Chrome 120.
// HTTPS requests try HTTP/2 first and fall back to HTTP/1.1 for hosts that do not negotiate h2.
// Plain HTTP goes through an ordinary transport.
type ChromeTransport struct {
	rootCAs *x509.CertPool
	h2      *http2.Transport
	h1      *http.Transport

	// h1Only holds host:port pairs that refused h2.
	h1Only sync.Map
}

func NewChromeTransport(rootCAs *x509.CertPool) *ChromeTransport {
	t := &ChromeTransport{rootCAs: rootCAs}

	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return t.dial(ctx, network, addr, nil, http2.NextProtoTLS)
		},
	}

	t.h1 = newTransport()
	t.h1.ForceAttemptHTTP2 = false
	t.h1.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return t.dial(ctx, network, addr, []string{http11}, http11)
	}

	return t
}

func (t *ChromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	if _, ok := t.h1Only.Load(authority(req.URL)); ok {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, err
	}

	retry, ok := rewind(req)
	if !ok {
		return nil, err
	}

	log.Debugf("h2 request to %s failed, retrying over %s: %s", req.URL.Host, http11, err)
	return t.h1.RoundTrip(retry)
}

// CloseIdleConnections closes idle connections of both transports.
func (t *ChromeTransport) CloseIdleConnections() {
	t.h2.CloseIdleConnections()
	t.h1.CloseIdleConnections()
}

func (t *ChromeTransport) dial(ctx context.Context, network, addr string, protos []string, want string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := chromeHello(protos)
	if err != nil {
		conn.Close()
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		RootCAs:    t.rootCAs,
		MinVersion: tls.VersionTLS12,
	}, utls.HelloCustom)

	if err := tlsConn.ApplyPreset(spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply client hello: %w", err)
	}

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	got := tlsConn.ConnectionState().NegotiatedProtocol
	switch {
	case want == http2.NextProtoTLS && got != want:
		t.h1Only.Store(addr, struct{}{})
		tlsConn.Close()
		return nil, fmt.Errorf("%s negotiated %q instead of h2", host, got)
	case want != http2.NextProtoTLS && got == http2.NextProtoTLS:
		tlsConn.Close()
		return nil, fmt.Errorf("%s insists on h2", host)
	}

	return tlsConn, nil
}

// chromeHello returns the Chrome 120 ClientHello, advertising only protos over ALPN when given.
func chromeHello(protos []string) (*utls.ClientHelloSpec, error) {
	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
	if err != nil {
		return nil, fmt.Errorf("client hello: %w", err)
	}

	if len(protos) > 0 {
		for _, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = protos
			}
		}
	}

	return &spec, nil
}

func authority(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// rewind returns a copy of req that can be sent again.
func rewind(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}

	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}
