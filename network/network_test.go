package network

import (
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func hello(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, r.Proto)
}

func pool(server *httptest.Server) *x509.CertPool {
	p := x509.NewCertPool()
	p.AddCert(server.Certificate())
	return p
}

func get(client *http.Client, url string) (*http.Response, string) {
	resp := lo.Must(client.Get(url))
	defer resp.Body.Close()
	return resp, string(lo.Must(io.ReadAll(resp.Body)))
}

func TestNew(t *testing.T) {
	Convey("Given default options", t, func() {
		client := New(Options{})

		Convey("The client uses a plain transport with the default timeout", func() {
			So(client.Timeout, ShouldEqual, time.Minute)
			_, ok := client.Transport.(*http.Transport)
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given fingerprinting", t, func() {
		client := New(Options{Fingerprint: true, Timeout: time.Second})

		Convey("The Chrome transport is used", func() {
			So(client.Timeout, ShouldEqual, time.Second)
			_, ok := client.Transport.(*ChromeTransport)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestChromeTransport(t *testing.T) {
	Convey("Given a server speaking HTTP/2", t, func() {
		server := httptest.NewUnstartedServer(http.HandlerFunc(hello))
		server.EnableHTTP2 = true
		server.StartTLS()
		defer server.Close()

		client := New(Options{Fingerprint: true, RootCAs: pool(server)})

		Convey("Requests go over h2", func() {
			resp, body := get(client, server.URL)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.ProtoMajor, ShouldEqual, 2)
			So(body, ShouldEqual, "HTTP/2.0")
		})
	})

	Convey("Given a server speaking only HTTP/1.1", t, func() {
		server := httptest.NewTLSServer(http.HandlerFunc(hello))
		defer server.Close()

		transport := NewChromeTransport(pool(server))
		client := &http.Client{Transport: transport, Timeout: 5 * time.Second}

		Convey("Requests fall back to HTTP/1.1 and the host is remembered", func() {
			resp, body := get(client, server.URL)
			So(resp.ProtoMajor, ShouldEqual, 1)
			So(body, ShouldEqual, "HTTP/1.1")

			addr := server.Listener.Addr().String()
			_, remembered := transport.h1Only.Load(addr)
			So(remembered, ShouldBeTrue)

			_, body = get(client, server.URL)
			So(body, ShouldEqual, "HTTP/1.1")
		})
	})

	Convey("Given a server with an untrusted certificate", t, func() {
		server := httptest.NewTLSServer(http.HandlerFunc(hello))
		defer server.Close()

		client := New(Options{Fingerprint: true, RootCAs: x509.NewCertPool()})

		Convey("The handshake is rejected", func() {
			_, err := client.Get(server.URL)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a plain HTTP server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(hello))
		defer server.Close()

		client := New(Options{Fingerprint: true})

		Convey("Requests use an ordinary connection", func() {
			_, body := get(client, server.URL)
			So(body, ShouldEqual, "HTTP/1.1")
		})
	})
}

func TestChromeHello(t *testing.T) {
	Convey("Given an ALPN override", t, func() {
		spec := lo.Must(chromeHello([]string{http11}))

		Convey("Only that protocol is advertised", func() {
			var protos []string
			for _, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					protos = alpn.AlpnProtocols
				}
			}
			So(protos, ShouldResemble, []string{http11})
		})
	})
}
