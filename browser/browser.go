// Package browser exposes the browser capabilities page capture relies on
// and implements them on top of go-rod.
package browser

import (
	"context"
	"time"
)

// Response is a finished network response observed on a page.
type Response interface {
	URL() string
	Status() int
	// Body fetches the response body. It is only valid while the page is open.
	Body() ([]byte, error)
}

// Page is a single tab. Handlers must be registered before Navigate;
// they run on the page's event goroutine.
type Page interface {
	OnRequest(handler func(url string))
	OnResponse(handler func(Response))
	// Navigate loads url and waits for DOMContentLoaded, at most timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitIdle waits until the network goes quiet, at most timeout.
	WaitIdle(ctx context.Context, timeout time.Duration) error
	// Attributes returns the value of attr on every element matching xpath.
	Attributes(ctx context.Context, xpath, attr string) ([]string, error)
	Close() error
}

// Context is an isolated browsing session sharing no cookies or storage with others.
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Engine is a running browser.
type Engine interface {
	NewContext(ctx context.Context) (Context, error)
	Close() error
}

// Launcher starts an engine.
type Launcher func(ctx context.Context) (Engine, error)

// Options control how the engine is launched.
type Options struct {
	Headless  bool
	Bin       string
	Stealth   bool
	NoSandbox bool
	// BrowserDir is where a Chromium build is downloaded when none is installed.
	BrowserDir string
}

// NewLauncher binds options to Launch.
func NewLauncher(options Options) Launcher {
	return func(ctx context.Context) (Engine, error) {
		return Launch(ctx, options)
	}
}

// Installed reports the path of a locally installed browser, if any.
func Installed(bin string) (string, bool) {
	if bin != "" {
		return bin, true
	}
	return lookPath()
}
