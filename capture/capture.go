// Package capture drives a single browser page visit and reports the
// manifests, mirror links and metadata the page revealed while loading.
package capture

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/samber/mo"
	"github.com/streamgrab/streamgrab/browser"
	"github.com/streamgrab/streamgrab/log"
	"github.com/streamgrab/streamgrab/source"
)

// Result is what one page visit produced.
type Result struct {
	URL       string
	Manifests source.ManifestSet
	// Mirrors is only scanned when Manifests is empty.
	Mirrors  source.MirrorLinks
	Metadata mo.Option[source.Metadata]
	// NavigationErr is set when the page failed to load in time.
	// Whatever was observed before the failure is still reported.
	NavigationErr error
}

// Session captures pages. It is safe for concurrent use;
// every capture gets its own isolated browsing context.
type Session struct {
	launch  browser.Launcher
	engine  browser.Engine
	options Options
}

// New returns a session that starts a browser for every capture and closes it afterwards.
func New(launch browser.Launcher, options Options) *Session {
	return &Session{launch: launch, options: options.withDefaults()}
}

// Shared returns a session that captures on an already running engine.
// The engine is never closed by the session.
func Shared(engine browser.Engine, options Options) *Session {
	return &Session{engine: engine, options: options.withDefaults()}
}

// Capture visits rawURL and records what the page requests and links to.
// Only failures to set up the browser are returned as errors;
// a page that loads badly or reveals nothing yields an empty Result.
func (s *Session) Capture(ctx context.Context, rawURL string) (*Result, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || !pageURL.IsAbs() || pageURL.Host == "" {
		return nil, fmt.Errorf("capture %q: not an absolute URL", rawURL)
	}

	engine, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := engine.NewContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", rawURL, err)
	}
	defer closeLogged("browser context", session.Close)

	page, err := session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", rawURL, err)
	}
	defer closeLogged("page", page.Close)

	st := newState(s.options.Markers)
	page.OnRequest(st.request)
	page.OnResponse(st.response)

	result := &Result{URL: rawURL}

	log.Infof("capturing %s", rawURL)
	if err := page.Navigate(ctx, rawURL, s.options.NavigationTimeout); err != nil {
		log.Warnf("navigation to %s failed: %s", rawURL, err)
		result.NavigationErr = err
	}

	s.await(ctx, st)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Manifests, result.Metadata = st.snapshot()
	if result.Manifests.Empty() {
		result.Mirrors = s.scanLinks(ctx, page, pageURL)
	}

	log.WithFields(log.Fields{
		"url":       rawURL,
		"manifests": result.Manifests.Len(),
		"mirrors":   len(result.Mirrors),
		"metadata":  result.Metadata.IsPresent(),
	}).Info("capture finished")

	return result, nil
}

// acquire returns the engine to capture on and a function releasing it.
func (s *Session) acquire(ctx context.Context) (browser.Engine, func(), error) {
	if s.engine != nil {
		return s.engine, func() {}, nil
	}

	engine, err := s.launch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}

	return engine, func() { closeLogged("browser", engine.Close) }, nil
}

// await blocks until the page revealed both metadata and a manifest, the wait budget ran out, or ctx ended.
func (s *Session) await(ctx context.Context, st *state) {
	timer := time.NewTimer(s.options.WaitBudget)
	defer timer.Stop()

	select {
	case <-st.ready:
	case <-timer.C:
	case <-ctx.Done():
	}
}

func closeLogged(what string, fn func() error) {
	if err := fn(); err != nil {
		log.Warnf("closing %s: %s", what, err)
	}
}
