package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/streamgrab/streamgrab/browser"
)

// script describes how a fake page behaves for one URL.
type script struct {
	requests  []string
	responses []fakeResponse
	// late events arrive after Navigate returned.
	late      []string
	lateDelay time.Duration
	navErr    error
	hrefs     []string
	hrefsErr  error
}

type fakeResponse struct {
	url     string
	status  int
	body    string
	bodyErr error
}

func (r fakeResponse) URL() string { return r.url }

func (r fakeResponse) Status() int { return r.status }

func (r fakeResponse) Body() ([]byte, error) {
	if r.bodyErr != nil {
		return nil, r.bodyErr
	}
	return []byte(r.body), nil
}

type fakeEngine struct {
	scripts map[string]script
	pageErr error

	mu             sync.Mutex
	closed         int
	contexts       int
	contextsClosed int
	pages          int
	pagesClosed    int
	scans          int
}

func newFakeEngine(scripts map[string]script) *fakeEngine {
	return &fakeEngine{scripts: scripts}
}

func (e *fakeEngine) launcher(launches *int) browser.Launcher {
	return func(context.Context) (browser.Engine, error) {
		*launches++
		return e, nil
	}
}

func (e *fakeEngine) NewContext(context.Context) (browser.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contexts++
	return &fakeContext{engine: e}, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

func (e *fakeEngine) counts() (closed, contexts, contextsClosed, pages, pagesClosed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed, e.contexts, e.contextsClosed, e.pages, e.pagesClosed
}

type fakeContext struct {
	engine *fakeEngine
}

func (c *fakeContext) NewPage(context.Context) (browser.Page, error) {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	if c.engine.pageErr != nil {
		return nil, c.engine.pageErr
	}
	c.engine.pages++
	return &fakePage{engine: c.engine}, nil
}

func (c *fakeContext) Close() error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	c.engine.contextsClosed++
	return nil
}

type fakePage struct {
	engine     *fakeEngine
	script     script
	onRequest  []func(string)
	onResponse []func(browser.Response)
}

func (p *fakePage) OnRequest(h func(string)) { p.onRequest = append(p.onRequest, h) }

func (p *fakePage) OnResponse(h func(browser.Response)) { p.onResponse = append(p.onResponse, h) }

func (p *fakePage) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.script = p.engine.scripts[url]

	for _, r := range p.script.requests {
		p.emitRequest(r)
	}
	for _, r := range p.script.responses {
		for _, h := range p.onResponse {
			h(r)
		}
	}

	if len(p.script.late) > 0 {
		late := p.script.late
		delay := p.script.lateDelay
		go func() {
			time.Sleep(delay)
			for _, r := range late {
				p.emitRequest(r)
			}
		}()
	}

	return p.script.navErr
}

func (p *fakePage) emitRequest(url string) {
	for _, h := range p.onRequest {
		h(url)
	}
}

func (p *fakePage) WaitIdle(context.Context, time.Duration) error {
	return errors.New("still busy")
}

func (p *fakePage) Attributes(_ context.Context, _, attr string) ([]string, error) {
	p.engine.mu.Lock()
	p.engine.scans++
	p.engine.mu.Unlock()

	if attr != "href" {
		return nil, nil
	}
	return p.script.hrefs, p.script.hrefsErr
}

func (p *fakePage) Close() error {
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	p.engine.pagesClosed++
	return nil
}
