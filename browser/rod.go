package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/streamgrab/streamgrab/log"
)

// idleWindow is how long the network must stay quiet to count as idle.
const idleWindow = 500 * time.Millisecond

func lookPath() (string, bool) {
	return launcher.LookPath()
}

// Launch starts a Chromium process and connects to it over CDP.
func Launch(ctx context.Context, options Options) (Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bin, err := resolveBin(options)
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Bin(bin).
		Headless(options.Headless).
		NoSandbox(options.NoSandbox).
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	log.Infof("browser started at %s", controlURL)
	return &rodEngine{
		browser:  b,
		launcher: l,
		stealth:  options.Stealth,
	}, nil
}

func resolveBin(options Options) (string, error) {
	if path, ok := Installed(options.Bin); ok {
		return path, nil
	}

	b := launcher.NewBrowser()
	if options.BrowserDir != "" {
		b.RootDir = options.BrowserDir
	}

	path, err := b.Get()
	if err != nil {
		return "", fmt.Errorf("download browser: %w", err)
	}

	return path, nil
}

type rodEngine struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	stealth  bool
}

func (e *rodEngine) NewContext(ctx context.Context) (Context, error) {
	incognito, err := e.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	return &rodContext{browser: incognito.Context(context.Background()), stealth: e.stealth}, nil
}

func (e *rodEngine) Close() error {
	err := e.browser.Close()
	e.launcher.Cleanup()
	return err
}

type rodContext struct {
	browser *rod.Browser
	stealth bool
}

func (c *rodContext) NewPage(ctx context.Context) (Page, error) {
	var (
		page *rod.Page
		err  error
	)

	if c.stealth {
		page, err = stealth.Page(c.browser.Context(ctx))
	} else {
		page, err = c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	return newRodPage(page.Context(context.Background()))
}

func (c *rodContext) Close() error {
	return c.browser.Close()
}

type rodPage struct {
	page   *rod.Page
	cancel context.CancelFunc

	mu         sync.Mutex
	onRequest  []func(string)
	onResponse []func(Response)
	pending    map[proto.NetworkRequestID]*rodResponse
}

func newRodPage(page *rod.Page) (*rodPage, error) {
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	events, cancel := context.WithCancel(context.Background())
	p := &rodPage{
		page:    page,
		cancel:  cancel,
		pending: make(map[proto.NetworkRequestID]*rodResponse),
	}

	// EachEvent subscribes synchronously, so nothing is missed once this returns.
	wait := page.Context(events).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			p.emitRequest(e.Request.URL)
		},
		func(e *proto.NetworkResponseReceived) {
			p.track(e)
		},
		func(e *proto.NetworkLoadingFinished) {
			p.finish(e.RequestID)
		},
		func(e *proto.NetworkLoadingFailed) {
			p.forget(e.RequestID)
		},
	)
	go wait()

	return p, nil
}

func (p *rodPage) OnRequest(handler func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRequest = append(p.onRequest, handler)
}

func (p *rodPage) OnResponse(handler func(Response)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onResponse = append(p.onResponse, handler)
}

func (p *rodPage) emitRequest(url string) {
	p.mu.Lock()
	handlers := append([]func(string){}, p.onRequest...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(url)
	}
}

func (p *rodPage) track(e *proto.NetworkResponseReceived) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[e.RequestID] = &rodResponse{
		page:   p.page,
		id:     e.RequestID,
		url:    e.Response.URL,
		status: e.Response.Status,
	}
}

func (p *rodPage) forget(id proto.NetworkRequestID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, id)
}

// finish emits a response once its body is complete and can be read.
func (p *rodPage) finish(id proto.NetworkRequestID) {
	p.mu.Lock()
	resp, ok := p.pending[id]
	delete(p.pending, id)
	handlers := append([]func(Response){}, p.onResponse...)
	p.mu.Unlock()

	if !ok {
		return
	}

	for _, h := range handlers {
		h(resp)
	}
}

func (p *rodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	wait := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	wait()

	if err := page.GetContext().Err(); err != nil {
		return fmt.Errorf("wait for DOMContentLoaded: %w", err)
	}

	return nil
}

func (p *rodPage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	page := p.page.Context(ctx).Timeout(timeout)
	defer page.CancelTimeout()

	page.WaitRequestIdle(idleWindow, nil, nil, nil)()

	if err := page.GetContext().Err(); err != nil {
		return fmt.Errorf("wait for network idle: %w", err)
	}

	return nil
}

func (p *rodPage) Attributes(ctx context.Context, xpath, attr string) ([]string, error) {
	elements, err := p.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", xpath, err)
	}

	values := make([]string, 0, len(elements))
	for _, el := range elements {
		value, err := el.Attribute(attr)
		if err != nil || value == nil {
			continue
		}
		values = append(values, *value)
	}

	return values, nil
}

func (p *rodPage) Close() error {
	p.cancel()
	return p.page.Close()
}

type rodResponse struct {
	page   *rod.Page
	id     proto.NetworkRequestID
	url    string
	status int
}

func (r *rodResponse) URL() string { return r.url }

func (r *rodResponse) Status() int { return r.status }

func (r *rodResponse) Body() ([]byte, error) {
	res, err := proto.NetworkGetResponseBody{RequestID: r.id}.Call(r.page)
	if err != nil {
		return nil, fmt.Errorf("response body: %w", err)
	}

	if res.Base64Encoded {
		return base64.StdEncoding.DecodeString(res.Body)
	}

	return []byte(res.Body), nil
}
