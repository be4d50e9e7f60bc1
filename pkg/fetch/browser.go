package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
	"igextract/pkg/logger"
	"igextract/pkg/paginate"
	"igextract/pkg/parse"
	"igextract/pkg/proxy"
	"igextract/pkg/retry"
)

// BrowserOptions tune the headless fallback.
type BrowserOptions struct {
	Headless  bool
	NoSandbox bool

	// Bin overrides the Chromium binary the launcher resolves.
	Bin string

	// PoolSize caps concurrently borrowed pages.
	PoolSize int

	// ScrollDelay separates lazy-load scroll steps on feed pages.
	ScrollDelay time.Duration
}

func (o *BrowserOptions) applyDefaults() {
	if o.PoolSize <= 0 {
		o.PoolSize = 2
	}
	if o.ScrollDelay <= 0 {
		o.ScrollDelay = 500 * time.Millisecond
	}
}

// BrowserStrategy renders targets in headless Chromium when the API path
// is pushed back. The browser launches lazily on first use, so sessions
// that never escalate never pay for it; an identity change tears it down
// for relaunch on the new proxy.
type BrowserStrategy struct {
	cfg  Config
	opts BrowserOptions
	log  logger.Logger

	mu      sync.Mutex
	browser *rod.Browser
	pool    rod.Pool[rod.Page]
}

// NewBrowserStrategy wires the fallback without launching anything yet.
func NewBrowserStrategy(cfg Config, opts BrowserOptions) *BrowserStrategy {
	cfg.applyDefaults()
	opts.applyDefaults()
	return &BrowserStrategy{
		cfg:  cfg,
		opts: opts,
		log:  cfg.Logger.WithField("strategy", "browser"),
	}
}

// Kind names the strategy for retry decisions.
func (s *BrowserStrategy) Kind() retry.StrategyKind { return retry.StrategyBrowser }

// SetIdentity schedules a relaunch on the new proxy. Chromium takes its
// proxy at launch, so a live browser is torn down here and the next
// fetch brings one up bound to the new identity.
func (s *BrowserStrategy) SetIdentity(id proxy.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Proxy = id
	s.teardownLocked()
}

// Close drains the page pool and kills the browser process.
func (s *BrowserStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	return nil
}

// Fetch renders the target's public page and captures its HTML. Redirects
// onto the login or challenge interstitial classify access_denied; what
// the rendered DOM is missing is for the parser to judge.
func (s *BrowserStrategy) Fetch(ctx context.Context, target instagram.Target, cursor paginate.Cursor) (*Payload, error) {
	pageURL := target.PageURL()
	if pageURL == "" {
		return nil, errs.Newf(errs.ClassFatal, "no public page for target %s", target.Ref())
	}

	browser, pool, err := s.ensure()
	if err != nil {
		return nil, err
	}

	page, err := pool.Get(func() (*rod.Page, error) {
		return browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, errs.Wrap(errs.ClassTransient, "acquiring browser page", err)
	}
	// Teardown uses the original page reference, not the ctx-bound one,
	// so a dirty tab never leaks back into the pool after ctx expiry.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			s.log.WithError(navErr).Warn("page cleanup failed")
		}
		pool.Put(page)
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		s.log.WithError(evalErr).Warn("stealth injection failed, proceeding without it")
	}
	s.preparePage(page)

	p := page.Context(ctx)
	start := time.Now()
	if err := p.Navigate(pageURL); err != nil {
		return nil, classifyBrowserError("navigation failed", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		s.log.WithError(err).Debug("dom did not settle, capturing current state")
	}

	if target.IsFeed() {
		s.scrollFeed(ctx, p, cursor)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, classifyBrowserError("capturing rendered page", err)
	}

	landed := evalString(p, `() => window.location.href`)
	if landed == "" {
		landed = pageURL
	}

	s.log.WithFields(map[string]interface{}{
		"target":   target.Ref(),
		"page":     cursor.Page,
		"bytes":    len(rawHTML),
		"duration": time.Since(start),
	}).Debug("browser fetch")

	if redirectedToLogin(landed) {
		return nil, errs.New(errs.ClassAccessDenied, "redirected to login")
	}

	return &Payload{
		Source:   parse.SourceBrowser,
		Body:     []byte(rawHTML),
		FinalURL: landed,
	}, nil
}

// ensure launches and connects the browser once, rebuilding the page
// pool alongside it.
func (s *BrowserStrategy) ensure() (*rod.Browser, rod.Pool[rod.Page], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, s.pool, nil
	}

	l := launcher.New().
		Headless(s.opts.Headless).
		NoSandbox(s.opts.NoSandbox)
	if s.opts.Bin != "" {
		l = l.Bin(s.opts.Bin)
	}
	if !s.cfg.Proxy.Direct() {
		l = l.Proxy(proxyServerArg(s.cfg.Proxy))
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, errs.Wrap(errs.ClassTransient, "launching browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, nil, errs.Wrap(errs.ClassTransient, "connecting to browser", err)
	}
	if s.cfg.Proxy.Username != "" {
		go func() { _ = browser.HandleAuth(s.cfg.Proxy.Username, s.cfg.Proxy.Password)() }()
	}

	s.log.WithFields(map[string]interface{}{
		"proxy": s.cfg.Proxy.String(),
		"pool":  s.opts.PoolSize,
	}).Info("browser launched")

	s.browser = browser
	s.pool = rod.NewPagePool(s.opts.PoolSize)
	return s.browser, s.pool, nil
}

func (s *BrowserStrategy) teardownLocked() {
	if s.browser == nil {
		return
	}
	s.pool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	if err := s.browser.Close(); err != nil {
		s.log.WithError(err).Warn("browser close failed")
	}
	s.browser = nil
}

// preparePage injects the session identity: user agent, headers and the
// credential cookies from the jar. All three must land before navigation.
func (s *BrowserStrategy) preparePage(page *rod.Page) {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      s.cfg.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		s.log.WithError(err).Warn("user agent override failed")
	}

	setHeaders := proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
			"Referer":         instagram.BaseURL + "/",
		}),
	}
	if err := setHeaders.Call(page); err != nil {
		s.log.WithError(err).Warn("extra headers failed")
	}

	for _, cookie := range s.sessionCookies() {
		_, _ = proto.NetworkSetCookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: ".instagram.com",
			Path:   "/",
		}.Call(page)
	}
}

func (s *BrowserStrategy) sessionCookies() []*http.Cookie {
	if s.cfg.Jar == nil {
		return nil
	}
	u, err := url.Parse(instagram.BaseURL)
	if err != nil {
		return nil
	}
	return s.cfg.Jar.Cookies(u)
}

// scrollFeed nudges lazy batches into the DOM. A rendered feed has no
// cursor of its own, so depth comes from the page index plus one batch
// of headroom.
func (s *BrowserStrategy) scrollFeed(ctx context.Context, p *rod.Page, cursor paginate.Cursor) {
	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return
	}
	height := float64(res.Value.Int())

	for i := 0; i < cursor.Page+2; i++ {
		if err := p.Mouse.Scroll(0, height, 1); err != nil {
			return
		}
		if err := retry.Wait(ctx, s.opts.ScrollDelay); err != nil {
			return
		}
		_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	}
}

// classifyBrowserError maps rod failures onto the taxonomy. Cancellation
// passes through; everything else the network or the render can do to us
// is worth a retry.
func classifyBrowserError(message string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return errs.Wrap(errs.ClassTransient, message, err)
}

// proxyServerArg renders the identity for Chromium's --proxy-server,
// which wants the scheme but never credentials.
func proxyServerArg(id proxy.Identity) string {
	if id.Scheme == "" || id.Scheme == "http" {
		return id.Address
	}
	return id.Scheme + "://" + id.Address
}

func evalString(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the gson-valued headers
// type the CDP call wants.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
