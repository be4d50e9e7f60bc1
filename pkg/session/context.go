package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"igextract/pkg/checkpoint"
	"igextract/pkg/fetch"
	"igextract/pkg/instagram"
	"igextract/pkg/logger"
	"igextract/pkg/retry"
)

// Credentials are the opaque authenticated-session values injected into
// the cookie jar before the first fetch. The engine never generates or
// solves them; they come from the credential store or the environment.
type Credentials struct {
	SessionID string
	CSRFToken string
	UserAgent string
}

// Anonymous reports whether no session cookie is available.
func (c Credentials) Anonymous() bool {
	return c.SessionID == ""
}

// cookies renders the credential values as platform cookies.
func (c Credentials) cookies() []*http.Cookie {
	var out []*http.Cookie
	if c.SessionID != "" {
		out = append(out, &http.Cookie{Name: "sessionid", Value: c.SessionID})
	}
	if c.CSRFToken != "" {
		out = append(out, &http.Cookie{Name: "csrftoken", Value: c.CSRFToken})
	}
	return out
}

// RateLimit parametrizes the session's sliding-window limiter.
type RateLimit struct {
	MaxRequests int
	Window      time.Duration
	// MinDelay..MaxDelay is the randomized pause between successive
	// requests.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultRateLimit matches the platform's observed tolerance: 40
// requests per rolling hour, spaced 3 to 7 seconds apart.
func DefaultRateLimit() RateLimit {
	return RateLimit{
		MaxRequests: 40,
		Window:      time.Hour,
		MinDelay:    3 * time.Second,
		MaxDelay:    7 * time.Second,
	}
}

// Options tunes a session beyond what the request itself carries. The
// zero value gets workable defaults.
type Options struct {
	Credentials Credentials

	// RateLimit defaults to DefaultRateLimit when left zero.
	RateLimit RateLimit

	// Policy defaults to retry.DefaultPolicy when nil.
	Policy *retry.Policy

	// Timeout bounds each fetch attempt.
	Timeout time.Duration

	// Browser configures the fallback strategy's process.
	Browser fetch.BrowserOptions

	// StallPages overrides the walker's consecutive-empty-page bound.
	StallPages int

	// Checkpoints enables progress persistence when set.
	Checkpoints *checkpoint.Manager

	Logger logger.Logger

	// BaseURL reroutes API requests, for tests against a local server.
	BaseURL string
}

func (o *Options) applyDefaults() {
	if o.RateLimit == (RateLimit{}) {
		o.RateLimit = DefaultRateLimit()
	}
	if o.Policy == nil {
		o.Policy = retry.DefaultPolicy()
	}
	if o.Timeout <= 0 {
		o.Timeout = fetch.DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.GetLogger()
	}
}

// sessionJar is the cookie jar both strategies share. Proxy rotation can
// reset it back to the seeded credential cookies without rebuilding the
// strategies that hold it.
type sessionJar struct {
	mu    sync.Mutex
	inner http.CookieJar
	seed  []*http.Cookie
	base  *url.URL
}

// newSessionJar builds a jar seeded with the credential cookies against
// base, which falls back to the platform origin.
func newSessionJar(creds Credentials, base string) (*sessionJar, error) {
	if base == "" {
		base = instagram.BaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	j := &sessionJar{seed: creds.cookies(), base: u}
	if err := j.Reset(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Reset discards accumulated cookies and reseeds the credentials.
func (j *sessionJar) Reset() error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	if len(j.seed) > 0 {
		inner.SetCookies(j.base, j.seed)
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
	return nil
}
