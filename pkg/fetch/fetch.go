package fetch

import (
	"context"
	"net/http"
	"strings"
	"time"

	"igextract/pkg/instagram"
	"igextract/pkg/logger"
	"igextract/pkg/paginate"
	"igextract/pkg/parse"
	"igextract/pkg/proxy"
	"igextract/pkg/retry"
)

const (
	// DefaultUserAgent is presented by both strategies unless the
	// credential bundle pins its own.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// DefaultTimeout bounds one fetch end to end. Expiry classifies
	// transient.
	DefaultTimeout = 30 * time.Second
)

// Payload is one raw capture: JSON bytes off the API or rendered HTML
// off the browser. Source tells the parser which path decodes it.
type Payload struct {
	Source parse.Source
	Body   []byte

	// Status is the HTTP status for API captures, zero for browser
	// captures.
	Status int

	// FinalURL is where the fetch actually landed after redirects.
	FinalURL string
}

// Strategy acquires the payload for one target page. Implementations
// classify every failure with the pkg/errors taxonomy so the retry
// policy can dispatch on it; context cancellation passes through
// unclassified.
type Strategy interface {
	// Kind names the strategy for retry decisions and logs.
	Kind() retry.StrategyKind

	// Fetch acquires the raw payload for the page at cursor.
	Fetch(ctx context.Context, target instagram.Target, cursor paginate.Cursor) (*Payload, error)

	// SetIdentity points subsequent fetches at a new proxy identity.
	SetIdentity(id proxy.Identity)

	// Close releases transports, pages and processes.
	Close() error
}

// Config is the per-session wiring both strategies share. The jar is the
// session's cookie storage, pre-seeded with the credential cookies; the
// strategies never mint cookies of their own.
type Config struct {
	Jar       http.CookieJar
	UserAgent string
	CSRFToken string
	Proxy     proxy.Identity
	Timeout   time.Duration
	Logger    logger.Logger

	// BaseURL reroutes API requests when set, which is how tests point
	// the strategy at a mock server.
	BaseURL string
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNopLogger()
	}
}

// redirectedToLogin reports whether a fetch landed on the login or
// challenge interstitial instead of the requested content.
func redirectedToLogin(finalURL string) bool {
	return strings.Contains(finalURL, "/accounts/login") ||
		strings.Contains(finalURL, "/challenge")
}
