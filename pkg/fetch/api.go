package fetch

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	utls "github.com/refraction-networking/utls"
	xproxy "golang.org/x/net/proxy"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
	"igextract/pkg/logger"
	"igextract/pkg/paginate"
	"igextract/pkg/parse"
	"igextract/pkg/proxy"
	"igextract/pkg/retry"
)

// APIStrategy fetches JSON payloads straight off the web API. One
// instance serves one session: it carries the session's cookie jar,
// header identity and bound proxy.
type APIStrategy struct {
	cfg    Config
	client *resty.Client
	log    logger.Logger
}

// NewAPIStrategy builds the session's API client around its cookie jar
// and bound proxy identity.
func NewAPIStrategy(cfg Config) *APIStrategy {
	cfg.applyDefaults()
	s := &APIStrategy{
		cfg: cfg,
		log: cfg.Logger.WithField("strategy", "api"),
	}
	s.client = s.newClient(cfg.Proxy)
	return s
}

// Kind names the strategy for retry decisions.
func (s *APIStrategy) Kind() retry.StrategyKind { return retry.StrategyAPI }

// SetIdentity rebuilds the transport on the new proxy identity. The jar
// survives; the caller clears it when the platform invalidated the
// session.
func (s *APIStrategy) SetIdentity(id proxy.Identity) {
	s.cfg.Proxy = id
	s.client = s.newClient(id)
}

// Close releases idle connections.
func (s *APIStrategy) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// Fetch executes one GET against the endpoint the target maps to and
// classifies every way the platform can refuse it.
func (s *APIStrategy) Fetch(ctx context.Context, target instagram.Target, cursor paginate.Cursor) (*Payload, error) {
	endpoint, err := target.APIRequestURL(cursor.Token)
	if err != nil {
		return nil, err
	}
	if s.cfg.BaseURL != "" {
		endpoint = s.cfg.BaseURL + strings.TrimPrefix(endpoint, instagram.BaseURL)
	}

	start := time.Now()
	resp, err := s.client.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ClassTransient, "api request failed", err)
	}

	payload := &Payload{
		Source:   parse.SourceAPI,
		Body:     resp.Body(),
		Status:   resp.StatusCode(),
		FinalURL: finalURL(resp, endpoint),
	}

	s.log.WithFields(map[string]interface{}{
		"target":   target.Ref(),
		"page":     cursor.Page,
		"status":   payload.Status,
		"bytes":    len(payload.Body),
		"duration": time.Since(start),
	}).Debug("api fetch")

	if err := classifyResponse(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *APIStrategy) newClient(id proxy.Identity) *resty.Client {
	client := resty.New().
		SetTimeout(s.cfg.Timeout).
		SetHeaders(apiHeaders(s.cfg.UserAgent, s.cfg.CSRFToken)).
		SetTransport(newTransport(id))
	if s.cfg.Jar != nil {
		client.SetCookieJar(s.cfg.Jar)
	}
	return client
}

// apiHeaders is the XHR identity the web app sends with API calls.
func apiHeaders(userAgent, csrfToken string) map[string]string {
	h := map[string]string{
		"User-Agent":       userAgent,
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"Referer":          instagram.BaseURL + "/",
		"X-IG-App-ID":      instagram.AppID,
		"X-Requested-With": "XMLHttpRequest",
		"Sec-Fetch-Dest":   "empty",
		"Sec-Fetch-Mode":   "cors",
		"Sec-Fetch-Site":   "same-origin",
	}
	if csrfToken != "" {
		h["X-CSRFToken"] = csrfToken
	}
	return h
}

// classifyResponse maps a completed HTTP exchange onto the taxonomy.
// Body-shape problems (HTML where JSON, denied envelopes) are left to
// the parser, which classifies them the same way.
func classifyResponse(payload *Payload) error {
	if redirectedToLogin(payload.FinalURL) {
		return errs.New(errs.ClassAccessDenied, "redirected to login")
	}
	if payload.Status == http.StatusTooManyRequests || rateLimitedBody(payload.Body) {
		return errs.New(errs.ClassRateLimited, "platform asked to slow down")
	}
	if payload.Status != http.StatusOK {
		return errs.FromStatus(payload.Status, "api request rejected")
	}
	return nil
}

// rateLimitedBody spots throttle notices served with misleading statuses.
func rateLimitedBody(body []byte) bool {
	if len(body) == 0 || len(body) > 1<<16 {
		return false
	}
	return bytes.Contains(bytes.ToLower(body), []byte("please wait"))
}

func finalURL(resp *resty.Response, requested string) string {
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		return raw.Request.URL.String()
	}
	return requested
}

// newTransport dials according to the bound identity. Direct connections
// present a Chrome ClientHello via utls; proxied connections let the
// proxy terminate TCP and keep standard TLS inside the tunnel.
func newTransport(id proxy.Identity) *http.Transport {
	transport := &http.Transport{}
	switch {
	case id.Direct():
		transport.DialTLSContext = dialTLSChrome
	case id.Scheme == "socks5":
		if dialer, err := xproxy.FromURL(id.URL(), xproxy.Direct); err == nil {
			if cd, ok := dialer.(xproxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			}
		}
	default:
		transport.Proxy = http.ProxyURL(id.URL())
	}
	return transport
}

// dialTLSChrome performs the handshake with a Chrome ClientHello so the
// TLS fingerprint matches the browser the headers claim.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
