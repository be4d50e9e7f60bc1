package session

import (
	"context"

	errs "igextract/pkg/errors"
	"igextract/pkg/fetch"
	"igextract/pkg/instagram"
	"igextract/pkg/paginate"
	"igextract/pkg/parse"
	"igextract/pkg/proxy"
	"igextract/pkg/retry"
)

// pageFetcher runs the attempt state machine for one target walk: fetch →
// classify → decide → {retry, escalate, rotate, abort}. Escalation is
// sticky for the walk; a fresh fetcher starts back on the API strategy.
type pageFetcher struct {
	s      *Session
	target instagram.Target
	active fetch.Strategy
	result *ExtractionResult
}

func (s *Session) newFetcher(target instagram.Target, result *ExtractionResult) *pageFetcher {
	return &pageFetcher{s: s, target: target, active: s.api, result: result}
}

// fetchPage fetches and parses one page, driving every classified failure
// through the retry policy until the page succeeds or the target is
// abandoned. Each attempt takes a rate limiter slot.
//
// Transient and rate-limited failures share one attempt budget; it
// refreshes when the strategy or the proxy identity changes. The
// access-denied count survives proxy rotation, so a denial on the fresh
// identity aborts instead of rotating forever.
func (f *pageFetcher) fetchPage(ctx context.Context, cursor paginate.Cursor) (*parse.Page, error) {
	retries := 0
	denials := 0

	for {
		if err := f.s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		page, err := f.attempt(ctx, cursor)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		class := errs.ClassOf(err)
		attempt := 1
		switch class {
		case errs.ClassTransient, errs.ClassRateLimited:
			retries++
			attempt = retries
		case errs.ClassAccessDenied:
			denials++
			attempt = denials
		}

		decision := f.s.policy.Decide(class, attempt, f.active.Kind(), f.s.limiter.RetryAfter())
		f.record(cursor, class, err, attempt, decision)

		f.s.log.WithFields(map[string]interface{}{
			"target":         f.target.Ref(),
			"page":           cursor.Page,
			"strategy":       string(f.active.Kind()),
			"classification": string(class),
			"attempt":        attempt,
			"action":         decision.Action.String(),
			"delay":          decision.Delay,
		}).Warn(decision.Reason)

		switch decision.Action {
		case retry.ActionRetry:
			if err := retry.Wait(ctx, decision.Delay); err != nil {
				return nil, err
			}

		case retry.ActionEscalate:
			f.active = f.s.browser
			retries, denials = 0, 0

		case retry.ActionRotateProxy:
			identity, rerr := f.s.proxies.Rotate()
			if rerr != nil {
				f.record(cursor, errs.ClassOf(rerr), rerr, attempt, retry.Decision{Action: retry.ActionAbort})
				return nil, rerr
			}
			if err := f.s.adoptIdentity(identity); err != nil {
				return nil, err
			}
			retries = 0

		default:
			return nil, err
		}
	}
}

// attempt performs one fetch and parse, latching the feed owner id the
// first page reveals so later pages can be addressed by cursor.
func (f *pageFetcher) attempt(ctx context.Context, cursor paginate.Cursor) (*parse.Page, error) {
	payload, err := f.active.Fetch(ctx, f.target, cursor)
	if err != nil {
		return nil, err
	}
	page, err := parse.Parse(payload.Source, payload.Body, f.target)
	if err != nil {
		return nil, err
	}
	if f.target.UserID == "" && page.OwnerID != "" {
		f.target.UserID = page.OwnerID
	}
	return page, nil
}

func (f *pageFetcher) record(cursor paginate.Cursor, class errs.Class, err error, attempt int, decision retry.Decision) {
	f.result.addFailure(Failure{
		Target:     f.target.Ref(),
		Page:       cursor.Page,
		Strategy:   string(f.active.Kind()),
		Class:      class,
		Message:    err.Error(),
		Attempt:    attempt,
		Resolution: resolutionOf(decision.Action),
	})
}

// adoptIdentity points both strategies at a rotated proxy identity. The
// rotation means the platform burned the old egress, so accumulated
// cookies are reset to the seeded credentials unless the request asked to
// preserve them.
func (s *Session) adoptIdentity(identity proxy.Identity) error {
	if !s.req.PreserveCookies {
		if err := s.jar.Reset(); err != nil {
			return errs.Wrap(errs.ClassFatal, "resetting cookie jar", err)
		}
	}
	s.api.SetIdentity(identity)
	s.browser.SetIdentity(identity)
	return nil
}
