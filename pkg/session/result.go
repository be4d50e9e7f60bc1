package session

import (
	"time"

	errs "igextract/pkg/errors"
	"igextract/pkg/record"
	"igextract/pkg/retry"
)

// Status says whether a run collected everything it set out to.
type Status string

const (
	// StatusComplete means every requested surface was extracted within
	// the configured bounds.
	StatusComplete Status = "complete"
	// StatusPartial means some requested data is missing: a target was
	// abandoned or the run was aborted mid-walk.
	StatusPartial Status = "partial"
)

// Resolution says how the engine answered a classified failure.
type Resolution string

const (
	// ResolutionRetried means the same strategy was attempted again.
	ResolutionRetried Resolution = "retried"
	// ResolutionBrowserFallback means the fetch escalated from the API
	// strategy to the browser strategy.
	ResolutionBrowserFallback Resolution = "browser_fallback"
	// ResolutionProxyRotated means the session switched to a fresh proxy
	// identity.
	ResolutionProxyRotated Resolution = "proxy_rotated"
	// ResolutionAborted means the target was abandoned; partial results
	// collected before the failure survive.
	ResolutionAborted Resolution = "aborted"
)

func resolutionOf(action retry.Action) Resolution {
	switch action {
	case retry.ActionRetry:
		return ResolutionRetried
	case retry.ActionEscalate:
		return ResolutionBrowserFallback
	case retry.ActionRotateProxy:
		return ResolutionProxyRotated
	default:
		return ResolutionAborted
	}
}

// Failure records one classified failure and its resolution. Nothing is
// dropped: a failure that was later recovered keeps its entry.
type Failure struct {
	Target     string     `json:"target"`
	Page       int        `json:"page"`
	Strategy   string     `json:"strategy"`
	Class      errs.Class `json:"classification"`
	Message    string     `json:"message"`
	Attempt    int        `json:"attempt"`
	Resolution Resolution `json:"resolution"`
}

// Counts summarizes how much one run collected.
type Counts struct {
	Profiles int `json:"profiles"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
	Pages    int `json:"pages"`
}

// ExtractionResult aggregates everything one run produced.
type ExtractionResult struct {
	SessionID string     `json:"session_id"`
	Target    string     `json:"target"`
	Type      ScrapeType `json:"scrape_type"`
	Status    Status     `json:"status"`

	Profile  *record.Profile  `json:"profile,omitempty"`
	Posts    []record.Post    `json:"posts,omitempty"`
	Comments []record.Comment `json:"comments,omitempty"`

	Counts   Counts    `json:"counts"`
	Failures []Failure `json:"failures"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Records flattens the result into canonical records in collection order:
// profile, then posts, then standalone comments.
func (r *ExtractionResult) Records() []record.Record {
	out := make([]record.Record, 0, 1+len(r.Posts)+len(r.Comments))
	if r.Profile != nil {
		out = append(out, *r.Profile)
	}
	for _, p := range r.Posts {
		out = append(out, p)
	}
	for _, c := range r.Comments {
		out = append(out, c)
	}
	return out
}

func (r *ExtractionResult) addFailure(f Failure) {
	r.Failures = append(r.Failures, f)
}

// aborted reports whether any recorded failure ended with its target
// abandoned.
func (r *ExtractionResult) aborted() bool {
	for _, f := range r.Failures {
		if f.Resolution == ResolutionAborted {
			return true
		}
	}
	return false
}
