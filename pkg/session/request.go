package session

import (
	"time"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
)

// ScrapeType selects what a session extracts.
type ScrapeType string

const (
	// ScrapeProfile extracts one account's profile metadata.
	ScrapeProfile ScrapeType = "profile"
	// ScrapePosts extracts an account's timeline posts.
	ScrapePosts ScrapeType = "posts"
	// ScrapeReels extracts the video posts of an account's timeline.
	ScrapeReels ScrapeType = "reels"
	// ScrapeComments extracts the comments of a single post.
	ScrapeComments ScrapeType = "comments"
	// ScrapeHashtag extracts recent posts tagged with a hashtag.
	ScrapeHashtag ScrapeType = "hashtag"
	// ScrapeLocation extracts recent posts tagged at a location.
	ScrapeLocation ScrapeType = "location"
)

// Valid reports whether the scrape type is one the engine knows.
func (t ScrapeType) Valid() bool {
	switch t {
	case ScrapeProfile, ScrapePosts, ScrapeReels, ScrapeComments, ScrapeHashtag, ScrapeLocation:
		return true
	}
	return false
}

// Request bounds and defaults.
const (
	DefaultMaxPosts    = 30
	MaxPostsLimit      = 500
	DefaultMaxComments = 100
	MaxCommentsLimit   = 500

	dateLayout = "2006-01-02"
)

// ExtractionRequest describes one extraction run. It is normalized once
// when the session accepts it and treated as immutable afterwards.
type ExtractionRequest struct {
	Type ScrapeType `json:"scrape_type"`

	// Username addresses profile, posts and reels extractions.
	Username string `json:"username,omitempty"`
	// Shortcode addresses a comments extraction. Post URLs are accepted
	// and reduced to their shortcode.
	Shortcode string `json:"shortcode,omitempty"`
	// Hashtag addresses a hashtag extraction, with or without the #.
	Hashtag string `json:"hashtag,omitempty"`
	// LocationID addresses a location extraction.
	LocationID string `json:"location_id,omitempty"`

	// MaxPosts caps collected posts, 1..500. Zero means the default 30.
	MaxPosts int `json:"max_posts,omitempty"`
	// MaxComments caps comments collected per post, 1..500. Zero means
	// the default 100. Comment collection as a whole is switched by
	// IncludeComments.
	MaxComments int `json:"max_comments,omitempty"`
	// MaxPages caps page fetches per walk. Zero means unlimited.
	MaxPages int `json:"max_pages,omitempty"`

	IncludeComments bool `json:"include_comments"`
	// IncludeMetrics keeps engagement counts on extracted records. When
	// false they are withheld as unknown.
	IncludeMetrics bool `json:"include_metrics"`

	// DateFrom and DateTo keep only posts inside the inclusive day range,
	// formatted YYYY-MM-DD. Posts whose timestamp could not be observed
	// are kept.
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`

	// Proxies is the pool of proxy entries available to this session.
	// Empty means direct connections.
	Proxies []string `json:"proxies,omitempty"`
	// PreserveCookies keeps accumulated cookies across proxy rotation
	// instead of resetting the jar to the seeded credentials.
	PreserveCookies bool `json:"preserve_cookies,omitempty"`

	// Resume continues from a saved checkpoint when one exists.
	Resume bool `json:"resume,omitempty"`
	// ForceRestart discards any saved checkpoint before starting.
	ForceRestart bool `json:"force_restart,omitempty"`

	dateFrom time.Time
	dateTo   time.Time
}

// Normalize sanitizes identifiers, applies defaults and validates bounds.
// Violations classify fatal: a malformed request is not retryable.
func (r *ExtractionRequest) Normalize() error {
	if !r.Type.Valid() {
		return errs.Newf(errs.ClassFatal, "unknown scrape type %q", r.Type)
	}

	switch r.Type {
	case ScrapeProfile, ScrapePosts, ScrapeReels:
		r.Username = instagram.SanitizeUsername(r.Username)
		if !instagram.IsValidUsername(r.Username) {
			return errs.Newf(errs.ClassFatal, "invalid username %q", r.Username)
		}
	case ScrapeComments:
		if code := instagram.ShortcodeFromURL(r.Shortcode); code != "" {
			r.Shortcode = code
		}
		if !instagram.IsValidShortcode(r.Shortcode) {
			return errs.Newf(errs.ClassFatal, "invalid post shortcode %q", r.Shortcode)
		}
	case ScrapeHashtag:
		r.Hashtag = instagram.SanitizeHashtag(r.Hashtag)
		if !instagram.IsValidHashtag(r.Hashtag) {
			return errs.Newf(errs.ClassFatal, "invalid hashtag %q", r.Hashtag)
		}
	case ScrapeLocation:
		if r.LocationID == "" {
			return errs.New(errs.ClassFatal, "location extraction requires a location id")
		}
	}

	if r.MaxPosts == 0 {
		r.MaxPosts = DefaultMaxPosts
	}
	if r.MaxPosts < 1 || r.MaxPosts > MaxPostsLimit {
		return errs.Newf(errs.ClassFatal, "max_posts %d outside 1..%d", r.MaxPosts, MaxPostsLimit)
	}
	if r.MaxComments == 0 {
		r.MaxComments = DefaultMaxComments
	}
	if r.MaxComments < 1 || r.MaxComments > MaxCommentsLimit {
		return errs.Newf(errs.ClassFatal, "max_comments %d outside 1..%d", r.MaxComments, MaxCommentsLimit)
	}
	if r.MaxPages < 0 {
		return errs.Newf(errs.ClassFatal, "max_pages %d is negative", r.MaxPages)
	}

	var err error
	if r.dateFrom, err = parseDate(r.DateFrom); err != nil {
		return errs.Newf(errs.ClassFatal, "invalid date_from %q, want YYYY-MM-DD", r.DateFrom)
	}
	if r.dateTo, err = parseDate(r.DateTo); err != nil {
		return errs.Newf(errs.ClassFatal, "invalid date_to %q, want YYYY-MM-DD", r.DateTo)
	}
	if !r.dateFrom.IsZero() && !r.dateTo.IsZero() && r.dateTo.Before(r.dateFrom) {
		return errs.Newf(errs.ClassFatal, "date_to %s precedes date_from %s", r.DateTo, r.DateFrom)
	}

	return nil
}

// Target builds the primary fetch target the scrape type addresses.
func (r *ExtractionRequest) Target() instagram.Target {
	switch r.Type {
	case ScrapeProfile:
		return instagram.Target{Kind: instagram.TargetProfile, Username: r.Username}
	case ScrapePosts, ScrapeReels:
		return instagram.Target{Kind: instagram.TargetTimeline, Username: r.Username}
	case ScrapeComments:
		return instagram.Target{Kind: instagram.TargetComments, Shortcode: r.Shortcode}
	case ScrapeHashtag:
		return instagram.Target{Kind: instagram.TargetHashtag, Tag: r.Hashtag}
	case ScrapeLocation:
		return instagram.Target{Kind: instagram.TargetLocation, LocationID: r.LocationID}
	}
	return instagram.Target{}
}

// Ref labels the request's primary target in results, logs and export
// paths.
func (r *ExtractionRequest) Ref() string {
	return r.Target().Ref()
}

// InDateRange reports whether a post timestamp passes the request's date
// filters. Zero timestamps pass; a filter only drops posts that provably
// fall outside the range.
func (r *ExtractionRequest) InDateRange(ts time.Time) bool {
	if ts.IsZero() {
		return true
	}
	if !r.dateFrom.IsZero() && ts.Before(r.dateFrom) {
		return false
	}
	if !r.dateTo.IsZero() && !ts.Before(r.dateTo.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
