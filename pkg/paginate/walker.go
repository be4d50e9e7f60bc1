package paginate

import (
	"context"

	"igextract/pkg/logger"
	"igextract/pkg/parse"
)

// DefaultStallPages is how many consecutive pages may yield zero new
// records before a walk stops. Guards against endpoints that loop a
// cursor forever.
const DefaultStallPages = 3

// Options bound a walk. Zero values mean unlimited, except StallPages
// which falls back to DefaultStallPages.
type Options struct {
	// MaxItems caps the records emitted across all pages. The page that
	// crosses the cap is truncated so exactly MaxItems records emerge.
	MaxItems int

	// MaxPages caps the number of page fetches.
	MaxPages int

	// StallPages stops the walk after this many consecutive pages
	// contributed nothing new.
	StallPages int
}

// Cursor addresses one page of a connection. Token is the opaque
// end_cursor of the previous page, empty for the first page.
type Cursor struct {
	Token string
	Page  int
}

// FetchFunc fetches and parses the page at cursor. Implementations carry
// their own rate limiting and retry handling; the walker only sequences
// calls.
type FetchFunc func(ctx context.Context, cursor Cursor) (*parse.Page, error)

// EmitFunc receives each page after deduplication and truncation, along
// with the cursor a resumed walk would continue from.
type EmitFunc func(page *parse.Page, next Cursor) error

// StopReason says which bound ended a walk.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopMaxItems  StopReason = "max_items"
	StopMaxPages  StopReason = "max_pages"
	StopStalled   StopReason = "stalled"
)

// Result summarizes a finished walk. On error it covers the pages that
// completed before the failure.
type Result struct {
	Items  int
	Pages  int
	Reason StopReason
}

// Walker drives a single cursor walk over one connection. It is not
// reusable; make a new one per walk.
type Walker struct {
	opts Options
	seen map[string]struct{}
	log  logger.Logger
}

// NewWalker returns a walker with the given bounds.
func NewWalker(opts Options) *Walker {
	if opts.StallPages <= 0 {
		opts.StallPages = DefaultStallPages
	}
	if opts.MaxItems < 0 {
		opts.MaxItems = 0
	}
	if opts.MaxPages < 0 {
		opts.MaxPages = 0
	}
	return &Walker{
		opts: opts,
		seen: make(map[string]struct{}),
		log:  logger.NewNopLogger(),
	}
}

// WithLogger attaches a logger for per-page debug output.
func (w *Walker) WithLogger(log logger.Logger) *Walker {
	if log != nil {
		w.log = log
	}
	return w
}

// Seed marks record keys as already emitted, so a walk resumed from a
// checkpoint does not duplicate earlier output.
func (w *Walker) Seed(keys []string) *Walker {
	for _, key := range keys {
		w.seen[key] = struct{}{}
	}
	return w
}

// SeenKeys returns every record key emitted or seeded so far.
func (w *Walker) SeenKeys() []string {
	keys := make([]string, 0, len(w.seen))
	for key := range w.seen {
		keys = append(keys, key)
	}
	return keys
}

// Walk fetches pages from start until a bound is hit, the connection ends
// or a fetch fails. The returned Result is valid even alongside an error.
func (w *Walker) Walk(ctx context.Context, start Cursor, fetch FetchFunc, emit EmitFunc) (Result, error) {
	var result Result
	cursor := start
	stalled := 0

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return result, err
		}
		result.Pages++

		fetched := page.Len()
		fresh := page.Dedupe(w.seen)
		if w.opts.MaxItems > 0 {
			remaining := w.opts.MaxItems - result.Items
			if fresh > remaining {
				truncatePage(page, remaining)
				fresh = remaining
			}
		}

		w.log.WithFields(map[string]interface{}{
			"page":    cursor.Page,
			"fetched": fetched,
			"fresh":   fresh,
			"total":   result.Items + fresh,
		}).Debug("page walked")

		if fresh > 0 {
			if err := emit(page, Cursor{Token: page.Cursor, Page: cursor.Page + 1}); err != nil {
				return result, err
			}
			result.Items += fresh
			stalled = 0
		} else {
			stalled++
		}

		switch {
		case w.opts.MaxItems > 0 && result.Items >= w.opts.MaxItems:
			result.Reason = StopMaxItems
			return result, nil
		case !page.HasNext || page.Cursor == "":
			result.Reason = StopExhausted
			return result, nil
		case stalled >= w.opts.StallPages:
			result.Reason = StopStalled
			return result, nil
		case w.opts.MaxPages > 0 && result.Pages >= w.opts.MaxPages:
			result.Reason = StopMaxPages
			return result, nil
		}

		cursor = Cursor{Token: page.Cursor, Page: cursor.Page + 1}
	}
}

// truncatePage cuts a page down to limit records, profiles before posts
// before comments.
func truncatePage(page *parse.Page, limit int) {
	if limit <= 0 {
		page.Profiles = nil
		page.Posts = nil
		page.Comments = nil
		return
	}
	if len(page.Profiles) >= limit {
		page.Profiles = page.Profiles[:limit]
		page.Posts = nil
		page.Comments = nil
		return
	}
	limit -= len(page.Profiles)
	if len(page.Posts) >= limit {
		page.Posts = page.Posts[:limit]
		page.Comments = nil
		return
	}
	rest := limit - len(page.Posts)
	if len(page.Comments) > rest {
		page.Comments = page.Comments[:rest]
	}
}
