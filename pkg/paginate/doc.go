// Package paginate walks cursor-paginated connections.
//
// A walk is finite by construction: it ends when the connection reports
// no further page, when MaxItems records have been emitted, when MaxPages
// pages have been fetched, or when StallPages consecutive pages yield
// nothing new (the defense against looping cursors). Records repeated
// across pages are deduplicated by key, which also makes retried page
// fetches idempotent in the aggregate output.
//
//	walker := paginate.NewWalker(paginate.Options{MaxItems: 30})
//	result, err := walker.Walk(ctx, paginate.Cursor{},
//	    func(ctx context.Context, c paginate.Cursor) (*parse.Page, error) {
//	        return fetchTimelinePage(ctx, c.Token)
//	    },
//	    func(page *parse.Page, next paginate.Cursor) error {
//	        posts = append(posts, page.Posts...)
//	        return saveCheckpoint(next)
//	    })
//
// Rate limiting and retries belong to the FetchFunc; the walker only
// sequences pages and enforces bounds.
package paginate
