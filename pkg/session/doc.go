// Package session orchestrates one extraction run end to end.
//
// A session owns everything one run needs and shares nothing: a cookie
// jar seeded with the account's opaque session cookies, a sliding-window
// rate limiter, a sticky proxy identity and both fetch strategies. Run
// validates the request, binds the proxy, then branches on the scrape
// type: profiles are a single fetch, feeds are cursor walks, and comment
// extraction nests a bounded walk per post.
//
// Failures never disappear. Every classified failure is recorded on the
// result together with how it was resolved; recovery follows the retry
// policy (retry with backoff, escalate to the browser, rotate the proxy,
// or abort the target keeping partial results).
package session
