// Package parse normalizes Instagram payloads into canonical records.
//
// Two shape-specific paths converge on the same record types:
//
//   - The GraphQL path decodes API envelopes (pkg/instagram models) and
//     walks the media and comment connections: ProfileRecord, PostsPage,
//     CommentsPage plus selectors for each container.
//   - The HTML path wraps a rendered browser capture in a Document. The
//     embedded script state (window._sharedData, __additionalDataLoaded)
//     is preferred because it carries the very same GraphQL payloads; og:
//     meta tags supply a degraded record when scripts were stripped.
//
// Whichever path produced a record, equal source content yields an equal
// record. Counts a payload withholds stay unknown, never zero.
package parse
