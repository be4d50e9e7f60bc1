// Package instagram describes Instagram's web surface: endpoint and query
// builders, the GraphQL query hashes the web client uses, and type-safe
// models for the JSON both the documented API and the embedded page state
// return.
//
// This package includes:
//   - URL builders for the profile endpoint and the paginated GraphQL
//     queries (timeline, comments, hashtag, location)
//   - Wire models mirroring the response JSON, with pointer fields for
//     metrics the API sometimes withholds
//   - Validation and sanitization helpers for usernames, hashtags and
//     post shortcodes
//
// Example usage:
//
//	username := instagram.SanitizeUsername("@nasa/")
//	if !instagram.IsValidUsername(username) {
//	    return fmt.Errorf("invalid username %q", username)
//	}
//
//	url := instagram.TimelineURL(userID, cursor, 0)
//
//	var resp instagram.GraphResponse
//	// ... fetch url, decode body into resp ...
//
//	media := resp.Data.User.EdgeOwnerToTimelineMedia
//	for _, edge := range media.Edges {
//	    _ = edge.Node.Shortcode
//	}
//	if media.PageInfo.HasNextPage {
//	    cursor = media.PageInfo.EndCursor
//	}
//
// The package holds no HTTP client of its own; fetching lives elsewhere so
// the same models serve both the API and the browser path.
package instagram
