package instagram

import (
	errs "igextract/pkg/errors"
)

// TargetKind selects which Instagram surface a fetch addresses.
type TargetKind string

const (
	// TargetProfile is a user's profile metadata.
	TargetProfile TargetKind = "profile"
	// TargetTimeline is a user's timeline media connection.
	TargetTimeline TargetKind = "timeline"
	// TargetHashtag is a hashtag's recent-media connection.
	TargetHashtag TargetKind = "hashtag"
	// TargetLocation is a location's recent-media connection.
	TargetLocation TargetKind = "location"
	// TargetComments is a post's parent-comment connection.
	TargetComments TargetKind = "comments"
)

// Target identifies one fetchable surface. Only the identifier fields the
// kind needs are set. UserID starts empty for timeline targets and is
// latched by the caller once the first page reveals the owner.
type Target struct {
	Kind TargetKind

	Username   string
	UserID     string
	Shortcode  string
	Tag        string
	LocationID string

	// PageSize overrides DefaultPageSize on paginated kinds.
	PageSize int
}

// Ref labels the target in logs, failures and checkpoints.
func (t Target) Ref() string {
	switch t.Kind {
	case TargetProfile:
		return "profile:" + t.Username
	case TargetTimeline:
		return "timeline:" + t.Username
	case TargetHashtag:
		return "hashtag:" + t.Tag
	case TargetLocation:
		return "location:" + t.LocationID
	case TargetComments:
		return "comments:" + t.Shortcode
	}
	return string(t.Kind)
}

// Validate checks that the identifier the kind requires is present and
// well formed.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetProfile, TargetTimeline:
		if !IsValidUsername(t.Username) {
			return errs.Newf(errs.ClassFatal, "invalid username %q", t.Username)
		}
	case TargetHashtag:
		if !IsValidHashtag(t.Tag) {
			return errs.Newf(errs.ClassFatal, "invalid hashtag %q", t.Tag)
		}
	case TargetLocation:
		if t.LocationID == "" {
			return errs.New(errs.ClassFatal, "location target requires a location id")
		}
	case TargetComments:
		if !IsValidShortcode(t.Shortcode) {
			return errs.Newf(errs.ClassFatal, "invalid post shortcode %q", t.Shortcode)
		}
	default:
		return errs.Newf(errs.ClassFatal, "unknown target kind %q", t.Kind)
	}
	return nil
}

// IsFeed reports whether the target paginates a media feed. Feed pages
// lazy-load batches on scroll, which is what the browser strategy
// exploits.
func (t Target) IsFeed() bool {
	switch t.Kind {
	case TargetTimeline, TargetHashtag, TargetLocation:
		return true
	}
	return false
}

// APIRequestURL builds the JSON endpoint for the page after the given
// cursor. A timeline walk piggybacks its first page on the profile
// endpoint until the owner id is known; a cursor without an owner id is
// unanswerable.
func (t Target) APIRequestURL(after string) (string, error) {
	switch t.Kind {
	case TargetProfile:
		return ProfileURL(t.Username), nil
	case TargetTimeline:
		if t.UserID == "" {
			if after != "" {
				return "", errs.New(errs.ClassStructural, "timeline cursor without an owner id")
			}
			return ProfileURL(t.Username), nil
		}
		return TimelineURL(t.UserID, after, t.PageSize), nil
	case TargetHashtag:
		return HashtagURL(t.Tag, after, t.PageSize), nil
	case TargetLocation:
		return LocationURL(t.LocationID, after, t.PageSize), nil
	case TargetComments:
		return CommentsURL(t.Shortcode, after, t.PageSize), nil
	}
	return "", errs.Newf(errs.ClassFatal, "unknown target kind %q", t.Kind)
}

// PageURL is the public page the browser strategy renders for this
// target.
func (t Target) PageURL() string {
	switch t.Kind {
	case TargetProfile, TargetTimeline:
		return ProfilePageURL(t.Username)
	case TargetHashtag:
		return HashtagPageURL(t.Tag)
	case TargetLocation:
		return LocationPageURL(t.LocationID)
	case TargetComments:
		return PostPageURL(t.Shortcode)
	}
	return ""
}
