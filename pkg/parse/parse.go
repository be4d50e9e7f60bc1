package parse

import (
	"bytes"
	"encoding/json"
	"strings"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
	"igextract/pkg/record"
)

// Source says which strategy produced a payload, which selects the parse
// path. Both paths converge on the same record shapes.
type Source string

const (
	// SourceAPI marks a JSON payload from the web API.
	SourceAPI Source = "api"

	// SourceBrowser marks rendered page HTML from the browser.
	SourceBrowser Source = "browser"
)

// Parse normalizes one raw payload into a page of records for the target
// it was fetched for. Failures carry the taxonomy class the retry policy
// dispatches on: denied envelopes and login walls classify access_denied,
// undecodable or schema-drifted payloads classify structural.
func Parse(src Source, body []byte, target instagram.Target) (*Page, error) {
	switch src {
	case SourceAPI:
		return parseAPI(body, target)
	case SourceBrowser:
		return parseBrowser(string(body), target)
	}
	return nil, errs.Newf(errs.ClassStructural, "unknown payload source %q", src)
}

func parseAPI(body []byte, target instagram.Target) (*Page, error) {
	if looksLikeHTML(body) {
		return nil, errs.New(errs.ClassStructural, "html payload where json was expected")
	}

	switch target.Kind {
	case instagram.TargetProfile:
		resp, err := decodeProfile(body)
		if err != nil {
			return nil, err
		}
		profile, err := ProfileRecord(resp)
		if err != nil {
			return nil, err
		}
		return &Page{
			Profiles: []record.Profile{*profile},
			OwnerID:  resp.Data.User.ID,
		}, nil

	case instagram.TargetTimeline:
		// The first timeline page rides on the profile endpoint; its
		// envelope decodes the same way because both nest the
		// connection under data.user.
		resp, err := decodeGraph(body)
		if err != nil {
			return nil, err
		}
		conn, err := TimelineConnection(resp)
		if err != nil {
			return nil, err
		}
		page := PostsPage(conn, target.Username)
		if resp.Data.User != nil {
			page.OwnerID = resp.Data.User.ID
		}
		return page, nil

	case instagram.TargetHashtag:
		resp, err := decodeGraph(body)
		if err != nil {
			return nil, err
		}
		conn, err := HashtagConnection(resp)
		if err != nil {
			return nil, err
		}
		return PostsPage(conn, ""), nil

	case instagram.TargetLocation:
		resp, err := decodeGraph(body)
		if err != nil {
			return nil, err
		}
		conn, err := LocationConnection(resp)
		if err != nil {
			return nil, err
		}
		return PostsPage(conn, ""), nil

	case instagram.TargetComments:
		resp, err := decodeGraph(body)
		if err != nil {
			return nil, err
		}
		node, err := PostNode(resp)
		if err != nil {
			return nil, err
		}
		conn, err := PostCommentsConnection(node)
		if err != nil {
			return nil, err
		}
		return CommentsPage(conn, target.Shortcode), nil
	}

	return nil, errs.Newf(errs.ClassStructural, "no api parse path for target kind %q", target.Kind)
}

func parseBrowser(rawHTML string, target instagram.Target) (*Page, error) {
	doc, err := NewDocument(rawHTML)
	if err != nil {
		return nil, err
	}
	if doc.LoginWall() {
		return nil, errs.New(errs.ClassAccessDenied, "login wall in rendered page")
	}

	switch target.Kind {
	case instagram.TargetProfile:
		if user, ok := doc.ProfileUser(); ok {
			profile, err := ProfileFromUser(user)
			if err != nil {
				return nil, err
			}
			return &Page{
				Profiles: []record.Profile{*profile},
				OwnerID:  user.ID,
			}, nil
		}
		profile, err := doc.ProfileFromMeta(target.Username)
		if err != nil {
			return nil, err
		}
		return &Page{Profiles: []record.Profile{*profile}}, nil

	case instagram.TargetTimeline:
		if conn, ownerID, ok := doc.ProfileTimeline(); ok {
			page := PostsPage(conn, target.Username)
			page.OwnerID = ownerID
			return page, nil
		}
		return linkPage(doc, target.Username)

	case instagram.TargetHashtag:
		if conn, ok := doc.HashtagMedia(); ok {
			return PostsPage(conn, ""), nil
		}
		return linkPage(doc, "")

	case instagram.TargetLocation:
		if conn, ok := doc.LocationMedia(); ok {
			return PostsPage(conn, ""), nil
		}
		return linkPage(doc, "")

	case instagram.TargetComments:
		node, ok := doc.PostNode()
		if !ok {
			return nil, errs.New(errs.ClassStructural, "post page without embedded media node")
		}
		if node.EdgeMediaToParentComment == nil {
			// Rendered without the comment edge; nothing to walk.
			return &Page{}, nil
		}
		return CommentsPage(node.EdgeMediaToParentComment, target.Shortcode), nil
	}

	return nil, errs.Newf(errs.ClassStructural, "no browser parse path for target kind %q", target.Kind)
}

func decodeProfile(body []byte) (*instagram.WebProfileResponse, error) {
	var resp instagram.WebProfileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Wrap(errs.ClassStructural, "decoding profile payload", err)
	}
	if err := envelopeError(resp.Status, "", resp.RequiresToLogin); err != nil {
		return nil, err
	}
	return &resp, nil
}

func decodeGraph(body []byte) (*instagram.GraphResponse, error) {
	var resp instagram.GraphResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Wrap(errs.ClassStructural, "decoding graphql payload", err)
	}
	if err := envelopeError(resp.Status, resp.Message, resp.RequiresToLogin); err != nil {
		return nil, err
	}
	return &resp, nil
}

// envelopeError maps the envelope's own failure signals onto the taxonomy
// before any container is inspected.
func envelopeError(status, message string, requiresLogin bool) error {
	if requiresLogin {
		return errs.New(errs.ClassAccessDenied, "platform requires login")
	}
	if status == "" || status == "ok" {
		return nil
	}
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "login_required"),
		strings.Contains(msg, "checkpoint_required"),
		strings.Contains(msg, "challenge_required"):
		return errs.Newf(errs.ClassAccessDenied, "platform rejected the session: %s", message)
	case strings.Contains(msg, "wait a few minutes"):
		return errs.New(errs.ClassRateLimited, "platform asked to slow down")
	}
	return errs.Newf(errs.ClassStructural, "unexpected payload status %q", status)
}

// linkPage harvests post links off a rendered feed whose script state was
// stripped. A link only shows its shortcode, so every metric stays
// unknown and there is no continuation cursor. No links at all means the
// page structure changed under us.
func linkPage(doc *Document, owner string) (*Page, error) {
	shortcodes := doc.PostLinks()
	if len(shortcodes) == 0 {
		return nil, errs.New(errs.ClassStructural, "feed page with no embedded state and no post links")
	}
	page := &Page{}
	for _, shortcode := range shortcodes {
		page.Posts = append(page.Posts, record.Post{
			Shortcode:    shortcode,
			PostURL:      instagram.PostPageURL(shortcode),
			Type:         record.MediaImage,
			Likes:        record.UnknownMetric(),
			CommentCount: record.UnknownMetric(),
			VideoViews:   record.UnknownMetric(),
			Shares:       record.UnknownMetric(),
			Owner:        owner,
		})
	}
	return page, nil
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}
