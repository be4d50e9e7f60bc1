package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
	"igextract/pkg/record"
)

var (
	sharedDataPattern     = regexp.MustCompile(`(?s)window\._sharedData\s*=\s*(\{.*\})\s*;?\s*$`)
	additionalDataPattern = regexp.MustCompile(`(?s)window\.__additionalDataLoaded\s*\(\s*['"][^'"]*['"]\s*,\s*(\{.*\})\s*\)\s*;?\s*$`)

	likesTextPattern     = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+likes?`)
	commentsTextPattern  = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+comments?`)
	followersTextPattern = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+followers`)
	followingTextPattern = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+following`)
	postsTextPattern     = regexp.MustCompile(`(?i)([\d.,]+[KMB]?)\s+posts`)
	ownerTextPattern     = regexp.MustCompile(`\(@([A-Za-z0-9._]+)\)`)
)

// sharedData is the slice of window._sharedData the extractor cares about.
// Post and profile pages embed the same GraphQL payloads the API serves.
type sharedData struct {
	EntryData struct {
		PostPage []struct {
			Graphql struct {
				ShortcodeMedia *instagram.MediaNode `json:"shortcode_media"`
			} `json:"graphql"`
		} `json:"PostPage"`
		ProfilePage []struct {
			Graphql struct {
				User *instagram.ProfileUser `json:"user"`
			} `json:"graphql"`
		} `json:"ProfilePage"`
		TagPage []struct {
			Graphql struct {
				Hashtag *instagram.HashtagFeed `json:"hashtag"`
			} `json:"graphql"`
		} `json:"TagPage"`
		LocationsPage []struct {
			Graphql struct {
				Location *instagram.LocationFeed `json:"location"`
			} `json:"graphql"`
		} `json:"LocationsPage"`
		LoginAndSignupPage []json.RawMessage `json:"LoginAndSignupPage"`
		Challenge          []json.RawMessage `json:"Challenge"`
	} `json:"entry_data"`
}

// additionalData is the second argument of window.__additionalDataLoaded
// on post pages.
type additionalData struct {
	Graphql struct {
		ShortcodeMedia *instagram.MediaNode `json:"shortcode_media"`
	} `json:"graphql"`
}

// Document is a parsed browser capture. The embedded script state is
// decoded once and reused across queries.
type Document struct {
	doc    *goquery.Document
	raw    string
	shared *sharedData
}

// NewDocument parses rendered page HTML.
func NewDocument(rawHTML string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, errs.Wrap(errs.ClassStructural, "parsing rendered page", err)
	}

	d := &Document{doc: doc, raw: rawHTML}
	for _, script := range scriptTexts(rawHTML) {
		if d.shared != nil {
			break
		}
		match := sharedDataPattern.FindStringSubmatch(script)
		if match == nil {
			continue
		}
		var data sharedData
		if json.Unmarshal([]byte(match[1]), &data) == nil {
			d.shared = &data
		}
	}
	return d, nil
}

// scriptTexts returns the text of every inline <script> in document order.
func scriptTexts(rawHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var texts []string
	inScript := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return texts
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if inScript {
				texts = append(texts, string(tokenizer.Text()))
			}
		}
	}
}

// PostNode returns the embedded GraphQL media node of a post page, looking
// at window._sharedData first and __additionalDataLoaded second.
func (d *Document) PostNode() (*instagram.MediaNode, bool) {
	if d.shared != nil {
		for _, page := range d.shared.EntryData.PostPage {
			if page.Graphql.ShortcodeMedia != nil {
				return page.Graphql.ShortcodeMedia, true
			}
		}
	}
	for _, script := range scriptTexts(d.raw) {
		match := additionalDataPattern.FindStringSubmatch(script)
		if match == nil {
			continue
		}
		var data additionalData
		if json.Unmarshal([]byte(match[1]), &data) == nil && data.Graphql.ShortcodeMedia != nil {
			return data.Graphql.ShortcodeMedia, true
		}
	}
	return nil, false
}

// ProfileUser returns the embedded GraphQL user of a profile page.
func (d *Document) ProfileUser() (*instagram.ProfileUser, bool) {
	if d.shared == nil {
		return nil, false
	}
	for _, page := range d.shared.EntryData.ProfilePage {
		if page.Graphql.User != nil {
			return page.Graphql.User, true
		}
	}
	return nil, false
}

// ProfileTimeline returns the embedded timeline connection of a profile
// page plus the owner's user id.
func (d *Document) ProfileTimeline() (*instagram.MediaConnection, string, bool) {
	user, ok := d.ProfileUser()
	if !ok || user.EdgeOwnerToTimelineMedia == nil {
		return nil, "", false
	}
	return user.EdgeOwnerToTimelineMedia, user.ID, true
}

// HashtagMedia returns the embedded recent-media connection of a hashtag
// explore page.
func (d *Document) HashtagMedia() (*instagram.MediaConnection, bool) {
	if d.shared == nil {
		return nil, false
	}
	for _, page := range d.shared.EntryData.TagPage {
		if page.Graphql.Hashtag != nil && page.Graphql.Hashtag.EdgeHashtagToMedia != nil {
			return page.Graphql.Hashtag.EdgeHashtagToMedia, true
		}
	}
	return nil, false
}

// LocationMedia returns the embedded recent-media connection of a
// location explore page.
func (d *Document) LocationMedia() (*instagram.MediaConnection, bool) {
	if d.shared == nil {
		return nil, false
	}
	for _, page := range d.shared.EntryData.LocationsPage {
		if page.Graphql.Location != nil && page.Graphql.Location.EdgeLocationToMedia != nil {
			return page.Graphql.Location.EdgeLocationToMedia, true
		}
	}
	return nil, false
}

// LoginWall reports whether the capture is a login or challenge
// interstitial instead of the requested content.
func (d *Document) LoginWall() bool {
	if d.shared != nil {
		entry := d.shared.EntryData
		if len(entry.LoginAndSignupPage) > 0 || len(entry.Challenge) > 0 {
			return true
		}
	}
	if d.doc.Find(`form[action*="/accounts/login"]`).Length() > 0 {
		return true
	}
	if d.doc.Find(`input[name="username"]`).Length() > 0 &&
		d.doc.Find(`input[name="password"]`).Length() > 0 {
		return true
	}
	return strings.Contains(d.raw, `"challengeType"`)
}

// PostLinks returns the post shortcodes linked from a feed page, in
// document order without duplicates.
func (d *Document) PostLinks() []string {
	var shortcodes []string
	seen := make(map[string]struct{})
	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		shortcode := instagram.ShortcodeFromURL(href)
		if shortcode == "" {
			return
		}
		if _, ok := seen[shortcode]; ok {
			return
		}
		seen[shortcode] = struct{}{}
		shortcodes = append(shortcodes, shortcode)
	})
	return shortcodes
}

// PostFromMeta assembles a degraded post record from og: meta tags, for
// captures whose script state was stripped. Counts the tags do not state
// stay unknown rather than zero.
func (d *Document) PostFromMeta(shortcode, fallbackOwner string) (record.Post, error) {
	if shortcode == "" {
		return record.Post{}, errs.New(errs.ClassStructural, "meta fallback needs a shortcode")
	}

	description := d.metaContent("og:description")
	image := d.metaContent("og:image")
	video := d.metaContent("og:video")

	post := record.Post{
		Shortcode:    shortcode,
		PostURL:      instagram.PostPageURL(shortcode),
		Type:         record.MediaImage,
		Caption:      description,
		Likes:        textMetric(likesTextPattern, description),
		CommentCount: textMetric(commentsTextPattern, description),
		VideoViews:   record.UnknownMetric(),
		Shares:       record.UnknownMetric(),
		ThumbnailURL: image,
		Owner:        fallbackOwner,
	}
	if video != "" {
		post.Type = record.MediaVideo
		post.MediaURLs = []string{video}
	} else if image != "" {
		post.MediaURLs = []string{image}
	}
	if match := ownerTextPattern.FindStringSubmatch(description); match != nil {
		post.Owner = match[1]
	}
	post.Hashtags = record.Hashtags(description)
	post.Mentions = record.Mentions(description)
	return post, nil
}

// ProfileFromMeta assembles a degraded profile record from og: meta tags.
func (d *Document) ProfileFromMeta(username string) (*record.Profile, error) {
	if username == "" {
		return nil, errs.New(errs.ClassStructural, "meta fallback needs a username")
	}

	description := d.metaContent("og:description")
	profile := &record.Profile{
		Username:      username,
		FullName:      nameFromTitle(d.metaContent("og:title")),
		Followers:     textMetric(followersTextPattern, description),
		Following:     textMetric(followingTextPattern, description),
		PostCount:     textMetric(postsTextPattern, description),
		ProfilePicURL: d.metaContent("og:image"),
	}
	return profile, nil
}

func (d *Document) metaContent(property string) string {
	content, _ := d.doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(content)
}

// nameFromTitle strips the "(@handle) • Instagram ..." tail off an og:title.
func nameFromTitle(title string) string {
	if i := strings.Index(title, "(@"); i > 0 {
		return strings.TrimSpace(title[:i])
	}
	if i := strings.Index(title, "•"); i > 0 {
		return strings.TrimSpace(title[:i])
	}
	return strings.TrimSpace(title)
}

func textMetric(pattern *regexp.Regexp, text string) record.Metric {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return record.UnknownMetric()
	}
	n, ok := approxCount(match[1])
	if !ok {
		return record.UnknownMetric()
	}
	return record.MetricOf(n)
}

// approxCount parses "1,234", "12.5K" and friends the way the page
// abbreviates engagement numbers.
func approxCount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}

	multiplier := float64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case 'b', 'B':
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f * multiplier), true
}
