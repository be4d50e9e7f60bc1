package parse

import (
	"time"

	errs "igextract/pkg/errors"
	"igextract/pkg/instagram"
	"igextract/pkg/record"
)

// Page is one decoded page of records plus its continuation cursor. Only
// the slice matching the walked connection is populated.
type Page struct {
	Profiles []record.Profile
	Posts    []record.Post
	Comments []record.Comment

	// Cursor is the opaque end_cursor for the next page, empty when the
	// connection reported no further page.
	Cursor  string
	HasNext bool

	// Total is the connection's own count of items, when it reported one.
	Total record.Metric

	// OwnerID is the feed owner's user id when the payload revealed it.
	// Timeline walks latch it to address later cursors.
	OwnerID string
}

// Len is the number of records on the page.
func (p *Page) Len() int {
	return len(p.Profiles) + len(p.Posts) + len(p.Comments)
}

// Dedupe drops records whose keys are already in seen and registers the
// survivors. It returns how many records remain, which is what the stall
// detection in the paginator counts.
func (p *Page) Dedupe(seen map[string]struct{}) int {
	profiles := p.Profiles[:0]
	for _, profile := range p.Profiles {
		if _, ok := seen[profile.Key()]; ok {
			continue
		}
		seen[profile.Key()] = struct{}{}
		profiles = append(profiles, profile)
	}
	p.Profiles = profiles

	posts := p.Posts[:0]
	for _, post := range p.Posts {
		if _, ok := seen[post.Key()]; ok {
			continue
		}
		seen[post.Key()] = struct{}{}
		posts = append(posts, post)
	}
	p.Posts = posts

	comments := p.Comments[:0]
	for _, comment := range p.Comments {
		if _, ok := seen[comment.Key()]; ok {
			continue
		}
		seen[comment.Key()] = struct{}{}
		comments = append(comments, comment)
	}
	p.Comments = comments

	return p.Len()
}

// ProfileRecord normalizes the web profile payload.
func ProfileRecord(resp *instagram.WebProfileResponse) (*record.Profile, error) {
	if resp == nil || resp.Data.User == nil {
		return nil, errs.New(errs.ClassStructural, "profile payload missing data.user")
	}
	return ProfileFromUser(resp.Data.User)
}

// ProfileFromUser normalizes a user node, whether it came off the profile
// endpoint or a page's embedded script state.
func ProfileFromUser(user *instagram.ProfileUser) (*record.Profile, error) {
	if user == nil {
		return nil, errs.New(errs.ClassStructural, "profile payload missing user node")
	}

	profile := &record.Profile{
		Username:        user.Username,
		FullName:        user.FullName,
		Biography:       user.Biography,
		ExternalURL:     user.ExternalURL,
		Followers:       countMetric(user.EdgeFollowedBy),
		Following:       countMetric(user.EdgeFollow),
		IsVerified:      user.IsVerified,
		IsPrivate:       user.IsPrivate,
		IsBusiness:      user.IsBusinessAccount,
		Category:        user.CategoryName,
		ProfilePicURL:   user.ProfilePicURL,
		ProfilePicURLHD: user.ProfilePicURLHD,
	}
	if user.EdgeOwnerToTimelineMedia != nil {
		profile.PostCount = record.MetricOf(user.EdgeOwnerToTimelineMedia.Count)
	} else {
		profile.PostCount = record.UnknownMetric()
	}
	return profile, nil
}

// PostRecord normalizes one media node. fallbackOwner fills the owner when
// the node carries none, as hashtag and location feed nodes often do.
func PostRecord(node *instagram.MediaNode, fallbackOwner string) (record.Post, error) {
	if node == nil || node.Shortcode == "" {
		return record.Post{}, errs.New(errs.ClassStructural, "media node without shortcode")
	}

	post := record.Post{
		Shortcode:    node.Shortcode,
		PostURL:      instagram.PostPageURL(node.Shortcode),
		Type:         mediaType(node),
		Caption:      captionText(node),
		Likes:        likesMetric(node),
		CommentCount: countMetric(node.EdgeMediaToComment),
		Shares:       record.MetricFromPtr(node.ShareCount),
		VideoViews:   record.UnknownMetric(),
		MediaURLs:    mediaURLs(node),
		ThumbnailURL: node.ThumbnailSrc,
		IsSponsored:  node.IsAd || node.IsPaidPartnership,
		Owner:        fallbackOwner,
	}

	post.Hashtags = record.Hashtags(post.Caption)
	post.Mentions = record.Mentions(post.Caption)
	post.TaggedUsers = taggedUsers(node)

	if node.IsVideo {
		post.VideoViews = record.MetricFromPtr(node.VideoViewCount)
	}
	if node.TakenAtTimestamp > 0 {
		post.Timestamp = time.Unix(node.TakenAtTimestamp, 0).UTC()
	}
	if node.Owner != nil && node.Owner.Username != "" {
		post.Owner = node.Owner.Username
	}
	if node.Location != nil {
		post.Location = &record.Place{
			ID:   node.Location.ID,
			Name: node.Location.Name,
			Slug: node.Location.Slug,
		}
	}
	return post, nil
}

// CommentRecord normalizes one comment node for the given post.
func CommentRecord(node *instagram.CommentNode, postShortcode string) (record.Comment, error) {
	if node == nil || node.ID == "" {
		return record.Comment{}, errs.New(errs.ClassStructural, "comment node without id")
	}

	comment := record.Comment{
		ID:            node.ID,
		PostShortcode: postShortcode,
		Text:          node.Text,
		Likes:         countMetric(node.EdgeLikedBy),
		ReplyCount:    countMetric(node.EdgeThreadedComments),
	}
	if node.CreatedAt > 0 {
		comment.Timestamp = time.Unix(node.CreatedAt, 0).UTC()
	}
	if node.Owner != nil {
		comment.AuthorUsername = node.Owner.Username
		comment.AuthorVerified = node.Owner.IsVerified
	}
	return comment, nil
}

// PostsPage normalizes a media connection into a page of posts. Nodes the
// endpoint truncated beyond recognition are skipped, not fatal.
func PostsPage(conn *instagram.MediaConnection, fallbackOwner string) *Page {
	page := &Page{Total: record.UnknownMetric()}
	if conn == nil {
		return page
	}

	page.Total = record.MetricOf(conn.Count)
	page.HasNext = conn.PageInfo.HasNextPage
	if conn.PageInfo.HasNextPage {
		page.Cursor = conn.PageInfo.EndCursor
	}
	for i := range conn.Edges {
		post, err := PostRecord(&conn.Edges[i].Node, fallbackOwner)
		if err != nil {
			continue
		}
		page.Posts = append(page.Posts, post)
	}
	return page
}

// CommentsPage normalizes a comment connection into a page of comments.
func CommentsPage(conn *instagram.CommentConnection, postShortcode string) *Page {
	page := &Page{Total: record.UnknownMetric()}
	if conn == nil {
		return page
	}

	page.Total = record.MetricOf(conn.Count)
	page.HasNext = conn.PageInfo.HasNextPage
	if conn.PageInfo.HasNextPage {
		page.Cursor = conn.PageInfo.EndCursor
	}
	for i := range conn.Edges {
		comment, err := CommentRecord(&conn.Edges[i].Node, postShortcode)
		if err != nil {
			continue
		}
		page.Comments = append(page.Comments, comment)
	}
	return page
}

// ProfileTimelineConnection pulls the first timeline page embedded in a
// web profile payload.
func ProfileTimelineConnection(resp *instagram.WebProfileResponse) (*instagram.MediaConnection, error) {
	if resp == nil || resp.Data.User == nil || resp.Data.User.EdgeOwnerToTimelineMedia == nil {
		return nil, errs.New(errs.ClassStructural, "profile payload missing edge_owner_to_timeline_media")
	}
	return resp.Data.User.EdgeOwnerToTimelineMedia, nil
}

// TimelineConnection pulls the timeline media container out of a graph
// response.
func TimelineConnection(resp *instagram.GraphResponse) (*instagram.MediaConnection, error) {
	if resp == nil || resp.Data.User == nil || resp.Data.User.EdgeOwnerToTimelineMedia == nil {
		return nil, errs.New(errs.ClassStructural, "graph response missing edge_owner_to_timeline_media")
	}
	return resp.Data.User.EdgeOwnerToTimelineMedia, nil
}

// HashtagConnection pulls the hashtag feed container out of a graph
// response.
func HashtagConnection(resp *instagram.GraphResponse) (*instagram.MediaConnection, error) {
	if resp == nil || resp.Data.Hashtag == nil || resp.Data.Hashtag.EdgeHashtagToMedia == nil {
		return nil, errs.New(errs.ClassStructural, "graph response missing edge_hashtag_to_media")
	}
	return resp.Data.Hashtag.EdgeHashtagToMedia, nil
}

// LocationConnection pulls the location feed container out of a graph
// response.
func LocationConnection(resp *instagram.GraphResponse) (*instagram.MediaConnection, error) {
	if resp == nil || resp.Data.Location == nil || resp.Data.Location.EdgeLocationToMedia == nil {
		return nil, errs.New(errs.ClassStructural, "graph response missing edge_location_to_media")
	}
	return resp.Data.Location.EdgeLocationToMedia, nil
}

// PostNode pulls the single-post container out of a graph response.
func PostNode(resp *instagram.GraphResponse) (*instagram.MediaNode, error) {
	if resp == nil || resp.Data.ShortcodeMedia == nil {
		return nil, errs.New(errs.ClassStructural, "graph response missing shortcode_media")
	}
	return resp.Data.ShortcodeMedia, nil
}

// PostCommentsConnection pulls the parent-comment container off a
// single-post node.
func PostCommentsConnection(node *instagram.MediaNode) (*instagram.CommentConnection, error) {
	if node == nil || node.EdgeMediaToParentComment == nil {
		return nil, errs.New(errs.ClassStructural, "media node missing edge_media_to_parent_comment")
	}
	return node.EdgeMediaToParentComment, nil
}

func countMetric(c *instagram.Count) record.Metric {
	if c == nil {
		return record.UnknownMetric()
	}
	return record.MetricOf(c.Count)
}

// likesMetric prefers the preview-like edge and falls back to the legacy
// liked-by edge. A negative count is the hidden-likes sentinel and stays
// unknown.
func likesMetric(node *instagram.MediaNode) record.Metric {
	if node.EdgeMediaPreviewLike != nil && node.EdgeMediaPreviewLike.Count >= 0 {
		return record.MetricOf(node.EdgeMediaPreviewLike.Count)
	}
	if node.EdgeLikedBy != nil && node.EdgeLikedBy.Count >= 0 {
		return record.MetricOf(node.EdgeLikedBy.Count)
	}
	return record.UnknownMetric()
}

func mediaType(node *instagram.MediaNode) record.MediaType {
	switch node.Typename {
	case "GraphVideo":
		return record.MediaVideo
	case "GraphSidecar":
		return record.MediaCarousel
	case "GraphImage":
		return record.MediaImage
	}
	// Embedded page state sometimes drops __typename.
	if node.IsVideo {
		return record.MediaVideo
	}
	if node.EdgeSidecarToChildren != nil {
		return record.MediaCarousel
	}
	return record.MediaImage
}

func captionText(node *instagram.MediaNode) string {
	edges := node.EdgeMediaToCaption.Edges
	if len(edges) == 0 {
		return ""
	}
	return edges[0].Node.Text
}

func mediaURLs(node *instagram.MediaNode) []string {
	if node.EdgeSidecarToChildren != nil && len(node.EdgeSidecarToChildren.Edges) > 0 {
		urls := make([]string, 0, len(node.EdgeSidecarToChildren.Edges))
		for i := range node.EdgeSidecarToChildren.Edges {
			child := &node.EdgeSidecarToChildren.Edges[i].Node
			if u := nodeMediaURL(child); u != "" {
				urls = append(urls, u)
			}
		}
		return urls
	}
	if u := nodeMediaURL(node); u != "" {
		return []string{u}
	}
	return nil
}

func nodeMediaURL(node *instagram.MediaNode) string {
	if node.IsVideo && node.VideoURL != "" {
		return node.VideoURL
	}
	if node.DisplayURL != "" {
		return node.DisplayURL
	}
	return node.VideoURL
}

func taggedUsers(node *instagram.MediaNode) []string {
	if node.EdgeMediaToTaggedUser == nil || len(node.EdgeMediaToTaggedUser.Edges) == 0 {
		return nil
	}
	users := make([]string, 0, len(node.EdgeMediaToTaggedUser.Edges))
	for _, edge := range node.EdgeMediaToTaggedUser.Edges {
		if edge.Node.User.Username != "" {
			users = append(users, edge.Node.User.Username)
		}
	}
	return users
}
