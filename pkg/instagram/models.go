package instagram

// WebProfileResponse is the envelope returned by the web profile endpoint.
type WebProfileResponse struct {
	Data struct {
		User *ProfileUser `json:"user"`
	} `json:"data"`
	Status          string `json:"status"`
	RequiresToLogin bool   `json:"requires_to_login"`
}

// ProfileUser carries the profile fields the engine extracts. Scalar edges
// arrive as {"count": N} objects; a nil edge means the API withheld it.
type ProfileUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"full_name"`
	Biography         string `json:"biography"`
	ExternalURL       string `json:"external_url"`
	IsVerified        bool   `json:"is_verified"`
	IsPrivate         bool   `json:"is_private"`
	IsBusinessAccount bool   `json:"is_business_account"`
	CategoryName      string `json:"category_name"`
	ProfilePicURL     string `json:"profile_pic_url"`
	ProfilePicURLHD   string `json:"profile_pic_url_hd"`

	EdgeFollowedBy           *Count           `json:"edge_followed_by"`
	EdgeFollow               *Count           `json:"edge_follow"`
	EdgeOwnerToTimelineMedia *MediaConnection `json:"edge_owner_to_timeline_media"`
}

// Count wraps the {"count": N} objects GraphQL uses for scalar edges.
type Count struct {
	Count int64 `json:"count"`
}

// GraphResponse is the envelope for /graphql/query responses. Exactly one
// of the Data containers is populated, depending on the query hash.
type GraphResponse struct {
	Data struct {
		User           *TimelineUser `json:"user"`
		Hashtag        *HashtagFeed  `json:"hashtag"`
		Location       *LocationFeed `json:"location"`
		ShortcodeMedia *MediaNode    `json:"shortcode_media"`
	} `json:"data"`
	Status          string `json:"status"`
	Message         string `json:"message"`
	RequiresToLogin bool   `json:"requires_to_login"`
}

// TimelineUser holds a user's paginated timeline media. The id and
// username are only present when the envelope came from the profile
// endpoint, which serves the first timeline page.
type TimelineUser struct {
	ID                       string           `json:"id"`
	Username                 string           `json:"username"`
	EdgeOwnerToTimelineMedia *MediaConnection `json:"edge_owner_to_timeline_media"`
}

// HashtagFeed holds a hashtag's paginated media.
type HashtagFeed struct {
	Name               string           `json:"name"`
	EdgeHashtagToMedia *MediaConnection `json:"edge_hashtag_to_media"`
}

// LocationFeed holds a location's paginated media.
type LocationFeed struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	EdgeLocationToMedia *MediaConnection `json:"edge_location_to_media"`
}

// MediaConnection is a paginated set of media nodes.
type MediaConnection struct {
	Count    int64       `json:"count"`
	PageInfo PageInfo    `json:"page_info"`
	Edges    []MediaEdge `json:"edges"`
}

// PageInfo carries the cursor state for a connection.
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// MediaEdge wraps a single media node.
type MediaEdge struct {
	Node MediaNode `json:"node"`
}

// MediaNode is one post as the GraphQL API renders it. Optional engagement
// edges are pointers: nil means the API did not expose the metric, which is
// distinct from a zero count.
type MediaNode struct {
	ID                string `json:"id"`
	Typename          string `json:"__typename"`
	Shortcode         string `json:"shortcode"`
	DisplayURL        string `json:"display_url"`
	VideoURL          string `json:"video_url"`
	ThumbnailSrc      string `json:"thumbnail_src"`
	IsVideo           bool   `json:"is_video"`
	ProductType       string `json:"product_type"`
	TakenAtTimestamp  int64  `json:"taken_at_timestamp"`
	IsAd              bool   `json:"is_ad"`
	IsPaidPartnership bool   `json:"is_paid_partnership"`

	EdgeMediaToCaption       CaptionEdges       `json:"edge_media_to_caption"`
	EdgeMediaPreviewLike     *Count             `json:"edge_media_preview_like"`
	EdgeLikedBy              *Count             `json:"edge_liked_by"`
	EdgeMediaToComment       *Count             `json:"edge_media_to_comment"`
	VideoViewCount           *int64             `json:"video_view_count"`
	ShareCount               *int64             `json:"share_count"`
	EdgeSidecarToChildren    *MediaConnection   `json:"edge_sidecar_to_children"`
	EdgeMediaToTaggedUser    *TaggedUsers       `json:"edge_media_to_tagged_user"`
	EdgeMediaToParentComment *CommentConnection `json:"edge_media_to_parent_comment"`

	Owner    *Owner     `json:"owner"`
	Location *PostPlace `json:"location"`
}

// CaptionEdges holds a post's caption edge list; only the first entry is
// meaningful.
type CaptionEdges struct {
	Edges []CaptionEdge `json:"edges"`
}

// CaptionEdge wraps one caption node.
type CaptionEdge struct {
	Node CaptionNode `json:"node"`
}

// CaptionNode is the caption text itself.
type CaptionNode struct {
	Text string `json:"text"`
}

// TaggedUsers holds the users tagged in a post.
type TaggedUsers struct {
	Edges []TaggedUserEdge `json:"edges"`
}

// TaggedUserEdge wraps one tagged user.
type TaggedUserEdge struct {
	Node TaggedUserNode `json:"node"`
}

// TaggedUserNode points at the tagged account.
type TaggedUserNode struct {
	User Owner `json:"user"`
}

// Owner identifies an account attached to a post or comment.
type Owner struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	IsVerified bool   `json:"is_verified"`
}

// PostPlace is the location attached to a post.
type PostPlace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CommentConnection is a paginated set of comments on one post.
type CommentConnection struct {
	Count    int64         `json:"count"`
	PageInfo PageInfo      `json:"page_info"`
	Edges    []CommentEdge `json:"edges"`
}

// CommentEdge wraps a single comment node.
type CommentEdge struct {
	Node CommentNode `json:"node"`
}

// CommentNode is one comment as the GraphQL API renders it.
type CommentNode struct {
	ID                   string `json:"id"`
	Text                 string `json:"text"`
	CreatedAt            int64  `json:"created_at"`
	Owner                *Owner `json:"owner"`
	EdgeLikedBy          *Count `json:"edge_liked_by"`
	EdgeThreadedComments *Count `json:"edge_threaded_comments"`
}
