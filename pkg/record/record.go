package record

import (
	"strconv"
	"time"
)

// Kind names a canonical record type in exports and run summaries.
type Kind string

const (
	KindProfile Kind = "profile"
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// MediaType classifies a post's media.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
)

// Record is implemented by all canonical record types.
type Record interface {
	// Key uniquely identifies the record within a run. Retried pages and
	// overlapping strategies deduplicate on it.
	Key() string

	// RecordKind names the record type.
	RecordKind() Kind
}

// Metric is an engagement count that may be unknown. Instagram withholds
// some counts (likes on hidden-like posts, video views behind login walls),
// and a withheld count must stay distinguishable from a real zero: unknown
// marshals as null, never 0.
type Metric struct {
	Count int64
	Known bool
}

// MetricOf returns a known count.
func MetricOf(n int64) Metric {
	return Metric{Count: n, Known: true}
}

// UnknownMetric returns the unknown count.
func UnknownMetric() Metric {
	return Metric{}
}

// MetricFromPtr converts an optional wire count, nil meaning unknown.
func MetricFromPtr(n *int64) Metric {
	if n == nil {
		return UnknownMetric()
	}
	return MetricOf(*n)
}

func (m Metric) String() string {
	if !m.Known {
		return "unknown"
	}
	return strconv.FormatInt(m.Count, 10)
}

// MarshalJSON writes null for unknown counts.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Known {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, m.Count, 10), nil
}

// UnmarshalJSON reads null as unknown.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*m = MetricOf(n)
	return nil
}

// Profile is a canonical account profile.
type Profile struct {
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Biography       string `json:"biography"`
	ExternalURL     string `json:"external_url,omitempty"`
	Followers       Metric `json:"follower_count"`
	Following       Metric `json:"following_count"`
	PostCount       Metric `json:"post_count"`
	IsVerified      bool   `json:"is_verified"`
	IsPrivate       bool   `json:"is_private"`
	IsBusiness      bool   `json:"is_business"`
	Category        string `json:"category,omitempty"`
	ProfilePicURL   string `json:"profile_pic_url"`
	ProfilePicURLHD string `json:"profile_pic_url_hd,omitempty"`
}

func (p Profile) Key() string      { return "profile:" + p.Username }
func (p Profile) RecordKind() Kind { return KindProfile }

// Place is the location tag attached to a post.
type Place struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Post is one canonical media post. Timestamp is zero when the producing
// path could not observe it.
type Post struct {
	Shortcode    string    `json:"shortcode"`
	PostURL      string    `json:"post_url"`
	Type         MediaType `json:"type"`
	Caption      string    `json:"caption"`
	Hashtags     []string  `json:"hashtags"`
	Mentions     []string  `json:"mentions"`
	TaggedUsers  []string  `json:"tagged_users"`
	Timestamp    time.Time `json:"timestamp"`
	Likes        Metric    `json:"likes"`
	CommentCount Metric    `json:"comments_count"`
	VideoViews   Metric    `json:"video_views"`
	Shares       Metric    `json:"shares"`
	MediaURLs    []string  `json:"media_urls"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Location     *Place    `json:"location,omitempty"`
	IsSponsored  bool      `json:"is_sponsored"`
	Owner        string    `json:"owner_username"`
	Comments     []Comment `json:"comments,omitempty"`
}

func (p Post) Key() string      { return "post:" + p.Shortcode }
func (p Post) RecordKind() Kind { return KindPost }

// IsReel reports whether the post belongs in a reels extraction.
func (p Post) IsReel() bool {
	return p.Type == MediaVideo
}

// Comment is one canonical comment on a post.
type Comment struct {
	ID             string    `json:"comment_id"`
	PostShortcode  string    `json:"post_shortcode"`
	Text           string    `json:"text"`
	AuthorUsername string    `json:"author_username"`
	AuthorVerified bool      `json:"author_verified"`
	Timestamp      time.Time `json:"timestamp"`
	Likes          Metric    `json:"likes"`
	ReplyCount     Metric    `json:"replies_count"`
}

func (c Comment) Key() string      { return "comment:" + c.ID }
func (c Comment) RecordKind() Kind { return KindComment }
