package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram.
	BaseURL = "https://www.instagram.com"

	// AppID is the web client's application id, sent as x-ig-app-id.
	AppID = "936619743392459"

	// ProfileEndpoint returns profile metadata for a username.
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// GraphQLEndpoint serves paginated connections by query hash.
	GraphQLEndpoint = "/graphql/query/"

	// TimelineQueryHash pages a user's timeline media by user id.
	TimelineQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// CommentsQueryHash pages a post's parent comments by shortcode.
	CommentsQueryHash = "bc3296d1ce80a24b1b6e40b1e72903f5"

	// HashtagQueryHash pages a hashtag's recent media by tag name.
	HashtagQueryHash = "9b498c08113f1e09617a1703c22b2f32"

	// LocationQueryHash pages a location's recent media by location id.
	LocationQueryHash = "1b84447a4d8b6d6d3426fefb34514485"

	// DefaultPageSize is the connection page size requested by default.
	DefaultPageSize = 12

	// MaxPageSize is the largest page size the endpoints accept.
	MaxPageSize = 50
)

// ProfileURL builds the web profile endpoint URL for a username.
func ProfileURL(username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", BaseURL, ProfileEndpoint, params.Encode())
}

// TimelineURL builds the paginated timeline query for a user id.
func TimelineURL(userID, after string, first int) string {
	return graphURL(TimelineQueryHash, graphVariables{ID: userID, First: clampPageSize(first), After: after})
}

// CommentsURL builds the paginated comments query for a post shortcode.
func CommentsURL(shortcode, after string, first int) string {
	return graphURL(CommentsQueryHash, graphVariables{Shortcode: shortcode, First: clampPageSize(first), After: after})
}

// HashtagURL builds the paginated recent-media query for a hashtag.
func HashtagURL(tag, after string, first int) string {
	return graphURL(HashtagQueryHash, graphVariables{TagName: tag, First: clampPageSize(first), After: after})
}

// LocationURL builds the paginated recent-media query for a location id.
func LocationURL(locationID, after string, first int) string {
	return graphURL(LocationQueryHash, graphVariables{ID: locationID, First: clampPageSize(first), After: after})
}

// graphVariables is the variables blob for /graphql/query requests. Only
// the fields relevant to a given query hash are set.
type graphVariables struct {
	ID        string `json:"id,omitempty"`
	Shortcode string `json:"shortcode,omitempty"`
	TagName   string `json:"tag_name,omitempty"`
	First     int    `json:"first"`
	After     string `json:"after,omitempty"`
}

func graphURL(queryHash string, vars graphVariables) string {
	blob, _ := json.Marshal(vars)
	params := url.Values{}
	params.Set("query_hash", queryHash)
	params.Set("variables", string(blob))
	return fmt.Sprintf("%s%s?%s", BaseURL, GraphQLEndpoint, params.Encode())
}

func clampPageSize(first int) int {
	if first <= 0 {
		return DefaultPageSize
	}
	if first > MaxPageSize {
		return MaxPageSize
	}
	return first
}

// PostPageURL is the public page for a post, used by the browser strategy.
func PostPageURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// ProfilePageURL is the public page for a user, used by the browser strategy.
func ProfilePageURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// ReelsPageURL is the public reels tab for a user.
func ReelsPageURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/reels/", BaseURL, username)
}

// HashtagPageURL is the public explore page for a hashtag.
func HashtagPageURL(tag string) string {
	if tag == "" {
		return ""
	}
	return fmt.Sprintf("%s/explore/tags/%s/", BaseURL, url.PathEscape(tag))
}

// LocationPageURL is the public explore page for a location id.
func LocationPageURL(locationID string) string {
	if locationID == "" {
		return ""
	}
	return fmt.Sprintf("%s/explore/locations/%s/", BaseURL, url.PathEscape(locationID))
}

// IsValidUsername checks a username against Instagram's character rules.
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips the leading @ and trailing slashes or spaces
// users paste along with a handle.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	return username
}

// IsValidHashtag checks a tag name (without the #).
func IsValidHashtag(tag string) bool {
	if tag == "" || len(tag) > 100 {
		return false
	}
	return !strings.ContainsAny(tag, " \t\n/#?&")
}

// SanitizeHashtag strips the leading # and surrounding whitespace.
func SanitizeHashtag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// IsValidShortcode checks a post shortcode.
func IsValidShortcode(shortcode string) bool {
	if shortcode == "" || len(shortcode) > 39 {
		return false
	}
	for _, char := range shortcode {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}
	return true
}

// ShortcodeFromURL extracts a post shortcode from a /p/ or /reel/ URL,
// returning "" when the URL does not point at a post.
func ShortcodeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	switch parts[0] {
	case "p", "reel", "reels", "tv":
		if IsValidShortcode(parts[1]) {
			return parts[1]
		}
	}
	return ""
}
