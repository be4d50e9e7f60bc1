package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{
			name:     "simple username",
			username: "testuser",
			expected: fmt.Sprintf("%s%s?username=testuser", BaseURL, ProfileEndpoint),
		},
		{
			name:     "username with underscore",
			username: "test_user",
			expected: fmt.Sprintf("%s%s?username=test_user", BaseURL, ProfileEndpoint),
		},
		{
			name:     "username with dots",
			username: "test.user",
			expected: fmt.Sprintf("%s%s?username=test.user", BaseURL, ProfileEndpoint),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ProfileURL(tt.username)
			assert.Equal(t, tt.expected, result)

			// Verify URL is properly encoded
			_, err := url.Parse(result)
			assert.NoError(t, err)
		})
	}
}

// decodeVariables pulls the variables blob out of a graph query URL.
func decodeVariables(t *testing.T, rawURL string) (string, map[string]interface{}) {
	t.Helper()

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, GraphQLEndpoint, parsed.Path)

	vars := make(map[string]interface{})
	err = json.Unmarshal([]byte(parsed.Query().Get("variables")), &vars)
	require.NoError(t, err)

	return parsed.Query().Get("query_hash"), vars
}

func TestTimelineURL(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		after  string
	}{
		{
			name:   "without cursor",
			userID: "123456",
			after:  "",
		},
		{
			name:   "with cursor",
			userID: "123456",
			after:  "QVFCdGVzdGN1cnNvcg==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, vars := decodeVariables(t, TimelineURL(tt.userID, tt.after, 0))

			assert.Equal(t, TimelineQueryHash, hash)
			assert.Equal(t, tt.userID, vars["id"])
			assert.Equal(t, float64(DefaultPageSize), vars["first"])
			if tt.after == "" {
				assert.NotContains(t, vars, "after")
			} else {
				assert.Equal(t, tt.after, vars["after"])
			}
		})
	}
}

func TestCommentsURL(t *testing.T) {
	hash, vars := decodeVariables(t, CommentsURL("CxyzABC123", "cursor42", 24))

	assert.Equal(t, CommentsQueryHash, hash)
	assert.Equal(t, "CxyzABC123", vars["shortcode"])
	assert.Equal(t, "cursor42", vars["after"])
	assert.Equal(t, float64(24), vars["first"])
	assert.NotContains(t, vars, "id")
}

func TestHashtagURL(t *testing.T) {
	hash, vars := decodeVariables(t, HashtagURL("sunset", "", 0))

	assert.Equal(t, HashtagQueryHash, hash)
	assert.Equal(t, "sunset", vars["tag_name"])
	assert.Equal(t, float64(DefaultPageSize), vars["first"])
}

func TestLocationURL(t *testing.T) {
	hash, vars := decodeVariables(t, LocationURL("213385402", "loc_cursor", 0))

	assert.Equal(t, LocationQueryHash, hash)
	assert.Equal(t, "213385402", vars["id"])
	assert.Equal(t, "loc_cursor", vars["after"])
}

func TestClampPageSize(t *testing.T) {
	tests := []struct {
		name     string
		first    int
		expected int
	}{
		{
			name:     "default when zero",
			first:    0,
			expected: DefaultPageSize,
		},
		{
			name:     "negative uses default",
			first:    -5,
			expected: DefaultPageSize,
		},
		{
			name:     "value within bounds",
			first:    25,
			expected: 25,
		},
		{
			name:     "value exceeds maximum",
			first:    100,
			expected: MaxPageSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, vars := decodeVariables(t, TimelineURL("123456", "", tt.first))
			assert.Equal(t, float64(tt.expected), vars["first"])
		})
	}
}

func TestPageURLs(t *testing.T) {
	tests := []struct {
		name     string
		build    func(string) string
		input    string
		expected string
	}{
		{
			name:     "post page",
			build:    PostPageURL,
			input:    "ABC123xyz",
			expected: fmt.Sprintf("%s/p/ABC123xyz/", BaseURL),
		},
		{
			name:     "post page empty shortcode",
			build:    PostPageURL,
			input:    "",
			expected: "",
		},
		{
			name:     "profile page",
			build:    ProfilePageURL,
			input:    "testuser",
			expected: fmt.Sprintf("%s/testuser/", BaseURL),
		},
		{
			name:     "profile page empty username",
			build:    ProfilePageURL,
			input:    "",
			expected: "",
		},
		{
			name:     "reels page",
			build:    ReelsPageURL,
			input:    "testuser",
			expected: fmt.Sprintf("%s/testuser/reels/", BaseURL),
		},
		{
			name:     "hashtag page",
			build:    HashtagPageURL,
			input:    "sunset",
			expected: fmt.Sprintf("%s/explore/tags/sunset/", BaseURL),
		},
		{
			name:     "location page",
			build:    LocationPageURL,
			input:    "213385402",
			expected: fmt.Sprintf("%s/explore/locations/213385402/", BaseURL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.build(tt.input))
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected bool
	}{
		{
			name:     "valid simple username",
			username: "testuser",
			expected: true,
		},
		{
			name:     "valid with underscore",
			username: "test_user",
			expected: true,
		},
		{
			name:     "valid with dot",
			username: "test.user",
			expected: true,
		},
		{
			name:     "valid with numbers",
			username: "user123",
			expected: true,
		},
		{
			name:     "valid uppercase",
			username: "TestUser",
			expected: true,
		},
		{
			name:     "empty username",
			username: "",
			expected: false,
		},
		{
			name:     "too long",
			username: "thisusernameiswaytoolongandexceedsthirtychars",
			expected: false,
		},
		{
			name:     "invalid with space",
			username: "test user",
			expected: false,
		},
		{
			name:     "invalid with hyphen",
			username: "test-user",
			expected: false,
		},
		{
			name:     "invalid with special char",
			username: "test@user",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{
			name:     "clean username",
			username: "testuser",
			expected: "testuser",
		},
		{
			name:     "username with @ prefix",
			username: "@testuser",
			expected: "testuser",
		},
		{
			name:     "username with trailing slash",
			username: "testuser/",
			expected: "testuser",
		},
		{
			name:     "username with trailing space",
			username: "testuser ",
			expected: "testuser",
		},
		{
			name:     "username with multiple trailing chars",
			username: "testuser// ",
			expected: "testuser",
		},
		{
			name:     "username with @ and trailing slash",
			username: "@testuser/",
			expected: "testuser",
		},
		{
			name:     "empty username",
			username: "",
			expected: "",
		},
		{
			name:     "just @",
			username: "@",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUsername(tt.username))
		})
	}
}

func TestIsValidHashtag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected bool
	}{
		{
			name:     "simple tag",
			tag:      "sunset",
			expected: true,
		},
		{
			name:     "tag with digits",
			tag:      "photo2024",
			expected: true,
		},
		{
			name:     "empty tag",
			tag:      "",
			expected: false,
		},
		{
			name:     "tag with hash",
			tag:      "#sunset",
			expected: false,
		},
		{
			name:     "tag with space",
			tag:      "golden hour",
			expected: false,
		},
		{
			name:     "tag with slash",
			tag:      "a/b",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidHashtag(tt.tag))
		})
	}
}

func TestSanitizeHashtag(t *testing.T) {
	assert.Equal(t, "sunset", SanitizeHashtag("#sunset"))
	assert.Equal(t, "sunset", SanitizeHashtag("  #sunset"))
	assert.Equal(t, "sunset", SanitizeHashtag("sunset"))
	assert.Equal(t, "", SanitizeHashtag("#"))
}

func TestShortcodeFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "post url",
			url:      "https://www.instagram.com/p/CxyzABC123/",
			expected: "CxyzABC123",
		},
		{
			name:     "reel url",
			url:      "https://www.instagram.com/reel/Cxyz_ABC-1/",
			expected: "Cxyz_ABC-1",
		},
		{
			name:     "tv url",
			url:      "https://www.instagram.com/tv/CxyzABC123/",
			expected: "CxyzABC123",
		},
		{
			name:     "post url with query",
			url:      "https://www.instagram.com/p/CxyzABC123/?igsh=abc",
			expected: "CxyzABC123",
		},
		{
			name:     "profile url",
			url:      "https://www.instagram.com/testuser/",
			expected: "",
		},
		{
			name:     "bare shortcode",
			url:      "CxyzABC123",
			expected: "",
		},
		{
			name:     "empty",
			url:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShortcodeFromURL(tt.url))
		})
	}
}

func TestURLConstruction(t *testing.T) {
	t.Run("base URL is HTTPS", func(t *testing.T) {
		assert.Contains(t, BaseURL, "https://")
		assert.Contains(t, BaseURL, "instagram.com")
	})

	t.Run("endpoints start with slash", func(t *testing.T) {
		assert.Equal(t, "/", string(ProfileEndpoint[0]))
		assert.Equal(t, "/", string(GraphQLEndpoint[0]))
	})

	t.Run("page size bounds are sane", func(t *testing.T) {
		assert.Greater(t, DefaultPageSize, 0)
		assert.LessOrEqual(t, DefaultPageSize, MaxPageSize)
	})

	t.Run("query hashes are hex", func(t *testing.T) {
		for _, hash := range []string{TimelineQueryHash, CommentsQueryHash, HashtagQueryHash, LocationQueryHash} {
			assert.Len(t, hash, 32)
			for _, char := range hash {
				assert.True(t, (char >= 'a' && char <= 'f') || (char >= '0' && char <= '9'),
					"query hash contains invalid character: %c", char)
			}
		}
	})
}

func BenchmarkProfileURL(b *testing.B) {
	username := "testuser"
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = ProfileURL(username)
	}
}

func BenchmarkTimelineURL(b *testing.B) {
	userID := "123456789"
	cursor := "QVFCdGVzdGN1cnNvcg=="
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = TimelineURL(userID, cursor, 0)
	}
}

func BenchmarkIsValidUsername(b *testing.B) {
	username := "test_user.123"
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = IsValidUsername(username)
	}
}
