package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricJSON(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		expected string
	}{
		{
			name:     "known count",
			metric:   MetricOf(1234),
			expected: "1234",
		},
		{
			name:     "known zero",
			metric:   MetricOf(0),
			expected: "0",
		},
		{
			name:     "unknown",
			metric:   UnknownMetric(),
			expected: "null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.metric)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))

			var back Metric
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.metric, back)
		})
	}
}

func TestMetricUnknownIsNotZero(t *testing.T) {
	assert.NotEqual(t, MetricOf(0), UnknownMetric())
	assert.Equal(t, "unknown", UnknownMetric().String())
	assert.Equal(t, "0", MetricOf(0).String())
}

func TestMetricFromPtr(t *testing.T) {
	n := int64(42)
	assert.Equal(t, MetricOf(42), MetricFromPtr(&n))
	assert.Equal(t, UnknownMetric(), MetricFromPtr(nil))
}

func TestRecordKeys(t *testing.T) {
	profile := Profile{Username: "nasa"}
	post := Post{Shortcode: "CxyzABC123"}
	comment := Comment{ID: "178234", PostShortcode: "CxyzABC123"}

	assert.Equal(t, "profile:nasa", profile.Key())
	assert.Equal(t, "post:CxyzABC123", post.Key())
	assert.Equal(t, "comment:178234", comment.Key())

	assert.Equal(t, KindProfile, profile.RecordKind())
	assert.Equal(t, KindPost, post.RecordKind())
	assert.Equal(t, KindComment, comment.RecordKind())
}

func TestPostJSONRoundTrip(t *testing.T) {
	post := Post{
		Shortcode:    "CxyzABC123",
		PostURL:      "https://www.instagram.com/p/CxyzABC123/",
		Type:         MediaVideo,
		Caption:      "launch day #space @nasa",
		Hashtags:     []string{"space"},
		Mentions:     []string{"nasa"},
		Timestamp:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Likes:        MetricOf(9001),
		CommentCount: MetricOf(12),
		VideoViews:   MetricOf(100000),
		Shares:       UnknownMetric(),
		MediaURLs:    []string{"https://cdn.example.com/v.mp4"},
		Owner:        "nasa",
	}

	data, err := json.Marshal(post)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shares":null`)
	assert.Contains(t, string(data), `"likes":9001`)

	var back Post
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, post, back)
}

func TestIsReel(t *testing.T) {
	assert.True(t, Post{Type: MediaVideo}.IsReel())
	assert.False(t, Post{Type: MediaImage}.IsReel())
	assert.False(t, Post{Type: MediaCarousel}.IsReel())
}
