package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 40, config.RateLimit.RequestsPerHour)
	assert.Equal(t, 3*time.Second, config.RateLimit.MinDelay.Std())
	assert.Equal(t, 7*time.Second, config.RateLimit.MaxDelay.Std())

	assert.Equal(t, 3, config.Retry.MaxAttempts)
	assert.Equal(t, 1*time.Second, config.Retry.BaseDelay.Std())
	assert.Equal(t, 60*time.Second, config.Retry.MaxDelay.Std())
	assert.Equal(t, 2.0, config.Retry.Multiplier)
	assert.Equal(t, 0.1, config.Retry.JitterFactor)
	assert.Equal(t, 30*time.Second, config.Retry.RateLimitFloor.Std())

	assert.Equal(t, 30*time.Second, config.Fetch.Timeout.Std())
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 2, config.Browser.PoolSize)

	assert.Equal(t, 30, config.Scrape.MaxPosts)
	assert.Equal(t, 100, config.Scrape.MaxComments)
	assert.True(t, config.Scrape.IncludeMetrics)
	assert.False(t, config.Scrape.IncludeComments)
	assert.Equal(t, 3, config.Scrape.StallPages)

	assert.Equal(t, "./output", config.Output.Directory)
	assert.Equal(t, 3, config.Runner.ConcurrentSessions)
	assert.Equal(t, "info", config.Logging.Level)

	require.NoError(t, config.Validate(), "defaults must validate")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGEXTRACT_SESSION_ID", "env-session")
	t.Setenv("IGEXTRACT_CSRF_TOKEN", "env-csrf")
	t.Setenv("IGEXTRACT_REQUESTS_PER_HOUR", "25")
	t.Setenv("IGEXTRACT_MIN_DELAY", "1s")
	t.Setenv("IGEXTRACT_MAX_DELAY", "2s")
	t.Setenv("IGEXTRACT_PROXIES", "p1.example.com:8080, p2.example.com:8080")
	t.Setenv("IGEXTRACT_OUTPUT_DIR", "/tmp/igextract-test")
	t.Setenv("IGEXTRACT_CONCURRENT_SESSIONS", "5")
	t.Setenv("IGEXTRACT_MAX_POSTS", "50")
	t.Setenv("IGEXTRACT_BROWSER_HEADLESS", "false")
	t.Setenv("IGEXTRACT_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "env-session", config.Instagram.SessionID)
	assert.Equal(t, "env-csrf", config.Instagram.CSRFToken)
	assert.Equal(t, 25, config.RateLimit.RequestsPerHour)
	assert.Equal(t, 1*time.Second, config.RateLimit.MinDelay.Std())
	assert.Equal(t, 2*time.Second, config.RateLimit.MaxDelay.Std())
	assert.Equal(t, []string{"p1.example.com:8080", "p2.example.com:8080"}, config.Proxy.Entries)
	assert.Equal(t, "/tmp/igextract-test", config.Output.Directory)
	assert.Equal(t, 5, config.Runner.ConcurrentSessions)
	assert.Equal(t, 50, config.Scrape.MaxPosts)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("IGEXTRACT_MIN_DELAY", "three seconds")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGEXTRACT_MIN_DELAY")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
instagram:
  session_id: file-session
rate_limit:
  requests_per_hour: 20
  min_delay: 2s
  max_delay: 4s
retry:
  max_attempts: 5
browser:
  headless: false
  scroll_delay: 750ms
scrape:
  max_posts: 100
  include_comments: true
output:
  directory: /data/extractions
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0600))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "file-session", config.Instagram.SessionID)
	assert.Equal(t, 20, config.RateLimit.RequestsPerHour)
	assert.Equal(t, 2*time.Second, config.RateLimit.MinDelay.Std())
	assert.Equal(t, 5, config.Retry.MaxAttempts)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 750*time.Millisecond, config.Browser.ScrollDelay.Std())
	assert.Equal(t, 100, config.Scrape.MaxPosts)
	assert.True(t, config.Scrape.IncludeComments)
	assert.Equal(t, "/data/extractions", config.Output.Directory)
	assert.Equal(t, "warn", config.Logging.Level)

	// Fields the file omitted keep their defaults.
	assert.Equal(t, 1*time.Second, config.Retry.BaseDelay.Std())
	assert.Equal(t, 100, config.Scrape.MaxComments)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	require.Error(t, config.LoadFromFile("/nonexistent/igextract.yaml"))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rate_limit: [not a map"), 0600))
	require.Error(t, config.LoadFromFile(bad))
}

func TestDurationYAMLForms(t *testing.T) {
	var cfg RateLimitConfig
	require.NoError(t, yaml.Unmarshal([]byte("min_delay: 1500ms\nmax_delay: 7000000000"), &cfg))
	assert.Equal(t, 1500*time.Millisecond, cfg.MinDelay.Std())
	assert.Equal(t, 7*time.Second, cfg.MaxDelay.Std())

	out, err := yaml.Marshal(RateLimitConfig{MinDelay: Duration(3 * time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "min_delay: 3s")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*Config)
		want  string
	}{
		{"zero requests per hour", func(c *Config) { c.RateLimit.RequestsPerHour = 0 }, "requests per hour"},
		{"inverted delays", func(c *Config) { c.RateLimit.MaxDelay = Duration(time.Second); c.RateLimit.MinDelay = Duration(5 * time.Second) }, "max delay"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"jitter above one", func(c *Config) { c.Retry.JitterFactor = 1.5 }, "jitter factor"},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }, "fetch timeout"},
		{"zero pool size", func(c *Config) { c.Browser.PoolSize = 0 }, "pool size"},
		{"max posts over limit", func(c *Config) { c.Scrape.MaxPosts = 501 }, "max posts"},
		{"zero stall pages", func(c *Config) { c.Scrape.StallPages = 0 }, "stall pages"},
		{"empty output dir", func(c *Config) { c.Output.Directory = "" }, "output directory"},
		{"too many sessions", func(c *Config) { c.Runner.ConcurrentSessions = 11 }, "concurrent sessions"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.tweak(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit.RequestsPerHour = 0
	config.Scrape.MaxPosts = 0
	config.Logging.Level = "loud"

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requests per hour")
	assert.Contains(t, err.Error(), "max posts")
	assert.Contains(t, err.Error(), "log level")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Instagram.SessionID = "saved-session"
	original.Proxy.Entries = []string{"p1.example.com:8080"}
	original.RateLimit.MinDelay = Duration(4 * time.Second)
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "saved config may hold credentials")
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"session-id":          "flag-session",
		"output":              "/flag/output",
		"proxy":               []string{"p9.example.com:8080"},
		"concurrent-sessions": 7,
		"max-posts":           200,
		"comments":            true,
		"metrics":             false,
		"log-level":           "error",
	})

	assert.Equal(t, "flag-session", config.Instagram.SessionID)
	assert.Equal(t, "/flag/output", config.Output.Directory)
	assert.Equal(t, []string{"p9.example.com:8080"}, config.Proxy.Entries)
	assert.Equal(t, 7, config.Runner.ConcurrentSessions)
	assert.Equal(t, 200, config.Scrape.MaxPosts)
	assert.True(t, config.Scrape.IncludeComments)
	assert.False(t, config.Scrape.IncludeMetrics)
	assert.Equal(t, "error", config.Logging.Level)

	// Flags not present leave the config untouched.
	assert.Equal(t, 100, config.Scrape.MaxComments)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  directory: /from-file\nlogging:\n  level: warn\n"), 0600))

	t.Setenv("IGEXTRACT_OUTPUT_DIR", "/from-env")

	// Env over file.
	config, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/from-env", config.Output.Directory)
	assert.Equal(t, "warn", config.Logging.Level)

	// Flags over env.
	config, err = Load(path, map[string]interface{}{"output": "/from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "/from-flag", config.Output.Directory)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  max_posts: 9999\n"), 0600))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
