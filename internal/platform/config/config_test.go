package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"BOARDS_ADDR", "BOARDS_ENV", "DATABASE_URL", "SESSION_SIGNING_KEY", "SESSION_TTL",
		"REDIS_URL", "KAFKA_BROKERS", "TOPICS_PER_PAGE", "POSTS_PER_PAGE", "AUDIT_BUFFER", "SESSION_COOKIE_SECURE",
		"RATELIMIT_DISABLED", "TRUSTED_PROXIES", "RATELIMIT_LOGIN_ATTEMPTS", "RATELIMIT_SIGNUP_ATTEMPTS", "RATELIMIT_WINDOW"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultTopicsPerPage, cfg.Pagination.TopicsPerPage)
	assert.Equal(t, DefaultPostsPerPage, cfg.Pagination.PostsPerPage)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Equal(t, "sessionid", cfg.Session.CookieName)
	assert.NotEmpty(t, cfg.Session.SigningKey)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, DefaultLoginAttempts, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, DefaultRateWindow, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BOARDS_ADDR", ":9000")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("TOPICS_PER_PAGE", "5")
	t.Setenv("POSTS_PER_PAGE", "2")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Pagination.TopicsPerPage)
	assert.Equal(t, 2, cfg.Pagination.PostsPerPage)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestFromEnvErrors(t *testing.T) {
	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("BOARDS_ENV", "production")
		t.Setenv("SESSION_SIGNING_KEY", "")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("page size must be numeric", func(t *testing.T) {
		t.Setenv("POSTS_PER_PAGE", "many")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("rate window must be positive", func(t *testing.T) {
		t.Setenv("RATELIMIT_WINDOW", "0s")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("page size must be positive", func(t *testing.T) {
		t.Setenv("TOPICS_PER_PAGE", "0")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
