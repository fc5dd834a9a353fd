package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	Database   Database
	Session    Session
	Redis      RedisConfig
	Kafka      KafkaConfig
	Pagination Pagination
	RateLimit  RateLimit

	// TrustedProxies lists addresses or CIDR prefixes of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string

	// AuditBuffer sizes the async audit publisher; zero keeps it synchronous.
	AuditBuffer int
}

// Database selects the SQL backend. A non-empty URL selects PostgreSQL,
// otherwise SQLitePath is used.
type Database struct {
	URL        string
	SQLitePath string
}

type Session struct {
	SigningKey   string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// RedisConfig holds session store connection settings. An empty URL keeps
// sessions in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the audit relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimit bounds credential form submissions per client IP. Disabled
// turns the limiter into a pass-through.
type RateLimit struct {
	Disabled       bool
	LoginAttempts  int
	SignUpAttempts int
	Window         time.Duration
}

type Pagination struct {
	TopicsPerPage int
	PostsPerPage  int
}

const (
	DefaultTopicsPerPage  = 20
	DefaultPostsPerPage   = 20
	DefaultSessionTTL     = 14 * 24 * time.Hour
	DefaultLoginAttempts  = 10
	DefaultSignUpAttempts = 5
	DefaultRateWindow     = time.Minute
	SessionCookieName     = "sessionid"

	devSigningKey = "dev-secret-key-change-in-production"
)

// IsProduction reports whether the process runs with production settings.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getEnv("BOARDS_ADDR", ":8080"),
		Environment: getEnv("BOARDS_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: Database{
			URL:        os.Getenv("DATABASE_URL"),
			SQLitePath: getEnv("SQLITE_PATH", "boards.db"),
		},
		Session: Session{
			SigningKey: os.Getenv("SESSION_SIGNING_KEY"),
			CookieName: SessionCookieName,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "boards.audit"),
		},
	}

	var err error
	if cfg.Session.TTL, err = durationEnv("SESSION_TTL", DefaultSessionTTL); err != nil {
		return Server{}, err
	}
	if cfg.Session.CookieSecure, err = boolEnv("SESSION_COOKIE_SECURE", cfg.IsProduction()); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Pagination.TopicsPerPage, err = intEnv("TOPICS_PER_PAGE", DefaultTopicsPerPage); err != nil {
		return Server{}, err
	}
	if cfg.Pagination.PostsPerPage, err = intEnv("POSTS_PER_PAGE", DefaultPostsPerPage); err != nil {
		return Server{}, err
	}
	if cfg.AuditBuffer, err = intEnv("AUDIT_BUFFER", 0); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Disabled, err = boolEnv("RATELIMIT_DISABLED", false); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.LoginAttempts, err = intEnv("RATELIMIT_LOGIN_ATTEMPTS", DefaultLoginAttempts); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.SignUpAttempts, err = intEnv("RATELIMIT_SIGNUP_ATTEMPTS", DefaultSignUpAttempts); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Window, err = durationEnv("RATELIMIT_WINDOW", DefaultRateWindow); err != nil {
		return Server{}, err
	}

	if cfg.Session.SigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, fmt.Errorf("SESSION_SIGNING_KEY is required in production")
		}
		// Use a default for development - should be overridden in production
		cfg.Session.SigningKey = devSigningKey
	}
	if cfg.Pagination.TopicsPerPage < 1 || cfg.Pagination.PostsPerPage < 1 {
		return Server{}, fmt.Errorf("page sizes must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return Server{}, fmt.Errorf("RATELIMIT_WINDOW must be positive")
	}
	if cfg.AuditBuffer < 0 {
		return Server{}, fmt.Errorf("AUDIT_BUFFER must not be negative")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
