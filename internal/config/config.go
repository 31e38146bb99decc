package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Session   SessionConfig
	Upstream  UpstreamConfig
	Guard     GuardConfig
	Auth      AuthConfig
	Notify    NotifyConfig
	Suggest   SuggestConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	StaticDir             string
	CORSOrigins           string
}

// PostgresConfig holds DB connection values for the postgres session backend.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig selects where per-browser state lives.
type SessionConfig struct {
	Backend      string
	TTLMinutes   int
	CookieName   string
	CookieSecure bool
}

// UpstreamConfig points at the backend API and the external data services.
type UpstreamConfig struct {
	BaseURL        string
	MetricsBaseURL string
	SuggestBaseURL string
	TimeoutSeconds int
}

// GuardConfig tunes the portal route guard.
type GuardConfig struct {
	Mode      string
	LoginPath string
}

// AuthConfig holds client-side auth rules.
type AuthConfig struct {
	AllowedEmailDomains []string
}

// NotifyConfig holds toast defaults.
type NotifyConfig struct {
	DefaultTTLMillis int
}

// SuggestConfig controls debounced lookups.
type SuggestConfig struct {
	DebounceMillis            int
	MemberCheckDebounceMillis int
	MinChars                  int
}

// RateLimitConfig throttles unauthenticated auth endpoints.
type RateLimitConfig struct {
	AuthRequestsPerMinute int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("SESSION_BACKEND", "memory"))
	switch backend {
	case "memory", "redis", "postgres":
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", backend)
	}

	guardMode := strings.ToLower(getEnv("GUARD_MODE", "strict"))
	if guardMode != "strict" && guardMode != "trusted" {
		return nil, fmt.Errorf("invalid GUARD_MODE %q", guardMode)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "portal-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			StaticDir:             os.Getenv("PORTAL_STATIC_DIR"),
			CORSOrigins:           getEnv("CORS_ORIGINS", "http://localhost:5173"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "portal:events"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Backend:      backend,
			TTLMinutes:   getEnvAsInt("SESSION_TTL_MINUTES", 120),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "portal_sid"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Upstream: UpstreamConfig{
			BaseURL:        getEnv("UPSTREAM_BASE_URL", "http://localhost:5000/api"),
			MetricsBaseURL: getEnv("METRICS_BASE_URL", "http://localhost:8000"),
			SuggestBaseURL: getEnv("SUGGEST_BASE_URL", "https://dtg-backend.onrender.com/sites"),
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 10),
		},
		Guard: GuardConfig{
			Mode:      guardMode,
			LoginPath: getEnv("GUARD_LOGIN_PATH", "/login"),
		},
		Auth: AuthConfig{
			AllowedEmailDomains: getEnvAsList("ALLOWED_EMAIL_DOMAINS", []string{"amazon.com"}),
		},
		Notify: NotifyConfig{
			DefaultTTLMillis: getEnvAsInt("TOAST_TTL_MILLIS", 3500),
		},
		Suggest: SuggestConfig{
			DebounceMillis:            getEnvAsInt("SUGGEST_DEBOUNCE_MILLIS", 300),
			MemberCheckDebounceMillis: getEnvAsInt("MEMBER_CHECK_DEBOUNCE_MILLIS", 400),
			MinChars:                  getEnvAsInt("SUGGEST_MIN_CHARS", 1),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 120),
		},
	}

	if cfg.Session.Backend == "redis" && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("SESSION_BACKEND=redis requires REDIS_ADDR")
	}
	if cfg.Session.Backend == "postgres" && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("SESSION_BACKEND=postgres requires POSTGRES_DSN")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the idle lifetime of a session.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Timeout returns the per-call upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

func (n NotifyConfig) DefaultTTL() time.Duration {
	return time.Duration(n.DefaultTTLMillis) * time.Millisecond
}

func (s SuggestConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMillis) * time.Millisecond
}

func (s SuggestConfig) MemberCheckDebounce() time.Duration {
	return time.Duration(s.MemberCheckDebounceMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
