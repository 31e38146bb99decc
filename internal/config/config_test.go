package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("GUARD_MODE", "")
	t.Setenv("ALLOWED_EMAIL_DOMAINS", "")
	t.Setenv("TOAST_TTL_MILLIS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Session.Backend)
	require.Equal(t, "strict", cfg.Guard.Mode)
	require.Equal(t, "portal_sid", cfg.Session.CookieName)
	require.Equal(t, []string{"amazon.com"}, cfg.Auth.AllowedEmailDomains)
	require.Equal(t, 3500*time.Millisecond, cfg.Notify.DefaultTTL())
	require.Equal(t, 300*time.Millisecond, cfg.Suggest.Debounce())
	require.Equal(t, 400*time.Millisecond, cfg.Suggest.MemberCheckDebounce())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "localstorage")

	_, err := Load()
	require.ErrorContains(t, err, "SESSION_BACKEND")
}

func TestLoadRejectsUnknownGuardMode(t *testing.T) {
	t.Setenv("GUARD_MODE", "lenient")

	_, err := Load()
	require.ErrorContains(t, err, "GUARD_MODE")
}

func TestLoadRedisBackendRequiresAddr(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	require.ErrorContains(t, err, "REDIS_ADDR")
}

func TestLoadParsesDomainList(t *testing.T) {
	t.Setenv("ALLOWED_EMAIL_DOMAINS", " Amazon.com, ,example.org ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"amazon.com", "example.org"}, cfg.Auth.AllowedEmailDomains)
}

func TestDurationFallbacks(t *testing.T) {
	require.Equal(t, 2*time.Hour, SessionConfig{}.TTL())
	require.Equal(t, 10*time.Second, UpstreamConfig{}.Timeout())
	require.Zero(t, AppConfig{}.RequestTimeout())
	require.Equal(t, "0.0.0.0:8080", AppConfig{Host: "0.0.0.0", Port: "8080"}.Addr())
}
