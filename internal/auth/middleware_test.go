package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/upstream"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

type fakeIdentities struct {
	identity *domain.Identity
	err      error
	calls    int
}

func (f *fakeIdentities) Me(_ context.Context, _ string) (*domain.Identity, error) {
	f.calls++
	return f.identity, f.err
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	require.False(t, TokenExpired("opaque-token", now))
	require.False(t, TokenExpired(signed(t, now.Add(time.Hour)), now))
	require.True(t, TokenExpired(signed(t, now.Add(-time.Minute)), now))
}

func TestCheckWithoutTokenIsUnauthorized(t *testing.T) {
	identities := &fakeIdentities{identity: &domain.Identity{ID: 1}}
	guard := NewRouteGuard(session.NewTokenStore(session.NewMemoryStore(time.Hour)), identities, Options{}, nil)

	state, principal, err := guard.Check(context.Background(), "sid")
	require.NoError(t, err)
	require.Equal(t, StateUnauthorized, state)
	require.Nil(t, principal)
	require.Zero(t, identities.calls)
}

func TestCheckTrustedSkipsBackend(t *testing.T) {
	ctx := context.Background()
	tokens := session.NewTokenStore(session.NewMemoryStore(time.Hour))
	require.NoError(t, tokens.Set(ctx, "sid", "opaque"))
	identities := &fakeIdentities{err: errors.New("must not be called")}
	guard := NewRouteGuard(tokens, identities, Options{Mode: ModeTrusted}, nil)

	state, principal, err := guard.Check(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StateAuthorized, state)
	require.Equal(t, "opaque", principal.Token)
	require.Nil(t, principal.Identity)
	require.Zero(t, identities.calls)
}

func TestCheckTrustedRejectsExpiredJWT(t *testing.T) {
	ctx := context.Background()
	tokens := session.NewTokenStore(session.NewMemoryStore(time.Hour))
	require.NoError(t, tokens.Set(ctx, "sid", signed(t, time.Now().Add(-time.Hour))))
	guard := NewRouteGuard(tokens, &fakeIdentities{}, Options{Mode: ModeTrusted}, nil)

	state, _, err := guard.Check(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StateUnauthorized, state)
}

func TestCheckStrict(t *testing.T) {
	ctx := context.Background()
	tokens := session.NewTokenStore(session.NewMemoryStore(time.Hour))
	require.NoError(t, tokens.Set(ctx, "sid", "opaque"))

	ok := &fakeIdentities{identity: &domain.Identity{ID: 7, Email: "a@amazon.com", IsVerified: true}}
	state, principal, err := NewRouteGuard(tokens, ok, Options{Mode: ModeStrict}, nil).Check(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StateAuthorized, state)
	require.Equal(t, int64(7), principal.Identity.ID)
	require.Equal(t, 1, ok.calls)

	rejected := &fakeIdentities{err: &upstream.Error{Status: http.StatusUnauthorized, Message: "bad token"}}
	state, principal, err = NewRouteGuard(tokens, rejected, Options{Mode: ModeStrict}, nil).Check(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, StateUnauthorized, state)
	require.Nil(t, principal)
	require.Equal(t, 1, rejected.calls)
}

func newGuardedApp(guard *RouteGuard, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).SendString(fe.Message)
			}
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code}})
		},
	})
	app.Use(session.Middleware(session.CookieConfig{Name: "portal_sid"}))
	handlers := append([]fiber.Handler{guard.Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(principal.SessionID)
	})
	app.Get("/portal/dashboard", handlers...)
	app.Get("/api/portal/nav", handlers...)
	return app
}

func TestHandleRedirectsNavigationsAndRejectsAPICalls(t *testing.T) {
	guard := NewRouteGuard(session.NewTokenStore(session.NewMemoryStore(time.Hour)), &fakeIdentities{}, Options{LoginPath: "/login"}, nil)
	app := newGuardedApp(guard)

	req := httptest.NewRequest(http.MethodGet, "/portal/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/portal/nav", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleAuthorizedStoresPrincipal(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour)
	tokens := session.NewTokenStore(store)
	sid := uuid.NewString()
	require.NoError(t, tokens.Set(ctx, sid, "opaque"))

	guard := NewRouteGuard(tokens, &fakeIdentities{identity: &domain.Identity{ID: 1, IsVerified: true}}, Options{}, nil)
	app := newGuardedApp(guard, RequireVerified())

	req := httptest.NewRequest(http.MethodGet, "/api/portal/nav", nil)
	req.AddCookie(&http.Cookie{Name: "portal_sid", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireVerifiedRejectsUnverified(t *testing.T) {
	ctx := context.Background()
	tokens := session.NewTokenStore(session.NewMemoryStore(time.Hour))
	sid := uuid.NewString()
	require.NoError(t, tokens.Set(ctx, sid, "opaque"))

	guard := NewRouteGuard(tokens, &fakeIdentities{identity: &domain.Identity{ID: 1}}, Options{}, nil)
	app := newGuardedApp(guard, RequireVerified())

	req := httptest.NewRequest(http.MethodGet, "/api/portal/nav", nil)
	req.AddCookie(&http.Cookie{Name: "portal_sid", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
