// Package auth gates portal routes on the presence of a usable token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/upstream"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Mode selects how much the guard trusts a stored token.
type Mode string

const (
	// ModeTrusted accepts any stored token that is not a visibly expired JWT.
	ModeTrusted Mode = "trusted"
	// ModeStrict additionally asks the backend who the token belongs to.
	ModeStrict Mode = "strict"
)

// State is the verdict of a single guard check.
type State string

const (
	StateChecking     State = "checking"
	StateAuthorized   State = "authorized"
	StateUnauthorized State = "unauthorized"
)

// Principal represents the authenticated caller.
type Principal struct {
	SessionID string
	Token     string
	// Identity is only populated in strict mode.
	Identity *domain.Identity
}

// IdentityFetcher resolves a token to the identity behind it.
type IdentityFetcher interface {
	Me(ctx context.Context, token string) (*domain.Identity, error)
}

// Options configures a RouteGuard.
type Options struct {
	Mode      Mode
	LoginPath string
}

// RouteGuard validates the session token and loads principals.
type RouteGuard struct {
	tokens     *session.TokenStore
	identities IdentityFetcher
	mode       Mode
	loginPath  string
	logger     *zap.Logger
	now        func() time.Time
}

// NewRouteGuard constructs the guard.
func NewRouteGuard(tokens *session.TokenStore, identities IdentityFetcher, opts Options, logger *zap.Logger) *RouteGuard {
	if opts.Mode != ModeTrusted {
		opts.Mode = ModeStrict
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteGuard{
		tokens:     tokens,
		identities: identities,
		mode:       opts.Mode,
		loginPath:  opts.LoginPath,
		logger:     logger,
		now:        time.Now,
	}
}

// Check runs the guard state machine once for a session. Every outcome
// other than StateAuthorized comes back as StateUnauthorized; an error is
// only returned when the session store itself failed.
func (g *RouteGuard) Check(ctx context.Context, sid string) (State, *Principal, error) {
	token, ok, err := g.tokens.Get(ctx, sid)
	if err != nil {
		return StateUnauthorized, nil, err
	}
	if !ok || TokenExpired(token, g.now()) {
		return StateUnauthorized, nil, nil
	}

	principal := &Principal{SessionID: sid, Token: token}
	if g.mode == ModeTrusted {
		return StateAuthorized, principal, nil
	}

	identity, err := g.identities.Me(ctx, token)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return StateUnauthorized, nil, err
		}
		g.logger.Info("token rejected", zap.Int("status", upstream.StatusOf(err)), zap.Error(err))
		return StateUnauthorized, nil, nil
	}
	principal.Identity = identity
	return StateAuthorized, principal, nil
}

// Handle enforces authentication for protected routes.
func (g *RouteGuard) Handle(c *fiber.Ctx) error {
	state, principal, err := g.Check(c.UserContext(), session.ID(c))
	if err != nil {
		return apperrors.MapError(err)
	}
	if state != StateAuthorized {
		if wantsHTML(c) {
			return c.Redirect(g.loginPath, http.StatusFound)
		}
		return apperrors.NewUnauthorized("authentication required")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func wantsHTML(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return false
	}
	accept := c.Get(fiber.HeaderAccept)
	return !strings.Contains(accept, fiber.MIMEApplicationJSON) && !strings.Contains(accept, "text/event-stream")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
