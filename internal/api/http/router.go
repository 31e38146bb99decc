package http

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Portal      *handlers.PortalHandler
	Toasts      *handlers.ToastsHandler
	Suggestions *handlers.SuggestionsHandler
	Guard       *auth.RouteGuard
	Session     session.CookieConfig
	RateLimiter *RateLimiter
	// StaticDir holds the built portal shell; empty serves a bare shell.
	StaticDir string
}

const bareShell = `<!doctype html><html><head><meta charset="utf-8"><title>Portal</title></head><body><div id="root"></div></body></html>`

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api", session.Middleware(cfg.Session))

	authGroup := api.Group("/auth", cfg.RateLimiter.Handler())
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/check-member", cfg.Auth.CheckMember)
	authGroup.Post("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Put("/setup-profile", cfg.Auth.SetupProfile)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Post("/resend-verification", cfg.Auth.ResendVerification)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api.Get("/suggestions", cfg.Suggestions.List)
	api.Get("/toasts", cfg.Toasts.List)
	api.Delete("/toasts/:id", cfg.Toasts.Dismiss)

	portal := api.Group("/portal", cfg.Guard.Handle, auth.RequirePrincipal(), auth.RequireVerified())
	portal.Get("/nav", cfg.Portal.Nav)
	portal.Get("/dashboard", cfg.Portal.Dashboard)
	portal.Get("/selection", cfg.Portal.GetSelection)
	portal.Put("/selection", cfg.Portal.PutSelection)
	portal.Get("/selection/stream", cfg.Portal.Stream)

	pages := app.Group("/portal", session.Middleware(cfg.Session), cfg.Guard.Handle)
	if cfg.StaticDir != "" {
		pages.Static("/", cfg.StaticDir, fiber.Static{Index: "index.html"})
	}
	pages.Get("/*", shellHandler(cfg.StaticDir))
}

// shellHandler answers client-side routes with the portal shell.
func shellHandler(staticDir string) fiber.Handler {
	index := filepath.Join(staticDir, "index.html")
	return func(c *fiber.Ctx) error {
		if staticDir != "" {
			if _, err := os.Stat(index); err == nil {
				return c.SendFile(index)
			}
		}
		c.Type("html")
		return c.SendString(bareShell)
	}
}
