package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionIDKey = "portal_session_id"

// CookieConfig shapes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Middleware makes sure every request carries a session id, issuing a
// browser-session cookie (no expiry) when it is missing.
func Middleware(cfg CookieConfig) fiber.Handler {
	if cfg.Name == "" {
		cfg.Name = "portal_sid"
	}
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(cfg.Name)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cfg.Name,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
				// no Expires/MaxAge: the cookie dies with the browser
				SessionOnly: true,
			})
		}
		c.Locals(sessionIDKey, sid)
		return c.Next()
	}
}

// ID returns the session id set by Middleware.
func ID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDKey).(string)
	return sid
}
