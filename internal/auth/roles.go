package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireVerified ensures the principal's email has been verified. In
// trusted mode the identity is unknown and the request is let through.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.Identity != nil && !principal.Identity.IsVerified {
			return fiber.NewError(http.StatusForbidden, "email not verified")
		}
		return c.Next()
	}
}

// RequirePrincipal ensures a guard ran before the handler.
func RequirePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
