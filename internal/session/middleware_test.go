package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newCookieApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(CookieConfig{Name: "portal_sid"}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ID(c))
	})
	return app
}

func TestMiddlewareIssuesSessionCookie(t *testing.T) {
	app := newCookieApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "portal_sid", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Expires.IsZero())
	_, err = uuid.Parse(cookies[0].Value)
	require.NoError(t, err)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	app := newCookieApp()
	sid := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_sid", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Empty(t, resp.Cookies())
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, sid, string(body))
}
