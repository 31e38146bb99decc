package upstream

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// Client is the backend REST API client. Every call that needs the caller's
// identity takes its bearer token explicitly.
type Client struct {
	base
}

// NewClient builds a client for the backend rooted at baseURL (e.g.
// "https://api.example.com/api").
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client, metrics *observability.Metrics) *Client {
	return &Client{base: newBase("backend", baseURL, timeout, httpClient, metrics)}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Signup registers an account; the backend mails a verification link.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", "", credentials{Email: email, Password: password}, nil)
}

// CheckMember asks whether email may continue a setup or reset flow.
func (c *Client) CheckMember(ctx context.Context, email, setupToken string) (*domain.MemberCheck, error) {
	body := map[string]string{"email": email}
	if setupToken != "" {
		body["token"] = setupToken
	}
	var out domain.MemberCheck
	if err := c.do(ctx, http.MethodPost, "/auth/check-member", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail redeems a verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*domain.Verification, error) {
	var out domain.Verification
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", "", map[string]string{"token": token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetupProfile completes a verified user's profile.
func (c *Client) SetupProfile(ctx context.Context, setup domain.ProfileSetup) error {
	return c.do(ctx, http.MethodPut, "/auth/setup-profile", "", setup, nil)
}

// ForgotPassword requests a reset code. The backend answers the same way
// whether or not the email exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

// ResetPassword sets a new password using an emailed code.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "code": code, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", body, nil)
}

// ResendVerification mails a fresh verification link.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-verification", "", map[string]string{"email": email}, nil)
}

// Me returns the identity behind token.
func (c *Client) Me(ctx context.Context, token string) (*domain.Identity, error) {
	var out domain.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context, token string) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDefaultSite persists the caller's default site.
func (c *Client) UpdateDefaultSite(ctx context.Context, token, site string) error {
	return c.do(ctx, http.MethodPut, "/auth/profile", token, map[string]string{"amazon_site": site}, nil)
}

// Sites lists the caller's sites.
func (c *Client) Sites(ctx context.Context, token string) ([]domain.UserSite, error) {
	var out []domain.UserSite
	if err := c.do(ctx, http.MethodGet, "/auth/profile/sites", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/session/logout", token, nil, nil)
}

// Ping checks that the backend answers at all.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/health", "", nil, nil)
	if StatusOf(err) != 0 {
		return nil
	}
	return err
}

func query(key, value string) string {
	return "?" + url.Values{key: []string{value}}.Encode()
}
