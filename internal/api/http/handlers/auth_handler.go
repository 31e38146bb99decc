package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/service"
	"github.com/spec-kit/portal-gateway/internal/session"
)

// AuthHandler exposes the sign-in, sign-up and recovery flows.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.Login(c.UserContext(), session.ID(c), req.Form()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{Status: "ok", Redirect: "/portal/dashboard"}})
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.Signup(c.UserContext(), session.ID(c), req.Form()); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.StatusResponse{Status: "pending_verification", Redirect: "/verify-email-sent"},
	})
}

// CheckMember handles POST /api/auth/check-member.
func (h *AuthHandler) CheckMember(c *fiber.Ctx) error {
	var req dto.CheckMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	verdict, err := h.auth.CheckMember(c.UserContext(), session.ID(c), req.Form())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": verdict})
}

// VerifyEmail handles POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	verification, err := h.auth.VerifyEmail(c.UserContext(), service.VerifyEmailForm{Token: req.Token})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": verification})
}

// SetupProfile handles PUT /api/auth/setup-profile.
func (h *AuthHandler) SetupProfile(c *fiber.Ctx) error {
	var req dto.SetupProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.SetupProfile(c.UserContext(), session.ID(c), req.Form()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{
		Status:   "ok",
		Message:  "Profile saved. Please log in to continue.",
		Redirect: "/login",
	}})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.ForgotPassword(c.UserContext(), session.ID(c), service.ForgotPasswordForm{Email: req.Email}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{Status: "ok", Redirect: "/reset-password"}})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.ResetPassword(c.UserContext(), session.ID(c), req.Form()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{Status: "ok", Redirect: "/login"}})
}

// ResendVerification handles POST /api/auth/resend-verification.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}
	note, err := h.auth.ResendVerification(c.UserContext(), session.ID(c), service.ResendVerificationForm{Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{Status: "ok", Message: note}})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), session.ID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusResponse{Status: "ok", Redirect: "/login"}})
}
