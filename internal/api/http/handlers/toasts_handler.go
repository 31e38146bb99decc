package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/notify"
	"github.com/spec-kit/portal-gateway/internal/session"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// ToastsHandler exposes the notifications of the caller's session.
type ToastsHandler struct {
	center *notify.Center
}

// NewToastsHandler constructs handler.
func NewToastsHandler(center *notify.Center) *ToastsHandler {
	return &ToastsHandler{center: center}
}

// List handles GET /api/toasts.
func (h *ToastsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.ToastsResponse{Groups: h.center.List(session.ID(c))}})
}

// Dismiss handles DELETE /api/toasts/:id.
func (h *ToastsHandler) Dismiss(c *fiber.Ctx) error {
	if !h.center.Dismiss(session.ID(c), c.Params("id")) {
		return apperrors.NewNotFound("toast", nil)
	}
	return c.SendStatus(http.StatusNoContent)
}
