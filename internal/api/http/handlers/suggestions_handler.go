package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/dto"
	"github.com/spec-kit/portal-gateway/internal/service"
	"github.com/spec-kit/portal-gateway/internal/session"
)

// SuggestionsHandler serves site-name autocompletion.
type SuggestionsHandler struct {
	suggestions *service.SuggestionService
}

// NewSuggestionsHandler constructs handler.
func NewSuggestionsHandler(suggestions *service.SuggestionService) *SuggestionsHandler {
	return &SuggestionsHandler{suggestions: suggestions}
}

// List handles GET /api/suggestions?q=.
func (h *SuggestionsHandler) List(c *fiber.Ctx) error {
	items, err := h.suggestions.Suggest(c.UserContext(), session.ID(c), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionsResponse{Items: items}})
}
