package dto

import (
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/notify"
	"github.com/spec-kit/portal-gateway/internal/selection"
)

// SelectAccountRequest switches the active account.
type SelectAccountRequest struct {
	Label string `json:"label"`
}

// NavItem is one sidebar entry.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// NavResponse feeds the navigation chrome.
type NavResponse struct {
	Items       []NavItem          `json:"items"`
	DisplayName string             `json:"displayName"`
	Selection   domain.Selection   `json:"selection"`
	Selector    selection.Selector `json:"selector"`
}

// ToastsResponse lists the visible notifications grouped by position.
type ToastsResponse struct {
	Groups []notify.Group `json:"groups"`
}

// SuggestionsResponse lists autocomplete items.
type SuggestionsResponse struct {
	Items []string `json:"items"`
}
