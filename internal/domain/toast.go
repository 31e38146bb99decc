package domain

import "time"

// ToastKind is the visual flavour of a notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Position is the screen corner a notification is stacked in.
type Position string

const (
	TopRight     Position = "top-right"
	TopCenter    Position = "top-center"
	TopLeft      Position = "top-left"
	BottomRight  Position = "bottom-right"
	BottomCenter Position = "bottom-center"
	BottomLeft   Position = "bottom-left"
)

// Positions lists every position in render order.
var Positions = []Position{TopRight, TopCenter, TopLeft, BottomRight, BottomCenter, BottomLeft}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// Toast is one visible notification.
type Toast struct {
	ID        string    `json:"id"`
	Kind      ToastKind `json:"type"`
	Text      string    `json:"text"`
	Position  Position  `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
