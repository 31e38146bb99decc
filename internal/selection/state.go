// Package selection is the single source of truth for which account/site
// a session is operating under.
package selection

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/session"
)

// Update is what a subscriber receives. Ended is set when the session was
// logged out and the subscriber should stop.
type Update struct {
	Selection domain.Selection
	Ended     bool
}

// State persists the selection and broadcasts every change.
type State struct {
	store   session.Store
	subject events.Subject
}

// NewState wires the store and the subject together.
func NewState(store session.Store, subject events.Subject) *State {
	return &State{store: store, subject: subject}
}

// Get reads the persisted selection. The zero Selection means unset.
func (s *State) Get(ctx context.Context, sid string) (domain.Selection, error) {
	label, _, err := s.store.Get(ctx, sid, session.KeySelectedAccount)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("load selection: %w", err)
	}
	name, _, err := s.store.Get(ctx, sid, session.KeyDisplayName)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("load display name: %w", err)
	}
	return domain.Selection{Label: label, DisplayName: name}, nil
}

// Set writes the label (and the display name when given) and then
// broadcasts the change. Concurrent writers race; the last write wins.
func (s *State) Set(ctx context.Context, sid, label, displayName string) error {
	label = strings.TrimSpace(label)
	if err := s.store.Set(ctx, sid, session.KeySelectedAccount, label); err != nil {
		return fmt.Errorf("persist selection: %w", err)
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		if err := s.store.Set(ctx, sid, session.KeyDisplayName, displayName); err != nil {
			return fmt.Errorf("persist display name: %w", err)
		}
	}

	return s.subject.Publish(ctx, events.Event{
		Type:      events.EventSelectionChanged,
		SessionID: sid,
		Payload:   events.SelectionPayload{Label: label, DisplayName: displayName},
	})
}

// End announces that the session is gone so open streams can close.
func (s *State) End(ctx context.Context, sid string) error {
	return s.subject.Publish(ctx, events.Event{Type: events.EventSessionEnded, SessionID: sid})
}

// Subscribe calls fn for every change of the session's selection until the
// returned function is called. Partial broadcasts are completed from the
// store.
func (s *State) Subscribe(sid string, fn func(Update)) func() {
	return s.subject.Subscribe(sid, func(ctx context.Context, event events.Event) {
		switch event.Type {
		case events.EventSessionEnded:
			fn(Update{Ended: true})
		case events.EventSelectionChanged:
			fn(Update{Selection: s.resolve(ctx, sid, event.Payload)})
		}
	})
}

func (s *State) resolve(ctx context.Context, sid string, payload events.SelectionPayload) domain.Selection {
	sel := domain.Selection{Label: payload.Label, DisplayName: payload.DisplayName}
	if sel.Label == "" {
		sel.Label = session.Lookup(ctx, s.store, sid, session.KeySelectedAccount)
	}
	if sel.DisplayName == "" {
		sel.DisplayName = session.Lookup(ctx, s.store, sid, session.KeyDisplayName)
	}
	return sel
}
