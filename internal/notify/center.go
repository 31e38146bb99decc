// Package notify holds the ephemeral toast notifications of each session.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// DefaultTTL applies when a request carries none.
const DefaultTTL = 3500 * time.Millisecond

// Request asks for a toast to be shown.
type Request struct {
	Kind     domain.ToastKind
	Text     string
	TTL      time.Duration
	Position domain.Position
}

// Group is the stack of toasts at one screen position, newest first.
type Group struct {
	Position domain.Position `json:"position"`
	Toasts   []domain.Toast  `json:"toasts"`
}

// Notifier is what components use to raise toasts.
type Notifier interface {
	Show(sid string, req Request) string
}

type entry struct {
	toast domain.Toast
	timer *time.Timer
}

// Center stores toasts in memory and dismisses them when their TTL elapses.
type Center struct {
	defaultTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string][]*entry
}

var _ Notifier = (*Center)(nil)

// NewCenter creates a center; a non-positive defaultTTL means DefaultTTL.
func NewCenter(defaultTTL time.Duration) *Center {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Center{defaultTTL: defaultTTL, now: time.Now, sessions: make(map[string][]*entry)}
}

// Show displays a toast and returns its id.
func (c *Center) Show(sid string, req Request) string {
	if req.Kind == "" {
		req.Kind = domain.ToastInfo
	}
	if !req.Position.Valid() {
		req.Position = domain.TopRight
	}
	if req.TTL <= 0 {
		req.TTL = c.defaultTTL
	}

	now := c.now()
	toast := domain.Toast{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Text:      strings.TrimSpace(req.Text),
		Position:  req.Position,
		CreatedAt: now,
		ExpiresAt: now.Add(req.TTL),
	}

	e := &entry{toast: toast}
	c.mu.Lock()
	c.sessions[sid] = append([]*entry{e}, c.sessions[sid]...)
	e.timer = time.AfterFunc(req.TTL, func() { c.Dismiss(sid, toast.ID) })
	c.mu.Unlock()

	return toast.ID
}

// Dismiss removes a toast; it reports false when the toast is already gone.
func (c *Center) Dismiss(sid, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.sessions[sid]
	for i, e := range entries {
		if e.toast.ID != id {
			continue
		}
		e.timer.Stop()
		entries = append(entries[:i:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(c.sessions, sid)
		} else {
			c.sessions[sid] = entries
		}
		return true
	}
	return false
}

// List returns the visible toasts grouped per position, in the fixed
// position order, newest first inside each group. Empty groups are omitted.
func (c *Center) List(sid string) []Group {
	c.mu.Lock()
	defer c.mu.Unlock()

	byPosition := make(map[domain.Position][]domain.Toast)
	for _, e := range c.sessions[sid] {
		byPosition[e.toast.Position] = append(byPosition[e.toast.Position], e.toast)
	}

	groups := make([]Group, 0, len(byPosition))
	for _, pos := range domain.Positions {
		if toasts := byPosition[pos]; len(toasts) > 0 {
			groups = append(groups, Group{Position: pos, Toasts: toasts})
		}
	}
	return groups
}

// Clear drops every toast of a session.
func (c *Center) Clear(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.sessions[sid] {
		e.timer.Stop()
	}
	delete(c.sessions, sid)
}
