package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/notify"
	"github.com/spec-kit/portal-gateway/internal/selection"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/upstream"
)

// fakeServer is a scripted upstream that records every call it receives.
type fakeServer struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	calls  []string
	bodies map[string][]byte
	srv    *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{routes: make(map[string]http.HandlerFunc), bodies: make(map[string][]byte)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies[key] = body
		handler, ok := f.routes[key]
		f.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) handle(method, path string, fn http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fn
}

func (f *fakeServer) reply(method, path string, status int, body any) {
	f.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeServer) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeServer) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeServer) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServer) body(t *testing.T, method, path string, out any) {
	t.Helper()
	f.mu.Lock()
	data := f.bodies[method+" "+path]
	f.mu.Unlock()
	require.NoError(t, json.Unmarshal(data, out))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type harness struct {
	store     *session.MemoryStore
	hub       *events.Hub
	selection *selection.State
	center    *notify.Center
	backend   *fakeServer
	metrics   *fakeServer
	auth      *AuthService
	dashboard *DashboardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   session.NewMemoryStore(time.Hour),
		hub:     events.NewHub(nil),
		center:  notify.NewCenter(time.Minute),
		backend: newFakeServer(t),
		metrics: newFakeServer(t),
	}
	h.selection = selection.NewState(h.store, h.hub)
	notices := NewNotificationService(h.center, nil)

	cfg := config.Config{
		Auth:    config.AuthConfig{AllowedEmailDomains: []string{"amazon.com"}},
		Suggest: config.SuggestConfig{MemberCheckDebounceMillis: 1},
	}
	client := upstream.NewClient(h.backend.srv.URL, time.Second, nil, nil)
	h.auth = NewAuthService(cfg, AuthDependencies{
		API:       client,
		Store:     h.store,
		Selection: h.selection,
		Notices:   notices,
	})
	h.dashboard = NewDashboardService(DashboardDependencies{
		API:       client,
		Metrics:   upstream.NewMetricsClient(h.metrics.srv.URL, time.Second, nil, nil),
		Selection: h.selection,
		Notices:   notices,
	})
	return h
}

// toasts flattens the visible toasts of sid, newest first per position.
func (h *harness) toasts(sid string) []string {
	var out []string
	for _, group := range h.center.List(sid) {
		for _, toast := range group.Toasts {
			out = append(out, string(toast.Kind)+":"+toast.Text)
		}
	}
	return out
}
