package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/upstream"
)

func newSuggestions(t *testing.T, debounceMillis, minChars int) (*SuggestionService, *fakeServer) {
	t.Helper()
	srv := newFakeServer(t)
	cfg := config.SuggestConfig{DebounceMillis: debounceMillis, MinChars: minChars}
	return NewSuggestionService(cfg, upstream.NewSuggestionClient(srv.srv.URL+"/sites", time.Second, nil, nil), nil), srv
}

func TestSuggestShortQuery(t *testing.T) {
	svc, srv := newSuggestions(t, 1, 2)

	items, err := svc.Suggest(context.Background(), "sid", " a ")
	require.NoError(t, err)
	require.Empty(t, items)
	require.NotNil(t, items)
	require.Zero(t, srv.total())
}

func TestSuggestReturnsTrimmedItems(t *testing.T) {
	svc, srv := newSuggestions(t, 1, 1)
	srv.reply(http.MethodGet, "/sites", http.StatusOK, []string{" Amazon ABQ5 ", "", "Amazon ABQ2"})

	items, err := svc.Suggest(context.Background(), "sid", "abq")
	require.NoError(t, err)
	require.Equal(t, []string{"Amazon ABQ5", "Amazon ABQ2"}, items)
}

func TestSuggestSwallowsUpstreamFailure(t *testing.T) {
	svc, srv := newSuggestions(t, 1, 1)
	srv.reply(http.MethodGet, "/sites", http.StatusBadGateway, nil)

	items, err := svc.Suggest(context.Background(), "sid", "abq")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSuggestLastQueryWins(t *testing.T) {
	svc, srv := newSuggestions(t, 50, 1)
	srv.handle(http.MethodGet, "/sites", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"match for " + r.URL.Query().Get("q")})
	})

	first := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(context.Background(), "sid", "ab")
		first <- err
	}()
	time.Sleep(10 * time.Millisecond)

	items, err := svc.Suggest(context.Background(), "sid", "abq")
	require.NoError(t, err)
	require.Equal(t, []string{"match for abq"}, items)
	require.ErrorIs(t, <-first, ErrSuggestionSuperseded)
	require.Equal(t, 1, srv.total())
}
