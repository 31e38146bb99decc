package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/observability"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/api/auth/me", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "email": "a@amazon.com", "is_verified": true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/", time.Second, nil, nil)
	me, err := client.Me(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, int64(7), me.ID)
	require.True(t, me.IsVerified)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@amazon.com", body["email"])
		_, _ = w.Write([]byte(`{"token":"issued"}`))
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL, time.Second, nil, nil).Login(context.Background(), "a@amazon.com", "password1")
	require.NoError(t, err)
	require.Equal(t, "issued", token)
}

func TestClientSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Email already registered"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second, nil, nil).Signup(context.Background(), "a@amazon.com", "password1")
	require.Error(t, err)
	require.Equal(t, http.StatusConflict, StatusOf(err))
	require.Equal(t, "Email already registered", MessageOf(err))
}

func TestClientTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	metrics := observability.NewMetrics()
	_, err := NewClient(url, time.Second, nil, metrics).Me(context.Background(), "tok")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Zero(t, StatusOf(err))
	require.Equal(t, int64(1), metrics.Snapshot().Upstream["backend|/auth/me|0"])
}

func TestSitesDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/profile/sites", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"label":"Amazon DEN2","site_slug":"DEN2","is_default":true},{"id":2,"label":"Amazon ABQ5","site_slug":"ABQ5","is_default":false}]`))
	}))
	defer srv.Close()

	sites, err := NewClient(srv.URL, time.Second, nil, nil).Sites(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, sites, 2)
	require.True(t, sites[0].IsDefault)
	require.Equal(t, "ABQ5", sites[1].SiteSlug)
}

func TestProfileDecodesOtherAccountShapes(t *testing.T) {
	bodies := []string{
		`{"other_accounts":["Amazon A"," Amazon B ",""]}`,
		`{"other_accounts":"Amazon A, Amazon B"}`,
		`{"other_accounts":"[\"Amazon A\",\"Amazon B\"]"}`,
	}
	for _, body := range bodies {
		body := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		profile, err := NewClient(srv.URL, time.Second, nil, nil).Profile(context.Background(), "tok")
		srv.Close()
		require.NoError(t, err, body)
		require.Equal(t, []string{"Amazon A", "Amazon B"}, []string(profile.OtherAccounts), body)
	}
}

func TestMetricsClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/dashboard", r.URL.Path)
		require.Equal(t, "DEN2", r.URL.Query().Get("site_code"))
		_, _ = w.Write([]byte(`{"part1":{"order":4,"quotes":2},"part2":{"rma":1}}`))
	}))
	defer srv.Close()

	payload, err := NewMetricsClient(srv.URL, time.Second, nil, nil).Fetch(context.Background(), "DEN2")
	require.NoError(t, err)
	require.Equal(t, 4, payload.OpenOrders)
	require.Equal(t, 2, payload.OpenQuotes)
	require.Contains(t, payload.Extra, "part2")
	require.NotContains(t, payload.Extra, "part1")
}

func TestMetricsClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewMetricsClient(srv.URL, time.Second, nil, nil).Fetch(context.Background(), "DEN2")
	require.Equal(t, http.StatusInternalServerError, StatusOf(err))
	require.Empty(t, MessageOf(err))
}

func TestSuggestionClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "odd" {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		_, _ = w.Write([]byte(`["Amazon DEN2","Amazon DEN4"]`))
	}))
	defer srv.Close()

	client := NewSuggestionClient(srv.URL+"/sites", time.Second, nil, nil)
	items, err := client.Suggest(context.Background(), "den")
	require.NoError(t, err)
	require.Equal(t, []string{"Amazon DEN2", "Amazon DEN4"}, items)

	items, err = client.Suggest(context.Background(), "odd")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCancelledContextIsReturnedAsIs(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewSuggestionClient(srv.URL, time.Second, nil, nil).Suggest(ctx, "den")
	require.True(t, errors.Is(err, context.Canceled))
}
