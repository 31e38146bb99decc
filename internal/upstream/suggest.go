package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spec-kit/portal-gateway/internal/observability"
)

// SuggestionClient queries the site-name suggestion service.
type SuggestionClient struct {
	base
}

// NewSuggestionClient builds a client; baseURL is the full lookup endpoint.
func NewSuggestionClient(baseURL string, timeout time.Duration, httpClient *http.Client, metrics *observability.Metrics) *SuggestionClient {
	return &SuggestionClient{base: newBase("suggest", baseURL, timeout, httpClient, metrics)}
}

// Suggest returns the site names matching q. A body that is not a list of
// strings yields no suggestions.
func (c *SuggestionClient) Suggest(ctx context.Context, q string) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, query("q", q), "", nil, &raw); err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}, nil
	}
	return items, nil
}
