package upstream

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// MetricsClient reads dashboard figures from the external metrics service.
type MetricsClient struct {
	base
}

// NewMetricsClient builds a client for the service rooted at baseURL.
func NewMetricsClient(baseURL string, timeout time.Duration, httpClient *http.Client, metrics *observability.Metrics) *MetricsClient {
	return &MetricsClient{base: newBase("metrics", baseURL, timeout, httpClient, metrics)}
}

type dashboardPart struct {
	Order  float64 `json:"order"`
	Quotes float64 `json:"quotes"`
}

// Fetch returns the dashboard payload for a site code. The "part1" section
// supplies open orders and quotes; every other section is kept opaque.
func (c *MetricsClient) Fetch(ctx context.Context, siteCode string) (*domain.DashboardPayload, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/dashboard"+query("site_code", siteCode), "", nil, &raw); err != nil {
		return nil, err
	}

	payload := &domain.DashboardPayload{}
	if part, ok := raw["part1"]; ok {
		var p dashboardPart
		if err := json.Unmarshal(part, &p); err == nil {
			payload.OpenOrders = int(math.Round(p.Order))
			payload.OpenQuotes = int(math.Round(p.Quotes))
		}
		delete(raw, "part1")
	}
	if len(raw) > 0 {
		payload.Extra = raw
	}
	return payload, nil
}
