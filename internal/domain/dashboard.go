package domain

import "encoding/json"

// DashboardPayload carries the metrics for one site.
type DashboardPayload struct {
	OpenQuotes int                        `json:"openQuotes"`
	OpenOrders int                        `json:"openOrders"`
	Extra      map[string]json.RawMessage `json:"extra,omitempty"`
}

// ZeroDashboard is shown whenever a fetch fails.
func ZeroDashboard() DashboardPayload {
	return DashboardPayload{}
}
