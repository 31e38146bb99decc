// Package upstream talks to the backend REST API and the external data
// services the portal depends on.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/portal-gateway/internal/observability"
)

// ErrUnavailable wraps transport failures: the call never got an answer.
var ErrUnavailable = errors.New("upstream unavailable")

// Error is a non-2xx answer. Message is the server-provided message when
// there was one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream status %d", e.Status)
}

// StatusOf returns the HTTP status behind err, or 0 when there was none.
func StatusOf(err error) int {
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}

// MessageOf returns the server-provided message behind err, if any.
func MessageOf(err error) string {
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.Message
	}
	return ""
}

// base performs JSON calls against one service.
type base struct {
	name       string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

func newBase(name, baseURL string, timeout time.Duration, httpClient *http.Client, metrics *observability.Metrics) base {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return base{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// do sends body as JSON (when non-nil), attaches the bearer token (when
// non-empty) and decodes a 2xx answer into out (when non-nil).
func (b base) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.metrics.RecordUpstream(b.name, routeOf(path), 0)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	b.metrics.RecordUpstream(b.name, routeOf(path), resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}

	if resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: serverMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func serverMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if msg, ok := payload.Error.(string); ok {
		return msg
	}
	return ""
}

func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
