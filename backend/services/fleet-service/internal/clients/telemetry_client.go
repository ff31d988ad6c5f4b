package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TelemetryClient fetches data from the telemetry service.
type TelemetryClient struct {
	baseURL string
	client  HTTPDoer
}

// NewTelemetryClient builds client with base URL.
func NewTelemetryClient(baseURL string, client HTTPDoer) *TelemetryClient {
	return &TelemetryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Latest fetches the latest telemetry snapshot for all rovers. The raw JSON
// body is returned untouched so the caller can relay it.
func (c *TelemetryClient) Latest(ctx context.Context) (int, []byte, error) {
	return c.get(ctx, "/api/telemetry/latest")
}

func (c *TelemetryClient) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("telemetry service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
