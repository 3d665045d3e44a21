package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/google/uuid"
)

// DefaultReportsPath is the endpoint that aggregates report totals.
const DefaultReportsPath = "/reports"

// HTTPConfig configures the HTTP report client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Path       string
	HTTPClient *http.Client
}

// HTTPClient posts report requests to the analytics backend.
type HTTPClient struct {
	baseURL string
	apiKey  string
	path    string
	client  *http.Client
}

var _ analytic.ReportClient = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the live reports API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("reports: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	path := cfg.Path
	if path == "" {
		path = DefaultReportsPath
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		path:    path,
		client:  httpClient,
	}, nil
}

// FetchReport implements analytic.ReportClient. Every accepted response
// shape is normalized by analytic.DecodeReportPayload.
func (c *HTTPClient) FetchReport(ctx context.Context, req analytic.ReportRequest) (analytic.ReportSnapshot, error) {
	body, err := c.do(ctx, http.MethodPost, c.path, req.Payload())
	if err != nil {
		return analytic.ReportSnapshot{}, err
	}
	return analytic.DecodeReportPayload(body)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("reports: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reports: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reports: http request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reports: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &RemoteError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// RemoteError is a non-2xx answer from the reports API.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("reports: remote error %d: %s", e.Status, e.Body)
}
