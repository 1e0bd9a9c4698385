package filterapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-vizembed/components/vizembed"
)

// ResolvePath is the endpoint, relative to BaseURL, that resolves filters.
const ResolvePath = "/filters/resolve"

// HTTPConfig configures the HTTP resolver client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient resolves filter definitions against a remote service.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ vizembed.FilterResolver = (*HTTPClient)(nil)

// NewHTTPClient builds a resolver client for the remote filter service.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("filterapi: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// ResolveFilters implements vizembed.FilterResolver.
func (c *HTTPClient) ResolveFilters(ctx context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error) {
	var resp resolveResponse
	if err := c.do(ctx, http.MethodPost, ResolvePath, req, &resp); err != nil {
		return vizembed.FilterResolution{}, err
	}
	return resp.toResolution(), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("filterapi: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("filterapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("filterapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("filterapi: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("filterapi: decode response: %w", err)
	}
	return nil
}

type resolveFilter struct {
	Name          string   `json:"name"`
	Values        []string `json:"values"`
	SelectionOnly bool     `json:"selection_only"`
}

type resolveResponse struct {
	Worksheet string          `json:"worksheet"`
	Filters   []resolveFilter `json:"filters"`
}

func (r resolveResponse) toResolution() vizembed.FilterResolution {
	filters := make([]vizembed.FilterDescriptor, 0, len(r.Filters))
	for _, f := range r.Filters {
		if f.Name == "" {
			continue
		}
		filters = append(filters, vizembed.FilterDescriptor{
			Name:          f.Name,
			Values:        append([]string(nil), f.Values...),
			SelectionOnly: f.SelectionOnly,
		})
	}
	return vizembed.FilterResolution{
		Worksheet: strings.TrimSpace(r.Worksheet),
		Filters:   filters,
	}
}
