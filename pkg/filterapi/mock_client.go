package filterapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-vizembed/components/vizembed"
)

// MockClient resolves filters from in-memory fixtures keyed by definition id.
type MockClient struct {
	mu       sync.RWMutex
	fixtures map[string]vizembed.FilterResolution
	requests []vizembed.FilterRequest
}

var _ vizembed.FilterResolver = (*MockClient)(nil)

// NewMockClient builds a mock resolver from the provided fixtures.
func NewMockClient(fixtures map[string]vizembed.FilterResolution) *MockClient {
	copied := make(map[string]vizembed.FilterResolution, len(fixtures))
	for k, v := range fixtures {
		copied[k] = v
	}
	return &MockClient{fixtures: copied}
}

// Set replaces the fixture for a definition.
func (c *MockClient) Set(definitionID string, res vizembed.FilterResolution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixtures[definitionID] = res
}

// Requests returns every request seen so far.
func (c *MockClient) Requests() []vizembed.FilterRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]vizembed.FilterRequest(nil), c.requests...)
}

// ResolveFilters returns the fixture for the definition, ignoring the record.
func (c *MockClient) ResolveFilters(_ context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	res, ok := c.fixtures[req.FilterDefinitionID]
	c.mu.Unlock()
	if !ok {
		return vizembed.FilterResolution{}, fmt.Errorf("filterapi: no fixture for %q", req.FilterDefinitionID)
	}
	out := vizembed.FilterResolution{Worksheet: res.Worksheet, Filters: make([]vizembed.FilterDescriptor, len(res.Filters))}
	for i, f := range res.Filters {
		out.Filters[i] = vizembed.FilterDescriptor{
			Name:          f.Name,
			Values:        append([]string(nil), f.Values...),
			SelectionOnly: f.SelectionOnly,
		}
	}
	return out, nil
}
