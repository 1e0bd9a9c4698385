package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

type filterService interface {
	ResolveFilters(ctx context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error)
}

// ResolveFiltersQuery resolves the worksheet and filters for a record.
type ResolveFiltersQuery struct {
	service filterService
}

// NewResolveFiltersQuery builds the query.
func NewResolveFiltersQuery(service filterService) *ResolveFiltersQuery {
	return &ResolveFiltersQuery{service: service}
}

var _ gocommand.Querier[vizembed.FilterRequest, vizembed.FilterResolution] = (*ResolveFiltersQuery)(nil)

// Query resolves filters.
func (q *ResolveFiltersQuery) Query(ctx context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error) {
	return q.service.ResolveFilters(ctx, req)
}
