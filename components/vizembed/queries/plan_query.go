package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

type planService interface {
	Plan(ctx context.Context, req vizembed.PlanRequest) (vizembed.EmbedPlan, error)
}

// EmbedPlanQuery validates a configuration and returns the load URL and options.
type EmbedPlanQuery struct {
	service planService
}

// NewEmbedPlanQuery builds the query.
func NewEmbedPlanQuery(service planService) *EmbedPlanQuery {
	return &EmbedPlanQuery{service: service}
}

var _ gocommand.Querier[vizembed.PlanRequest, vizembed.EmbedPlan] = (*EmbedPlanQuery)(nil)

// Query plans the embed.
func (q *EmbedPlanQuery) Query(ctx context.Context, req vizembed.PlanRequest) (vizembed.EmbedPlan, error) {
	return q.service.Plan(ctx, req)
}
