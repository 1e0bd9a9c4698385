package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

// MountStateInput identifies a mount.
type MountStateInput struct {
	MountID string `json:"mount_id"`
}

type stateService interface {
	MountState(ctx context.Context, id string) (vizembed.RenderState, error)
}

// MountStateQuery returns the render state snapshot of a mount.
type MountStateQuery struct {
	service stateService
}

// NewMountStateQuery builds the query.
func NewMountStateQuery(service stateService) *MountStateQuery {
	return &MountStateQuery{service: service}
}

var _ gocommand.Querier[MountStateInput, vizembed.RenderState] = (*MountStateQuery)(nil)

// Query fetches the state.
func (q *MountStateQuery) Query(ctx context.Context, input MountStateInput) (vizembed.RenderState, error) {
	return q.service.MountState(ctx, input.MountID)
}
