package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-vizembed/components/vizembed"
	"github.com/goliatone/go-vizembed/components/vizembed/commands"
	"github.com/goliatone/go-vizembed/components/vizembed/queries"
)

// Executor is the transport facing surface shared by net/http and go-router
// handlers.
type Executor interface {
	Plan(ctx context.Context, req vizembed.PlanRequest) (vizembed.EmbedPlan, error)
	ResolveFilters(ctx context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error)
	Configure(ctx context.Context, input commands.ConfigureMountInput) error
	PostMessage(ctx context.Context, input commands.PostMessageInput) error
	MountState(ctx context.Context, input queries.MountStateInput) (vizembed.RenderState, error)
}

// CommandExecutor adapts go-command commanders and queriers to Executor.
// Nil members report errNotConfigured.
type CommandExecutor struct {
	PlanQuery    gocommand.Querier[vizembed.PlanRequest, vizembed.EmbedPlan]
	FiltersQuery gocommand.Querier[vizembed.FilterRequest, vizembed.FilterResolution]
	StateQuery   gocommand.Querier[queries.MountStateInput, vizembed.RenderState]
	ConfigureCmd gocommand.Commander[commands.ConfigureMountInput]
	MessageCmd   gocommand.Commander[commands.PostMessageInput]
}

var errNotConfigured = errors.New("httpapi: operation not configured")

// NewServiceExecutor wires every command and query against a service.
func NewServiceExecutor(service *vizembed.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		PlanQuery:    queries.NewEmbedPlanQuery(service),
		FiltersQuery: queries.NewResolveFiltersQuery(service),
		StateQuery:   queries.NewMountStateQuery(service),
		ConfigureCmd: commands.NewConfigureMountCommand(service, telemetry),
		MessageCmd:   commands.NewPostMessageCommand(service, telemetry),
	}
}

func (e *CommandExecutor) Plan(ctx context.Context, req vizembed.PlanRequest) (vizembed.EmbedPlan, error) {
	if e.PlanQuery == nil {
		return vizembed.EmbedPlan{}, errNotConfigured
	}
	return e.PlanQuery.Query(ctx, req)
}

func (e *CommandExecutor) ResolveFilters(ctx context.Context, req vizembed.FilterRequest) (vizembed.FilterResolution, error) {
	if e.FiltersQuery == nil {
		return vizembed.FilterResolution{}, errNotConfigured
	}
	return e.FiltersQuery.Query(ctx, req)
}

func (e *CommandExecutor) Configure(ctx context.Context, input commands.ConfigureMountInput) error {
	if e.ConfigureCmd == nil {
		return errNotConfigured
	}
	return e.ConfigureCmd.Execute(ctx, input)
}

func (e *CommandExecutor) PostMessage(ctx context.Context, input commands.PostMessageInput) error {
	if e.MessageCmd == nil {
		return errNotConfigured
	}
	return e.MessageCmd.Execute(ctx, input)
}

func (e *CommandExecutor) MountState(ctx context.Context, input queries.MountStateInput) (vizembed.RenderState, error) {
	if e.StateQuery == nil {
		return vizembed.RenderState{}, errNotConfigured
	}
	return e.StateQuery.Query(ctx, input)
}
