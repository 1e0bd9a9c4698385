package vizembed

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Phase is the render phase of a mounted widget.
type Phase string

const (
	PhaseUnloaded     Phase = "unloaded"
	PhaseValidating   Phase = "validating"
	PhaseLoading      Phase = "loading"
	PhaseInteractive  Phase = "interactive"
	PhaseLoadTimedOut Phase = "load_timed_out"
	PhaseError        Phase = "error"
)

// RenderState is the observable state of a Controller.
type RenderState struct {
	Phase Phase `json:"phase"`
	// Message carries the diagnostic when Phase is PhaseError.
	Message string `json:"message,omitempty"`
	// Loading is raised by the listening handshake or first-interactive.
	Loading bool `json:"loading"`
	// LoadingIssue flags the "taking longer than expected" warning.
	LoadingIssue   bool   `json:"loading_issue"`
	Generation     uint64 `json:"generation"`
	URL            string `json:"url,omitempty"`
	FiltersApplied bool   `json:"filters_applied"`
	FilterError    string `json:"filter_error,omitempty"`
}

// IsError reports whether the state is terminal for the current configuration.
func (s RenderState) IsError() bool {
	return s.Phase == PhaseError
}

// StateEvent is published whenever a controller's state changes.
type StateEvent struct {
	ID         string      `json:"id"`
	MountID    string      `json:"mount_id"`
	Reason     string      `json:"reason"`
	State      RenderState `json:"state"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func newStateEvent(mountID, reason string, state RenderState) StateEvent {
	return StateEvent{
		ID:         ulid.Make().String(),
		MountID:    mountID,
		Reason:     reason,
		State:      state,
		OccurredAt: time.Now().UTC(),
	}
}

// StateHook notifies transports (SSE/WebSocket) about state changes.
type StateHook interface {
	StateChanged(ctx context.Context, event StateEvent) error
}

// StateHookFunc adapts a function into a StateHook.
type StateHookFunc func(ctx context.Context, event StateEvent) error

// StateChanged implements StateHook.
func (f StateHookFunc) StateChanged(ctx context.Context, event StateEvent) error {
	return f(ctx, event)
}

type noopStateHook struct{}

func (noopStateHook) StateChanged(context.Context, StateEvent) error { return nil }

// MultiStateHook fans a state event out to several hooks.
type MultiStateHook []StateHook

// StateChanged implements StateHook, calling every hook and joining errors.
func (m MultiStateHook) StateChanged(ctx context.Context, event StateEvent) error {
	var errs []error
	for _, hook := range m {
		if hook == nil {
			continue
		}
		if err := hook.StateChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
