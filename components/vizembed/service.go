package vizembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	errMissingMountID = errors.New("vizembed: mount id is required")
	errMountNotFound  = errors.New("vizembed: mount not found")
)

// Options configures the Service. Every collaborator is provided via interface
// so applications can swap implementations.
type Options struct {
	Resolver        FilterResolver
	ResolverTTL     time.Duration
	Planner         *Planner
	ConfigValidator ConfigValidator
	StateHook       StateHook
	Telemetry       Telemetry
	Logger          *slog.Logger
	Watchdog        time.Duration
}

// Service plans embeds, resolves filters and tracks mounted controllers.
type Service struct {
	opts   Options
	logger *slog.Logger

	mu     sync.RWMutex
	mounts map[string]*Controller
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Planner == nil {
		opts.Planner = NewPlanner()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.StateHook == nil {
		opts.StateHook = noopStateHook{}
	}
	if opts.Resolver != nil && opts.ResolverTTL > 0 {
		opts.Resolver = NewCachedResolver(opts.Resolver, opts.ResolverTTL)
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{
		opts:   opts,
		logger: normalizeLogger(opts.Logger, "vizembed.service"),
		mounts: map[string]*Controller{},
	}
}

// DecodeConfiguration validates and coerces a raw host configuration map.
func (s *Service) DecodeConfiguration(raw map[string]any) (Configuration, error) {
	return DecodeConfiguration(s.opts.ConfigValidator, raw)
}

// Plan validates the configuration and builds the load URL.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (EmbedPlan, error) {
	plan, err := s.opts.Planner.Plan(req)
	if err != nil {
		s.recordTelemetry(ctx, "vizembed.plan.error", map[string]any{"error": err.Error()})
		return EmbedPlan{}, err
	}
	s.recordTelemetry(ctx, "vizembed.plan", map[string]any{
		"mobile":          plan.Device.IsMobileHost,
		"container_width": req.ContainerWidth,
	})
	return plan, nil
}

// ResolveFilters proxies the configured resolver.
func (s *Service) ResolveFilters(ctx context.Context, req FilterRequest) (FilterResolution, error) {
	if s.opts.Resolver == nil {
		return FilterResolution{}, errMissingResolver
	}
	res, err := s.opts.Resolver.ResolveFilters(ctx, req)
	if err != nil {
		s.recordTelemetry(ctx, "vizembed.filters.error", map[string]any{
			"filter_definition": req.FilterDefinitionID,
			"error":             err.Error(),
		})
		return FilterResolution{}, err
	}
	return res, nil
}

// MountRequest describes a new controller mount.
type MountRequest struct {
	ID        string
	Loader    LibraryLoader
	UserAgent string
}

// NewMount creates and registers a controller sharing the service's
// resolver, planner, hooks and telemetry. The caller runs it.
func (s *Service) NewMount(req MountRequest) (*Controller, error) {
	controller := NewController(ControllerOptions{
		ID:        req.ID,
		Loader:    req.Loader,
		Resolver:  s.opts.Resolver,
		Planner:   s.opts.Planner,
		UserAgent: req.UserAgent,
		Watchdog:  s.opts.Watchdog,
		StateHook: s.opts.StateHook,
		Telemetry: s.opts.Telemetry,
		Logger:    s.opts.Logger,
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.mounts[controller.ID()]; exists {
		return nil, fmt.Errorf("vizembed: mount %s already exists", controller.ID())
	}
	s.mounts[controller.ID()] = controller
	s.logger.Debug("mount registered", "mount_id", controller.ID())
	return controller, nil
}

// Mount fetches a registered controller.
func (s *Service) Mount(id string) (*Controller, error) {
	if id == "" {
		return nil, errMissingMountID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	controller, ok := s.mounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMountNotFound, id)
	}
	return controller, nil
}

// Unmount removes a controller and stops it. When the controller is running
// Unmount waits until its widget has been disposed.
func (s *Service) Unmount(id string) error {
	if id == "" {
		return errMissingMountID
	}
	s.mu.Lock()
	controller, ok := s.mounts[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", errMountNotFound, id)
	}
	delete(s.mounts, id)
	s.mu.Unlock()

	controller.Close()
	if controller.running.Load() {
		<-controller.Done()
	}
	s.logger.Debug("mount removed", "mount_id", id)
	return nil
}

// Configure forwards a configuration change to a mount.
func (s *Service) Configure(ctx context.Context, id string, cfg Configuration) error {
	controller, err := s.Mount(id)
	if err != nil {
		return err
	}
	if err := controller.Configure(cfg); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "vizembed.mount.configure", map[string]any{"mount_id": id})
	return nil
}

// PostMessage forwards a cross-frame message to a mount.
func (s *Service) PostMessage(_ context.Context, id string, payload any) error {
	controller, err := s.Mount(id)
	if err != nil {
		return err
	}
	return controller.PostMessage(payload)
}

// MountState returns the state snapshot of a mount.
func (s *Service) MountState(_ context.Context, id string) (RenderState, error) {
	controller, err := s.Mount(id)
	if err != nil {
		return RenderState{}, err
	}
	return controller.State(), nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
