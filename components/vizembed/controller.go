package vizembed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultWatchdog is how long the controller waits for first-interactive
	// before raising the loading issue warning.
	DefaultWatchdog = 5 * time.Second
	// ListeningPrefix marks the cross-frame handshake sent by a widget that is
	// listening for commands.
	ListeningPrefix = "tableau.listening"

	eventBuffer = 64
)

// ControllerOptions configures a Controller. Every collaborator is an
// interface so hosts and tests can substitute them.
type ControllerOptions struct {
	ID        string
	Loader    LibraryLoader
	Resolver  FilterResolver
	Planner   *Planner
	UserAgent string
	Watchdog  time.Duration
	StateHook StateHook
	Telemetry Telemetry
	Logger    *slog.Logger
}

// Controller owns one widget mount. All widget, workbook, sheet and state
// mutations happen on the goroutine running Run; the exported methods only
// enqueue events for it.
type Controller struct {
	opts    ControllerOptions
	applier *FilterApplier
	logger  *slog.Logger

	events     chan any
	done       chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	running    atomic.Bool
	generation atomic.Uint64

	mu    sync.RWMutex
	state RenderState

	// owned by the Run goroutine
	library     Library
	container   Container
	config      Configuration
	configured  bool
	widget      Widget
	workbook    Workbook
	activeSheet Sheet
	watchdog    *time.Timer
	passCancel  context.CancelFunc
}

type (
	libraryLoadedEvent struct {
		library Library
		err     error
	}
	mountEvent struct {
		container Container
	}
	configureEvent struct {
		config Configuration
	}
	messageEvent struct {
		payload any
	}
	firstInteractiveEvent struct {
		generation uint64
	}
	watchdogEvent struct {
		generation uint64
	}
	sheetActivatedEvent struct {
		generation uint64
		sheet      Sheet
	}
	filterPassEvent struct {
		generation uint64
		err        error
	}
)

// NewController builds a controller with safe defaults.
func NewController(opts ControllerOptions) *Controller {
	if opts.ID == "" {
		opts.ID = ulid.Make().String()
	}
	if opts.Planner == nil {
		opts.Planner = NewPlanner()
	}
	if opts.Watchdog <= 0 {
		opts.Watchdog = DefaultWatchdog
	}
	if opts.StateHook == nil {
		opts.StateHook = noopStateHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	logger := normalizeLogger(opts.Logger, "vizembed.controller").With("mount_id", opts.ID)
	return &Controller{
		opts: opts,
		applier: NewFilterApplier(FilterApplierOptions{
			Resolver:  opts.Resolver,
			Telemetry: opts.Telemetry,
			Logger:    opts.Logger,
		}),
		logger: logger,
		events: make(chan any, eventBuffer),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		state:  RenderState{Phase: PhaseUnloaded},
	}
}

// ID returns the mount identifier.
func (c *Controller) ID() string {
	return c.opts.ID
}

// State returns a snapshot of the current render state.
func (c *Controller) State() RenderState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Done is closed once Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Mount attaches the container element the widget renders into.
func (c *Controller) Mount(container Container) error {
	return c.post(mountEvent{container: container})
}

// Configure signals a configuration change. The widget is re-rendered only
// when the configuration differs from the current one.
func (c *Controller) Configure(cfg Configuration) error {
	return c.post(configureEvent{config: cfg})
}

// PostMessage delivers a cross-frame message payload.
func (c *Controller) PostMessage(payload any) error {
	return c.post(messageEvent{payload: payload})
}

// Close stops the controller. Run disposes the widget and returns nil; a
// controller closed before Run never starts.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Run loads the client library and processes events until ctx is done or
// Close is called. The widget is disposed on return.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("vizembed: controller already running")
	}
	defer close(c.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.loadLibrary(ctx)
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return ctx.Err()
		case <-c.stop:
			c.teardown()
			return nil
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) post(ev any) error {
	select {
	case <-c.done:
		return errControllerClosed
	case <-c.stop:
		return errControllerClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return errControllerClosed
	case <-c.stop:
		return errControllerClosed
	}
}

func (c *Controller) loadLibrary(ctx context.Context) {
	if c.opts.Loader == nil {
		_ = c.post(libraryLoadedEvent{err: errMissingLoader})
		return
	}
	lib, err := c.opts.Loader.Load(ctx)
	if err == nil && lib == nil {
		err = errMissingLibrary
	}
	_ = c.post(libraryLoadedEvent{library: lib, err: err})
}

func (c *Controller) handle(ctx context.Context, ev any) {
	switch e := ev.(type) {
	case libraryLoadedEvent:
		if e.err != nil {
			c.logger.ErrorContext(ctx, "client library failed to load", "error", e.err)
			c.fail(ctx, "library", e.err.Error())
			return
		}
		c.library = e.library
		c.render(ctx, "library")
	case mountEvent:
		c.container = e.container
		// an error is only left through a configuration change
		if c.State().IsError() {
			return
		}
		c.render(ctx, "mount")
	case configureEvent:
		if c.configured && c.config == e.config {
			return
		}
		c.config = e.config
		c.configured = true
		c.render(ctx, "configure")
	case messageEvent:
		c.handleMessage(ctx, e.payload)
	case firstInteractiveEvent:
		c.handleFirstInteractive(ctx, e.generation)
	case watchdogEvent:
		c.handleWatchdog(ctx, e.generation)
	case sheetActivatedEvent:
		if e.generation == c.generation.Load() {
			c.activeSheet = e.sheet
		}
	case filterPassEvent:
		c.handleFilterPass(ctx, e)
	}
}

// render runs a full validate, build and instantiate pass once the library,
// the container and a configuration are all available.
func (c *Controller) render(ctx context.Context, reason string) {
	if c.library == nil || c.container == nil || !c.configured {
		return
	}
	gen := c.generation.Add(1)
	c.stopWatchdog()
	c.cancelPass()

	c.update(ctx, reason, func(s *RenderState) {
		*s = RenderState{Phase: PhaseValidating, Generation: gen}
	})
	c.validate(ctx)
	if c.State().IsError() {
		c.disposeWidget()
		return
	}

	height := c.config.height()
	c.container.SetHeight(height)
	plan, err := c.opts.Planner.Plan(PlanRequest{
		Config:         c.config,
		ContainerWidth: c.container.Width(),
		UserAgent:      c.opts.UserAgent,
	})
	if err != nil {
		c.disposeWidget()
		c.fail(ctx, reason, err.Error())
		return
	}

	c.disposeWidget()
	options := plan.Options.WidgetOptions(func() {
		_ = c.post(firstInteractiveEvent{generation: gen})
	})
	widget, err := c.construct(plan.URL, options)
	if err != nil {
		c.logger.ErrorContext(ctx, "widget construction failed", "error", err)
		c.fail(ctx, reason, err.Error())
		return
	}
	c.widget = widget
	c.update(ctx, reason, func(s *RenderState) {
		s.Phase = PhaseLoading
		s.URL = plan.URL
	})
	c.watchdog = time.AfterFunc(c.opts.Watchdog, func() {
		_ = c.post(watchdogEvent{generation: gen})
	})
	c.opts.Telemetry.Record(ctx, "vizembed.widget.load", map[string]any{
		"mount_id":   c.opts.ID,
		"generation": gen,
		"mobile":     plan.Device.IsMobileHost,
	})
}

// validate records a configuration error out of band; callers check the
// state rather than the returned outcome.
func (c *Controller) validate(ctx context.Context) ValidationOutcome {
	outcome := ValidateLoadURL(c.config.LoadURL)
	if !outcome.Valid {
		c.fail(ctx, "validate", outcome.Err.Message)
	}
	return outcome
}

func (c *Controller) construct(url string, options WidgetOptions) (widget Widget, err error) {
	defer func() {
		if r := recover(); r != nil {
			widget = nil
			err = &InstantiationError{Err: fmt.Errorf("%v", r)}
		}
	}()
	widget, err = c.library.ConstructWidget(c.container, url, options)
	if err != nil {
		return nil, &InstantiationError{Err: err}
	}
	if widget == nil {
		return nil, &InstantiationError{Err: errors.New("vizembed: library returned no widget")}
	}
	return widget, nil
}

func (c *Controller) handleMessage(ctx context.Context, payload any) {
	msg, ok := payload.(string)
	if !ok || !strings.HasPrefix(msg, ListeningPrefix) {
		return
	}
	if c.State().Loading {
		return
	}
	c.update(ctx, "handshake", func(s *RenderState) {
		s.Loading = true
	})
}

func (c *Controller) handleFirstInteractive(ctx context.Context, gen uint64) {
	if gen != c.generation.Load() || c.widget == nil {
		c.logger.DebugContext(ctx, "dropping stale first-interactive", "generation", gen)
		return
	}
	phase := c.State().Phase
	if phase != PhaseLoading && phase != PhaseLoadTimedOut {
		return
	}
	c.stopWatchdog()
	c.workbook = c.widget.Workbook()
	if c.workbook != nil {
		c.activeSheet = c.workbook.ActiveSheet()
	}
	c.update(ctx, "first_interactive", func(s *RenderState) {
		s.Phase = PhaseInteractive
		s.Loading = true
		s.LoadingIssue = false
	})
	c.startFilterPass(ctx, gen)
}

func (c *Controller) handleWatchdog(ctx context.Context, gen uint64) {
	if gen != c.generation.Load() {
		return
	}
	state := c.State()
	if state.Phase != PhaseLoading || state.Loading {
		return
	}
	c.logger.WarnContext(ctx, "widget is taking longer than expected", "watchdog", c.opts.Watchdog)
	c.update(ctx, "watchdog", func(s *RenderState) {
		s.Phase = PhaseLoadTimedOut
		s.LoadingIssue = true
	})
}

func (c *Controller) startFilterPass(ctx context.Context, gen uint64) {
	if c.opts.Resolver == nil {
		c.logger.DebugContext(ctx, "no filter resolver configured, skipping filters")
		return
	}
	if c.workbook == nil {
		c.handleFilterPass(ctx, filterPassEvent{generation: gen, err: errMissingWorkbook})
		return
	}
	passCtx, cancel := context.WithCancel(ctx)
	c.passCancel = cancel
	pass := FilterPass{
		Workbook:           c.workbook,
		Sheet:              c.activeSheet,
		FilterDefinitionID: c.config.FilterDefinition,
		RecordID:           c.config.RecordID,
		SelectionMode:      c.library.SelectionReplaceMode(),
		FilterMode:         c.library.FilterReplaceMode(),
		Current: func() bool {
			return c.generation.Load() == gen
		},
		OnSheetActivated: func(sheet Sheet) {
			_ = c.post(sheetActivatedEvent{generation: gen, sheet: sheet})
		},
	}
	go func() {
		_, err := c.applier.Apply(passCtx, pass)
		_ = c.post(filterPassEvent{generation: gen, err: err})
	}()
}

func (c *Controller) handleFilterPass(ctx context.Context, e filterPassEvent) {
	if e.generation != c.generation.Load() || errors.Is(e.err, errStalePass) {
		return
	}
	if e.err != nil {
		c.logger.WarnContext(ctx, "filter pass failed", "error", e.err)
		c.update(ctx, "filters", func(s *RenderState) {
			s.FilterError = e.err.Error()
		})
		return
	}
	c.update(ctx, "filters", func(s *RenderState) {
		s.FiltersApplied = true
		s.FilterError = ""
	})
}

func (c *Controller) fail(ctx context.Context, reason, message string) {
	c.stopWatchdog()
	c.update(ctx, reason, func(s *RenderState) {
		s.Phase = PhaseError
		s.Message = message
	})
	c.opts.Telemetry.Record(ctx, "vizembed.widget.error", map[string]any{
		"mount_id": c.opts.ID,
		"reason":   reason,
		"message":  message,
	})
}

func (c *Controller) update(ctx context.Context, reason string, mutate func(*RenderState)) {
	c.mu.Lock()
	mutate(&c.state)
	snapshot := c.state
	c.mu.Unlock()
	if err := c.opts.StateHook.StateChanged(ctx, newStateEvent(c.opts.ID, reason, snapshot)); err != nil {
		c.logger.WarnContext(ctx, "state hook failed", "error", err)
	}
}

func (c *Controller) stopWatchdog() {
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
}

func (c *Controller) cancelPass() {
	if c.passCancel != nil {
		c.passCancel()
		c.passCancel = nil
	}
}

func (c *Controller) disposeWidget() {
	if c.widget != nil {
		c.widget.Dispose()
	}
	c.widget = nil
	c.workbook = nil
	c.activeSheet = nil
}

func (c *Controller) teardown() {
	c.generation.Add(1)
	c.stopWatchdog()
	c.cancelPass()
	c.disposeWidget()
}
