package vizembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicePlanRecordsTelemetry(t *testing.T) {
	telemetry := &recordingTelemetry{}
	service := NewService(Options{Telemetry: telemetry})

	plan, err := service.Plan(context.Background(), PlanRequest{
		Config:         Configuration{LoadURL: "https://viz.example.com/views/A", Height: 300},
		ContainerWidth: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://viz.example.com/views/A?:size=900,300", plan.URL)
	assert.True(t, telemetry.has("vizembed.plan"))

	_, err = service.Plan(context.Background(), PlanRequest{})
	require.Error(t, err)
	assert.True(t, telemetry.has("vizembed.plan.error"))
}

func TestServiceResolveFiltersUsesCache(t *testing.T) {
	calls := 0
	service := NewService(Options{
		ResolverTTL: time.Minute,
		Resolver: FilterResolverFunc(func(context.Context, FilterRequest) (FilterResolution, error) {
			calls++
			return FilterResolution{Worksheet: "Detail"}, nil
		}),
	})
	req := FilterRequest{FilterDefinitionID: "def", RecordID: "1"}
	for i := 0; i < 3; i++ {
		res, err := service.ResolveFilters(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Detail", res.Worksheet)
	}
	assert.Equal(t, 1, calls)
}

func TestServiceResolveFiltersErrors(t *testing.T) {
	_, err := NewService(Options{}).ResolveFilters(context.Background(), FilterRequest{})
	require.ErrorIs(t, err, errMissingResolver)

	telemetry := &recordingTelemetry{}
	service := NewService(Options{
		Telemetry: telemetry,
		Resolver: FilterResolverFunc(func(context.Context, FilterRequest) (FilterResolution, error) {
			return FilterResolution{}, errors.New("boom")
		}),
	})
	_, err = service.ResolveFilters(context.Background(), FilterRequest{FilterDefinitionID: "x"})
	require.Error(t, err)
	assert.True(t, telemetry.has("vizembed.filters.error"))
}

func TestServiceDecodeConfiguration(t *testing.T) {
	cfg, err := NewService(Options{}).DecodeConfiguration(map[string]any{
		"load_url":  "https://viz.example.com/views/A",
		"show_tabs": "TRUE",
	})
	require.NoError(t, err)
	assert.True(t, cfg.ShowTabs)
}

func TestServiceMountLifecycle(t *testing.T) {
	hook := &recordingHook{}
	service := NewService(Options{StateHook: hook, Watchdog: time.Minute})
	library := newFakeLibrary()

	controller, err := service.NewMount(MountRequest{ID: "m1", Loader: StaticLoader(library)})
	require.NoError(t, err)
	_, err = service.NewMount(MountRequest{ID: "m1", Loader: StaticLoader(library)})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-controller.Done()
	}()
	go func() { _ = controller.Run(ctx) }()

	require.NoError(t, controller.Mount(&fakeContainer{width: 500}))
	require.NoError(t, service.Configure(ctx, "m1", validConfig()))
	require.Eventually(t, func() bool {
		state, err := service.MountState(ctx, "m1")
		return err == nil && state.Phase == PhaseLoading
	}, waitFor, tick)

	require.NoError(t, service.PostMessage(ctx, "m1", ListeningPrefix))
	require.Eventually(t, func() bool {
		state, err := service.MountState(ctx, "m1")
		return err == nil && state.Loading
	}, waitFor, tick)
	assert.NotEmpty(t, hook.phases())

	require.NoError(t, service.Unmount("m1"))
	select {
	case <-controller.Done():
	default:
		t.Fatalf("expected unmount to stop the controller")
	}
	assert.True(t, library.widget(0).disposed.Load())
	_, err = service.MountState(ctx, "m1")
	require.ErrorIs(t, err, errMountNotFound)
	require.ErrorIs(t, service.Unmount("m1"), errMountNotFound)
	require.ErrorIs(t, service.Unmount(""), errMissingMountID)
	require.ErrorIs(t, service.Configure(ctx, "", validConfig()), errMissingMountID)
}

func TestServiceNewMountGeneratesID(t *testing.T) {
	service := NewService(Options{})
	controller, err := service.NewMount(MountRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, controller.ID())

	found, err := service.Mount(controller.ID())
	require.NoError(t, err)
	assert.Same(t, controller, found)
}

func TestServiceUnmountStopsLateInteractive(t *testing.T) {
	service := NewService(Options{Watchdog: time.Minute})
	library := newFakeLibrary()
	controller, err := service.NewMount(MountRequest{ID: "m1", Loader: StaticLoader(library)})
	require.NoError(t, err)
	go func() { _ = controller.Run(context.Background()) }()

	require.NoError(t, controller.Mount(&fakeContainer{width: 500}))
	require.NoError(t, service.Configure(context.Background(), "m1", validConfig()))
	require.Eventually(t, func() bool {
		return controller.State().Phase == PhaseLoading
	}, waitFor, tick)

	require.NoError(t, service.Unmount("m1"))
	widget := library.widget(0)
	assert.True(t, widget.disposed.Load())

	widget.fireFirstInteractive()
	assert.Never(t, func() bool {
		return controller.State().Phase != PhaseLoading
	}, 50*time.Millisecond, tick)
}

func TestServiceUnmountBeforeRun(t *testing.T) {
	service := NewService(Options{})
	controller, err := service.NewMount(MountRequest{ID: "idle"})
	require.NoError(t, err)
	require.NoError(t, service.Unmount("idle"))
	require.NoError(t, controller.Run(context.Background()))
}
