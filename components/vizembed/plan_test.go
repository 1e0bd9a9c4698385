package vizembed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannerBuildsOptionsFromFlags(t *testing.T) {
	plan, err := NewPlanner().Plan(PlanRequest{
		Config: Configuration{
			LoadURL:     "https://viz.example.com/views/Sales",
			ShowTabs:    true,
			ShowToolbar: false,
		},
		ContainerWidth: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://viz.example.com/views/Sales?:size=1024,550", plan.URL)
	assert.Equal(t, EmbedOptions{
		HideTabs:        false,
		HideToolbar:     true,
		ToolbarPosition: ToolbarPositionTop,
		Height:          "550px",
		Width:           "100%",
	}, plan.Options)
	assert.False(t, plan.Device.IsMobileHost)
}

func TestPlannerMobileHost(t *testing.T) {
	planner := &Planner{Detector: &DeviceDetector{NewID: func() string { return "dev-1" }}}
	plan, err := planner.Plan(PlanRequest{
		Config:         Configuration{LoadURL: "https://viz.example.com/views/Sales", Height: 400},
		ContainerWidth: 375,
		UserAgent:      "SalesforceMobileSDK/9.1 (iPad)",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"https://viz.example.com/views/Sales?:size=375,400&:use_rt=y&:client_id=TableauVizLWC&:device_id=dev-1&:device_name=SFMobileApp_iPad",
		plan.URL)
	assert.True(t, plan.Device.IsMobileHost)
}

func TestPlannerRejectsInvalidURL(t *testing.T) {
	_, err := NewPlanner().Plan(PlanRequest{Config: Configuration{LoadURL: "https://viz.example.com/#/views/Sales"}})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, MessageShareLinkURL, cfgErr.Message)
}

func TestEmbedOptionsWidgetOptions(t *testing.T) {
	called := false
	opts := EmbedOptions{HideTabs: true, Height: "10px"}.WidgetOptions(func() { called = true })
	assert.True(t, opts.HideTabs)
	assert.Equal(t, "10px", opts.Height)
	opts.OnFirstInteractive()
	assert.True(t, called)
}
