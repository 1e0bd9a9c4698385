package vizembed

import "strconv"

// ToolbarPositionTop is the toolbar placement requested from the widget.
const ToolbarPositionTop = "Top"

// Planner validates a configuration and produces the load URL and widget
// options for one render pass.
type Planner struct {
	Builder  *URLBuilder
	Detector *DeviceDetector
}

// NewPlanner returns a planner with default builder and detector.
func NewPlanner() *Planner {
	return &Planner{Builder: NewURLBuilder(), Detector: NewDeviceDetector()}
}

// PlanRequest carries everything needed to plan a render pass.
type PlanRequest struct {
	Config         Configuration `json:"config"`
	ContainerWidth int           `json:"container_width"`
	UserAgent      string        `json:"user_agent"`
}

// EmbedPlan is the outcome of a successful plan.
type EmbedPlan struct {
	URL     string        `json:"url"`
	Options EmbedOptions  `json:"options"`
	Device  DeviceContext `json:"device"`
}

// EmbedOptions is the serializable part of WidgetOptions.
type EmbedOptions struct {
	HideTabs        bool   `json:"hide_tabs"`
	HideToolbar     bool   `json:"hide_toolbar"`
	ToolbarPosition string `json:"toolbar_position"`
	Height          string `json:"height"`
	Width           string `json:"width"`
}

// WidgetOptions converts the plan options into constructor options.
func (o EmbedOptions) WidgetOptions(onFirstInteractive func()) WidgetOptions {
	return WidgetOptions{
		HideTabs:           o.HideTabs,
		HideToolbar:        o.HideToolbar,
		ToolbarPosition:    o.ToolbarPosition,
		Height:             o.Height,
		Width:              o.Width,
		OnFirstInteractive: onFirstInteractive,
	}
}

// Plan validates req.Config.LoadURL and builds the load URL. A rejected URL is
// returned as a *ConfigurationError.
func (p *Planner) Plan(req PlanRequest) (EmbedPlan, error) {
	if outcome := ValidateLoadURL(req.Config.LoadURL); !outcome.Valid {
		return EmbedPlan{}, outcome.Error()
	}
	device := p.detector().Detect(req.UserAgent)
	height := req.Config.height()
	url, err := p.builder().Build(req.Config.LoadURL, req.ContainerWidth, height, req.Config, device)
	if err != nil {
		return EmbedPlan{}, err
	}
	return EmbedPlan{
		URL:     url,
		Device:  device,
		Options: embedOptions(req.Config),
	}, nil
}

func embedOptions(cfg Configuration) EmbedOptions {
	return EmbedOptions{
		HideTabs:        !cfg.ShowTabs,
		HideToolbar:     !cfg.ShowToolbar,
		ToolbarPosition: ToolbarPositionTop,
		Height:          strconv.Itoa(cfg.height()) + "px",
		Width:           "100%",
	}
}

func (p *Planner) builder() *URLBuilder {
	if p == nil || p.Builder == nil {
		return NewURLBuilder()
	}
	return p.Builder
}

func (p *Planner) detector() *DeviceDetector {
	if p == nil || p.Detector == nil {
		return NewDeviceDetector()
	}
	return p.Detector
}
