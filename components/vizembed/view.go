package vizembed

import (
	"errors"
	"io"
)

// Template names rendered by View.
const (
	TemplateViz   = "viz"
	TemplateError = "error"
)

// ViewModel is the data needed to render a mount.
type ViewModel struct {
	MountID string
	State   RenderState
	Config  Configuration
	Options EmbedOptions
}

// TemplateFor picks the template for a state: any error replaces the normal
// view with the minimal error view.
func TemplateFor(state RenderState) string {
	if state.IsError() {
		return TemplateError
	}
	return TemplateViz
}

// Data flattens the view model into template data.
func (m ViewModel) Data() map[string]any {
	if m.State.IsError() {
		return map[string]any{
			"mount_id": m.MountID,
			"message":  m.State.Message,
		}
	}
	return map[string]any{
		"mount_id":         m.MountID,
		"phase":            string(m.State.Phase),
		"loading_issue":    m.State.LoadingIssue,
		"url":              m.State.URL,
		"height":           m.Config.height(),
		"hide_tabs":        m.Options.HideTabs,
		"hide_toolbar":     m.Options.HideToolbar,
		"toolbar_position": m.Options.ToolbarPosition,
	}
}

// View renders mounts through a Renderer.
type View struct {
	renderer Renderer
}

// NewView wraps renderer.
func NewView(renderer Renderer) *View {
	return &View{renderer: renderer}
}

// Render writes the view for model to out.
func (v *View) Render(model ViewModel, out io.Writer) error {
	if v == nil || v.renderer == nil {
		return errors.New("vizembed: view renderer not configured")
	}
	_, err := v.renderer.Render(TemplateFor(model.State), model.Data(), out)
	return err
}

// ModelFromPlan builds a view model for a stateless plan outcome. A plan
// error becomes an error view carrying its message.
func ModelFromPlan(mountID string, cfg Configuration, plan EmbedPlan, err error) ViewModel {
	model := ViewModel{MountID: mountID, Config: cfg, Options: plan.Options}
	if err != nil {
		model.State = RenderState{Phase: PhaseError, Message: err.Error()}
		return model
	}
	model.State = RenderState{Phase: PhaseLoading, URL: plan.URL}
	return model
}
