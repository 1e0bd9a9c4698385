package vizembed

import (
	core "github.com/goliatone/go-vizembed/components/vizembed"
)

// Service exposes the underlying components/vizembed.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Configuration is the host supplied widget configuration.
type Configuration = core.Configuration

// Controller drives a single mounted widget.
type Controller = core.Controller

// ControllerOptions re-export for convenience.
type ControllerOptions = core.ControllerOptions

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewController proxies to the internal constructor.
func NewController(opts ControllerOptions) *Controller {
	return core.NewController(opts)
}

// BuildURL builds a load URL with the default builder.
func BuildURL(base string, containerWidth, height int, cfg Configuration, device core.DeviceContext) (string, error) {
	return core.BuildURL(base, containerWidth, height, cfg, device)
}
