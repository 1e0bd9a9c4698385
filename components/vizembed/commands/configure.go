package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

// ConfigureMountInput carries a configuration change for a mounted widget.
// Raw is decoded and validated when Config is left empty.
type ConfigureMountInput struct {
	MountID string                 `json:"mount_id"`
	Config  vizembed.Configuration `json:"config"`
	Raw     map[string]any         `json:"raw,omitempty"`
}

type configureService interface {
	DecodeConfiguration(raw map[string]any) (vizembed.Configuration, error)
	Configure(ctx context.Context, id string, cfg vizembed.Configuration) error
}

// ConfigureMountCommand pushes a configuration change to a mounted controller.
type ConfigureMountCommand struct {
	service   configureService
	telemetry Telemetry
}

// NewConfigureMountCommand creates the command.
func NewConfigureMountCommand(service configureService, telemetry Telemetry) *ConfigureMountCommand {
	return &ConfigureMountCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConfigureMountInput] = (*ConfigureMountCommand)(nil)

// Execute decodes the raw payload when present and forwards the configuration.
func (c *ConfigureMountCommand) Execute(ctx context.Context, msg ConfigureMountInput) error {
	if c.service == nil {
		return errors.New("configure command requires service")
	}
	if msg.MountID == "" {
		return errors.New("configure command requires mount id")
	}
	cfg := msg.Config
	if msg.Raw != nil {
		decoded, err := c.service.DecodeConfiguration(msg.Raw)
		if err != nil {
			return err
		}
		cfg = decoded
	}
	if err := c.service.Configure(ctx, msg.MountID, cfg); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "vizembed.command.configure", map[string]any{
		"mount_id":          msg.MountID,
		"filter_definition": cfg.FilterDefinition,
	})
	return nil
}
