package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// UnmountInput identifies the mount to stop and remove.
type UnmountInput struct {
	MountID string `json:"mount_id"`
}

type unmountService interface {
	Unmount(id string) error
}

// UnmountCommand stops a mount and removes it from the service registry.
type UnmountCommand struct {
	service   unmountService
	telemetry Telemetry
}

// NewUnmountCommand creates the command.
func NewUnmountCommand(service unmountService, telemetry Telemetry) *UnmountCommand {
	return &UnmountCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UnmountInput] = (*UnmountCommand)(nil)

// Execute unmounts the widget.
func (c *UnmountCommand) Execute(ctx context.Context, msg UnmountInput) error {
	if c.service == nil {
		return errors.New("unmount command requires service")
	}
	if err := c.service.Unmount(msg.MountID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "vizembed.command.unmount", map[string]any{"mount_id": msg.MountID})
	return nil
}
