package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// PostMessageInput relays a cross-frame message to a mount.
type PostMessageInput struct {
	MountID string `json:"mount_id"`
	Payload any    `json:"payload"`
}

type messageService interface {
	PostMessage(ctx context.Context, id string, payload any) error
}

// PostMessageCommand delivers frame messages such as the listening handshake.
type PostMessageCommand struct {
	service   messageService
	telemetry Telemetry
}

// NewPostMessageCommand creates the command.
func NewPostMessageCommand(service messageService, telemetry Telemetry) *PostMessageCommand {
	return &PostMessageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PostMessageInput] = (*PostMessageCommand)(nil)

// Execute forwards the payload.
func (c *PostMessageCommand) Execute(ctx context.Context, msg PostMessageInput) error {
	if c.service == nil {
		return errors.New("message command requires service")
	}
	if msg.MountID == "" {
		return errors.New("message command requires mount id")
	}
	if err := c.service.PostMessage(ctx, msg.MountID, msg.Payload); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "vizembed.command.message", map[string]any{
		"mount_id": msg.MountID,
	})
	return nil
}
