package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

// LoadFilterManifestInput points at a filter manifest on disk.
type LoadFilterManifestInput struct {
	Path string `json:"path"`
}

type definitionLoader interface {
	LoadManifestFile(path string) (*vizembed.FilterManifestDocument, error)
}

// LoadFilterManifestCommand registers the definitions of a manifest file.
type LoadFilterManifestCommand struct {
	registry  definitionLoader
	telemetry Telemetry
}

// NewLoadFilterManifestCommand creates the command.
func NewLoadFilterManifestCommand(registry definitionLoader, telemetry Telemetry) *LoadFilterManifestCommand {
	return &LoadFilterManifestCommand{registry: registry, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadFilterManifestInput] = (*LoadFilterManifestCommand)(nil)

// Execute loads and registers the manifest.
func (c *LoadFilterManifestCommand) Execute(ctx context.Context, msg LoadFilterManifestInput) error {
	if c.registry == nil {
		return errors.New("manifest command requires registry")
	}
	if msg.Path == "" {
		return errors.New("manifest command requires path")
	}
	doc, err := c.registry.LoadManifestFile(msg.Path)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "vizembed.command.manifest", map[string]any{
		"path":        msg.Path,
		"definitions": len(doc.Definitions),
	})
	return nil
}
