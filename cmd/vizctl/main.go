package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-vizembed/components/vizembed"
	"github.com/goliatone/go-vizembed/components/vizembed/commands"
	"github.com/goliatone/go-vizembed/pkg/filterapi"
)

var stdout io.Writer = os.Stdout

type cli struct {
	LogLevel string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level."`

	Validate validateCmd `cmd:"" help:"Validate a view link and print the diagnostic."`
	BuildURL buildURLCmd `cmd:"" name:"build-url" help:"Build the load URL for a configuration."`
	Resolve  resolveCmd  `cmd:"" help:"Resolve the filters of a definition for a record."`
	Define   defineCmd   `cmd:"" help:"Add or replace a filter definition in a manifest."`
	Serve    serveCmd    `cmd:"" help:"Serve the embed view, plan and filter endpoints."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Description("Tooling for embedded visualization views: link validation, URL building, filter manifests."),
		kong.UsageOnError(),
	)
	slog.SetDefault(newLogger(root.LogLevel))
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.BindTo(runCtx, (*context.Context)(nil))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

type validateCmd struct {
	URL string `arg:"" optional:"" help:"Link to the view."`
}

func (cmd *validateCmd) Run(_ context.Context) error {
	outcome := vizembed.ValidateLoadURL(cmd.URL)
	if !outcome.Valid {
		return fmt.Errorf("vizctl: %s", outcome.Err.Message)
	}
	fmt.Fprintln(stdout, "✓ valid view link")
	return nil
}

type buildURLCmd struct {
	URL                 string `arg:"" help:"Link to the view."`
	Width               int    `default:"800" help:"Container width in pixels."`
	Height              int    `default:"550" help:"Display height in pixels."`
	ShowTabs            bool   `name:"show-tabs" help:"Show workbook tabs."`
	ShowToolbar         bool   `name:"show-toolbar" help:"Show the toolbar."`
	FilterOnRecordID    bool   `name:"filter-on-record-id" help:"Append the record filter."`
	ObjectType          string `name:"object-type" help:"Host object type, e.g. Account."`
	RecordID            string `name:"record-id" help:"Record id in context."`
	AdvancedFilterName  string `name:"advanced-filter-name" help:"Extra filter field."`
	AdvancedFilterValue string `name:"advanced-filter-value" help:"Extra filter value."`
	UserAgent           string `name:"user-agent" help:"User agent used for device detection."`
	JSON                bool   `name:"json" help:"Print the full plan as JSON."`
}

func (cmd *buildURLCmd) config() vizembed.Configuration {
	return vizembed.Configuration{
		LoadURL:             cmd.URL,
		Height:              cmd.Height,
		ShowTabs:            cmd.ShowTabs,
		ShowToolbar:         cmd.ShowToolbar,
		FilterOnRecordID:    cmd.FilterOnRecordID,
		AdvancedFilterName:  cmd.AdvancedFilterName,
		AdvancedFilterValue: cmd.AdvancedFilterValue,
		RecordID:            cmd.RecordID,
		ObjectType:          cmd.ObjectType,
	}
}

func (cmd *buildURLCmd) Run(ctx context.Context) error {
	service := vizembed.NewService(vizembed.Options{Logger: slog.Default()})
	plan, err := service.Plan(ctx, vizembed.PlanRequest{
		Config:         cmd.config(),
		ContainerWidth: cmd.Width,
		UserAgent:      cmd.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("vizctl: %w", err)
	}
	if cmd.JSON {
		return writeJSON(plan)
	}
	fmt.Fprintln(stdout, plan.URL)
	return nil
}

type resolveCmd struct {
	Definition  string        `required:"" help:"Filter definition id."`
	Record      string        `help:"Record id in context."`
	Manifest    string        `type:"path" help:"Resolve from a local manifest instead of the remote service."`
	ResolverURL string        `name:"resolver-url" env:"VIZEMBED_RESOLVER_URL" help:"Base URL of the filter resolution service."`
	APIKey      string        `name:"api-key" env:"VIZEMBED_RESOLVER_KEY" help:"Bearer token for the resolution service."`
	Timeout     time.Duration `default:"10s" help:"Request timeout."`
}

func (cmd *resolveCmd) Run(ctx context.Context) error {
	resolver, err := buildResolver(cmd.Manifest, cmd.ResolverURL, cmd.APIKey)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()
	res, err := resolver.ResolveFilters(ctx, vizembed.FilterRequest{
		FilterDefinitionID: cmd.Definition,
		RecordID:           cmd.Record,
	})
	if err != nil {
		return fmt.Errorf("vizctl: %w", err)
	}
	return writeJSON(res)
}

// buildResolver prefers the manifest when both sources are given.
func buildResolver(manifest, resolverURL, apiKey string) (vizembed.FilterResolver, error) {
	switch {
	case manifest != "":
		registry := vizembed.NewDefinitionRegistry()
		load := commands.NewLoadFilterManifestCommand(registry, nil)
		if err := load.Execute(context.Background(), commands.LoadFilterManifestInput{Path: manifest}); err != nil {
			return nil, err
		}
		return registry, nil
	case resolverURL != "":
		return filterapi.NewHTTPClient(filterapi.HTTPConfig{BaseURL: resolverURL, APIKey: apiKey})
	default:
		return nil, fmt.Errorf("vizctl: --manifest or --resolver-url is required")
	}
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
