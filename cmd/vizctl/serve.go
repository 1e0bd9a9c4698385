package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-vizembed/components/vizembed"
	"github.com/goliatone/go-vizembed/components/vizembed/gorouter"
	"github.com/goliatone/go-vizembed/components/vizembed/httpapi"
)

type serveCmd struct {
	Addr        string        `default:":9876" help:"Listen address."`
	BasePath    string        `name:"base-path" default:"/viz" help:"Route prefix."`
	Transport   string        `default:"router" enum:"router,http" help:"Serve through go-router (fiber) or net/http."`
	Manifest    string        `type:"path" help:"Filter manifest used to resolve filters locally."`
	ResolverURL string        `name:"resolver-url" env:"VIZEMBED_RESOLVER_URL" help:"Base URL of the filter resolution service."`
	APIKey      string        `name:"api-key" env:"VIZEMBED_RESOLVER_KEY" help:"Bearer token for the resolution service."`
	ResolverTTL time.Duration `name:"resolver-ttl" default:"30s" help:"Cache lifetime of resolved filters (0 disables)."`
	Watchdog    time.Duration `default:"5s" help:"First-interactive watchdog for mounted controllers."`
}

type app struct {
	service   *vizembed.Service
	broadcast *vizembed.BroadcastHook
	executor  *httpapi.CommandExecutor
	view      *vizembed.View
}

func (cmd *serveCmd) build(logger *slog.Logger) (*app, error) {
	var resolver vizembed.FilterResolver
	if cmd.Manifest != "" || cmd.ResolverURL != "" {
		r, err := buildResolver(cmd.Manifest, cmd.ResolverURL, cmd.APIKey)
		if err != nil {
			return nil, err
		}
		resolver = r
	} else {
		logger.Warn("no manifest or resolver url configured, filters resolve to nothing")
		resolver = vizembed.NewDefinitionRegistry()
	}

	broadcast := vizembed.NewBroadcastHook()
	telemetry := vizembed.SlogTelemetry{Logger: logger, Level: slog.LevelDebug}
	service := vizembed.NewService(vizembed.Options{
		Resolver:    resolver,
		ResolverTTL: cmd.ResolverTTL,
		StateHook:   vizembed.MultiStateHook{broadcast},
		Telemetry:   telemetry,
		Logger:      logger,
		Watchdog:    cmd.Watchdog,
	})
	renderer, err := vizembed.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("vizctl: templates: %w", err)
	}
	return &app{
		service:   service,
		broadcast: broadcast,
		executor:  httpapi.NewServiceExecutor(service, telemetry),
		view:      vizembed.NewView(renderer),
	}, nil
}

func (cmd *serveCmd) Run(ctx context.Context) error {
	logger := slog.Default()
	a, err := cmd.build(logger)
	if err != nil {
		return err
	}
	logger.Info("serving embed routes", "addr", cmd.Addr, "base", cmd.BasePath, "transport", cmd.Transport)
	if cmd.Transport == "http" {
		return cmd.serveHTTP(ctx, a)
	}
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		View:      a.view,
		API:       a.executor,
		Broadcast: a.broadcast,
		Decoder:   a.service,
		BasePath:  cmd.BasePath,
	}); err != nil {
		return fmt.Errorf("vizctl: register routes: %w", err)
	}
	return server.Serve(cmd.Addr)
}

func (cmd *serveCmd) serveHTTP(ctx context.Context, a *app) error {
	handlers := &httpapi.Handlers{API: a.executor}
	srv := &http.Server{
		Addr:              cmd.Addr,
		Handler:           handlers.Mux(cmd.BasePath, a.broadcast),
		ReadHeaderTimeout: 10 * time.Second,
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
