package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-vizembed/components/vizembed"
	"github.com/goliatone/go-vizembed/components/vizembed/commands"
	"github.com/goliatone/go-vizembed/components/vizembed/httpapi"
	"github.com/goliatone/go-vizembed/components/vizembed/queries"
)

// Config wires go-router with the embed view, APIs, and state broadcasts.
type Config[T any] struct {
	Router    router.Router[T]
	View      *vizembed.View
	API       httpapi.Executor
	Broadcast *vizembed.BroadcastHook
	Decoder   ConfigDecoder
	BasePath  string
	Routes    RouteConfig
}

// ConfigDecoder turns raw query configuration into a Configuration.
// *vizembed.Service satisfies it with its cached schema validator.
type ConfigDecoder interface {
	DecodeConfiguration(raw map[string]any) (vizembed.Configuration, error)
}

type schemaDecoder struct {
	validator vizembed.ConfigValidator
}

func (d schemaDecoder) DecodeConfiguration(raw map[string]any) (vizembed.Configuration, error) {
	return vizembed.DecodeConfiguration(d.validator, raw)
}

// RouteConfig customizes the relative paths used for embed endpoints.
type RouteConfig struct {
	HTML      string
	Embed     string
	Filters   string
	MountID   string
	Configure string
	Messages  string
	WebSocket string
}

// configKeys are the host configuration fields accepted as query parameters
// by the HTML route.
var configKeys = []string{
	"height",
	"show_tabs",
	"show_toolbar",
	"filter_on_record_id",
	"advanced_filter_name",
	"advanced_filter_value",
	"record_id",
	"object_type",
	"filter_definition",
}

// Register mounts embed routes (HTML, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api executor is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/viz"
	}
	group := cfg.Router.Group(base)

	if cfg.View != nil {
		decoder := cfg.Decoder
		if decoder == nil {
			decoder = schemaDecoder{validator: vizembed.NewJSONSchemaValidator()}
		}
		registerHTML(group, cfg.View, decoder, cfg.API, routes.HTML)
	}
	registerAPI(group, cfg.API, routes)
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerHTML[T any](r router.Router[T], view *vizembed.View, decoder ConfigDecoder, api httpapi.Executor, path string) {
	r.Get(path, router.WrapHandler(func(ctx router.Context) error {
		query := func(key string) string { return ctx.Query(key) }
		page, err := embedPage(ctx.Context(), view, decoder, api, query, ctx.Header("User-Agent"))
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(page)
	}))
}

// embedPage renders the embed view for a query. Decode and validation
// failures render the error view; anything else is returned.
func embedPage(ctx context.Context, view *vizembed.View, decoder ConfigDecoder, api httpapi.Executor, query func(string) string, userAgent string) ([]byte, error) {
	cfg, err := decoder.DecodeConfiguration(RawConfigFromQuery(query))
	var plan vizembed.EmbedPlan
	if err == nil {
		width, _ := strconv.Atoi(strings.TrimSpace(query("container_width")))
		plan, err = api.Plan(ctx, vizembed.PlanRequest{
			Config:         cfg,
			ContainerWidth: width,
			UserAgent:      userAgent,
		})
		var cfgErr *vizembed.ConfigurationError
		if err != nil && !errors.As(err, &cfgErr) {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := view.Render(vizembed.ModelFromPlan(strings.TrimSpace(query("mount_id")), cfg, plan, err), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Embed, router.WrapHandler(func(ctx router.Context) error {
		var payload vizembed.PlanRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if payload.UserAgent == "" {
			payload.UserAgent = ctx.Header("User-Agent")
		}
		plan, err := api.Plan(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, plan)
	}))

	r.Post(routes.Filters, router.WrapHandler(func(ctx router.Context) error {
		var payload vizembed.FilterRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		res, err := api.ResolveFilters(ctx.Context(), payload)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		if res.Filters == nil {
			res.Filters = []vizembed.FilterDescriptor{}
		}
		return ctx.JSON(http.StatusOK, res)
	}))

	r.Get(routes.MountID, router.WrapHandler(func(ctx router.Context) error {
		state, err := api.MountState(ctx.Context(), queries.MountStateInput{MountID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, state)
	}))

	r.Post(routes.Configure, router.WrapHandler(func(ctx router.Context) error {
		var raw map[string]any
		if err := json.Unmarshal(ctx.Body(), &raw); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := commands.ConfigureMountInput{MountID: ctx.Param("id"), Raw: raw}
		if err := api.Configure(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "configured"})
	}))

	r.Post(routes.Messages, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.PostMessageInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.MountID = ctx.Param("id")
		if err := api.PostMessage(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "delivered"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *vizembed.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// RawConfigFromQuery builds a raw host configuration from query parameters.
// load_url is always present so a missing link surfaces as a validation
// diagnostic rather than a schema failure.
func RawConfigFromQuery(query func(string) string) map[string]any {
	raw := map[string]any{"load_url": query("load_url")}
	for _, key := range configKeys {
		if value := query(key); value != "" {
			raw[key] = value
		}
	}
	return raw
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/"
	}
	if routes.Embed == "" {
		routes.Embed = "/embed"
	}
	if routes.Filters == "" {
		routes.Filters = "/filters"
	}
	if routes.MountID == "" {
		routes.MountID = "/mounts/:id"
	}
	if routes.Configure == "" {
		routes.Configure = "/mounts/:id/configure"
	}
	if routes.Messages == "" {
		routes.Messages = "/mounts/:id/messages"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
