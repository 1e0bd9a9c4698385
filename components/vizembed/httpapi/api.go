package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-vizembed/components/vizembed"
	"github.com/goliatone/go-vizembed/components/vizembed/commands"
	"github.com/goliatone/go-vizembed/components/vizembed/queries"
)

// Handlers exposes HTTP endpoints backed by an Executor.
type Handlers struct {
	API Executor
}

// HandleEmbed plans an embed. The container width and user agent may come
// from the body; the request User-Agent header fills a missing one.
func (h *Handlers) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	var payload vizembed.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.UserAgent == "" {
		payload.UserAgent = r.UserAgent()
	}
	plan, err := h.API.Plan(r.Context(), payload)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handlers) HandleResolveFilters(w http.ResponseWriter, r *http.Request) {
	var payload vizembed.FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.API.ResolveFilters(r.Context(), payload)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	if res.Filters == nil {
		res.Filters = []vizembed.FilterDescriptor{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) HandleConfigure(w http.ResponseWriter, r *http.Request, mountID string) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input := commands.ConfigureMountInput{MountID: mountID, Raw: raw}
	if err := h.API.Configure(r.Context(), input); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandlePostMessage(w http.ResponseWriter, r *http.Request, mountID string) {
	var payload commands.PostMessageInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payload.MountID = mountID
	if err := h.API.PostMessage(r.Context(), payload); err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleMountState(w http.ResponseWriter, r *http.Request, mountID string) {
	state, err := h.API.MountState(r.Context(), queries.MountStateInput{MountID: mountID})
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var cfgErr *vizembed.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	case strings.Contains(err.Error(), "not found"):
		return http.StatusNotFound
	case strings.Contains(err.Error(), "required"), strings.Contains(err.Error(), "validation"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
