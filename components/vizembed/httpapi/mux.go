package httpapi

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-vizembed/components/vizembed"
)

// Mux mounts the handlers on a net/http ServeMux under base. When hook is
// set, state events are streamed over WebSocket and SSE.
func (h *Handlers) Mux(base string, hook *vizembed.BroadcastHook) *http.ServeMux {
	base = "/" + strings.Trim(base, "/")
	if base == "/" {
		base = ""
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+base+"/embed", h.HandleEmbed)
	mux.HandleFunc("POST "+base+"/filters", h.HandleResolveFilters)
	mux.HandleFunc("GET "+base+"/mounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleMountState(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+base+"/mounts/{id}/configure", func(w http.ResponseWriter, r *http.Request) {
		h.HandleConfigure(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST "+base+"/mounts/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		h.HandlePostMessage(w, r, r.PathValue("id"))
	})
	if hook != nil {
		mux.HandleFunc("GET "+base+"/ws", hook.ServeWebSocket)
		mux.HandleFunc("GET "+base+"/events", hook.ServeSSE)
	}
	return mux
}
