package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-vizembed/components/vizembed"
)

func TestMuxRoutesRequests(t *testing.T) {
	api := &stubExecutor{}
	mux := (&Handlers{API: api}).Mux("/viz/", vizembed.NewBroadcastHook())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viz/mounts/abc", nil))
	if rec.Code != http.StatusOK || api.stateInput.MountID != "abc" {
		t.Fatalf("expected mount state route, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/viz/mounts/abc/messages", strings.NewReader(`{"payload":"x"}`)))
	if rec.Code != http.StatusAccepted || api.message.MountID != "abc" {
		t.Fatalf("expected message route, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viz/embed", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET embed, got %d", rec.Code)
	}
}
