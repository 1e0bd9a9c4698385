package vizembed

import (
	"context"
	"testing"

	core "github.com/goliatone/go-vizembed/components/vizembed"
)

func TestFacadeProxiesService(t *testing.T) {
	service := NewService(Options{})
	plan, err := service.Plan(context.Background(), core.PlanRequest{
		Config:         Configuration{LoadURL: "https://viz.example.com/views/A", Height: 100},
		ContainerWidth: 50,
	})
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if plan.URL != "https://viz.example.com/views/A?:size=50,100" {
		t.Fatalf("unexpected url %s", plan.URL)
	}
	if NewController(ControllerOptions{ID: "m"}).ID() != "m" {
		t.Fatalf("expected controller id to be kept")
	}
	url, err := BuildURL("https://viz.example.com/views/A", 1, 2, Configuration{}, core.DeviceContext{})
	if err != nil || url != "https://viz.example.com/views/A?:size=1,2" {
		t.Fatalf("unexpected url %s (%v)", url, err)
	}
}
