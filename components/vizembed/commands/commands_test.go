package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	vizembed "github.com/goliatone/go-vizembed/components/vizembed"
)

func TestConfigureMountCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewConfigureMountCommand(service, telemetry)
	cfg := vizembed.Configuration{LoadURL: "https://viz.example.com/views/A"}
	if err := cmd.Execute(context.Background(), ConfigureMountInput{MountID: "m1", Config: cfg}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.configureCalls != 1 || service.lastConfig != cfg {
		t.Fatalf("expected configure call with config, got %#v", service.lastConfig)
	}
	if service.decodeCalls != 0 {
		t.Fatalf("expected no decode for typed config")
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
}

func TestConfigureMountCommandDecodesRaw(t *testing.T) {
	service := &stubService{}
	cmd := NewConfigureMountCommand(service, nil)
	raw := map[string]any{"load_url": "https://viz.example.com/views/B"}
	if err := cmd.Execute(context.Background(), ConfigureMountInput{MountID: "m1", Raw: raw}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.decodeCalls != 1 || service.lastConfig.LoadURL != "https://viz.example.com/views/B" {
		t.Fatalf("expected decoded config, got %#v", service.lastConfig)
	}
}

func TestConfigureMountCommandValidation(t *testing.T) {
	if err := NewConfigureMountCommand(nil, nil).Execute(context.Background(), ConfigureMountInput{MountID: "m"}); err == nil {
		t.Fatalf("expected missing service error")
	}
	if err := NewConfigureMountCommand(&stubService{}, nil).Execute(context.Background(), ConfigureMountInput{}); err == nil {
		t.Fatalf("expected missing mount id error")
	}
	service := &stubService{decodeErr: errors.New("bad config")}
	err := NewConfigureMountCommand(service, nil).Execute(context.Background(), ConfigureMountInput{MountID: "m", Raw: map[string]any{}})
	if err == nil || service.configureCalls != 0 {
		t.Fatalf("expected decode error to stop configure")
	}
}

func TestPostMessageCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewPostMessageCommand(service, nil)
	if err := cmd.Execute(context.Background(), PostMessageInput{MountID: "m1", Payload: "tableau.listening"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.messageCalls != 1 || service.lastPayload != "tableau.listening" {
		t.Fatalf("expected message call")
	}
	if err := cmd.Execute(context.Background(), PostMessageInput{}); err == nil {
		t.Fatalf("expected missing mount id error")
	}
}

func TestUnmountCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewUnmountCommand(service, nil)
	if err := cmd.Execute(context.Background(), UnmountInput{MountID: "m1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.unmountCalls != 1 {
		t.Fatalf("expected unmount call")
	}
	if err := NewUnmountCommand(nil, nil).Execute(context.Background(), UnmountInput{}); err == nil {
		t.Fatalf("expected missing service error")
	}
}

func TestLoadFilterManifestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	body := "definitions:\n  - code: sales\n    worksheet: Detail\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	registry := vizembed.NewDefinitionRegistry()
	telemetry := &stubTelemetry{}
	cmd := NewLoadFilterManifestCommand(registry, telemetry)
	if err := cmd.Execute(context.Background(), LoadFilterManifestInput{Path: path}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if _, ok := registry.Definition("sales"); !ok {
		t.Fatalf("expected definition to be registered")
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
	if err := cmd.Execute(context.Background(), LoadFilterManifestInput{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

type stubService struct {
	decodeCalls    int
	configureCalls int
	messageCalls   int
	unmountCalls   int
	decodeErr      error
	lastConfig     vizembed.Configuration
	lastPayload    any
}

func (s *stubService) DecodeConfiguration(raw map[string]any) (vizembed.Configuration, error) {
	s.decodeCalls++
	if s.decodeErr != nil {
		return vizembed.Configuration{}, s.decodeErr
	}
	url, _ := raw["load_url"].(string)
	return vizembed.Configuration{LoadURL: url}, nil
}

func (s *stubService) Configure(_ context.Context, _ string, cfg vizembed.Configuration) error {
	s.configureCalls++
	s.lastConfig = cfg
	return nil
}

func (s *stubService) PostMessage(_ context.Context, _ string, payload any) error {
	s.messageCalls++
	s.lastPayload = payload
	return nil
}

func (s *stubService) Unmount(string) error {
	s.unmountCalls++
	return nil
}

type stubTelemetry struct {
	calls int
}

func (s *stubTelemetry) Record(context.Context, string, map[string]any) {
	s.calls++
}
