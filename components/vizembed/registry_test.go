package vizembed

import (
	"context"
	"testing"
)

func TestDefinitionRegistryResolve(t *testing.T) {
	registry := NewDefinitionRegistry()
	if err := registry.Register(FilterDefinition{
		Code:      "case_detail",
		Worksheet: "Cases",
		Filters:   []FilterRule{{Name: "Case ID", ValueSource: ValueSourceRecordID}},
	}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	res, err := registry.ResolveFilters(context.Background(), FilterRequest{FilterDefinitionID: "case_detail", RecordID: "500xx"})
	if err != nil {
		t.Fatalf("ResolveFilters returned error: %v", err)
	}
	if res.Worksheet != "Cases" || len(res.Filters) != 1 || res.Filters[0].Values[0] != "500xx" {
		t.Fatalf("unexpected resolution %#v", res)
	}
}

func TestDefinitionRegistryEmptyDefinition(t *testing.T) {
	res, err := NewDefinitionRegistry().ResolveFilters(context.Background(), FilterRequest{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Filters == nil || len(res.Filters) != 0 {
		t.Fatalf("expected empty filter list, got %#v", res.Filters)
	}
}

func TestDefinitionRegistryUnknownDefinition(t *testing.T) {
	_, err := NewDefinitionRegistry().ResolveFilters(context.Background(), FilterRequest{FilterDefinitionID: "nope"})
	if err == nil {
		t.Fatalf("expected error for unknown definition")
	}
}

func TestDefinitionRegistryRejectsInvalid(t *testing.T) {
	registry := NewDefinitionRegistry()
	if err := registry.Register(FilterDefinition{}); err == nil {
		t.Fatalf("expected missing code error")
	}
	if err := registry.LoadManifestDocument(nil); err == nil {
		t.Fatalf("expected nil document error")
	}
}

func TestDefinitionRegistryDefinitionsSorted(t *testing.T) {
	registry := NewDefinitionRegistry()
	for _, code := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(FilterDefinition{Code: code}); err != nil {
			t.Fatalf("Register(%s) returned error: %v", code, err)
		}
	}
	defs := registry.Definitions()
	if len(defs) != 3 || defs[0].Code != "alpha" || defs[2].Code != "zeta" {
		t.Fatalf("unexpected order %#v", defs)
	}
	if _, ok := registry.Definition("mid"); !ok {
		t.Fatalf("expected mid definition")
	}
}
