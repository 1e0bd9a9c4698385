package vizembed

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefinitionRegistry stores filter definitions and resolves them locally. It
// implements FilterResolver for hosts without a remote resolution service.
type DefinitionRegistry struct {
	mu          sync.RWMutex
	definitions map[string]FilterDefinition
}

// NewDefinitionRegistry builds an empty registry.
func NewDefinitionRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{definitions: map[string]FilterDefinition{}}
}

// Register stores or replaces a definition.
func (r *DefinitionRegistry) Register(def FilterDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// Definition fetches a definition by code.
func (r *DefinitionRegistry) Definition(code string) (FilterDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

// Definitions returns every registered definition sorted by code.
func (r *DefinitionRegistry) Definitions() []FilterDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]FilterDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// LoadManifestFile reads a manifest from disk and registers its definitions.
func (r *DefinitionRegistry) LoadManifestFile(path string) (*FilterManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions from a decoded manifest.
func (r *DefinitionRegistry) LoadManifestDocument(doc *FilterManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("vizembed: manifest document is nil")
	}
	for _, def := range doc.Definitions {
		if err := r.Register(def); err != nil {
			return fmt.Errorf("vizembed: register definition %s from %s: %w", def.Code, doc.Source, err)
		}
	}
	return nil
}

// ResolveFilters implements FilterResolver. An empty definition id resolves to
// no filters; an unknown one is an error.
func (r *DefinitionRegistry) ResolveFilters(_ context.Context, req FilterRequest) (FilterResolution, error) {
	if req.FilterDefinitionID == "" {
		return FilterResolution{Filters: []FilterDescriptor{}}, nil
	}
	def, ok := r.Definition(req.FilterDefinitionID)
	if !ok {
		return FilterResolution{}, fmt.Errorf("vizembed: filter definition %s not found", req.FilterDefinitionID)
	}
	return def.Resolve(req.RecordID), nil
}
