package vizembed

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// Value sources for manifest filter rules.
const (
	ValueSourceStatic   = "static"
	ValueSourceRecordID = "record_id"
)

// FilterManifestDocument models a YAML/JSON manifest of filter definitions.
type FilterManifestDocument struct {
	Version     string             `json:"version" yaml:"version"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Definitions []FilterDefinition `json:"definitions" yaml:"definitions"`
	Source      string             `json:"-" yaml:"-"`
}

// FilterDefinition describes which worksheet to show and which filters to
// apply for a mounted widget.
type FilterDefinition struct {
	Code        string       `json:"code" yaml:"code"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Worksheet   string       `json:"worksheet,omitempty" yaml:"worksheet,omitempty"`
	Filters     []FilterRule `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// FilterRule is a manifest entry producing one FilterDescriptor.
type FilterRule struct {
	Name          string   `json:"name" yaml:"name"`
	Values        []string `json:"values,omitempty" yaml:"values,omitempty"`
	ValueSource   string   `json:"value_source,omitempty" yaml:"value_source,omitempty"`
	SelectionOnly bool     `json:"selection_only,omitempty" yaml:"selection_only,omitempty"`
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*FilterManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("vizembed: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("vizembed: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*FilterManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc FilterManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("vizembed: manifest is empty")
		}
		return nil, fmt.Errorf("vizembed: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteManifest encodes doc as YAML.
func WriteManifest(w io.Writer, doc *FilterManifestDocument) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("vizembed: write manifest: %w", err)
	}
	return encoder.Close()
}

// Validate ensures the manifest satisfies required fields.
func (doc *FilterManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("vizembed: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Definitions))
	for idx, def := range doc.Definitions {
		if def.Code == "" {
			return fmt.Errorf("vizembed: manifest definition at index %d is missing code", idx)
		}
		if _, exists := seen[def.Code]; exists {
			return fmt.Errorf("vizembed: manifest duplicates definition code %s", def.Code)
		}
		seen[def.Code] = struct{}{}
		if err := def.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the rules of a single definition.
func (def FilterDefinition) Validate() error {
	if def.Code == "" {
		return fmt.Errorf("vizembed: filter definition code is required")
	}
	for idx, rule := range def.Filters {
		if rule.Name == "" {
			return fmt.Errorf("vizembed: definition %s filter at index %d is missing name", def.Code, idx)
		}
		switch rule.ValueSource {
		case "", ValueSourceStatic, ValueSourceRecordID:
		default:
			return fmt.Errorf("vizembed: definition %s filter %s has unknown value_source %q", def.Code, rule.Name, rule.ValueSource)
		}
	}
	return nil
}

// Resolve turns the definition into a FilterResolution for recordID.
// Record bound rules are skipped when no record is in context.
func (def FilterDefinition) Resolve(recordID string) FilterResolution {
	res := FilterResolution{Worksheet: def.Worksheet, Filters: []FilterDescriptor{}}
	for _, rule := range def.Filters {
		values := append([]string(nil), rule.Values...)
		if rule.ValueSource == ValueSourceRecordID {
			if recordID == "" {
				continue
			}
			values = []string{recordID}
		}
		res.Filters = append(res.Filters, FilterDescriptor{
			Name:          rule.Name,
			Values:        values,
			SelectionOnly: rule.SelectionOnly,
		})
	}
	return res
}

func (doc *FilterManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}
