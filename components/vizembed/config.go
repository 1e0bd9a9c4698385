package vizembed

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultHeight is used when the host does not provide a display height.
const DefaultHeight = 550

// Configuration is the host supplied widget configuration.
type Configuration struct {
	LoadURL             string `json:"load_url" yaml:"load_url"`
	Height              int    `json:"height" yaml:"height"`
	ShowTabs            bool   `json:"show_tabs" yaml:"show_tabs"`
	ShowToolbar         bool   `json:"show_toolbar" yaml:"show_toolbar"`
	FilterOnRecordID    bool   `json:"filter_on_record_id" yaml:"filter_on_record_id"`
	AdvancedFilterName  string `json:"advanced_filter_name,omitempty" yaml:"advanced_filter_name,omitempty"`
	AdvancedFilterValue string `json:"advanced_filter_value,omitempty" yaml:"advanced_filter_value,omitempty"`
	RecordID            string `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	ObjectType          string `json:"object_type,omitempty" yaml:"object_type,omitempty"`
	FilterDefinition    string `json:"filter_definition,omitempty" yaml:"filter_definition,omitempty"`
}

func (c Configuration) height() int {
	if c.Height <= 0 {
		return DefaultHeight
	}
	return c.Height
}

// ConfigurationSchema describes the raw host configuration map. Flags accept
// booleans or strings so string attributes from the host pass validation.
var ConfigurationSchema = map[string]any{
	"type":     "object",
	"required": []string{"load_url"},
	"properties": map[string]any{
		"load_url":              map[string]any{"type": "string"},
		"height":                map[string]any{"type": []string{"integer", "number", "string"}},
		"show_tabs":             flagSchema(),
		"show_toolbar":          flagSchema(),
		"filter_on_record_id":   flagSchema(),
		"advanced_filter_name":  map[string]any{"type": "string"},
		"advanced_filter_value": map[string]any{"type": "string"},
		"record_id":             map[string]any{"type": "string"},
		"object_type":           map[string]any{"type": "string"},
		"filter_definition":     map[string]any{"type": "string"},
	},
}

func flagSchema() map[string]any {
	return map[string]any{"type": []string{"boolean", "string", "integer", "number", "null"}}
}

// DecodeConfiguration validates raw against ConfigurationSchema and converts it
// into a Configuration, coercing flags with NormalizeBool.
func DecodeConfiguration(validator ConfigValidator, raw map[string]any) (Configuration, error) {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	if err := validator.Validate("vizembed.configuration", ConfigurationSchema, raw); err != nil {
		return Configuration{}, err
	}
	height, err := parseHeight(raw["height"])
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{
		LoadURL:             stringValue(raw["load_url"]),
		Height:              height,
		ShowTabs:            NormalizeBool(raw["show_tabs"]),
		ShowToolbar:         NormalizeBool(raw["show_toolbar"]),
		FilterOnRecordID:    NormalizeBool(raw["filter_on_record_id"]),
		AdvancedFilterName:  stringValue(raw["advanced_filter_name"]),
		AdvancedFilterValue: stringValue(raw["advanced_filter_value"]),
		RecordID:            stringValue(raw["record_id"]),
		ObjectType:          stringValue(raw["object_type"]),
		FilterDefinition:    stringValue(raw["filter_definition"]),
	}, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func parseHeight(v any) (int, error) {
	switch h := v.(type) {
	case nil:
		return DefaultHeight, nil
	case int:
		return positiveHeight(h)
	case int64:
		return positiveHeight(int(h))
	case float64:
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return 0, fmt.Errorf("vizembed: height %v is not a number", h)
		}
		return positiveHeight(int(h))
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(h), "px")
		if trimmed == "" {
			return DefaultHeight, nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("vizembed: parse height %q: %w", h, err)
		}
		return positiveHeight(n)
	default:
		return 0, fmt.Errorf("vizembed: unsupported height type %T", v)
	}
}

func positiveHeight(h int) (int, error) {
	if h <= 0 {
		return 0, fmt.Errorf("vizembed: height must be positive, got %d", h)
	}
	return h, nil
}
