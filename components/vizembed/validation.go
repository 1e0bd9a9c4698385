package vizembed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Diagnostics shown to the user when the load URL is rejected.
const (
	MessageMissingURL   = "Invalid URL. A link to the view is required."
	MessageInvalidURL   = "Invalid URL."
	MessageHTTPSOnly    = "Invalid URL. Make sure the link to the view is using HTTPS."
	MessageShareLinkURL = "Invalid URL. Enter the link for a view. Click Copy Link to copy the URL from the Share View dialog box. The link for the view must not include a '#' after the name of the server."
)

// ValidationOutcome is the result of validating a load URL. Valid is false
// whenever Err is set.
type ValidationOutcome struct {
	Valid bool
	Err   *ConfigurationError
}

// Error returns the outcome error, nil when valid.
func (o ValidationOutcome) Error() error {
	if o.Err == nil {
		return nil
	}
	return o.Err
}

// ValidateLoadURL checks that raw is an absolute https URL that is not a
// fragment style share link.
func ValidateLoadURL(raw string) ValidationOutcome {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid(MessageMissingURL)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(MessageInvalidURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return invalid(MessageHTTPSOnly)
	}
	if strings.HasPrefix(pathAfterOrigin(u), "/#/") {
		return invalid(MessageShareLinkURL)
	}
	return ValidationOutcome{Valid: true}
}

func invalid(message string) ValidationOutcome {
	return ValidationOutcome{Err: &ConfigurationError{Message: message}}
}

// pathAfterOrigin returns everything after scheme://[userinfo@]host.
func pathAfterOrigin(u *url.URL) string {
	s := u.String()
	idx := strings.Index(s, "://")
	if idx < 0 {
		return s
	}
	rest := s[idx+3:]
	if at := strings.Index(rest, "@"); at >= 0 && u.User != nil {
		rest = rest[at+1:]
	}
	rest = strings.TrimPrefix(rest, u.Host)
	if !strings.HasPrefix(rest, "/") {
		// browsers serialize an empty path as "/"
		rest = "/" + rest
	}
	return rest
}

// ConfigValidator validates raw host configuration payloads.
type ConfigValidator interface {
	Validate(name string, schema map[string]any, config map[string]any) error
}

// JSONSchemaValidator compiles schemas once per name and validates configuration maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures config satisfies schema. Schemas are cached by name.
func (v *JSONSchemaValidator) Validate(name string, schema map[string]any, config map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	compiled, err := v.schemaFor(name, schema)
	if err != nil {
		return err
	}
	var payload map[string]any
	if config == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("vizembed: marshal config for %s: %w", name, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("vizembed: normalize config for %s: %w", name, err)
		}
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("vizembed: configuration for %s failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string, schema map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("vizembed: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("vizembed: load schema %s: %w", name, err)
	}
	compiled, err = compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("vizembed: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
