package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-vizembed/components/vizembed"
)

type defineCmd struct {
	Manifest    string   `required:"" type:"path" help:"Path to the filter manifest YAML file to update."`
	Name        string   `required:"" help:"Display name of the definition."`
	Code        string   `help:"Definition code (defaults to the snake cased name)."`
	Description string   `help:"One-line description."`
	Worksheet   string   `help:"Worksheet to activate before filtering."`
	Filter      []string `help:"Static filter as Name=v1|v2 (repeatable)."`
	Select      []string `help:"Mark selection as Name=v1|v2 (repeatable)."`
	RecordField []string `name:"record-field" help:"Field filtered by the record id in context (repeatable)."`
	Overwrite   bool     `help:"Replace an existing definition with the same code."`
}

func (cmd *defineCmd) Run(_ context.Context) error {
	def, err := cmd.definition()
	if err != nil {
		return err
	}
	path, err := filepath.Abs(cmd.Manifest)
	if err != nil {
		return fmt.Errorf("vizctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}
	if err := upsertDefinition(doc, def, cmd.Overwrite); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "✓ Wrote %s to %s\n", def.Code, path)
	return nil
}

func (cmd *defineCmd) definition() (vizembed.FilterDefinition, error) {
	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		code = strcase.ToSnake(cmd.Name)
	}
	def := vizembed.FilterDefinition{
		Code:        code,
		Name:        cmd.Name,
		Description: cmd.Description,
		Worksheet:   cmd.Worksheet,
	}
	for _, raw := range cmd.Filter {
		rule, err := parseRule(raw)
		if err != nil {
			return def, err
		}
		def.Filters = append(def.Filters, rule)
	}
	for _, raw := range cmd.Select {
		rule, err := parseRule(raw)
		if err != nil {
			return def, err
		}
		rule.SelectionOnly = true
		def.Filters = append(def.Filters, rule)
	}
	for _, field := range cmd.RecordField {
		def.Filters = append(def.Filters, vizembed.FilterRule{
			Name:        strings.TrimSpace(field),
			ValueSource: vizembed.ValueSourceRecordID,
		})
	}
	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

func parseRule(raw string) (vizembed.FilterRule, error) {
	name, values, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return vizembed.FilterRule{}, fmt.Errorf("vizctl: filter %q must look like Name=value", raw)
	}
	rule := vizembed.FilterRule{Name: name, ValueSource: vizembed.ValueSourceStatic}
	for _, v := range strings.Split(values, "|") {
		if v = strings.TrimSpace(v); v != "" {
			rule.Values = append(rule.Values, v)
		}
	}
	return rule, nil
}

func upsertDefinition(doc *vizembed.FilterManifestDocument, def vizembed.FilterDefinition, overwrite bool) error {
	replaced := false
	for idx := range doc.Definitions {
		if doc.Definitions[idx].Code != def.Code {
			continue
		}
		if !overwrite {
			return fmt.Errorf("vizctl: manifest already defines %s (use --overwrite to replace)", def.Code)
		}
		doc.Definitions[idx] = def
		replaced = true
		break
	}
	if !replaced {
		doc.Definitions = append(doc.Definitions, def)
	}
	sort.Slice(doc.Definitions, func(i, j int) bool {
		return doc.Definitions[i].Code < doc.Definitions[j].Code
	})
	return nil
}

func loadOrInitManifest(path string) (*vizembed.FilterManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &vizembed.FilterManifestDocument{
				Version:     vizembed.ManifestVersion,
				Definitions: []vizembed.FilterDefinition{},
				Source:      path,
			}, nil
		}
		return nil, fmt.Errorf("vizctl: stat manifest: %w", err)
	}
	return vizembed.ReadManifest(path)
}

func writeManifest(path string, doc *vizembed.FilterManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("vizctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("vizctl: create manifest %s: %w", path, err)
	}
	defer file.Close()
	return vizembed.WriteManifest(file, doc)
}
