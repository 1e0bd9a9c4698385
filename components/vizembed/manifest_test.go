package vizembed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
name: sales filters
definitions:
  - code: sales_by_region
    name: Sales by region
    worksheet: Detail
    filters:
      - name: Region
        values: [West, East]
      - name: Account ID
        value_source: record_id
      - name: Segment
        values: [Enterprise]
        selection_only: true
  - code: overview
    name: Overview
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, doc.Version)
	require.Len(t, doc.Definitions, 2)

	def := doc.Definitions[0]
	assert.Equal(t, "sales_by_region", def.Code)
	assert.Equal(t, "Detail", def.Worksheet)
	require.Len(t, def.Filters, 3)
	assert.Equal(t, ValueSourceRecordID, def.Filters[1].ValueSource)
	assert.True(t, def.Filters[2].SelectionOnly)
}

func TestDecodeManifestRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"unknown field":  "definitions:\n  - code: a\n    bogus: true\n",
		"missing code":   "definitions:\n  - name: nameless\n",
		"duplicate code": "definitions:\n  - code: a\n  - code: a\n",
		"bad version":    "version: \"9\"\ndefinitions: []\n",
		"bad source":     "definitions:\n  - code: a\n    filters:\n      - name: x\n        value_source: cookie\n",
		"unnamed filter": "definitions:\n  - code: a\n    filters:\n      - values: [x]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(body))
			require.Error(t, err)
		})
	}
}

func TestFilterDefinitionResolve(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	def := doc.Definitions[0]

	res := def.Resolve("001xx")
	assert.Equal(t, FilterResolution{
		Worksheet: "Detail",
		Filters: []FilterDescriptor{
			{Name: "Region", Values: []string{"West", "East"}},
			{Name: "Account ID", Values: []string{"001xx"}},
			{Name: "Segment", Values: []string{"Enterprise"}, SelectionOnly: true},
		},
	}, res)

	res = def.Resolve("")
	require.Len(t, res.Filters, 2)
	assert.Equal(t, "Segment", res.Filters[1].Name)
}

func TestWriteManifestRoundTripsThroughRegistry(t *testing.T) {
	doc := &FilterManifestDocument{
		Version: ManifestVersion,
		Definitions: []FilterDefinition{
			{Code: "kpi", Name: "KPI", Worksheet: "Summary", Filters: []FilterRule{{Name: "Year", Values: []string{"2024"}}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, doc))

	path := filepath.Join(t.TempDir(), "filters.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	registry := NewDefinitionRegistry()
	loaded, err := registry.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Source)

	res, err := registry.ResolveFilters(context.Background(), FilterRequest{FilterDefinitionID: "kpi"})
	require.NoError(t, err)
	assert.Equal(t, "Summary", res.Worksheet)
	assert.Equal(t, []string{"2024"}, res.Filters[0].Values)
}

func TestReadManifestMissingFile(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
