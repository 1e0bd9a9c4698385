package vizembed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// FilterPass is one application of resolved filters to a rendered widget.
type FilterPass struct {
	Workbook           Workbook
	Sheet              Sheet
	FilterDefinitionID string
	RecordID           string
	SelectionMode      UpdateMode
	FilterMode         UpdateMode
	// Current reports whether the render that started the pass is still live.
	Current func() bool
	// OnSheetActivated receives the refreshed active sheet after a worksheet switch.
	OnSheetActivated func(Sheet)
}

func (p FilterPass) current() bool {
	return p.Current == nil || p.Current()
}

// FilterApplierOptions configures a FilterApplier.
type FilterApplierOptions struct {
	Resolver  FilterResolver
	Telemetry Telemetry
	Logger    *slog.Logger
}

// FilterApplier resolves filters and applies them to the active sheet.
type FilterApplier struct {
	resolver  FilterResolver
	telemetry Telemetry
	logger    *slog.Logger
}

// NewFilterApplier builds an applier with safe defaults.
func NewFilterApplier(opts FilterApplierOptions) *FilterApplier {
	return &FilterApplier{
		resolver:  opts.Resolver,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    normalizeLogger(opts.Logger, "vizembed.filters"),
	}
}

// Apply resolves the filters for the pass, activates the requested worksheet
// and issues every filter with replace semantics. Filters are issued
// concurrently with no ordering between them. Filters already applied are not
// rolled back when another one fails; the first failure is returned.
func (a *FilterApplier) Apply(ctx context.Context, pass FilterPass) (Sheet, error) {
	if a.resolver == nil {
		return nil, errMissingResolver
	}
	if pass.Workbook == nil {
		return nil, errMissingWorkbook
	}
	resolution, err := a.resolver.ResolveFilters(ctx, FilterRequest{
		FilterDefinitionID: pass.FilterDefinitionID,
		RecordID:           pass.RecordID,
	})
	if err != nil {
		a.recordError(ctx, pass, "resolve", err)
		return nil, fmt.Errorf("vizembed: resolve filters for %q: %w", pass.FilterDefinitionID, err)
	}
	if !pass.current() {
		return nil, errStalePass
	}

	sheet := pass.Sheet
	if resolution.Worksheet != "" {
		if err := pass.Workbook.ActivateSheet(ctx, resolution.Worksheet); err != nil {
			a.recordError(ctx, pass, "activate", err)
			return nil, fmt.Errorf("vizembed: activate sheet %q: %w", resolution.Worksheet, err)
		}
		if !pass.current() {
			return nil, errStalePass
		}
		sheet = pass.Workbook.ActiveSheet()
		if pass.OnSheetActivated != nil {
			pass.OnSheetActivated(sheet)
		}
	}
	if len(resolution.Filters) == 0 {
		return sheet, nil
	}
	if sheet == nil {
		return nil, errMissingSheet
	}

	var group errgroup.Group
	for _, filter := range resolution.Filters {
		group.Go(func() error {
			if !pass.current() {
				return errStalePass
			}
			if err := a.applyOne(ctx, sheet, filter, pass); err != nil {
				a.recordError(ctx, pass, filter.Name, err)
				return fmt.Errorf("vizembed: apply filter %q: %w", filter.Name, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return sheet, err
	}
	a.telemetry.Record(ctx, "vizembed.filters.applied", map[string]any{
		"filter_definition": pass.FilterDefinitionID,
		"worksheet":         resolution.Worksheet,
		"count":             len(resolution.Filters),
	})
	return sheet, nil
}

func (a *FilterApplier) applyOne(ctx context.Context, sheet Sheet, filter FilterDescriptor, pass FilterPass) error {
	values := append([]string(nil), filter.Values...)
	if filter.SelectionOnly {
		return sheet.SelectMarks(ctx, filter.Name, values, pass.SelectionMode)
	}
	return sheet.ApplyFilter(ctx, filter.Name, values, pass.FilterMode)
}

func (a *FilterApplier) recordError(ctx context.Context, pass FilterPass, step string, err error) {
	a.logger.WarnContext(ctx, "filter step failed",
		"filter_definition", pass.FilterDefinitionID,
		"step", step,
		"error", err,
	)
	a.telemetry.Record(ctx, "vizembed.filters.error", map[string]any{
		"filter_definition": pass.FilterDefinitionID,
		"step":              step,
		"error":             err.Error(),
	})
}
