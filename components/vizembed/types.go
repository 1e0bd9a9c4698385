package vizembed

import "context"

// UpdateMode is the library specific token passed to filter and selection updates.
type UpdateMode string

// Library is the capability exposed by the visualization client library once loaded.
// Implementations wrap the provider's widget constructor and its update mode constants.
type Library interface {
	ConstructWidget(container Container, url string, opts WidgetOptions) (Widget, error)
	SelectionReplaceMode() UpdateMode
	FilterReplaceMode() UpdateMode
}

// LibraryLoader makes the client library available. Load blocks until the asset is ready.
type LibraryLoader interface {
	Load(ctx context.Context) (Library, error)
}

// LibraryLoaderFunc adapts a function into a LibraryLoader.
type LibraryLoaderFunc func(ctx context.Context) (Library, error)

// Load implements LibraryLoader.
func (f LibraryLoaderFunc) Load(ctx context.Context) (Library, error) {
	return f(ctx)
}

// StaticLoader returns a loader for a library that is already present.
func StaticLoader(lib Library) LibraryLoader {
	return LibraryLoaderFunc(func(context.Context) (Library, error) {
		return lib, nil
	})
}

// Container is the host element the widget attaches to.
type Container interface {
	// Width reports the rendered width in pixels at the time of the call.
	Width() int
	SetHeight(px int)
}

// Widget is a single embedded visualization instance.
type Widget interface {
	Workbook() Workbook
	Dispose()
}

// Workbook groups the sheets of a loaded widget.
type Workbook interface {
	ActiveSheet() Sheet
	ActivateSheet(ctx context.Context, name string) error
}

// Sheet is the target of filter and selection updates.
type Sheet interface {
	Name() string
	ApplyFilter(ctx context.Context, name string, values []string, mode UpdateMode) error
	SelectMarks(ctx context.Context, name string, values []string, mode UpdateMode) error
}

// WidgetOptions is the options bag handed to the widget constructor.
type WidgetOptions struct {
	HideTabs           bool
	HideToolbar        bool
	ToolbarPosition    string
	Height             string
	Width              string
	OnFirstInteractive func()
}

// FilterResolver resolves the filters to apply for a filter definition and record.
type FilterResolver interface {
	ResolveFilters(ctx context.Context, req FilterRequest) (FilterResolution, error)
}

// FilterResolverFunc adapts a function into a FilterResolver.
type FilterResolverFunc func(ctx context.Context, req FilterRequest) (FilterResolution, error)

// ResolveFilters implements FilterResolver.
func (f FilterResolverFunc) ResolveFilters(ctx context.Context, req FilterRequest) (FilterResolution, error) {
	return f(ctx, req)
}

// FilterRequest identifies the filter definition and the record in context.
type FilterRequest struct {
	FilterDefinitionID string `json:"filter_definition_id"`
	RecordID           string `json:"record_id"`
}

// FilterDescriptor is a single named filter returned by the resolver.
// SelectionOnly descriptors are applied as mark selections instead of value filters.
type FilterDescriptor struct {
	Name          string   `json:"name" yaml:"name"`
	Values        []string `json:"values" yaml:"values"`
	SelectionOnly bool     `json:"selection_only" yaml:"selection_only"`
}

// FilterResolution is the resolver response. A non empty Worksheet must be
// activated before any filter is applied.
type FilterResolution struct {
	Worksheet string             `json:"worksheet,omitempty"`
	Filters   []FilterDescriptor `json:"filters"`
}

// DeviceContext describes the host device when embedded in the mobile shell.
type DeviceContext struct {
	IsMobileHost bool   `json:"is_mobile_host"`
	DeviceID     string `json:"device_id,omitempty"`
	DeviceLabel  string `json:"device_label,omitempty"`
}
