package vizembed

import "errors"

var (
	errMissingLoader    = errors.New("vizembed: library loader not configured")
	errMissingLibrary   = errors.New("vizembed: library loader returned no library")
	errMissingResolver  = errors.New("vizembed: filter resolver not configured")
	errMissingWorkbook  = errors.New("vizembed: workbook handle is not available")
	errMissingSheet     = errors.New("vizembed: active sheet is not available")
	errStalePass        = errors.New("vizembed: filter pass superseded by a newer render")
	errControllerClosed = errors.New("vizembed: controller is not running")
)

// ConfigurationError reports an invalid load URL or host configuration. The
// message is the user facing diagnostic.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// InstantiationError wraps a failure raised while constructing the widget.
// Error returns the underlying message verbatim.
type InstantiationError struct {
	Err error
}

func (e *InstantiationError) Error() string {
	if e.Err == nil {
		return "vizembed: widget construction failed"
	}
	return e.Err.Error()
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}
