package vizembed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter keys understood by the visualization server.
const (
	ParamSize       = ":size"
	ParamUseRT      = ":use_rt"
	ParamClientID   = ":client_id"
	ParamDeviceID   = ":device_id"
	ParamDeviceName = ":device_name"

	// DefaultClientID is sent as ParamClientID for mobile hosts.
	DefaultClientID = "TableauVizLWC"

	recordFilterSuffix = " ID"
)

// QueryParam is a single appended key/value pair.
type QueryParam struct {
	Key   string
	Value string
}

// QueryParams keeps parameters in insertion order. Duplicate keys are allowed.
type QueryParams []QueryParam

// Add appends a parameter.
func (p *QueryParams) Add(key, value string) {
	*p = append(*p, QueryParam{Key: key, Value: value})
}

// Encode form encodes the parameters without reordering them. Colons and
// commas are left literal; both are legal in a query and the server's own
// directives (":size=800,600") are written that way.
func (p QueryParams) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(queryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(queryEscape(param.Value))
	}
	return b.String()
}

var keepLiteral = strings.NewReplacer("%3A", ":", "%2C", ",")

func queryEscape(s string) string {
	return keepLiteral.Replace(url.QueryEscape(s))
}

// RecordFilterKey returns the in-context filter key for an object type, e.g. "Account ID".
func RecordFilterKey(objectType string) string {
	return objectType + recordFilterSuffix
}

// URLBuilder composes the final load URL.
type URLBuilder struct {
	ClientID string
}

// NewURLBuilder returns a builder using DefaultClientID.
func NewURLBuilder() *URLBuilder {
	return &URLBuilder{ClientID: DefaultClientID}
}

// Params returns the parameters appended for the given inputs, in order.
func (b *URLBuilder) Params(containerWidth, height int, cfg Configuration, device DeviceContext) QueryParams {
	var params QueryParams
	params.Add(ParamSize, strconv.Itoa(containerWidth)+","+strconv.Itoa(height))
	if cfg.FilterOnRecordID && cfg.ObjectType != "" {
		params.Add(RecordFilterKey(cfg.ObjectType), cfg.RecordID)
	}
	if cfg.AdvancedFilterName != "" && cfg.AdvancedFilterValue != "" {
		params.Add(cfg.AdvancedFilterName, cfg.AdvancedFilterValue)
	}
	if device.IsMobileHost {
		params.Add(ParamUseRT, "y")
		params.Add(ParamClientID, b.clientID())
		params.Add(ParamDeviceID, device.DeviceID)
		params.Add(ParamDeviceName, device.DeviceLabel)
	}
	return params
}

// Build appends the size, record, advanced filter and device parameters to
// base. Existing query parameters are kept as they are.
func (b *URLBuilder) Build(base string, containerWidth, height int, cfg Configuration, device DeviceContext) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("vizembed: parse load url: %w", err)
	}
	appended := b.Params(containerWidth, height, cfg, device).Encode()
	switch {
	case u.RawQuery == "":
		u.RawQuery = appended
	case strings.HasSuffix(u.RawQuery, "&"):
		u.RawQuery += appended
	default:
		u.RawQuery += "&" + appended
	}
	u.ForceQuery = false
	return u.String(), nil
}

func (b *URLBuilder) clientID() string {
	if b == nil || b.ClientID == "" {
		return DefaultClientID
	}
	return b.ClientID
}

// BuildURL is a convenience wrapper around a default URLBuilder.
func BuildURL(base string, containerWidth, height int, cfg Configuration, device DeviceContext) (string, error) {
	return NewURLBuilder().Build(base, containerWidth, height, cfg, device)
}
