package vizembed

import (
	"math"
	"strings"
)

// NormalizeBool coerces host supplied flag values. Hosts may pass flags as
// strings, so the literal "false" (any case) is false; everything else follows
// the usual truthiness rules: nil, false, zero, NaN and "" are false.
func NormalizeBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if strings.EqualFold(v, "false") {
			return false
		}
		return v != ""
	case int:
		return v != 0
	case int8:
		return v != 0
	case int16:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case uint:
		return v != 0
	case uint8:
		return v != 0
	case uint16:
		return v != 0
	case uint32:
		return v != 0
	case uint64:
		return v != 0
	case float32:
		return v != 0 && !math.IsNaN(float64(v))
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return true
	}
}
