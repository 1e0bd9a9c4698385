package vizembed

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// MobileHostMarker identifies the wrapped mobile shell in the user agent.
	MobileHostMarker = "SalesforceMobileSDK"
	// MobileLabelPrefix prefixes the device label sent to the visualization server.
	MobileLabelPrefix = "SFMobileApp"
)

var (
	deviceIDPattern = regexp.MustCompile(`uid_([\w|-]+)`)
	platformPattern = regexp.MustCompile(`(iPhone|Android|iPad)`)
)

// DeviceDetector derives the DeviceContext from a user agent string.
type DeviceDetector struct {
	// NewID generates a device id when the user agent carries none.
	NewID func() string
}

// NewDeviceDetector returns a detector that generates random v4 ids.
func NewDeviceDetector() *DeviceDetector {
	return &DeviceDetector{NewID: RandomDeviceID}
}

// Detect inspects userAgent. Only user agents containing MobileHostMarker
// produce a mobile context; all others return the zero value.
func (d *DeviceDetector) Detect(userAgent string) DeviceContext {
	if !strings.Contains(userAgent, MobileHostMarker) {
		return DeviceContext{}
	}
	device := DeviceContext{IsMobileHost: true, DeviceLabel: MobileLabelPrefix}
	if m := deviceIDPattern.FindStringSubmatch(userAgent); m != nil {
		device.DeviceID = m[1]
	} else {
		device.DeviceID = d.newID()
	}
	if m := platformPattern.FindStringSubmatch(userAgent); m != nil {
		device.DeviceLabel = MobileLabelPrefix + "_" + m[1]
	}
	return device
}

func (d *DeviceDetector) newID() string {
	if d == nil || d.NewID == nil {
		return RandomDeviceID()
	}
	return d.NewID()
}

// RandomDeviceID returns a random version 4 UUID. Its variant nibble is always
// one of 8, 9, a or b.
func RandomDeviceID() string {
	return uuid.NewString()
}
