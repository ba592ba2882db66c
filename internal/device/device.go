// Package device derives coarse client information from a User-Agent header.
package device

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Type is the form factor of the scanning device.
type Type string

const (
	Mobile  Type = "mobile"
	Tablet  Type = "tablet"
	Desktop Type = "desktop"
)

// Unknown is reported for any attribute that cannot be determined.
const Unknown = "Unknown"

// Info describes the device behind a request.
type Info struct {
	Type           Type   `json:"deviceType"`
	OS             string `json:"os"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion"`
}

var (
	tabletSignals = []string{"ipad", "kindle", "silk", "playbook", "tablet"}
	mobileSignals = []string{
		"mobile", "iphone", "ipod", "android", "blackberry",
		"opera mini", "windows phone", "iemobile",
	}
)

// Classify parses userAgent. It never fails; unknown values default to
// Desktop and Unknown.
func Classify(userAgent string) Info {
	ua := useragent.Parse(userAgent)

	return Info{
		Type:           classifyType(userAgent),
		OS:             orUnknown(ua.OS),
		Browser:        orUnknown(ua.Name),
		BrowserVersion: orUnknown(ua.Version),
	}
}

// classifyType checks tablet signals before mobile ones: tablet agents
// frequently carry "Mobile" too.
func classifyType(userAgent string) Type {
	// "Tablet PC" marks Windows desktops with pen input.
	s := strings.ReplaceAll(strings.ToLower(userAgent), "tablet pc", "")

	if containsAny(s, tabletSignals) {
		return Tablet
	}

	if strings.Contains(s, "android") && !strings.Contains(s, "mobile") {
		return Tablet
	}

	if containsAny(s, mobileSignals) {
		return Mobile
	}

	return Desktop
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}

	return false
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}

	return s
}
