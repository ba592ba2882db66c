package geo

import (
	"context"
	"net/netip"
)

// Location is the coarse position of a client address. Zero fields mean unknown.
type Location struct {
	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
}

// Empty reports whether nothing is known about the location.
func (l Location) Empty() bool {
	return l == Location{}
}

// Locator resolves client addresses to locations.
// Implementations never fail: on any problem they return an empty Location.
type Locator interface {
	Locate(ctx context.Context, ip string) Location
}

// Routable reports whether ip is a public address worth looking up.
// Private, loopback, link-local, unspecified and unparsable addresses are not.
func Routable(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	return !addr.IsPrivate() &&
		!addr.IsLoopback() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// Noop is a Locator that knows nothing.
type Noop struct{}

func (Noop) Locate(context.Context, string) Location {
	return Location{}
}
