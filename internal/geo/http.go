package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "http://ip-api.com/json/"
	DefaultTimeout  = 2 * time.Second
)

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
}

// HTTPLocator looks addresses up against an ip-api.com compatible JSON endpoint.
type HTTPLocator struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHTTPLocator creates a locator querying endpoint, each lookup bounded by timeout.
func NewHTTPLocator(client *http.Client, endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPLocator {
	if client == nil {
		client = http.DefaultClient
	}

	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPLocator{
		client:   client,
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
	}
}

// Locate returns the location of ip, or an empty Location if it cannot be determined.
func (h *HTTPLocator) Locate(ctx context.Context, ip string) Location {
	if !Routable(ip) {
		return Location{}
	}

	loc, err := h.lookup(ctx, ip)
	if err != nil {
		h.logger.Debug("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))

		return Location{}
	}

	return loc
}

func (h *HTTPLocator) lookup(ctx context.Context, ip string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	endpoint := h.endpoint + url.PathEscape(ip) + "?fields=status,message,country,regionName,city,lat,lon,timezone"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geolocation endpoint returned %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode geolocation response: %w", err)
	}

	if body.Status != "success" {
		return Location{}, fmt.Errorf("geolocation failed: %s", body.Message)
	}

	lat, lon := body.Lat, body.Lon

	return Location{
		Country:   body.Country,
		Region:    body.RegionName,
		City:      body.City,
		Latitude:  &lat,
		Longitude: &lon,
		Timezone:  body.Timezone,
	}, nil
}
