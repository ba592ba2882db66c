package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/qr-tracker/internal/ratelimit"
)

// ScanRateLimit counts every scan against its short code and against the client address.
var ScanRateLimit = ratelimit.EndpointConfig{
	Scopes:    []ratelimit.Scope{ratelimit.ScopeShortCode, ratelimit.ScopeIP},
	PathParam: "shortCode",
}

// RegisterRoutes registers the scan route and the QR code management routes.
func RegisterRoutes(api huma.API, scanHandler *ScanHandler, qrHandler *QRCodeHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "scan-qr-code",
		Method:      http.MethodGet,
		Path:        "/q/{shortCode}",
		Summary:     "Scan a QR code",
		Description: "Resolves the short code and redirects to its destination or renders its landing page.",
		Tags:        []string{"Scans"},
		Responses: map[string]*huma.Response{
			"302": {Description: "Redirect to the destination"},
			"200": {
				Description: "Rendered landing page",
				Content:     map[string]*huma.MediaType{"text/html": {}},
			},
		},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ScanRateLimit,
		},
	}, scanHandler.Scan)

	huma.Register(api, huma.Operation{
		OperationID:   "create-qr-code",
		Method:        http.MethodPost,
		Path:          "/qr-codes",
		Summary:       "Create QR code",
		Description:   "Creates a dynamic QR code and allocates its short code.",
		Tags:          []string{"QR codes"},
		DefaultStatus: http.StatusCreated,
	}, qrHandler.CreateQRCode)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr-code",
		Method:      http.MethodGet,
		Path:        "/qr-codes/{id}",
		Summary:     "Get QR code",
		Tags:        []string{"QR codes"},
	}, qrHandler.GetQRCode)

	huma.Register(api, huma.Operation{
		OperationID: "update-qr-code-status",
		Method:      http.MethodPatch,
		Path:        "/qr-codes/{id}/status",
		Summary:     "Activate or deactivate QR code",
		Tags:        []string{"QR codes"},
	}, qrHandler.UpdateStatus)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr-code-image",
		Method:      http.MethodGet,
		Path:        "/qr-codes/{id}/image.png",
		Summary:     "Render QR code image",
		Tags:        []string{"QR codes"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, qrHandler.GetImage)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr-code-analytics",
		Method:      http.MethodGet,
		Path:        "/qr-codes/{id}/analytics",
		Summary:     "Get QR code analytics",
		Description: "Aggregates recorded scan events by device type and country.",
		Tags:        []string{"Analytics"},
	}, qrHandler.GetAnalytics)
}
