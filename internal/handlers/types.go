package handlers

import (
	"encoding/json"
	"time"

	"github.com/serroba/qr-tracker/internal/analytics"
)

// ScanRequest is the request for scanning a short code.
type ScanRequest struct {
	ShortCode string `doc:"The short code printed in the QR image" example:"abc12345" path:"shortCode"`
}

// ScanResponse is either a redirect or a rendered landing page.
type ScanResponse struct {
	Status       int
	Location     string `header:"Location"`
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// QRCodeBody is the public representation of a QR code.
type QRCodeBody struct {
	ID            string          `doc:"QR code id"                           json:"id"`
	ShortCode     string          `doc:"Short code encoded in the image"      example:"abc12345"                      json:"shortCode"`
	ScanURL       string          `doc:"URL the printed image points to"      example:"http://localhost:8888/q/abc12345" json:"scanUrl"`
	Name          string          `doc:"Owner supplied label"                 json:"name,omitempty"`
	Type          string          `doc:"Content type"                         example:"url"                           json:"type"`
	Data          json.RawMessage `doc:"Type specific payload"                json:"data"`
	Status        string          `doc:"active or inactive"                   example:"active"                        json:"status"`
	ExpiresAt     *time.Time      `doc:"Optional expiry"                      json:"expiresAt,omitempty"`
	ScanCount     int64           `doc:"Number of served scans"               json:"scanCount"`
	LastScannedAt *time.Time      `doc:"Time of the most recent served scan"  json:"lastScannedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CreateQRCodeRequest is the request body for creating a dynamic QR code.
type CreateQRCodeRequest struct {
	Body struct {
		Name      string          `doc:"Owner supplied label"  json:"name,omitempty"      maxLength:"200"`
		Type      string          `doc:"Content type"          example:"url"              json:"type"`
		Data      json.RawMessage `doc:"Type specific payload" json:"data"`
		ExpiresAt *time.Time      `doc:"Optional expiry"       json:"expiresAt,omitempty"`
	}
}

// CreateQRCodeResponse is the response for a successfully created QR code.
type CreateQRCodeResponse struct {
	Location string `doc:"The scan URL" header:"Location"`
	Body     QRCodeBody
}

// QRCodeIDRequest addresses a single QR code.
type QRCodeIDRequest struct {
	ID string `doc:"QR code id" path:"id"`
}

// QRCodeResponse wraps a single QR code.
type QRCodeResponse struct {
	Body QRCodeBody
}

// UpdateStatusRequest activates or deactivates a QR code.
type UpdateStatusRequest struct {
	ID   string `doc:"QR code id" path:"id"`
	Body struct {
		Status string `doc:"New status" enum:"active,inactive" json:"status"`
	}
}

// ImageRequest asks for the PNG rendering of a QR code.
type ImageRequest struct {
	ID   string `doc:"QR code id"            path:"id"`
	Size int    `default:"256"               doc:"Edge length in pixels" maximum:"1024" minimum:"64" query:"size"`
}

// ImageResponse carries PNG bytes.
type ImageResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// AnalyticsResponse is the aggregate of a QR code's events.
type AnalyticsResponse struct {
	Body *analytics.Summary
}
