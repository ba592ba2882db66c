package analytics

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no event matches a lookup.
var ErrNotFound = errors.New("analytics event not found")

// Summary aggregates the events of one QR code.
type Summary struct {
	QRCodeID     string           `json:"qrCodeId"`
	TotalEvents  int64            `json:"totalEvents"`
	UniqueEvents int64            `json:"uniqueEvents"`
	ByDeviceType map[string]int64 `json:"byDeviceType"`
	ByCountry    map[string]int64 `json:"byCountry"`
}

// Store persists analytics events.
type Store interface {
	// InsertEvent appends event. Inserting an ID that already exists is a no-op.
	InsertEvent(ctx context.Context, event *Event) error
	// FindEvent returns any event for the (qrCodeID, sessionID) pair or ErrNotFound.
	FindEvent(ctx context.Context, qrCodeID, sessionID string) (*Event, error)
	Summary(ctx context.Context, qrCodeID string) (*Summary, error)
}
