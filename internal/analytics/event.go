package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/serroba/qr-tracker/internal/device"
	"github.com/serroba/qr-tracker/internal/geo"
)

// EventType classifies an analytics event.
type EventType string

const (
	EventScan  EventType = "scan"
	EventView  EventType = "view"
	EventClick EventType = "click"
)

// Event is an immutable record of one interaction with a QR code.
// Events are inserted once and never updated.
type Event struct {
	ID         string       `json:"id"`
	QRCodeID   string       `json:"qrCodeId"`
	SessionID  string       `json:"sessionId"`
	Type       EventType    `json:"eventType"`
	OccurredAt time.Time    `json:"occurredAt"`
	Device     device.Info  `json:"device"`
	Location   geo.Location `json:"location"`
	Referrer   string       `json:"referrer,omitempty"`
	IPAddress  string       `json:"ipAddress"`
	UserAgent  string       `json:"userAgent"`
	IsUnique   bool         `json:"isUnique"`
}

const sessionIDLength = 16

// SessionID fingerprints a visitor from ip, userAgent and the request time
// in milliseconds. Because the timestamp is part of the input, two requests
// only share a session when they land in the same millisecond.
func SessionID(ip, userAgent string, at time.Time) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + strconv.FormatInt(at.UnixMilli(), 10)))

	return hex.EncodeToString(sum[:])[:sessionIDLength]
}
