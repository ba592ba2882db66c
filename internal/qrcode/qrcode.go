package qrcode

import (
	"encoding/json"
	"time"
)

// Type is the kind of content a QR code carries.
type Type string

const (
	TypeURL         Type = "url"
	TypePhone       Type = "phone"
	TypeEmail       Type = "email"
	TypeSMS         Type = "sms"
	TypeLocation    Type = "location"
	TypePDF         Type = "pdf"
	TypeImage       Type = "image"
	TypeVideo       Type = "video"
	TypeVCard       Type = "vcard"
	TypeWiFi        Type = "wifi"
	TypeText        Type = "text"
	TypeMenu        Type = "menu"
	TypeEvent       Type = "event"
	TypeMultiURL    Type = "multi-url"
	TypePayment     Type = "payment"
	TypeAppDownload Type = "app-download"
)

// Types lists every supported QR code type.
var Types = []Type{
	TypeURL, TypePhone, TypeEmail, TypeSMS, TypeLocation, TypePDF, TypeImage, TypeVideo,
	TypeVCard, TypeWiFi, TypeText, TypeMenu, TypeEvent, TypeMultiURL, TypePayment, TypeAppDownload,
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}

	return false
}

// Status is the liveness state set by the owner.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// QRCode is a dynamic QR code reachable through its short code.
type QRCode struct {
	ID            string
	ShortCode     string
	Name          string
	Type          Type
	Data          json.RawMessage // payload matching Type
	Status        Status
	ExpiresAt     *time.Time
	ScanCount     int64
	LastScannedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExpiredAt reports whether the code has an expiry that lies before now.
func (q *QRCode) ExpiredAt(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// Active reports whether the owner has the code switched on.
func (q *QRCode) Active() bool {
	return q.Status == StatusActive
}
