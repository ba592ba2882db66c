package analytics

import (
	"context"
	"time"

	"github.com/serroba/qr-tracker/internal/device"
	"github.com/serroba/qr-tracker/internal/geo"
)

// TopicScanRequested carries scans from the redirect path to the recorder.
const TopicScanRequested = "qr.scan.requested"

// ScanRequested is published once per served scan.
type ScanRequested struct {
	EventID    string      `json:"eventId"`
	QRCodeID   string      `json:"qrCodeId"`
	SessionID  string      `json:"sessionId"`
	Device     device.Info `json:"device"`
	Referrer   string      `json:"referrer,omitempty"`
	IPAddress  string      `json:"ipAddress"`
	UserAgent  string      `json:"userAgent"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Pipeline enriches scan messages with a location and records them.
type Pipeline struct {
	locator  geo.Locator
	recorder *Recorder
}

// NewPipeline creates the consumer side of the scan flow.
func NewPipeline(locator geo.Locator, recorder *Recorder) *Pipeline {
	return &Pipeline{locator: locator, recorder: recorder}
}

// Handle geolocates and records one scan. It always succeeds; recording is best effort.
func (p *Pipeline) Handle(ctx context.Context, msg *ScanRequested) error {
	p.recorder.RecordScan(ctx, Scan{
		EventID:    msg.EventID,
		QRCodeID:   msg.QRCodeID,
		SessionID:  msg.SessionID,
		Device:     msg.Device,
		Location:   p.locator.Locate(ctx, msg.IPAddress),
		Referrer:   msg.Referrer,
		IPAddress:  msg.IPAddress,
		UserAgent:  msg.UserAgent,
		OccurredAt: msg.OccurredAt,
	})

	return nil
}
