package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/qr-tracker/internal/device"
	"github.com/serroba/qr-tracker/internal/geo"
	"go.uber.org/zap"
)

// Scan is everything known about one scan at the time it is recorded.
type Scan struct {
	EventID    string
	QRCodeID   string
	SessionID  string
	Device     device.Info
	Location   geo.Location
	Referrer   string
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}

// Observer is notified after each successfully stored event.
type Observer interface {
	EventRecorded(eventType EventType, unique bool)
}

// Recorder writes scan events with unique-visitor detection.
type Recorder struct {
	store    Store
	observer Observer
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorder creates a Recorder. observer may be nil.
func NewRecorder(store Store, observer Observer, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:    store,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// RecordScan stores a scan event. A scan is unique when no earlier event
// exists for the same code and session. The lookup and the insert are not
// atomic, so simultaneous scans with one fingerprint may both count as unique.
// Failures are logged and never returned.
func (r *Recorder) RecordScan(ctx context.Context, scan Scan) {
	log := r.logger.With(
		zap.String("qrCodeId", scan.QRCodeID),
		zap.String("sessionId", scan.SessionID),
	)

	unique := false

	_, err := r.store.FindEvent(ctx, scan.QRCodeID, scan.SessionID)

	switch {
	case errors.Is(err, ErrNotFound):
		unique = true
	case err != nil:
		log.Warn("skipping scan event, session lookup failed", zap.Error(err))

		return
	}

	event := &Event{
		ID:         scan.EventID,
		QRCodeID:   scan.QRCodeID,
		SessionID:  scan.SessionID,
		Type:       EventScan,
		OccurredAt: scan.OccurredAt,
		Device:     scan.Device,
		Location:   scan.Location,
		Referrer:   scan.Referrer,
		IPAddress:  scan.IPAddress,
		UserAgent:  scan.UserAgent,
		IsUnique:   unique,
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}

	if err := r.store.InsertEvent(ctx, event); err != nil {
		log.Error("failed to record scan event", zap.Error(err))

		return
	}

	if r.observer != nil {
		r.observer.EventRecorded(EventScan, unique)
	}

	log.Debug("scan event recorded", zap.Bool("unique", unique))
}
