package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/device"
	"github.com/serroba/qr-tracker/internal/dispatch"
	"github.com/serroba/qr-tracker/internal/messaging"
	"github.com/serroba/qr-tracker/internal/metrics"
	"github.com/serroba/qr-tracker/internal/qrcode"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// PublishTimeout caps how long a scan waits on the analytics transport.
const PublishTimeout = 100 * time.Millisecond

// ScanObserver is told how every scan ended.
type ScanObserver interface {
	ScanServed(outcome string, took time.Duration)
}

// ScanHandler serves GET /q/{shortCode}.
type ScanHandler struct {
	resolver    *qrcode.Resolver
	store       qrcode.Repository
	publishScan messaging.Publish[analytics.ScanRequested]
	observer    ScanObserver
	logger      *zap.Logger
	now         func() time.Time
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(
	resolver *qrcode.Resolver,
	store qrcode.Repository,
	publishScan messaging.Publish[analytics.ScanRequested],
	observer ScanObserver,
	logger *zap.Logger,
) *ScanHandler {
	return &ScanHandler{
		resolver:    resolver,
		store:       store,
		publishScan: publishScan,
		observer:    observer,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *ScanHandler) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	start := h.now()

	res, err := h.resolver.Resolve(ctx, req.ShortCode)
	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			h.served(metrics.OutcomeNotFound, start)

			return nil, huma.Error404NotFound("qr code not found")
		}

		h.logger.Error("failed to resolve short code",
			zap.String("short_code", req.ShortCode),
			zap.Error(err),
		)
		h.served(metrics.OutcomeError, start)

		return nil, huma.Error500InternalServerError("failed to resolve qr code")
	}

	if res.IsExpired {
		h.served(metrics.OutcomeExpired, start)

		return nil, huma.Error410Gone("qr code has expired")
	}

	if !res.IsActive {
		h.served(metrics.OutcomeInactive, start)

		return nil, huma.Error403Forbidden("qr code is inactive")
	}

	qr := res.QRCode
	meta := RequestMetaFromContext(ctx)

	scannedAt := meta.ReceivedAt
	if scannedAt.IsZero() {
		scannedAt = start.UTC()
	}

	h.countScan(ctx, qr, scannedAt)
	h.publish(ctx, qr, meta, scannedAt)

	out := dispatch.Dispatch(qr)

	resp := &ScanResponse{}
	resp.CacheControl = "no-store"

	if out.Kind == dispatch.Redirect {
		resp.Status = http.StatusFound
		resp.Location = out.URL
		h.served(metrics.OutcomeRedirect, start)

		return resp, nil
	}

	resp.Status = http.StatusOK
	resp.ContentType = htmlContentType
	resp.Body = out.HTML
	h.served(metrics.OutcomeContent, start)

	return resp, nil
}

// countScan bumps the counters; a failure here never blocks the visitor.
func (h *ScanHandler) countScan(ctx context.Context, qr *qrcode.QRCode, at time.Time) {
	if err := h.store.IncrementScanCount(ctx, qr.ID); err != nil {
		h.logger.Error("failed to increment scan count",
			zap.String("qr_code_id", qr.ID),
			zap.Error(err),
		)
	}

	if err := h.store.UpdateLastScanned(ctx, qr.ID, at); err != nil {
		h.logger.Error("failed to update last scanned",
			zap.String("qr_code_id", qr.ID),
			zap.Error(err),
		)
	}
}

func (h *ScanHandler) publish(ctx context.Context, qr *qrcode.QRCode, meta RequestMeta, at time.Time) {
	event := &analytics.ScanRequested{
		EventID:    uuid.NewString(),
		QRCodeID:   qr.ID,
		SessionID:  analytics.SessionID(meta.ClientIP, meta.UserAgent, at),
		Device:     device.Classify(meta.UserAgent),
		Referrer:   meta.Referrer,
		IPAddress:  meta.ClientIP,
		UserAgent:  meta.UserAgent,
		OccurredAt: at,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	if err := h.publishScan(ctx, event); err != nil {
		h.logger.Error("failed to publish scan event",
			zap.String("qr_code_id", qr.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

func (h *ScanHandler) served(outcome string, start time.Time) {
	if h.observer != nil {
		h.observer.ScanServed(outcome, h.now().Sub(start))
	}
}
