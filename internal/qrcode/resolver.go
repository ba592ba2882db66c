package qrcode

import (
	"context"
	"time"
)

// Resolution is the outcome of looking up a short code.
// Expired and inactive codes still resolve; the caller decides what to do.
type Resolution struct {
	QRCode    *QRCode
	IsExpired bool
	IsActive  bool
}

// Resolver maps short codes to QR codes.
type Resolver struct {
	store Repository
	now   func() time.Time
}

// NewResolver creates a resolver backed by the given repository.
func NewResolver(store Repository) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve performs a single lookup by short code.
// It returns ErrNotFound only when no QR code owns the code.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Resolution, error) {
	qr, err := r.store.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		QRCode:    qr,
		IsExpired: qr.ExpiredAt(r.now()),
		IsActive:  qr.Active(),
	}, nil
}
