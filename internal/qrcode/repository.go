package qrcode

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("qr code not found")
	ErrShortCodeTaken = errors.New("short code already taken")
)

// Repository defines storage operations for QR codes.
type Repository interface {
	// Save returns ErrShortCodeTaken if another QR code already owns the short code.
	Save(ctx context.Context, qr *QRCode) error
	GetByID(ctx context.Context, id string) (*QRCode, error)
	// GetByShortCode returns ErrNotFound if no QR code owns the code.
	GetByShortCode(ctx context.Context, code string) (*QRCode, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	// IncrementScanCount must be atomic at the storage layer.
	IncrementScanCount(ctx context.Context, id string) error
	UpdateLastScanned(ctx context.Context, id string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status Status) error
}
