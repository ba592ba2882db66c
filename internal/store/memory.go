package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/qr-tracker/internal/qrcode"
)

// MemoryStore is an in-memory implementation of qrcode.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*qrcode.QRCode
	byCode map[string]string // short code -> id
}

// NewMemoryStore creates a new in-memory QR code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*qrcode.QRCode),
		byCode: make(map[string]string),
	}
}

func (m *MemoryStore) Save(_ context.Context, qr *qrcode.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.byCode[qr.ShortCode]; ok && owner != qr.ID {
		return qrcode.ErrShortCodeTaken
	}

	stored := *qr
	m.byID[qr.ID] = &stored
	m.byCode[qr.ShortCode] = qr.ID

	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*qrcode.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, ok := m.byID[id]
	if !ok {
		return nil, qrcode.ErrNotFound
	}

	out := *qr

	return &out, nil
}

func (m *MemoryStore) GetByShortCode(ctx context.Context, code string) (*qrcode.QRCode, error) {
	m.mu.RLock()
	id, ok := m.byCode[code]
	m.mu.RUnlock()

	if !ok {
		return nil, qrcode.ErrNotFound
	}

	return m.GetByID(ctx, id)
}

func (m *MemoryStore) ShortCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byCode[code]

	return ok, nil
}

func (m *MemoryStore) IncrementScanCount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, ok := m.byID[id]
	if !ok {
		return qrcode.ErrNotFound
	}

	qr.ScanCount++

	return nil
}

func (m *MemoryStore) UpdateLastScanned(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, ok := m.byID[id]
	if !ok {
		return qrcode.ErrNotFound
	}

	if qr.LastScannedAt == nil || at.After(*qr.LastScannedAt) {
		qr.LastScannedAt = &at
	}

	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status qrcode.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, ok := m.byID[id]
	if !ok {
		return qrcode.ErrNotFound
	}

	qr.Status = status
	qr.UpdatedAt = time.Now().UTC()

	return nil
}

// Compile-time check.
var _ qrcode.Repository = (*MemoryStore)(nil)
