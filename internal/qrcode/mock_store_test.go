package qrcode_test

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/qr-tracker/internal/qrcode"
)

type mockRepository struct {
	mu        sync.Mutex
	byCode    map[string]*qrcode.QRCode
	taken     map[string]bool
	claimed   map[string]bool // codes another writer takes between check and save
	lookups   int
	existsErr error
	saveErr   error
	getErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byCode:  make(map[string]*qrcode.QRCode),
		taken:   make(map[string]bool),
		claimed: make(map[string]bool),
	}
}

func (m *mockRepository) Save(_ context.Context, qr *qrcode.QRCode) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.claimed[qr.ShortCode] {
		return qrcode.ErrShortCodeTaken
	}

	if owner, ok := m.byCode[qr.ShortCode]; ok && owner.ID != qr.ID {
		return qrcode.ErrShortCodeTaken
	}

	stored := *qr
	m.byCode[qr.ShortCode] = &stored
	m.taken[qr.ShortCode] = true

	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*qrcode.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, qr := range m.byCode {
		if qr.ID == id {
			out := *qr

			return &out, nil
		}
	}

	return nil, qrcode.ErrNotFound
}

func (m *mockRepository) GetByShortCode(_ context.Context, code string) (*qrcode.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups++

	if m.getErr != nil {
		return nil, m.getErr
	}

	qr, ok := m.byCode[code]
	if !ok {
		return nil, qrcode.ErrNotFound
	}

	out := *qr

	return &out, nil
}

func (m *mockRepository) ShortCodeExists(_ context.Context, code string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.taken[code], nil
}

func (m *mockRepository) IncrementScanCount(context.Context, string) error {
	return nil
}

func (m *mockRepository) UpdateLastScanned(context.Context, string, time.Time) error {
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id string, status qrcode.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, qr := range m.byCode {
		if qr.ID == id {
			qr.Status = status

			return nil
		}
	}

	return qrcode.ErrNotFound
}
