package store

import (
	"context"
	"sync"

	"github.com/serroba/qr-tracker/internal/analytics"
)

// AnalyticsMemoryStore is an in-memory implementation of analytics.Store.
type AnalyticsMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]struct{}
	events []analytics.Event
}

// NewAnalyticsMemoryStore creates an empty in-memory event store.
func NewAnalyticsMemoryStore() *AnalyticsMemoryStore {
	return &AnalyticsMemoryStore{
		byID: make(map[string]struct{}),
	}
}

func (m *AnalyticsMemoryStore) InsertEvent(_ context.Context, event *analytics.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[event.ID]; ok {
		return nil
	}

	m.byID[event.ID] = struct{}{}
	m.events = append(m.events, *event)

	return nil
}

func (m *AnalyticsMemoryStore) FindEvent(_ context.Context, qrCodeID, sessionID string) (*analytics.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.events {
		if m.events[i].QRCodeID == qrCodeID && m.events[i].SessionID == sessionID {
			event := m.events[i]

			return &event, nil
		}
	}

	return nil, analytics.ErrNotFound
}

func (m *AnalyticsMemoryStore) Summary(_ context.Context, qrCodeID string) (*analytics.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := newSummary(qrCodeID)

	for i := range m.events {
		e := &m.events[i]
		if e.QRCodeID != qrCodeID {
			continue
		}

		summary.TotalEvents++

		if e.IsUnique {
			summary.UniqueEvents++
		}

		summary.ByDeviceType[string(e.Device.Type)]++
		summary.ByCountry[countryKey(e.Location.Country)]++
	}

	return summary, nil
}

// Len returns the number of stored events.
func (m *AnalyticsMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.events)
}

func newSummary(qrCodeID string) *analytics.Summary {
	return &analytics.Summary{
		QRCodeID:     qrCodeID,
		ByDeviceType: make(map[string]int64),
		ByCountry:    make(map[string]int64),
	}
}

func countryKey(country string) string {
	if country == "" {
		return "Unknown"
	}

	return country
}

// Compile-time check.
var _ analytics.Store = (*AnalyticsMemoryStore)(nil)
