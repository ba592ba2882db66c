package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/device"
	"github.com/serroba/qr-tracker/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	mu        sync.Mutex
	events    []*analytics.Event
	findErr   error
	insertErr error
}

func (m *mockStore) InsertEvent(_ context.Context, event *analytics.Event) error {
	if m.insertErr != nil {
		return m.insertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return nil
}

func (m *mockStore) FindEvent(_ context.Context, qrCodeID, sessionID string) (*analytics.Event, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.QRCodeID == qrCodeID && e.SessionID == sessionID {
			return e, nil
		}
	}

	return nil, analytics.ErrNotFound
}

func (m *mockStore) Summary(_ context.Context, qrCodeID string) (*analytics.Summary, error) {
	return &analytics.Summary{QRCodeID: qrCodeID}, nil
}

type countingObserver struct {
	unique    int
	nonUnique int
}

func (o *countingObserver) EventRecorded(_ analytics.EventType, unique bool) {
	if unique {
		o.unique++
	} else {
		o.nonUnique++
	}
}

func sampleScan(session string) analytics.Scan {
	return analytics.Scan{
		QRCodeID:   "qr-1",
		SessionID:  session,
		Device:     device.Info{Type: device.Mobile, OS: "iOS", Browser: "Safari", BrowserVersion: "17.0"},
		Location:   geo.Location{Country: "Spain", City: "Madrid"},
		Referrer:   "https://news.example",
		IPAddress:  "203.0.113.7",
		UserAgent:  "Mozilla/5.0 (iPhone)",
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecorder_RecordScan(t *testing.T) {
	t.Run("first event for a session is unique", func(t *testing.T) {
		store := &mockStore{}
		observer := &countingObserver{}
		recorder := analytics.NewRecorder(store, observer, zap.NewNop())

		recorder.RecordScan(context.Background(), sampleScan("s1"))

		require.Len(t, store.events, 1)
		event := store.events[0]
		assert.True(t, event.IsUnique)
		assert.Equal(t, analytics.EventScan, event.Type)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "qr-1", event.QRCodeID)
		assert.Equal(t, device.Mobile, event.Device.Type)
		assert.Equal(t, "Madrid", event.Location.City)
		assert.Equal(t, "https://news.example", event.Referrer)
		assert.Equal(t, 1, observer.unique)
	})

	t.Run("repeat session is not unique", func(t *testing.T) {
		store := &mockStore{}
		observer := &countingObserver{}
		recorder := analytics.NewRecorder(store, observer, zap.NewNop())

		recorder.RecordScan(context.Background(), sampleScan("s1"))
		recorder.RecordScan(context.Background(), sampleScan("s1"))
		recorder.RecordScan(context.Background(), sampleScan("s2"))

		require.Len(t, store.events, 3)
		assert.True(t, store.events[0].IsUnique)
		assert.False(t, store.events[1].IsUnique)
		assert.True(t, store.events[2].IsUnique)
		assert.Equal(t, 2, observer.unique)
		assert.Equal(t, 1, observer.nonUnique)
	})

	t.Run("keeps a provided event id", func(t *testing.T) {
		store := &mockStore{}
		recorder := analytics.NewRecorder(store, nil, zap.NewNop())

		scan := sampleScan("s1")
		scan.EventID = "evt-1"
		recorder.RecordScan(context.Background(), scan)

		require.Len(t, store.events, 1)
		assert.Equal(t, "evt-1", store.events[0].ID)
	})

	t.Run("lookup failure skips the event", func(t *testing.T) {
		store := &mockStore{findErr: errors.New("connection refused")}
		observer := &countingObserver{}
		recorder := analytics.NewRecorder(store, observer, zap.NewNop())

		assert.NotPanics(t, func() {
			recorder.RecordScan(context.Background(), sampleScan("s1"))
		})
		assert.Empty(t, store.events)
		assert.Zero(t, observer.unique+observer.nonUnique)
	})

	t.Run("insert failure is swallowed", func(t *testing.T) {
		store := &mockStore{insertErr: errors.New("disk full")}
		observer := &countingObserver{}
		recorder := analytics.NewRecorder(store, observer, zap.NewNop())

		assert.NotPanics(t, func() {
			recorder.RecordScan(context.Background(), sampleScan("s1"))
		})
		assert.Zero(t, observer.unique+observer.nonUnique)
	})
}
