package handlers_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/messaging"
	"github.com/serroba/qr-tracker/internal/qrcode"
	"github.com/serroba/qr-tracker/internal/store"
)

var errMock = errors.New("mock error")

// flakyRepository wraps a MemoryStore and fails selected operations.
type flakyRepository struct {
	*store.MemoryStore

	getErr       error
	incrementErr error
	lastSeenErr  error
}

func newFlakyRepository() *flakyRepository {
	return &flakyRepository{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyRepository) GetByShortCode(ctx context.Context, code string) (*qrcode.QRCode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	return f.MemoryStore.GetByShortCode(ctx, code)
}

func (f *flakyRepository) IncrementScanCount(ctx context.Context, id string) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}

	return f.MemoryStore.IncrementScanCount(ctx, id)
}

func (f *flakyRepository) UpdateLastScanned(ctx context.Context, id string, at time.Time) error {
	if f.lastSeenErr != nil {
		return f.lastSeenErr
	}

	return f.MemoryStore.UpdateLastScanned(ctx, id, at)
}

// publishRecorder captures published scan events.
type publishRecorder struct {
	mu     sync.Mutex
	events []analytics.ScanRequested
	err    error
}

func (p *publishRecorder) publish() messaging.Publish[analytics.ScanRequested] {
	return func(_ context.Context, event *analytics.ScanRequested) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.err != nil {
			return p.err
		}

		p.events = append(p.events, *event)

		return nil
	}
}

func (p *publishRecorder) published() []analytics.ScanRequested {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]analytics.ScanRequested(nil), p.events...)
}

// outcomeRecorder captures scan outcomes.
type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeRecorder) ScanServed(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.outcomes = append(o.outcomes, outcome)
}

func (o *outcomeRecorder) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.outcomes) == 0 {
		return ""
	}

	return o.outcomes[len(o.outcomes)-1]
}

// failingSummaryStore is an analytics store whose Summary always fails.
type failingSummaryStore struct {
	*store.AnalyticsMemoryStore
}

func (failingSummaryStore) Summary(context.Context, string) (*analytics.Summary, error) {
	return nil, errMock
}
