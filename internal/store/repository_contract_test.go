package store_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/qr-tracker/internal/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQRCode() *qrcode.QRCode {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()

	return &qrcode.QRCode{
		ID:        id,
		ShortCode: "t" + id[:7],
		Name:      "Test code",
		Type:      qrcode.TypeURL,
		Data:      json.RawMessage(`{"url":"https://example.com"}`),
		Status:    qrcode.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// testRepository runs the behavior every qrcode.Repository must share.
func testRepository(t *testing.T, repo qrcode.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("save and get by id and short code", func(t *testing.T) {
		qr := newTestQRCode()
		expires := qr.CreatedAt.Add(24 * time.Hour)
		qr.ExpiresAt = &expires

		require.NoError(t, repo.Save(ctx, qr))

		byID, err := repo.GetByID(ctx, qr.ID)
		require.NoError(t, err)
		assert.Equal(t, qr.ShortCode, byID.ShortCode)
		assert.Equal(t, qr.Type, byID.Type)
		assert.Equal(t, qr.Status, byID.Status)
		assert.JSONEq(t, string(qr.Data), string(byID.Data))
		require.NotNil(t, byID.ExpiresAt)
		assert.True(t, expires.Equal(*byID.ExpiresAt))

		byCode, err := repo.GetByShortCode(ctx, qr.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, qr.ID, byCode.ID)
	})

	t.Run("unknown lookups return ErrNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, qrcode.ErrNotFound)

		_, err = repo.GetByShortCode(ctx, "missing0")
		assert.ErrorIs(t, err, qrcode.ErrNotFound)

		assert.ErrorIs(t, repo.IncrementScanCount(ctx, uuid.NewString()), qrcode.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateLastScanned(ctx, uuid.NewString(), time.Now()), qrcode.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), qrcode.StatusInactive), qrcode.ErrNotFound)
	})

	t.Run("short code existence", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))

		exists, err := repo.ShortCodeExists(ctx, qr.ShortCode)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ShortCodeExists(ctx, "missing0")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("concurrent increments are never lost", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))

		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				assert.NoError(t, repo.IncrementScanCount(ctx, qr.ID))
			}()
		}

		wg.Wait()

		got, err := repo.GetByID(ctx, qr.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.ScanCount)
	})

	t.Run("last scanned is recorded", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))

		at := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, repo.UpdateLastScanned(ctx, qr.ID, at))

		got, err := repo.GetByID(ctx, qr.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastScannedAt)
		assert.True(t, at.Equal(*got.LastScannedAt))
	})

	t.Run("a taken short code is not overwritten", func(t *testing.T) {
		first := newTestQRCode()
		require.NoError(t, repo.Save(ctx, first))

		second := newTestQRCode()
		second.ShortCode = first.ShortCode

		assert.ErrorIs(t, repo.Save(ctx, second), qrcode.ErrShortCodeTaken)

		got, err := repo.GetByShortCode(ctx, first.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		_, err = repo.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("saving the same code again keeps its owner", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))

		qr.Name = "Renamed"
		require.NoError(t, repo.Save(ctx, qr))

		got, err := repo.GetByShortCode(ctx, qr.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("last scanned never moves backwards", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))

		later := time.Now().UTC().Truncate(time.Microsecond)
		earlier := later.Add(-time.Minute)

		require.NoError(t, repo.UpdateLastScanned(ctx, qr.ID, later))
		require.NoError(t, repo.UpdateLastScanned(ctx, qr.ID, earlier))

		got, err := repo.GetByID(ctx, qr.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastScannedAt)
		assert.True(t, later.Equal(*got.LastScannedAt))

		next := later.Add(time.Microsecond)
		require.NoError(t, repo.UpdateLastScanned(ctx, qr.ID, next))

		got, err = repo.GetByID(ctx, qr.ID)
		require.NoError(t, err)
		assert.True(t, next.Equal(*got.LastScannedAt))
	})

	t.Run("status updates are visible by short code", func(t *testing.T) {
		qr := newTestQRCode()
		require.NoError(t, repo.Save(ctx, qr))
		_, _ = repo.GetByShortCode(ctx, qr.ShortCode)

		require.NoError(t, repo.UpdateStatus(ctx, qr.ID, qrcode.StatusInactive))

		got, err := repo.GetByShortCode(ctx, qr.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusInactive, got.Status)
	})
}
