package qrcode_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/qr-tracker/internal/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(repo *mockRepository, qr qrcode.QRCode) {
	_ = repo.Save(context.Background(), &qr)
}

func TestResolver_Resolve(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		qr          qrcode.QRCode
		wantExpired bool
		wantActive  bool
	}{
		{"active without expiry", qrcode.QRCode{Status: qrcode.StatusActive}, false, true},
		{"active with future expiry", qrcode.QRCode{Status: qrcode.StatusActive, ExpiresAt: &future}, false, true},
		{"expired", qrcode.QRCode{Status: qrcode.StatusActive, ExpiresAt: &past}, true, true},
		{"inactive", qrcode.QRCode{Status: qrcode.StatusInactive}, false, false},
		{"inactive and expired", qrcode.QRCode{Status: qrcode.StatusInactive, ExpiresAt: &past}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			tt.qr.ID = "id-1"
			tt.qr.ShortCode = "abc12345"
			seed(repo, tt.qr)

			res, err := qrcode.NewResolver(repo).Resolve(context.Background(), "abc12345")

			require.NoError(t, err)
			assert.Equal(t, "id-1", res.QRCode.ID)
			assert.Equal(t, tt.wantExpired, res.IsExpired)
			assert.Equal(t, tt.wantActive, res.IsActive)
			assert.Equal(t, 1, repo.lookups)
		})
	}

	t.Run("unknown code is not found", func(t *testing.T) {
		_, err := qrcode.NewResolver(newMockRepository()).Resolve(context.Background(), "missing")

		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		repo := newMockRepository()
		repo.getErr = errors.New("connection reset")

		_, err := qrcode.NewResolver(repo).Resolve(context.Background(), "abc12345")

		require.Error(t, err)
		assert.NotErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("resolving twice yields the same flags", func(t *testing.T) {
		repo := newMockRepository()
		seed(repo, qrcode.QRCode{ID: "id-1", ShortCode: "abc12345", Status: qrcode.StatusActive, ExpiresAt: &future})
		resolver := qrcode.NewResolver(repo)

		first, err := resolver.Resolve(context.Background(), "abc12345")
		require.NoError(t, err)

		second, err := resolver.Resolve(context.Background(), "abc12345")
		require.NoError(t, err)

		assert.Equal(t, first.IsExpired, second.IsExpired)
		assert.Equal(t, first.IsActive, second.IsActive)
	})
}

func TestQRCode_ExpiredAt(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	qr := qrcode.QRCode{ExpiresAt: &at}

	assert.False(t, qr.ExpiredAt(at), "expiry instant itself is still live")
	assert.True(t, qr.ExpiredAt(at.Add(time.Nanosecond)))
	assert.False(t, (&qrcode.QRCode{}).ExpiredAt(at.Add(100*365*24*time.Hour)))
}
