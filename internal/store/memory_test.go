package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/qr-tracker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	testRepository(t, store.NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	qr := newTestQRCode()
	require.NoError(t, s.Save(context.Background(), qr))

	qr.Name = "mutated after save"

	got, err := s.GetByID(context.Background(), qr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test code", got.Name)

	got.Name = "mutated after get"

	again, _ := s.GetByID(context.Background(), qr.ID)
	assert.Equal(t, "Test code", again.Name)
}

func TestMemoryStore_LastScannedNeverMovesBack(t *testing.T) {
	s := store.NewMemoryStore()
	qr := newTestQRCode()
	require.NoError(t, s.Save(context.Background(), qr))

	later := time.Now().UTC()
	require.NoError(t, s.UpdateLastScanned(context.Background(), qr.ID, later))
	require.NoError(t, s.UpdateLastScanned(context.Background(), qr.ID, later.Add(-time.Minute)))

	got, _ := s.GetByID(context.Background(), qr.ID)
	assert.True(t, later.Equal(*got.LastScannedAt))
}
