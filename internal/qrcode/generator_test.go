package qrcode_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/serroba/qr-tracker/internal/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(codes ...string) qrcode.CodeGenerator {
	i := 0

	return func() string {
		code := codes[i%len(codes)]
		i++

		return code
	}
}

func TestNewAlphanumericCodeGenerator(t *testing.T) {
	gen, err := qrcode.NewAlphanumericCodeGenerator(qrcode.DefaultCodeLength)
	require.NoError(t, err)

	for range 50 {
		code := gen()

		assert.Len(t, code, qrcode.DefaultCodeLength)

		for _, r := range code {
			assert.True(t, strings.ContainsRune(qrcode.Alphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("returns the first free code", func(t *testing.T) {
		repo := newMockRepository()
		g := qrcode.NewGenerator(repo, sequence("free0001"), 3)

		code, err := g.Generate(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "free0001", code)
	})

	t.Run("retries past collisions", func(t *testing.T) {
		repo := newMockRepository()
		repo.taken["taken001"] = true
		repo.taken["taken002"] = true
		g := qrcode.NewGenerator(repo, sequence("taken001", "taken002", "free0003"), 5)

		code, err := g.Generate(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "free0003", code)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		repo := newMockRepository()
		repo.taken["taken001"] = true
		calls := 0
		g := qrcode.NewGenerator(repo, func() string {
			calls++

			return "taken001"
		}, 4)

		_, err := g.Generate(context.Background())

		require.ErrorIs(t, err, qrcode.ErrCodeSpaceExhausted)
		assert.Equal(t, 4, calls)
	})

	t.Run("store errors abort immediately", func(t *testing.T) {
		repo := newMockRepository()
		repo.existsErr = errors.New("redis down")
		calls := 0
		g := qrcode.NewGenerator(repo, func() string {
			calls++

			return "code0001"
		}, 5)

		_, err := g.Generate(context.Background())

		require.Error(t, err)
		assert.NotErrorIs(t, err, qrcode.ErrCodeSpaceExhausted)
		assert.Equal(t, 1, calls)
	})
}
