package qrcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/sethvargo/go-retry"
)

// Alphabet is the fixed set of characters short codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	DefaultCodeLength  = 8
	DefaultMaxAttempts = 10
)

// ErrCodeSpaceExhausted means no free short code was found within the attempt budget.
// It usually signals an almost-full namespace or a broken store.
var ErrCodeSpaceExhausted = errors.New("unable to generate unique short code")

var errCollision = errors.New("short code collision")

// CodeGenerator produces candidate short codes.
type CodeGenerator func() string

// NewAlphanumericCodeGenerator returns a generator drawing length characters from Alphabet.
func NewAlphanumericCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create code generator: %w", err)
	}

	return gen, nil
}

// Generator hands out short codes that are not yet taken.
type Generator struct {
	store       Repository
	generate    CodeGenerator
	maxAttempts int
}

// NewGenerator creates a generator that retries up to maxAttempts times on collision.
func NewGenerator(store Repository, generate CodeGenerator, maxAttempts int) *Generator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Generator{
		store:       store,
		generate:    generate,
		maxAttempts: maxAttempts,
	}
}

// Generate returns a short code that did not exist at the time of the check.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	var code string

	backoff := retry.WithMaxRetries(uint64(g.maxAttempts-1), retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate := g.generate()

		exists, err := g.store.ShortCodeExists(ctx, candidate)
		if err != nil {
			return fmt.Errorf("check short code: %w", err)
		}

		if exists {
			return retry.RetryableError(errCollision)
		}

		code = candidate

		return nil
	})
	if err != nil {
		if errors.Is(err, errCollision) {
			return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, g.maxAttempts)
		}

		return "", err
	}

	return code, nil
}
