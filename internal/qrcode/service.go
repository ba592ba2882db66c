package qrcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// saveAttempts bounds how often Create draws a new code when another writer claimed it first.
const saveAttempts = 3

// CreateInput describes a new dynamic QR code.
type CreateInput struct {
	Name      string
	Type      Type
	Data      json.RawMessage
	ExpiresAt *time.Time
}

// Service holds the owner-facing operations on QR codes.
type Service struct {
	store     Repository
	generator *Generator
	now       func() time.Time
}

// NewService creates a QR code service.
func NewService(store Repository, generator *Generator) *Service {
	return &Service{
		store:     store,
		generator: generator,
		now:       time.Now,
	}
}

// Create validates the payload, allocates a short code and persists an active QR code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*QRCode, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidPayload, in.Type)
	}

	if err := ValidateData(in.Type, in.Data); err != nil {
		return nil, err
	}

	data, err := normalizeData(in.Type, in.Data)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if in.ExpiresAt != nil && in.ExpiresAt.Before(now) {
		return nil, fmt.Errorf("%w: expiry lies in the past", ErrInvalidPayload)
	}

	var qr *QRCode

	backoff := retry.WithMaxRetries(saveAttempts-1, retry.NewConstant(time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := s.generator.Generate(ctx)
		if err != nil {
			return err
		}

		candidate := &QRCode{
			ID:        uuid.NewString(),
			ShortCode: code,
			Name:      in.Name,
			Type:      in.Type,
			Data:      data,
			Status:    StatusActive,
			ExpiresAt: in.ExpiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.store.Save(ctx, candidate); err != nil {
			if errors.Is(err, ErrShortCodeTaken) {
				return retry.RetryableError(err)
			}

			return fmt.Errorf("save qr code: %w", err)
		}

		qr = candidate

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrShortCodeTaken) {
			return nil, fmt.Errorf("save qr code: %w", err)
		}

		return nil, err
	}

	return qr, nil
}

// Get returns the QR code with the given id.
func (s *Service) Get(ctx context.Context, id string) (*QRCode, error) {
	return s.store.GetByID(ctx, id)
}

// SetStatus activates or deactivates a QR code.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*QRCode, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidPayload, status)
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	return s.store.GetByID(ctx, id)
}

func normalizeData(t Type, raw json.RawMessage) (json.RawMessage, error) {
	if t != TypeURL {
		return raw, nil
	}

	d, err := DecodeData[URLData](raw)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeURL(d.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	d.URL = normalized

	return json.Marshal(d)
}
