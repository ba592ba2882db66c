package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/qr-tracker/internal/qrcode"
)

// RedisCacheRepository wraps a Repository with Redis caching for short code lookups.
// Cached records carry the liveness fields the resolver needs; scan counters in the
// cache may lag behind the underlying store.
type RedisCacheRepository struct {
	store  qrcode.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store qrcode.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "qr:code:",
		ttl:    ttl,
	}
}

// Save stores a QR code in the underlying store and drops any stale cache entry.
func (r *RedisCacheRepository) Save(ctx context.Context, qr *qrcode.QRCode) error {
	if err := r.store.Save(ctx, qr); err != nil {
		return err
	}

	r.invalidate(ctx, qr.ShortCode)

	return nil
}

func (r *RedisCacheRepository) GetByID(ctx context.Context, id string) (*qrcode.QRCode, error) {
	return r.store.GetByID(ctx, id)
}

// GetByShortCode checks the cache first and populates it on a miss.
func (r *RedisCacheRepository) GetByShortCode(ctx context.Context, code string) (*qrcode.QRCode, error) {
	if qr, err := r.getFromCache(ctx, code); err == nil {
		return qr, nil
	}

	qr, err := r.store.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheQRCode(ctx, qr)

	return qr, nil
}

func (r *RedisCacheRepository) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	return r.store.ShortCodeExists(ctx, code)
}

func (r *RedisCacheRepository) IncrementScanCount(ctx context.Context, id string) error {
	return r.store.IncrementScanCount(ctx, id)
}

func (r *RedisCacheRepository) UpdateLastScanned(ctx context.Context, id string, at time.Time) error {
	return r.store.UpdateLastScanned(ctx, id, at)
}

// UpdateStatus writes through and evicts the cached record so the next scan sees the new status.
func (r *RedisCacheRepository) UpdateStatus(ctx context.Context, id string, status qrcode.Status) error {
	if err := r.store.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if qr, err := r.store.GetByID(ctx, id); err == nil {
		r.invalidate(ctx, qr.ShortCode)
	}

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code string) (*qrcode.QRCode, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+code).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, qrcode.ErrNotFound
	}

	return qrCodeFromFields(result), nil
}

func (r *RedisCacheRepository) cacheQRCode(ctx context.Context, qr *qrcode.QRCode) {
	pipe := r.client.Pipeline()
	key := r.prefix + qr.ShortCode

	pipe.HSet(ctx, key, qrCodeFields(qr))

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func (r *RedisCacheRepository) invalidate(ctx context.Context, code string) {
	_ = r.client.Del(ctx, r.prefix+code).Err()
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ qrcode.Repository = (*RedisCacheRepository)(nil)
