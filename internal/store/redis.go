package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/qr-tracker/internal/qrcode"
)

// saveScript claims the short code for the id and writes the record.
// It returns 0 without writing when another id owns the code.
var saveScript = redis.NewScript(`
local owner = redis.call("HGET", KEYS[2], ARGV[1])
if owner and owner ~= ARGV[2] then
	return 0
end
redis.call("HSET", KEYS[2], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[1], unpack(ARGV, 3))
return 1
`)

// lastScannedScript only moves last_scanned_at forward.
// Timestamps are compared as decimal strings to stay exact past 2^53.
// It returns -1 when the record does not exist.
var lastScannedScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local cur = redis.call("HGET", KEYS[1], "last_scanned_at")
local at = ARGV[1]
if cur and cur ~= "" and (#cur > #at or (#cur == #at and cur >= at)) then
	return 0
end
redis.call("HSET", KEYS[1], "last_scanned_at", at)
return 1
`)

// RedisStore is a Redis implementation of qrcode.Repository.
type RedisStore struct {
	client   *redis.Client
	prefix   string // "qr:id:" for id -> record (hash)
	codesKey string // "qr:codes" for short code -> id (hash map)
}

// NewRedisStore creates a new Redis-backed QR code store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   "qr:id:",
		codesKey: "qr:codes",
	}
}

func (r *RedisStore) Save(ctx context.Context, qr *qrcode.QRCode) error {
	fields := qrCodeFields(qr)

	args := make([]interface{}, 0, 2+2*len(fields))
	args = append(args, qr.ShortCode, qr.ID)

	for k, v := range fields {
		args = append(args, k, v)
	}

	saved, err := saveScript.Run(ctx, r.client, []string{r.prefix + qr.ID, r.codesKey}, args...).Int64()
	if err != nil {
		return err
	}

	if saved == 0 {
		return qrcode.ErrShortCodeTaken
	}

	return nil
}

func (r *RedisStore) GetByID(ctx context.Context, id string) (*qrcode.QRCode, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+id).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, qrcode.ErrNotFound
	}

	return qrCodeFromFields(result), nil
}

func (r *RedisStore) GetByShortCode(ctx context.Context, code string) (*qrcode.QRCode, error) {
	id, err := r.client.HGet(ctx, r.codesKey, code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, qrcode.ErrNotFound
		}

		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *RedisStore) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	return r.client.HExists(ctx, r.codesKey, code).Result()
}

// IncrementScanCount relies on HINCRBY, which Redis executes atomically.
func (r *RedisStore) IncrementScanCount(ctx context.Context, id string) error {
	if err := r.requireExists(ctx, id); err != nil {
		return err
	}

	return r.client.HIncrBy(ctx, r.prefix+id, "scan_count", 1).Err()
}

func (r *RedisStore) UpdateLastScanned(ctx context.Context, id string, at time.Time) error {
	res, err := lastScannedScript.Run(ctx, r.client, []string{r.prefix + id},
		strconv.FormatInt(at.UnixNano(), 10)).Int64()
	if err != nil {
		return err
	}

	if res < 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (r *RedisStore) UpdateStatus(ctx context.Context, id string, status qrcode.Status) error {
	if err := r.requireExists(ctx, id); err != nil {
		return err
	}

	return r.client.HSet(ctx, r.prefix+id,
		"status", string(status),
		"updated_at", time.Now().UTC().UnixNano(),
	).Err()
}

func (r *RedisStore) requireExists(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, r.prefix+id).Result()
	if err != nil {
		return err
	}

	if n == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func qrCodeFields(qr *qrcode.QRCode) map[string]interface{} {
	fields := map[string]interface{}{
		"id":              qr.ID,
		"short_code":      qr.ShortCode,
		"name":            qr.Name,
		"type":            string(qr.Type),
		"data":            string(qr.Data),
		"status":          string(qr.Status),
		"expires_at":      "",
		"scan_count":      qr.ScanCount,
		"last_scanned_at": "",
		"created_at":      qr.CreatedAt.UnixNano(),
		"updated_at":      qr.UpdatedAt.UnixNano(),
	}

	if qr.ExpiresAt != nil {
		fields["expires_at"] = qr.ExpiresAt.UnixNano()
	}

	if qr.LastScannedAt != nil {
		fields["last_scanned_at"] = qr.LastScannedAt.UnixNano()
	}

	return fields
}

func qrCodeFromFields(result map[string]string) *qrcode.QRCode {
	qr := &qrcode.QRCode{
		ID:            result["id"],
		ShortCode:     result["short_code"],
		Name:          result["name"],
		Type:          qrcode.Type(result["type"]),
		Data:          []byte(result["data"]),
		Status:        qrcode.Status(result["status"]),
		ExpiresAt:     parseNanos(result["expires_at"]),
		LastScannedAt: parseNanos(result["last_scanned_at"]),
		CreatedAt:     derefTime(parseNanos(result["created_at"])),
		UpdatedAt:     derefTime(parseNanos(result["updated_at"])),
	}

	if n, err := strconv.ParseInt(result["scan_count"], 10, 64); err == nil {
		qr.ScanCount = n
	}

	return qr
}

func parseNanos(s string) *time.Time {
	if s == "" {
		return nil
	}

	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}

	t := time.Unix(0, nanos).UTC()

	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

// Compile-time check.
var _ qrcode.Repository = (*RedisStore)(nil)
