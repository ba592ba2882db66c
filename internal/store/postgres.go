package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/qr-tracker/internal/qrcode"
)

const (
	uniqueViolation     = "23505"
	shortCodeConstraint = "qr_codes_short_code_key"
)

const qrCodeColumns = `id, short_code, name, type, data, status, expires_at, scan_count,
		last_scanned_at, created_at, updated_at`

// PostgresStore is a PostgreSQL implementation of qrcode.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed QR code store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Save(ctx context.Context, qr *qrcode.QRCode) error {
	query := `
		INSERT INTO qr_codes (id, short_code, name, type, data, status, expires_at,
			scan_count, last_scanned_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			data = EXCLUDED.data,
			status = EXCLUDED.status,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := p.pool.Exec(ctx, query,
		qr.ID,
		qr.ShortCode,
		qr.Name,
		string(qr.Type),
		[]byte(qr.Data),
		string(qr.Status),
		qr.ExpiresAt,
		qr.ScanCount,
		qr.LastScannedAt,
		qr.CreatedAt,
		qr.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == shortCodeConstraint {
		return qrcode.ErrShortCodeTaken
	}

	return err
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*qrcode.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE id = $1`

	return scanQRCode(p.pool.QueryRow(ctx, query, id))
}

func (p *PostgresStore) GetByShortCode(ctx context.Context, code string) (*qrcode.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE short_code = $1`

	return scanQRCode(p.pool.QueryRow(ctx, query, code))
}

func (p *PostgresStore) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM qr_codes WHERE short_code = $1)`, code,
	).Scan(&exists)

	return exists, err
}

// IncrementScanCount bumps the counter in a single statement so concurrent scans never lose updates.
func (p *PostgresStore) IncrementScanCount(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE qr_codes SET scan_count = scan_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) UpdateLastScanned(ctx context.Context, id string, at time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE qr_codes SET last_scanned_at = GREATEST(COALESCE(last_scanned_at, $2), $2) WHERE id = $1`,
		id, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id string, status qrcode.Status) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE qr_codes SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func scanQRCode(row pgx.Row) (*qrcode.QRCode, error) {
	var (
		qr     qrcode.QRCode
		typ    string
		status string
		data   []byte
	)

	err := row.Scan(
		&qr.ID,
		&qr.ShortCode,
		&qr.Name,
		&typ,
		&data,
		&status,
		&qr.ExpiresAt,
		&qr.ScanCount,
		&qr.LastScannedAt,
		&qr.CreatedAt,
		&qr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qrcode.ErrNotFound
		}

		return nil, err
	}

	qr.Type = qrcode.Type(typ)
	qr.Status = qrcode.Status(status)
	qr.Data = data

	return &qr, nil
}

// Compile-time check.
var _ qrcode.Repository = (*PostgresStore)(nil)
