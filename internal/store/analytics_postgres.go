package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/qr-tracker/internal/analytics"
	"github.com/serroba/qr-tracker/internal/device"
)

const eventColumns = `id, qr_code_id, session_id, event_type, occurred_at, device_type, os, browser,
		browser_version, country, region, city, latitude, longitude, timezone, referrer,
		ip_address, user_agent, is_unique`

// AnalyticsPostgresStore is a PostgreSQL implementation of analytics.Store.
type AnalyticsPostgresStore struct {
	pool *pgxpool.Pool
}

// NewAnalyticsPostgresStore creates a new PostgreSQL-backed event store.
func NewAnalyticsPostgresStore(pool *pgxpool.Pool) *AnalyticsPostgresStore {
	return &AnalyticsPostgresStore{pool: pool}
}

func (p *AnalyticsPostgresStore) InsertEvent(ctx context.Context, e *analytics.Event) error {
	query := `
		INSERT INTO analytics_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		e.ID,
		e.QRCodeID,
		e.SessionID,
		string(e.Type),
		e.OccurredAt,
		string(e.Device.Type),
		e.Device.OS,
		e.Device.Browser,
		e.Device.BrowserVersion,
		e.Location.Country,
		e.Location.Region,
		e.Location.City,
		e.Location.Latitude,
		e.Location.Longitude,
		e.Location.Timezone,
		e.Referrer,
		e.IPAddress,
		e.UserAgent,
		e.IsUnique,
	)

	return err
}

func (p *AnalyticsPostgresStore) FindEvent(ctx context.Context, qrCodeID, sessionID string) (*analytics.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM analytics_events
		WHERE qr_code_id = $1 AND session_id = $2
		ORDER BY occurred_at
		LIMIT 1`

	var (
		e          analytics.Event
		eventType  string
		deviceType string
	)

	err := p.pool.QueryRow(ctx, query, qrCodeID, sessionID).Scan(
		&e.ID,
		&e.QRCodeID,
		&e.SessionID,
		&eventType,
		&e.OccurredAt,
		&deviceType,
		&e.Device.OS,
		&e.Device.Browser,
		&e.Device.BrowserVersion,
		&e.Location.Country,
		&e.Location.Region,
		&e.Location.City,
		&e.Location.Latitude,
		&e.Location.Longitude,
		&e.Location.Timezone,
		&e.Referrer,
		&e.IPAddress,
		&e.UserAgent,
		&e.IsUnique,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, analytics.ErrNotFound
		}

		return nil, err
	}

	e.Type = analytics.EventType(eventType)
	e.Device.Type = device.Type(deviceType)

	return &e, nil
}

func (p *AnalyticsPostgresStore) Summary(ctx context.Context, qrCodeID string) (*analytics.Summary, error) {
	summary := newSummary(qrCodeID)

	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_unique) FROM analytics_events WHERE qr_code_id = $1`,
		qrCodeID,
	).Scan(&summary.TotalEvents, &summary.UniqueEvents)
	if err != nil {
		return nil, err
	}

	if err := p.groupCounts(ctx,
		`SELECT device_type, COUNT(*) FROM analytics_events WHERE qr_code_id = $1 GROUP BY device_type`,
		qrCodeID, summary.ByDeviceType, func(s string) string { return s },
	); err != nil {
		return nil, err
	}

	if err := p.groupCounts(ctx,
		`SELECT country, COUNT(*) FROM analytics_events WHERE qr_code_id = $1 GROUP BY country`,
		qrCodeID, summary.ByCountry, countryKey,
	); err != nil {
		return nil, err
	}

	return summary, nil
}

func (p *AnalyticsPostgresStore) groupCounts(
	ctx context.Context, query, qrCodeID string, into map[string]int64, key func(string) string,
) error {
	rows, err := p.pool.Query(ctx, query, qrCodeID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			group string
			count int64
		)

		if err := rows.Scan(&group, &count); err != nil {
			return err
		}

		into[key(group)] += count
	}

	return rows.Err()
}

// Compile-time check.
var _ analytics.Store = (*AnalyticsPostgresStore)(nil)
