package repository

import (
	"context"
	"database/sql"
	"time"
)

// TelemetryAuditRepository provides read-only visibility into the telemetry
// readings table for maintenance sweeps.
type TelemetryAuditRepository struct {
	db *sql.DB
}

// NewTelemetryAuditRepository returns repository.
func NewTelemetryAuditRepository(db *sql.DB) *TelemetryAuditRepository {
	return &TelemetryAuditRepository{db: db}
}

// CountOlderThan counts readings with a timestamp before cutoff.
func (r *TelemetryAuditRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM telemetry_readings WHERE timestamp < $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, cutoff).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
