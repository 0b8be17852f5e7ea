package repository

import (
	"database/sql"
	"errors"
	"time"

	"tychoorderbook/internal/models"
)

// ErrBuildAuditNotFound is returned when a lookup targets an audit row
// that does not exist.
var ErrBuildAuditNotFound = errors.New("build audit record not found")

// BuildAuditRepository is the Data Access Layer for the build_audits
// table, an append-only log of assembled orderbooks.
type BuildAuditRepository struct {
	db *sql.DB
}

// NewBuildAuditRepository builds a BuildAuditRepository.
func NewBuildAuditRepository(db *sql.DB) *BuildAuditRepository {
	return &BuildAuditRepository{db: db}
}

// Create inserts one audit row.
func (r *BuildAuditRepository) Create(a *models.BuildAudit) error {
	query := `
		INSERT INTO build_audits (tag, block_height, ask_points, bid_points, mid_price, degraded, degraded_reason, build_duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	a.CreatedAt = time.Now()

	return r.db.QueryRow(
		query,
		a.Tag, a.BlockHeight, a.AskPoints, a.BidPoints, a.MidPrice, a.Degraded, a.DegradedReason, a.BuildDurationMs, a.CreatedAt,
	).Scan(&a.ID)
}

// GetRecentByTag returns the most recent audit rows for a pair, newest
// first.
func (r *BuildAuditRepository) GetRecentByTag(tag string, limit int) ([]*models.BuildAudit, error) {
	query := `
		SELECT id, tag, block_height, ask_points, bid_points, mid_price, degraded, degraded_reason, build_duration_ms, created_at
		FROM build_audits
		WHERE tag = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, tag, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*models.BuildAudit
	for rows.Next() {
		a := &models.BuildAudit{}
		if err := rows.Scan(
			&a.ID, &a.Tag, &a.BlockHeight, &a.AskPoints, &a.BidPoints, &a.MidPrice, &a.Degraded, &a.DegradedReason, &a.BuildDurationMs, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// CountDegradedSince counts degraded builds since a cutoff time, used to
// surface upstream-health regressions.
func (r *BuildAuditRepository) CountDegradedSince(since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM build_audits WHERE degraded = true AND created_at >= $1`

	var count int
	err := r.db.QueryRow(query, since).Scan(&count)
	return count, err
}

// DeleteOlderThan prunes audit rows past a retention cutoff.
func (r *BuildAuditRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := `DELETE FROM build_audits WHERE created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
