// Package repository is the Data Access Layer over Postgres: which pairs
// the operator wants watched, an audit trail of assembled orderbooks, and
// encrypted upstream credentials. Grounded on the teacher's
// internal/repository package (database/sql + lib/pq, $N placeholders,
// sentinel not-found errors checked via errors.Is).
package repository

import (
	"database/sql"
	"errors"
	"time"

	"tychoorderbook/internal/models"
)

// ErrWatchedPairNotFound is returned when a lookup or mutation targets a
// pair id that does not exist.
var ErrWatchedPairNotFound = errors.New("watched pair not found")

// ErrWatchedPairExists is returned when Create collides with the unique
// tag constraint.
var ErrWatchedPairExists = errors.New("watched pair already exists")

// WatchedPairRepository is the Data Access Layer for the watched_pairs
// table.
type WatchedPairRepository struct {
	db *sql.DB
}

// NewWatchedPairRepository builds a WatchedPairRepository.
func NewWatchedPairRepository(db *sql.DB) *WatchedPairRepository {
	return &WatchedPairRepository{db: db}
}

// Create inserts a new watched pair and populates its ID.
func (r *WatchedPairRepository) Create(p *models.WatchedPair) error {
	query := `
		INSERT INTO watched_pairs (tag, base_token, quote_token, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.WatchedPairStatusActive
	}

	err := r.db.QueryRow(
		query,
		p.Tag, p.BaseToken, p.QuoteToken, p.Status, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrWatchedPairExists
		}
		return err
	}
	return nil
}

// GetByID returns a watched pair by its primary key.
func (r *WatchedPairRepository) GetByID(id int) (*models.WatchedPair, error) {
	query := `
		SELECT id, tag, base_token, quote_token, status, created_at, updated_at
		FROM watched_pairs
		WHERE id = $1`

	p := &models.WatchedPair{}
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.Tag, &p.BaseToken, &p.QuoteToken, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchedPairNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByTag returns a watched pair by its "base-quote" tag.
func (r *WatchedPairRepository) GetByTag(tag string) (*models.WatchedPair, error) {
	query := `
		SELECT id, tag, base_token, quote_token, status, created_at, updated_at
		FROM watched_pairs
		WHERE tag = $1`

	p := &models.WatchedPair{}
	err := r.db.QueryRow(query, tag).Scan(
		&p.ID, &p.Tag, &p.BaseToken, &p.QuoteToken, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchedPairNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetActive returns every watched pair with status "active".
func (r *WatchedPairRepository) GetActive() ([]*models.WatchedPair, error) {
	return r.getByStatus(models.WatchedPairStatusActive)
}

func (r *WatchedPairRepository) getByStatus(status string) ([]*models.WatchedPair, error) {
	query := `
		SELECT id, tag, base_token, quote_token, status, created_at, updated_at
		FROM watched_pairs
		WHERE status = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*models.WatchedPair
	for rows.Next() {
		p := &models.WatchedPair{}
		if err := rows.Scan(&p.ID, &p.Tag, &p.BaseToken, &p.QuoteToken, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// GetAll returns every watched pair.
func (r *WatchedPairRepository) GetAll() ([]*models.WatchedPair, error) {
	query := `
		SELECT id, tag, base_token, quote_token, status, created_at, updated_at
		FROM watched_pairs
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []*models.WatchedPair
	for rows.Next() {
		p := &models.WatchedPair{}
		if err := rows.Scan(&p.ID, &p.Tag, &p.BaseToken, &p.QuoteToken, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// UpdateStatus flips a pair between active and paused.
func (r *WatchedPairRepository) UpdateStatus(id int, status string) error {
	query := `UPDATE watched_pairs SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrWatchedPairNotFound
	}
	return nil
}

// Delete removes a watched pair.
func (r *WatchedPairRepository) Delete(id int) error {
	query := `DELETE FROM watched_pairs WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrWatchedPairNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "duplicate key") || contains(msg, "23505")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
