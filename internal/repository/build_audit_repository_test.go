package repository

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"tychoorderbook/internal/models"
)

func TestBuildAuditRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO build_audits`).
		WithArgs("0xweth-0xusdc", uint64(100), 10, 8, 2000.5, false, "", int64(12), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	repo := NewBuildAuditRepository(db)
	a := &models.BuildAudit{Tag: "0xweth-0xusdc", BlockHeight: 100, AskPoints: 10, BidPoints: 8, MidPrice: 2000.5, BuildDurationMs: 12}
	if err := repo.Create(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != 1 {
		t.Fatalf("expected ID=1, got %d", a.ID)
	}
}

func TestBuildAuditRepositoryGetRecentByTag(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tag", "block_height", "ask_points", "bid_points", "mid_price", "degraded", "degraded_reason", "build_duration_ms", "created_at"}).
		AddRow(1, "0xweth-0xusdc", 100, 10, 8, 2000.5, false, "", 12, now)
	mock.ExpectQuery(`SELECT .+ FROM build_audits WHERE tag = \$1`).
		WithArgs("0xweth-0xusdc", 5).
		WillReturnRows(rows)

	repo := NewBuildAuditRepository(db)
	result, err := repo.GetRecentByTag("0xweth-0xusdc", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result))
	}
}

func TestBuildAuditRepositoryCountDegradedSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM build_audits WHERE degraded = true AND created_at >= \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewBuildAuditRepository(db)
	count, err := repo.CountDegradedSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count=3, got %d", count)
	}
}
