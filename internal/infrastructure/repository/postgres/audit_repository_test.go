package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

func TestAuditRepositoryRecordDiscrepancyFillsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	mock.ExpectExec("INSERT INTO discrepancy_journal").
		WithArgs(sqlmock.AnyArg(), "g-1", string(domain.StageWashing), []byte(`["A1","B2"]`), []byte(`[]`), "one bag short", "op-7", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.RecordDiscrepancy(context.Background(), domain.DiscrepancyEntry{
		GuideID:  "g-1",
		Stage:    domain.StageWashing,
		Missing:  []string{"A1", "B2"},
		Extra:    nil,
		Note:     "one bag short",
		Operator: "op-7",
	})
	if err != nil {
		t.Fatalf("RecordDiscrepancy() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAuditRepositoryListByGuide(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "guide_id", "stage", "missing", "extra", "note", "operator", "created_at"}).
		AddRow("d-1", "g-1", string(domain.StageDrying), []byte(`["A1"]`), []byte(`["Z9"]`), "", "op-7", time.Now()).
		AddRow("d-2", "g-1", string(domain.StageWashing), []byte(`[]`), []byte(`["Z8"]`), "foreign tag", "op-3", time.Now())

	mock.ExpectQuery("FROM discrepancy_journal").
		WithArgs("g-1").
		WillReturnRows(rows)

	entries, err := repo.ListByGuide(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("ListByGuide() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Stage != domain.StageDrying || entries[0].Missing[0] != "A1" || entries[0].Extra[0] != "Z9" {
		t.Fatalf("entry = %+v", entries[0])
	}
	if entries[1].Note != "foreign tag" {
		t.Fatalf("Note = %q", entries[1].Note)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
