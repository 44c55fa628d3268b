// Package postgres keeps the local audit trail. Guides, scans and
// authorizations live in the remote backend; the only thing persisted here
// is the discrepancy journal, which by contract must survive even when the
// backend record has been overwritten by a later stage revisit.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS discrepancy_journal (
	id TEXT PRIMARY KEY,
	guide_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	missing JSONB NOT NULL DEFAULT '[]'::jsonb,
	extra JSONB NOT NULL DEFAULT '[]'::jsonb,
	note TEXT,
	operator TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_discrepancy_journal_guide ON discrepancy_journal(guide_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AuditRepository) RecordDiscrepancy(ctx context.Context, entry domain.DiscrepancyEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	missing, err := json.Marshal(emptyIfNil(entry.Missing))
	if err != nil {
		return fmt.Errorf("marshal missing codes: %w", err)
	}
	extra, err := json.Marshal(emptyIfNil(entry.Extra))
	if err != nil {
		return fmt.Errorf("marshal extra codes: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO discrepancy_journal (id, guide_id, stage, missing, extra, note, operator, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, entry.ID, entry.GuideID, string(entry.Stage), missing, extra, entry.Note, entry.Operator, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("record discrepancy: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByGuide(ctx context.Context, guideID string) ([]domain.DiscrepancyEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, guide_id, stage, missing, extra, note, operator, created_at
FROM discrepancy_journal
WHERE guide_id = $1
ORDER BY created_at DESC
`, guideID)
	if err != nil {
		return nil, fmt.Errorf("list discrepancies: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DiscrepancyEntry, 0)
	for rows.Next() {
		entry, err := scanDiscrepancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discrepancies: %w", err)
	}
	return out, nil
}

func scanDiscrepancy(rows *sql.Rows) (domain.DiscrepancyEntry, error) {
	var entry domain.DiscrepancyEntry
	var stage string
	var missing, extra []byte
	var note sql.NullString

	err := rows.Scan(
		&entry.ID,
		&entry.GuideID,
		&stage,
		&missing,
		&extra,
		&note,
		&entry.Operator,
		&entry.CreatedAt,
	)
	if err != nil {
		return domain.DiscrepancyEntry{}, fmt.Errorf("scan discrepancy row: %w", err)
	}

	entry.Stage = domain.Stage(stage)
	entry.Note = note.String
	if err := json.Unmarshal(missing, &entry.Missing); err != nil {
		return domain.DiscrepancyEntry{}, fmt.Errorf("unmarshal missing codes: %w", err)
	}
	if err := json.Unmarshal(extra, &entry.Extra); err != nil {
		return domain.DiscrepancyEntry{}, fmt.Errorf("unmarshal extra codes: %w", err)
	}
	return entry, nil
}

func emptyIfNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
