package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

// AnalysisRepository keeps an audit trail of analyzed upload batches.
type AnalysisRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
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

func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analysis_batches (
	batch_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	total_files INTEGER NOT NULL,
	successful_files INTEGER NOT NULL,
	compliance_score INTEGER NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_analyses (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL REFERENCES analysis_batches(batch_id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	file_name TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	document_type TEXT,
	confidence INTEGER NOT NULL DEFAULT 0,
	fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	issues JSONB NOT NULL DEFAULT '[]'::jsonb,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_document_analyses_batch ON document_analyses(batch_id, position);
CREATE INDEX IF NOT EXISTS idx_analysis_batches_occurred_at ON analysis_batches(occurred_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveBatch stores the batch and its documents atomically. Redelivered events
// for a stored batch are ignored.
func (r *AnalysisRepository) SaveBatch(ctx context.Context, event domain.DocumentsAnalyzedEvent) error {
	if event.BatchID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save batch", fmt.Errorf("missing batch id"))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO analysis_batches (batch_id, source, total_files, successful_files, compliance_score, occurred_at, stored_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (batch_id) DO NOTHING
`, event.BatchID, event.Source, event.TotalFiles, event.SuccessfulFiles, event.ComplianceScore, event.OccurredAt, r.now())
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil
	}

	for idx, doc := range event.Documents {
		fields := doc.Fields
		if fields == nil {
			fields = domain.FieldMap{}
		}
		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		issues := doc.Issues
		if issues == nil {
			issues = []string{}
		}
		issuesJSON, err := json.Marshal(issues)
		if err != nil {
			return fmt.Errorf("marshal issues: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO document_analyses (id, batch_id, position, file_name, success, document_type, confidence, fields, issues, error_message)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, uuid.NewString(), event.BatchID, idx, doc.FileName, doc.Success, string(doc.DocumentType), doc.Confidence, fieldsJSON, issuesJSON, doc.Error); err != nil {
			return fmt.Errorf("insert document analysis %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}
