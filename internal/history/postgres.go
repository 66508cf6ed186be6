package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/volscan/internal/contracts"
)

// PostgresStore persists channel runs to PostgreSQL
// ⭐ SSOT: 실행 이력 저장/조회는 여기서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new run history repository
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS scan_runs (
		id            UUID PRIMARY KEY,
		column_index  INTEGER NOT NULL,
		trigger       TEXT NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL,
		candidates    INTEGER NOT NULL,
		accepted      INTEGER NOT NULL,
		rejected      INTEGER NOT NULL,
		reasons       JSONB NOT NULL DEFAULT '{}',
		artifact_path TEXT NOT NULL,
		report_path   TEXT NOT NULL DEFAULT '',
		error         TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS scan_runs_started_at_idx ON scan_runs (started_at DESC);
`

// EnsureSchema creates the scan_runs table if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create scan_runs: %w", err)
	}
	return nil
}

// Save inserts one run
func (s *PostgresStore) Save(ctx context.Context, rec *contracts.RunRecord) error {
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("failed to marshal reasons: %w", err)
	}

	query := `
		INSERT INTO scan_runs (
			id, column_index, trigger, started_at, finished_at,
			candidates, accepted, rejected, reasons, artifact_path, report_path, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Column, rec.Trigger, rec.StartedAt, rec.FinishedAt,
		rec.Candidates, rec.Accepted, rec.Rejected, reasons, rec.ArtifactPath, rec.ReportPath, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, newest first
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]contracts.RunRecord, error) {
	query := `
		SELECT id, column_index, trigger, started_at, finished_at,
			candidates, accepted, rejected, reasons, artifact_path, report_path, error
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]contracts.RunRecord, 0)
	for rows.Next() {
		var rec contracts.RunRecord
		var reasons []byte
		if err := rows.Scan(
			&rec.ID, &rec.Column, &rec.Trigger, &rec.StartedAt, &rec.FinishedAt,
			&rec.Candidates, &rec.Accepted, &rec.Rejected, &reasons, &rec.ArtifactPath, &rec.ReportPath, &rec.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(reasons) > 0 {
			if err := json.Unmarshal(reasons, &rec.Reasons); err != nil {
				return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
			}
		}
		runs = append(runs, rec)
	}

	return runs, rows.Err()
}
