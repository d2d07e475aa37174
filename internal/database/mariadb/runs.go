package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/stock-metadata/internal/database"
)

// RunRepository provides MariaDB-backed run storage
type RunRepository struct {
	pool *Pool
}

// NewRunRepository creates a new MariaDB run repository
func NewRunRepository(pool *Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun stores a run, replacing an existing one with the same ID
func (r *RunRepository) SaveRun(ctx context.Context, run *database.StoredRun) error {
	records, err := database.EncodeRecords(run.Records)
	if err != nil {
		return err
	}

	query := `
		REPLACE INTO runs (id, subject, strategy, mode, category, requested, row_count, ai_failures, cancelled, seed, records, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.pool.db.ExecContext(ctx, query,
		run.ID, run.Subject, run.Strategy, run.Mode, run.Category,
		run.Requested, len(run.Records), run.AIFailures, run.Cancelled,
		database.FormatSeed(run.Seed), string(records), run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, returns nil if not found
func (r *RunRepository) GetRun(ctx context.Context, id string) (*database.StoredRun, error) {
	query := `
		SELECT id, subject, strategy, mode, category, requested, ai_failures, cancelled, seed, records, created_at
		FROM runs
		WHERE id = ?
	`

	var run database.StoredRun
	var seed string
	var records []byte
	err := r.pool.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Subject, &run.Strategy, &run.Mode, &run.Category,
		&run.Requested, &run.AIFailures, &run.Cancelled, &seed, &records, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if run.Seed, err = database.ParseSeed(seed); err != nil {
		return nil, err
	}
	if run.Records, err = database.DecodeRecords(records); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns run summaries, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]database.RunSummary, error) {
	query := `
		SELECT id, subject, strategy, mode, category, requested, row_count, ai_failures, cancelled, seed, created_at
		FROM runs
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	summaries := []database.RunSummary{}
	for rows.Next() {
		var s database.RunSummary
		var seed string
		if err := rows.Scan(&s.ID, &s.Subject, &s.Strategy, &s.Mode, &s.Category,
			&s.Requested, &s.Rows, &s.AIFailures, &s.Cancelled, &seed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if s.Seed, err = database.ParseSeed(seed); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return summaries, nil
}

// DeleteRun removes a run from the database
func (r *RunRepository) DeleteRun(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return count > 0, nil
}

// Close closes the underlying pool
func (r *RunRepository) Close() error {
	return r.pool.Close()
}

var _ database.RunStore = (*RunRepository)(nil)
