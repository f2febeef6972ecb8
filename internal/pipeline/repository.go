package pipeline

import (
	"context"
	"database/sql"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/jmoiron/sqlx"
)

// RunStore persists refresh run bookkeeping.
type RunStore interface {
	CreateRun(ctx context.Context, run *RefreshRun) error
	UpdateRun(ctx context.Context, run *RefreshRun) error
}

// Repository handles database operations for refresh run tracking
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new run record
func (r *Repository) CreateRun(ctx context.Context, run *RefreshRun) error {
	query := `
		INSERT INTO refresh_runs (id, status, total, processed, failed, fallback, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.Total, run.Processed, run.Failed, run.Fallback, run.StartedAt)
	return err
}

// UpdateRun writes the counters and final status of a run
func (r *Repository) UpdateRun(ctx context.Context, run *RefreshRun) error {
	query := `
		UPDATE refresh_runs
		SET status = $1, processed = $2, failed = $3, fallback = $4,
		    completed_at = $5, error_message = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Status, run.Processed, run.Failed, run.Fallback, run.CompletedAt, run.ErrorMessage, run.ID)
	return err
}

// GetRun retrieves a run by ID
func (r *Repository) GetRun(ctx context.Context, id string) (*RefreshRun, error) {
	query := `
		SELECT id, status, total, processed, failed, fallback, started_at, completed_at, error_message
		FROM refresh_runs
		WHERE id = $1
	`
	run := &RefreshRun{}
	if err := r.db.GetContext(ctx, run, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("refresh run %s", id)
		}
		return nil, err
	}
	return run, nil
}

// RecentRuns lists the latest runs, newest first
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, status, total, processed, failed, fallback, started_at, completed_at, error_message
		FROM refresh_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var runs []RefreshRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

var _ RunStore = (*Repository)(nil)
