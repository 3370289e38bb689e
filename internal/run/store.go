package run

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is the persistence boundary for search runs
type Store interface {
	Insert(ctx context.Context, run *SearchRun) error
	InsertBatch(ctx context.Context, runs []*SearchRun) error
	GetRun(ctx context.Context, runID string) (*SearchRun, error)
	LatestRun(ctx context.Context, userID string) (*SearchRun, error)
	LatestSuccessPerUser(ctx context.Context, scanLimit int) ([]*SearchRun, error)
	MarkCompleted(ctx context.Context, runID, status string, completedAt time.Time) error
}

// PostgresStore implements Store over PostgreSQL
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

const insertColumns = `id, user_id, source, parameters, status, client_context, created_at`

// Insert persists a single search run
func (s *PostgresStore) Insert(ctx context.Context, run *SearchRun) error {
	query := `
		INSERT INTO search_runs (` + insertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.UserID,
		run.Source,
		run.Parameters,
		run.Status,
		run.ClientContext,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search run: %w", err)
	}

	return nil
}

// InsertBatch persists runs in one multi-row statement. Callers bound the
// slice size; request-size limits are their concern, atomicity is ours.
func (s *PostgresStore) InsertBatch(ctx context.Context, runs []*SearchRun) error {
	if len(runs) == 0 {
		return nil
	}

	var (
		placeholders = make([]string, 0, len(runs))
		args         = make([]interface{}, 0, len(runs)*7)
	)
	for i, run := range runs {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			run.ID, run.UserID, run.Source, run.Parameters,
			run.Status, run.ClientContext, run.CreatedAt,
		)
	}

	query := `INSERT INTO search_runs (` + insertColumns + `) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert search run batch: %w", err)
	}

	s.logger.Debug("Search run batch inserted",
		slog.Int("count", len(runs)),
	)

	return nil
}

// GetRun returns a run by id, or ErrRunNotFound
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*SearchRun, error) {
	query := `
		SELECT id, user_id, source, parameters, status, client_context, created_at, completed_at
		FROM search_runs
		WHERE id = $1
	`

	var run SearchRun
	if err := s.db.GetContext(ctx, &run, query, runID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// LatestRun returns the most recently created run for a user, or
// ErrRunNotFound when the user has none.
func (s *PostgresStore) LatestRun(ctx context.Context, userID string) (*SearchRun, error) {
	query := `
		SELECT id, user_id, source, parameters, status, client_context, created_at, completed_at
		FROM search_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run SearchRun
	if err := s.db.GetContext(ctx, &run, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return &run, nil
}

// LatestSuccessPerUser returns the most recent successful run per distinct
// user. Scanning is capped at scanLimit recent rows; deduplication keeps the
// first (newest by completed_at) row seen for each user.
func (s *PostgresStore) LatestSuccessPerUser(ctx context.Context, scanLimit int) ([]*SearchRun, error) {
	query := `
		SELECT id, user_id, source, parameters, status, client_context, created_at, completed_at
		FROM search_runs
		WHERE status = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`

	var rows []SearchRun
	if err := s.db.SelectContext(ctx, &rows, query, StatusSuccess, scanLimit); err != nil {
		return nil, fmt.Errorf("failed to scan successful runs: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	result := make([]*SearchRun, 0, len(rows))
	for i := range rows {
		run := rows[i]
		if _, ok := seen[run.UserID]; ok {
			continue
		}
		seen[run.UserID] = struct{}{}
		result = append(result, &run)
	}

	return result, nil
}

// MarkCompleted flips a run to a terminal status. Called from the scraper
// result ingest path only.
func (s *PostgresStore) MarkCompleted(ctx context.Context, runID, status string, completedAt time.Time) error {
	query := `
		UPDATE search_runs
		SET status = $1, completed_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, completedAt, runID)
	if err != nil {
		return fmt.Errorf("failed to complete search run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}

	s.logger.Info("Search run completed",
		slog.String("run_id", runID),
		slog.String("status", status),
	)

	return nil
}
