package userjob

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store is the persistence boundary for user jobs
type Store interface {
	UpdateStatus(ctx context.Context, userID string, userJobIDs []string, status string) (int64, error)
	Delete(ctx context.Context, userID string, userJobIDs []string) (int64, error)
	ListByUser(ctx context.Context, filter Filter) ([]ListedJob, error)
}

// Filter narrows a user-job listing
type Filter struct {
	UserID   string
	Status   string
	PageSize int
	Cursor   *Cursor
}

// Cursor is a keyset pagination position over (created_at, id)
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// ListedJob is a UserJob joined with its canonical posting for display
type ListedJob struct {
	UserJob
	Title          string     `db:"title"`
	Company        string     `db:"company"`
	CompanyLogoURL string     `db:"company_logo_url"`
	Location       string     `db:"location"`
	JobURL         string     `db:"job_url"`
	Site           string     `db:"site"`
	SalaryMin      *float64   `db:"salary_min"`
	SalaryMax      *float64   `db:"salary_max"`
	SalaryCurrency string     `db:"salary_currency"`
	DatePosted     *time.Time `db:"date_posted"`
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

// UpdateStatus applies one status to all selected rows in a single statement.
// The user_id filter makes row ownership part of the mutation itself: ids
// belonging to other users simply match nothing. Re-applying a status a row
// already has still counts the row as updated, which keeps bulk replays
// idempotent in effect without shrinking the reported count.
func (s *PostgresStore) UpdateStatus(ctx context.Context, userID string, userJobIDs []string, status string) (int64, error) {
	query := `
		UPDATE user_jobs
		SET status = $1,
		    updated_at = NOW()
		WHERE user_id = $2
		  AND id = ANY($3)
	`

	result, err := s.db.ExecContext(ctx, query, status, userID, pq.Array(userJobIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update user jobs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info("User jobs status updated",
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Int("requested", len(userJobIDs)),
		slog.Int64("updated", affected),
	)

	return affected, nil
}

// Delete removes all selected rows owned by the user in a single statement
func (s *PostgresStore) Delete(ctx context.Context, userID string, userJobIDs []string) (int64, error) {
	query := `
		DELETE FROM user_jobs
		WHERE user_id = $1
		  AND id = ANY($2)
	`

	result, err := s.db.ExecContext(ctx, query, userID, pq.Array(userJobIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete user jobs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info("User jobs deleted",
		slog.String("user_id", userID),
		slog.Int("requested", len(userJobIDs)),
		slog.Int64("deleted", affected),
	)

	return affected, nil
}

// ListByUser returns the user's jobs newest first with keyset pagination.
// Fetches one row beyond the page size so the caller can detect more results.
func (s *PostgresStore) ListByUser(ctx context.Context, filter Filter) ([]ListedJob, error) {
	query := `
		SELECT uj.id, uj.user_id, uj.job_id, uj.status, uj.notes, uj.created_at, uj.updated_at,
		       j.title, j.company, j.company_logo_url, j.location, j.job_url, j.site,
		       j.salary_min, j.salary_max, j.salary_currency, j.date_posted
		FROM user_jobs uj
		JOIN jobs j ON j.id = uj.job_id
		WHERE uj.user_id = $1
	`
	args := []interface{}{filter.UserID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND uj.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (uj.created_at, uj.id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY uj.created_at DESC, uj.id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []ListedJob
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list user jobs: %w", err)
	}

	return jobs, nil
}

// UpsertJobs inserts canonical postings, deduplicating on job_url, and
// returns the ids of all rows the batch now maps to.
func (s *PostgresStore) UpsertJobs(ctx context.Context, jobs []Job) ([]string, error) {
	ids := make([]string, 0, len(jobs))

	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.New().String()
		}

		query := `
			INSERT INTO jobs (
				id, title, company, company_url, company_logo_url, location, is_remote,
				job_url, description, job_type, job_level, job_function,
				salary_min, salary_max, salary_currency, site, source_site, date_posted, created_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7,
				$8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, NOW()
			)
			ON CONFLICT (job_url) DO UPDATE SET
				title = EXCLUDED.title,
				company = EXCLUDED.company,
				company_logo_url = EXCLUDED.company_logo_url,
				salary_min = EXCLUDED.salary_min,
				salary_max = EXCLUDED.salary_max,
				salary_currency = EXCLUDED.salary_currency
			RETURNING id
		`

		var id string
		err := s.db.QueryRowContext(ctx, query,
			job.ID, job.Title, job.Company, job.CompanyURL, job.CompanyLogoURL, job.Location, job.IsRemote,
			job.JobURL, job.Description, job.JobType, job.JobLevel, job.JobFunction,
			job.SalaryMin, job.SalaryMax, job.SalaryCurrency, job.Site, job.SourceSite, job.DatePosted,
		).Scan(&id)
		if err != nil {
			return ids, fmt.Errorf("failed to upsert job %q: %w", job.JobURL, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// LinkUserJobs creates user_jobs rows at status new for each job the user
// does not already track. Existing links are left untouched.
func (s *PostgresStore) LinkUserJobs(ctx context.Context, userID string, jobIDs []string) (int, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO user_jobs (id, user_id, job_id, status, created_at, updated_at)
		SELECT gen_random_uuid(), $1, j.id, $2, NOW(), NOW()
		FROM jobs j
		WHERE j.id = ANY($3)
		ON CONFLICT (user_id, job_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, userID, StatusNew, pq.Array(jobIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to link user jobs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(affected), nil
}

// RecentNewJobs returns up to limit of the user's jobs still at status new,
// newest first. Used to build notification digests.
func (s *PostgresStore) RecentNewJobs(ctx context.Context, userID string, limit int) ([]ListedJob, error) {
	jobs, err := s.ListByUser(ctx, Filter{
		UserID:   userID,
		Status:   StatusNew,
		PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
