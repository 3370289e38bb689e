package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

var (
	// ErrInvalidResultStatus is returned when the scraper reports a
	// non-terminal status
	ErrInvalidResultStatus = errors.New("result status must be success or failed")
)

// ScrapedJob is one posting reported back by the external scraper
type ScrapedJob struct {
	Site           string     `json:"site"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	CompanyURL     string     `json:"company_url"`
	CompanyLogoURL string     `json:"company_logo_url"`
	Location       string     `json:"location"`
	IsRemote       bool       `json:"is_remote"`
	JobURL         string     `json:"job_url"`
	Description    string     `json:"description"`
	JobType        string     `json:"job_type"`
	JobLevel       string     `json:"job_level"`
	JobFunction    string     `json:"job_function"`
	SalaryMin      *float64   `json:"salary_min"`
	SalaryMax      *float64   `json:"salary_max"`
	SalaryCurrency string     `json:"salary_currency"`
	DatePosted     *time.Time `json:"date_posted"`
}

// ScrapeResults is the payload the external scraper posts when a run finishes
type ScrapeResults struct {
	RunID  string
	Status string
	Jobs   []ScrapedJob
}

// IngestSummary reports what a result ingest changed
type IngestSummary struct {
	JobsUpserted int
	Linked       int
}

// JobWriter is the slice of the user-job store the ingestor needs
type JobWriter interface {
	UpsertJobs(ctx context.Context, jobs []userjob.Job) ([]string, error)
	LinkUserJobs(ctx context.Context, userID string, jobIDs []string) (int, error)
}

// CompletionPublisher announces a finished run to the notification pipeline
type CompletionPublisher interface {
	PublishRunCompleted(ctx context.Context, runID, userID, status string, newJobs int) error
}

// Ingestor applies scraper results: upserts canonical jobs, links them to the
// run's owner, and flips the run to its terminal status.
type Ingestor struct {
	runs      Store
	jobs      JobWriter
	publisher CompletionPublisher
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor. publisher may be nil when notifications
// are disabled.
func NewIngestor(runs Store, jobs JobWriter, publisher CompletionPublisher, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		runs:      runs,
		jobs:      jobs,
		publisher: publisher,
		logger:    logger,
	}
}

// Ingest persists one run's results. The job upsert and user-job linking must
// succeed before the run is marked terminal, so a poller never observes a
// finished run whose results are missing.
func (i *Ingestor) Ingest(ctx context.Context, results ScrapeResults) (IngestSummary, error) {
	if !IsTerminal(results.Status) {
		return IngestSummary{}, fmt.Errorf("%w: %q", ErrInvalidResultStatus, results.Status)
	}

	target, err := i.runs.GetRun(ctx, results.RunID)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("failed to load run for ingest: %w", err)
	}

	var summary IngestSummary
	if results.Status == StatusSuccess && len(results.Jobs) > 0 {
		jobIDs, err := i.jobs.UpsertJobs(ctx, toJobs(results.Jobs))
		if err != nil {
			return summary, fmt.Errorf("failed to upsert scraped jobs: %w", err)
		}
		summary.JobsUpserted = len(jobIDs)

		linked, err := i.jobs.LinkUserJobs(ctx, target.UserID, jobIDs)
		if err != nil {
			return summary, fmt.Errorf("failed to link user jobs: %w", err)
		}
		summary.Linked = linked
	}

	if err := i.runs.MarkCompleted(ctx, target.ID, results.Status, time.Now().UTC()); err != nil {
		return summary, err
	}

	i.logger.Info("Scrape results ingested",
		slog.String("run_id", target.ID),
		slog.String("user_id", target.UserID),
		slog.String("status", results.Status),
		slog.Int("jobs_upserted", summary.JobsUpserted),
		slog.Int("linked", summary.Linked),
	)

	if i.publisher != nil {
		if err := i.publisher.PublishRunCompleted(ctx, target.ID, target.UserID, results.Status, summary.Linked); err != nil {
			// Notification is best-effort: the run result stands either way.
			i.logger.Warn("Failed to publish run-completed event",
				slog.String("run_id", target.ID),
				slog.Any("error", err),
			)
		}
	}

	return summary, nil
}

func toJobs(scraped []ScrapedJob) []userjob.Job {
	jobs := make([]userjob.Job, 0, len(scraped))
	for _, sj := range scraped {
		jobs = append(jobs, userjob.Job{
			Title:          sj.Title,
			Company:        sj.Company,
			CompanyURL:     sj.CompanyURL,
			CompanyLogoURL: sj.CompanyLogoURL,
			Location:       sj.Location,
			IsRemote:       sj.IsRemote,
			JobURL:         sj.JobURL,
			Description:    sj.Description,
			JobType:        sj.JobType,
			JobLevel:       sj.JobLevel,
			JobFunction:    sj.JobFunction,
			SalaryMin:      sj.SalaryMin,
			SalaryMax:      sj.SalaryMax,
			SalaryCurrency: sj.SalaryCurrency,
			Site:           sj.Site,
			SourceSite:     sj.Site,
			DatePosted:     sj.DatePosted,
		})
	}
	return jobs
}
