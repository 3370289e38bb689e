package handler

import (
	"context"
	"log/slog"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/journal"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

// RunScheduler starts scrape runs for one user or for everyone
type RunScheduler interface {
	ScheduleForUser(ctx context.Context, userID string, params run.Parameters, source string) (*run.SearchRun, scrapeclient.DeliveryResult, error)
	ScheduleAllFromLastSuccess(ctx context.Context, overrideHours int) (run.BatchResult, error)
}

// RunMonitor reports the caller's active run, if any
type RunMonitor interface {
	ActiveRun(ctx context.Context, userID string) *run.SearchRun
}

// BulkEngine applies one mutation to a selection of user jobs
type BulkEngine interface {
	BulkApply(ctx context.Context, callerID, userID string, userJobIDs []string, op userjob.BulkOperation) (userjob.BulkResult, error)
}

// ResultIngestor persists a finished run's scraped postings
type ResultIngestor interface {
	Ingest(ctx context.Context, results run.ScrapeResults) (run.IngestSummary, error)
}

// JobLister pages through a user's tracked jobs
type JobLister interface {
	ListByUser(ctx context.Context, filter userjob.Filter) ([]userjob.ListedJob, error)
}

// OperationResumer picks up an interrupted bulk operation for a session
type OperationResumer interface {
	ResumeOnce(ctx context.Context, sessionID, userID string) (bool, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Scheduler RunScheduler
	Monitor   RunMonitor
	Engine    BulkEngine
	Ingestor  ResultIngestor
	Jobs      JobLister
	Journal   journal.Store
	Resumer   OperationResumer
}

// RunHandler handles search-run HTTP requests
type RunHandler struct {
	logger    *slog.Logger
	scheduler RunScheduler
	monitor   RunMonitor
}

// NewRunHandler creates a new RunHandler instance
func NewRunHandler(deps *Dependencies) *RunHandler {
	return &RunHandler{
		logger:    deps.Logger,
		scheduler: deps.Scheduler,
		monitor:   deps.Monitor,
	}
}

// UserJobHandler handles user-job HTTP requests
type UserJobHandler struct {
	logger *slog.Logger
	engine BulkEngine
	jobs   JobLister
}

// NewUserJobHandler creates a new UserJobHandler instance
func NewUserJobHandler(deps *Dependencies) *UserJobHandler {
	return &UserJobHandler{
		logger: deps.Logger,
		engine: deps.Engine,
		jobs:   deps.Jobs,
	}
}

// JournalHandler handles operation-journal HTTP requests
type JournalHandler struct {
	logger  *slog.Logger
	journal journal.Store
	resumer OperationResumer
}

// NewJournalHandler creates a new JournalHandler instance
func NewJournalHandler(deps *Dependencies) *JournalHandler {
	return &JournalHandler{
		logger:  deps.Logger,
		journal: deps.Journal,
		resumer: deps.Resumer,
	}
}

// InternalHandler handles scheduler and scraper callback requests
type InternalHandler struct {
	logger    *slog.Logger
	scheduler RunScheduler
	ingestor  ResultIngestor
}

// NewInternalHandler creates a new InternalHandler instance
func NewInternalHandler(deps *Dependencies) *InternalHandler {
	return &InternalHandler{
		logger:    deps.Logger,
		scheduler: deps.Scheduler,
		ingestor:  deps.Ingestor,
	}
}
