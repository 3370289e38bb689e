package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
)

// Dispatcher is the slice of the scrape client the scheduler needs
type Dispatcher interface {
	TriggerScrape(ctx context.Context, runID, userID string, params scrapeclient.ScrapeParams) scrapeclient.DeliveryResult
	WarmUp(ctx context.Context) bool
	PollQueue(ctx context.Context, batchSize int) bool
}

// SchedulerConfig holds batch scheduling knobs
type SchedulerConfig struct {
	FreshnessHours  int // freshness window forced onto every cron-scheduled run
	InsertBatchSize int
	ScanLimit       int
	QueueBatchSize  int
}

// Scheduler creates search runs and dispatches scrape work for them.
// Datastore failures are fatal to the call; dispatch failures are best-effort
// and compensated by the queue-poll backstop.
type Scheduler struct {
	store   Store
	scraper Dispatcher
	config  SchedulerConfig
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler
func NewScheduler(store Store, scraper Dispatcher, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		scraper: scraper,
		config:  config,
		logger:  logger,
	}
}

// ScheduleForUser creates one pending run for a user and delivers its scrape
// request. The run insert must succeed; delivery is attempted once after a
// synchronous warm-up ping and reported to the caller either way.
func (s *Scheduler) ScheduleForUser(ctx context.Context, userID string, params Parameters, source string) (*SearchRun, scrapeclient.DeliveryResult, error) {
	if !ValidSource(source) {
		return nil, scrapeclient.DeliveryResult{}, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	run := newRun(userID, params, source)
	if err := s.store.Insert(ctx, run); err != nil {
		return nil, scrapeclient.DeliveryResult{}, fmt.Errorf("failed to create search run: %w", err)
	}

	s.logger.Info("Search run created",
		slog.String("run_id", run.ID),
		slog.String("user_id", userID),
		slog.String("source", source),
	)

	// Wake a cold scraper before the real call so the delivery budget is
	// spent on delivery, not on cold start.
	s.scraper.WarmUp(ctx)

	delivery := s.scraper.TriggerScrape(ctx, run.ID, run.UserID, toScrapeParams(params))
	if !delivery.Delivered {
		s.logger.Warn("Scrape delivery failed for run",
			slog.String("run_id", run.ID),
			slog.Any("error", delivery.Err),
		)
	}

	return run, delivery, nil
}

// ScheduleAllFromLastSuccess schedules a fresh run for every user that has a
// prior successful run, cloning that run's parameters with the freshness
// window overridden. Inserts happen in fixed-size batches and abort on the
// first failure, reporting rows inserted so far. Triggers are dispatched
// concurrently and independently; a single queue poll afterwards recovers any
// dropped deliveries.
func (s *Scheduler) ScheduleAllFromLastSuccess(ctx context.Context, overrideHours int) (BatchResult, error) {
	if overrideHours <= 0 {
		overrideHours = s.config.FreshnessHours
	}

	lastRuns, err := s.store.LatestSuccessPerUser(ctx, s.config.ScanLimit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to select users for batch scheduling: %w", err)
	}

	if len(lastRuns) == 0 {
		s.logger.Info("Batch scheduling found no users with successful runs")
		return BatchResult{}, nil
	}

	runs := make([]*SearchRun, 0, len(lastRuns))
	for _, last := range lastRuns {
		params := last.Parameters
		params.HoursOld = overrideHours
		runs = append(runs, newRun(last.UserID, params, SourceCron))
	}

	var result BatchResult
	for start := 0; start < len(runs); start += s.config.InsertBatchSize {
		end := start + s.config.InsertBatchSize
		if end > len(runs) {
			end = len(runs)
		}

		if err := s.store.InsertBatch(ctx, runs[start:end]); err != nil {
			return result, fmt.Errorf("batch insert failed after %d runs: %w", result.Inserted, err)
		}
		result.Inserted += end - start
	}

	s.logger.Info("Batch scheduling inserted runs",
		slog.Int("inserted", result.Inserted),
		slog.Int("freshness_hours", overrideHours),
	)

	// Per-user dispatch is unordered and non-blocking: one user's delivery
	// failure never holds up another's.
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		triggered int
	)
	for _, run := range runs {
		wg.Add(1)
		go func(run *SearchRun) {
			defer wg.Done()

			delivery := s.scraper.TriggerScrape(ctx, run.ID, run.UserID, toScrapeParams(run.Parameters))
			if delivery.Delivered {
				mu.Lock()
				triggered++
				mu.Unlock()
				return
			}

			s.logger.Warn("Batch scrape delivery failed",
				slog.String("run_id", run.ID),
				slog.String("user_id", run.UserID),
				slog.Any("error", delivery.Err),
			)
		}(run)
	}
	wg.Wait()
	result.Triggered = triggered

	result.QueueWakeup = s.scraper.PollQueue(ctx, s.config.QueueBatchSize)

	s.logger.Info("Batch scheduling complete",
		slog.Int("inserted", result.Inserted),
		slog.Int("triggered", result.Triggered),
		slog.Bool("queue_wakeup", result.QueueWakeup),
	)

	return result, nil
}

func newRun(userID string, params Parameters, source string) *SearchRun {
	return &SearchRun{
		ID:            uuid.New().String(),
		UserID:        userID,
		Source:        source,
		Parameters:    params,
		Status:        StatusPending,
		ClientContext: "api-service",
		CreatedAt:     time.Now().UTC(),
	}
}

func toScrapeParams(p Parameters) scrapeclient.ScrapeParams {
	country := p.Country
	if country == "" {
		country = "UK"
	}

	return scrapeclient.ScrapeParams{
		SearchTerm:    p.Title,
		Location:      p.Location,
		SiteNames:     p.SiteNames(),
		ResultsWanted: p.ResultsWanted,
		HoursOld:      p.HoursOld,
		CountryIndeed: country,
	}
}
