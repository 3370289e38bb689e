package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/dto"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
)

// DispatchAll handles POST /internal/dispatch/all
// Creates a fresh run for every user with a previous successful run and
// forwards them all to the remote scraper. Called by the platform scheduler
// and by the in-process cron.
func (h *InternalHandler) DispatchAll(c *gin.Context) {
	overrideHours := 0
	if raw := c.Query("hours_old"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "hours_old must be a non-negative integer",
			})
			return
		}
		overrideHours = parsed
	}

	result, err := h.scheduler.ScheduleAllFromLastSuccess(c.Request.Context(), overrideHours)
	if err != nil {
		h.logger.Error("Batch dispatch failed",
			slog.Int("inserted", result.Inserted),
			slog.String("error", err.Error()),
		)
		// Partial progress still gets reported: inserted runs exist even
		// when a later insert batch failed.
		c.JSON(http.StatusInternalServerError, dto.DispatchResponse{
			Success:     false,
			Inserted:    result.Inserted,
			Triggered:   result.Triggered,
			QueueWakeup: result.QueueWakeup,
		})
		return
	}

	c.JSON(http.StatusOK, dto.DispatchResponse{
		Success:     true,
		Inserted:    result.Inserted,
		Triggered:   result.Triggered,
		QueueWakeup: result.QueueWakeup,
	})
}

// IngestResults handles POST /internal/scraper/results
// Callback from the remote scraper with a finished run's postings
func (h *InternalHandler) IngestResults(c *gin.Context) {
	var req dto.IngestResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid results body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid results body",
		})
		return
	}

	summary, err := h.ingestor.Ingest(c.Request.Context(), run.ScrapeResults{
		RunID:  req.RunID,
		Status: req.Status,
		Jobs:   toScrapedJobs(req.Jobs),
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, run.ErrInvalidResultStatus):
			status = http.StatusBadRequest
		case errors.Is(err, run.ErrRunNotFound):
			status = http.StatusNotFound
		}
		h.logger.Error("Failed to ingest scrape results",
			slog.String("run_id", req.RunID),
			slog.String("error", err.Error()),
		)
		c.JSON(status, gin.H{
			"error": "Failed to ingest results",
		})
		return
	}

	c.JSON(http.StatusOK, dto.IngestResultsResponse{
		Success:      true,
		JobsUpserted: summary.JobsUpserted,
		Linked:       summary.Linked,
	})
}

func toScrapedJobs(items []dto.ScrapedJobDTO) []run.ScrapedJob {
	jobs := make([]run.ScrapedJob, 0, len(items))
	for _, item := range items {
		job := run.ScrapedJob{
			Site:           item.Site,
			Title:          item.Title,
			Company:        item.Company,
			CompanyURL:     item.CompanyURL,
			CompanyLogoURL: item.CompanyLogoURL,
			Location:       item.Location,
			IsRemote:       item.IsRemote,
			JobURL:         item.JobURL,
			Description:    item.Description,
			JobType:        item.JobType,
			JobLevel:       item.JobLevel,
			JobFunction:    item.JobFunction,
			SalaryMin:      item.SalaryMin,
			SalaryMax:      item.SalaryMax,
			SalaryCurrency: item.SalaryCurrency,
		}
		// Scrapers report dates loosely; anything unparseable means no date.
		if t, err := time.Parse(time.RFC3339, item.DatePosted); err == nil {
			job.DatePosted = &t
		} else if t, err := time.Parse("2006-01-02", item.DatePosted); err == nil {
			job.DatePosted = &t
		}
		jobs = append(jobs, job)
	}
	return jobs
}
