package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/dto"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
)

// ScheduleRun handles POST /api/v1/runs
// Creates a search run and forwards it to the remote scraper. The response
// reports delivery only: completion arrives later through the results
// callback.
func (h *RunHandler) ScheduleRun(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	var req dto.ScheduleRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	source := req.Source
	if source == "" {
		source = run.SourceManual
	}

	params := run.Parameters{
		Title:         req.Title,
		Location:      req.Location,
		Site:          req.Site,
		ResultsWanted: req.ResultsWanted,
		HoursOld:      req.HoursOld,
		Country:       req.Country,
	}

	scheduled, delivery, err := h.scheduler.ScheduleForUser(c.Request.Context(), userID, params, source)
	if err != nil {
		h.logger.Error("Failed to schedule run",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		status := http.StatusInternalServerError
		if errors.Is(err, run.ErrInvalidSource) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": "Failed to schedule run",
		})
		return
	}

	resp := dto.ScheduleRunResponse{
		Run:       toRunDTO(scheduled),
		Delivered: delivery.Delivered,
		Assumed:   delivery.Assumed,
	}
	if delivery.Err != nil {
		resp.Error = delivery.Err.Error()
	}

	// The run row exists either way; an undelivered trigger is reported as a
	// gateway failure so the client can retry.
	if !delivery.Delivered {
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetActiveRun handles GET /api/v1/runs/active
// Reports whether the caller has a run still in flight. Datastore trouble is
// reported as no active run so a stuck row can never pin the client in a
// loading state.
func (h *RunHandler) GetActiveRun(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	active := h.monitor.ActiveRun(c.Request.Context(), userID)
	if active == nil {
		c.JSON(http.StatusOK, dto.ActiveRunResponse{Active: false})
		return
	}

	runDTO := toRunDTO(active)
	c.JSON(http.StatusOK, dto.ActiveRunResponse{
		Active: true,
		Run:    &runDTO,
	})
}

func toRunDTO(r *run.SearchRun) dto.RunDTO {
	d := dto.RunDTO{
		RunID:         r.ID,
		UserID:        r.UserID,
		Source:        r.Source,
		Status:        r.Status,
		ClientContext: r.ClientContext,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		d.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return d
}
