package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/dto"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

// BulkMutate handles POST /api/v1/user-jobs/bulk
// Applies one operation to every selected row in a single batch. Counts always
// add up to the size of the selection: rows the batch could not touch are
// failures, not errors.
func (h *UserJobHandler) BulkMutate(c *gin.Context) {
	callerID := c.GetString(ContextUserID)

	var req dto.BulkMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.BulkMutationResponse{
			Errors:  []string{"Invalid request body"},
			Message: "Invalid request body",
		})
		return
	}

	op := userjob.BulkOperation{
		Type:         req.OperationType,
		TargetStatus: req.TargetStatus,
	}

	result, err := h.engine.BulkApply(c.Request.Context(), callerID, req.UserID, req.UserJobIDs, op)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to apply bulk operation"

		switch {
		case errors.Is(err, userjob.ErrIdentityMismatch):
			status = http.StatusUnauthorized
			message = "Cannot mutate jobs belonging to another user"
		case errors.Is(err, userjob.ErrEmptySelection),
			errors.Is(err, userjob.ErrMissingTargetStatus),
			errors.Is(err, userjob.ErrInvalidStatus),
			errors.Is(err, userjob.ErrInvalidOperation):
			status = http.StatusBadRequest
			message = err.Error()
		}

		h.logger.Error("Bulk mutation rejected",
			slog.String("caller_id", callerID),
			slog.String("user_id", req.UserID),
			slog.Int("selection", len(req.UserJobIDs)),
			slog.String("error", err.Error()),
		)
		c.JSON(status, dto.BulkMutationResponse{
			Errors:  []string{err.Error()},
			Message: message,
		})
		return
	}

	c.JSON(http.StatusOK, dto.BulkMutationResponse{
		Success:      result.FailedCount == 0,
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		Errors:       result.Errors,
	})
}

// ListUserJobs handles GET /api/v1/user-jobs
// Pages through the caller's tracked jobs, newest first
func (h *UserJobHandler) ListUserJobs(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	var req dto.ListUserJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}
	if req.Status != "" && !userjob.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status filter",
		})
		return
	}

	cursor, err := DecodeUserJobCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	jobs, err := h.jobs.ListByUser(c.Request.Context(), userjob.Filter{
		UserID:   userID,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list user jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list user jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	items := make([]dto.UserJobDTO, len(jobs))
	for i, job := range jobs {
		items[i] = toUserJobDTO(job)
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeUserJobCursor(&userjob.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListUserJobsResponse{
		UserJobs:   items,
		NextCursor: nextCursor,
	})
}

func toUserJobDTO(job userjob.ListedJob) dto.UserJobDTO {
	d := dto.UserJobDTO{
		ID:             job.ID,
		JobID:          job.JobID,
		Status:         job.Status,
		Notes:          job.Notes,
		Title:          job.Title,
		Company:        job.Company,
		CompanyLogoURL: job.CompanyLogoURL,
		Location:       job.Location,
		JobURL:         job.JobURL,
		Site:           job.Site,
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		SalaryCurrency: job.SalaryCurrency,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
	if job.DatePosted != nil {
		d.DatePosted = job.DatePosted.Format(time.RFC3339)
	}
	return d
}
