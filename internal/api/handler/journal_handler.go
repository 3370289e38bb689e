package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/journal"
)

// GetJournal handles GET /api/v1/journal
// Returns the session's bulk-operation journal. Stale entries are already
// discarded by the store, so a 404 means there is nothing to resume.
func (h *JournalHandler) GetJournal(c *gin.Context) {
	sessionID := c.GetString(ContextSessionID)
	userID := c.GetString(ContextUserID)

	state, err := h.journal.Load(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load journal",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load journal",
		})
		return
	}

	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No journal for this session",
		})
		return
	}

	if state.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No journal for this session",
		})
		return
	}

	c.JSON(http.StatusOK, state)
}

// SaveJournal handles POST /api/v1/journal
// Persists the journal before a bulk operation starts and after every
// processed batch
func (h *JournalHandler) SaveJournal(c *gin.Context) {
	sessionID := c.GetString(ContextSessionID)
	userID := c.GetString(ContextUserID)

	var state journal.OperationState
	if err := c.ShouldBindJSON(&state); err != nil {
		h.logger.Error("Invalid journal body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid journal body",
		})
		return
	}

	if state.OperationID == "" || state.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "operationId and userId are required",
		})
		return
	}
	if state.UserID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Cannot save a journal for another user",
		})
		return
	}

	if state.StartedAt.IsZero() {
		state.StartedAt = time.Now().UTC()
	}
	state.LastUpdatedAt = time.Now().UTC()

	if err := h.journal.Save(c.Request.Context(), sessionID, &state); err != nil {
		h.logger.Error("Failed to save journal",
			slog.String("session_id", sessionID),
			slog.String("operation_id", state.OperationID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save journal",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// DeleteJournal handles DELETE /api/v1/journal
func (h *JournalHandler) DeleteJournal(c *gin.Context) {
	sessionID := c.GetString(ContextSessionID)

	if err := h.journal.Delete(c.Request.Context(), sessionID); err != nil {
		h.logger.Error("Failed to delete journal",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete journal",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// ResumeJournal handles POST /api/v1/journal/resume
// Applies the unprocessed remainder of an interrupted operation. Safe to call
// when there is nothing to resume.
func (h *JournalHandler) ResumeJournal(c *gin.Context) {
	sessionID := c.GetString(ContextSessionID)
	userID := c.GetString(ContextUserID)

	resumed, err := h.resumer.ResumeOnce(c.Request.Context(), sessionID, userID)
	if err != nil {
		if errors.Is(err, journal.ErrOwnershipMismatch) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Journal belongs to another user",
			})
			return
		}
		h.logger.Error("Failed to resume journal",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resume operation",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resumed": resumed,
	})
}
