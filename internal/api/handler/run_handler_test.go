package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/dto"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
)

func runRouter(deps *Dependencies) *gin.Engine {
	h := NewRunHandler(deps)
	r := gin.New()
	r.POST("/api/v1/runs", identity("user-1", ""), h.ScheduleRun)
	r.GET("/api/v1/runs/active", identity("user-1", ""), h.GetActiveRun)
	return r
}

func pendingRun(userID string) *run.SearchRun {
	return &run.SearchRun{
		ID:        "run-1",
		UserID:    userID,
		Source:    run.SourceManual,
		Status:    run.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestScheduleRun(t *testing.T) {
	t.Run("delivered run returns 200", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.scheduler.run = pendingRun("user-1")
		fakes.scheduler.delivery = scrapeclient.DeliveryResult{Delivered: true, StatusCode: 200}

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{
			Title:    "golang developer",
			Location: "London",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ScheduleRunResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Delivered)
		assert.False(t, resp.Assumed)
		assert.Equal(t, "run-1", resp.Run.RunID)
		assert.Equal(t, run.SourceManual, fakes.scheduler.lastSource)
		assert.Equal(t, "golang developer", fakes.scheduler.lastParams.Title)
	})

	t.Run("timeout after request body was sent counts as delivered", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.scheduler.run = pendingRun("user-1")
		fakes.scheduler.delivery = scrapeclient.DeliveryResult{
			Delivered: true,
			Assumed:   true,
			Err:       errors.New("context deadline exceeded"),
		}

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{Title: "golang"})

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ScheduleRunResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Delivered)
		assert.True(t, resp.Assumed)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("undelivered trigger returns 502 with the persisted run", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.scheduler.run = pendingRun("user-1")
		fakes.scheduler.delivery = scrapeclient.DeliveryResult{
			Delivered: false,
			Err:       errors.New("connection refused"),
		}

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{Title: "golang"})

		require.Equal(t, http.StatusBadGateway, w.Code)

		var resp dto.ScheduleRunResponse
		decodeBody(t, w, &resp)
		assert.False(t, resp.Delivered)
		assert.Equal(t, "run-1", resp.Run.RunID)
		assert.Contains(t, resp.Error, "connection refused")
	})

	t.Run("missing title is rejected", func(t *testing.T) {
		deps, _ := newTestDeps()

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{Location: "London"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown source is rejected", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.scheduler.scheduleErr = run.ErrInvalidSource

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{
			Title:  "golang",
			Source: "webhook",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("scheduler failure returns 500", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.scheduler.scheduleErr = errors.New("insert failed")

		w := performJSON(t, runRouter(deps), http.MethodPost, "/api/v1/runs", dto.ScheduleRunRequest{Title: "golang"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetActiveRun(t *testing.T) {
	t.Run("active run is reported", func(t *testing.T) {
		deps, fakes := newTestDeps()
		fakes.monitor.active = pendingRun("user-1")

		w := performJSON(t, runRouter(deps), http.MethodGet, "/api/v1/runs/active", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ActiveRunResponse
		decodeBody(t, w, &resp)
		assert.True(t, resp.Active)
		require.NotNil(t, resp.Run)
		assert.Equal(t, "run-1", resp.Run.RunID)
	})

	t.Run("no active run", func(t *testing.T) {
		deps, _ := newTestDeps()

		w := performJSON(t, runRouter(deps), http.MethodGet, "/api/v1/runs/active", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ActiveRunResponse
		decodeBody(t, w, &resp)
		assert.False(t, resp.Active)
		assert.Nil(t, resp.Run)
	})
}
