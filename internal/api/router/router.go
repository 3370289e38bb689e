package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/handler"
)

// Config holds router-level settings
type Config struct {
	DispatchSecret string
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, cfg Config) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "job-search-api",
		})
	})

	runHandler := handler.NewRunHandler(deps)
	userJobHandler := handler.NewUserJobHandler(deps)
	journalHandler := handler.NewJournalHandler(deps)
	internalHandler := handler.NewInternalHandler(deps)

	// API v1 routes, all user-scoped
	v1 := r.Group("/api/v1")
	v1.Use(RequireUserMiddleware())
	{
		runs := v1.Group("/runs")
		{
			// POST /api/v1/runs - Schedule a search run for the caller
			runs.POST("", runHandler.ScheduleRun)

			// GET /api/v1/runs/active - Check for an in-flight run
			runs.GET("/active", runHandler.GetActiveRun)
		}

		userJobs := v1.Group("/user-jobs")
		{
			// GET /api/v1/user-jobs - List tracked jobs with pagination
			userJobs.GET("", userJobHandler.ListUserJobs)

			// POST /api/v1/user-jobs/bulk - Apply one operation to a selection
			userJobs.POST("/bulk", userJobHandler.BulkMutate)
		}

		journal := v1.Group("/journal")
		journal.Use(RequireSessionMiddleware())
		{
			// GET /api/v1/journal - Load the session's operation journal
			journal.GET("", journalHandler.GetJournal)

			// POST /api/v1/journal - Save the journal
			journal.POST("", journalHandler.SaveJournal)

			// DELETE /api/v1/journal - Clear the journal
			journal.DELETE("", journalHandler.DeleteJournal)

			// POST /api/v1/journal/resume - Resume an interrupted operation
			journal.POST("/resume", journalHandler.ResumeJournal)
		}
	}

	// Internal routes for the platform scheduler and the remote scraper
	internal := r.Group("/internal")
	internal.Use(InternalAuthMiddleware(cfg.DispatchSecret))
	{
		// POST /internal/dispatch/all - Batch-dispatch runs for all users
		internal.POST("/dispatch/all", internalHandler.DispatchAll)

		// POST /internal/scraper/results - Scrape results callback
		internal.POST("/scraper/results", internalHandler.IngestResults)
	}

	return r
}
