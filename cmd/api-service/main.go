package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/handler"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/api/router"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/config"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/journal"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/notify"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/postgresql"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/rabbitmq"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/redisclient"
)

func main() {
	if err := runService(); err != nil {
		log.Fatal(err)
	}
}

func runService() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// Initialize Redis client for the operation journal
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redisclient.New(redisCtx, cfg.Redis.URL, appLogger.Logger)
	redisCancel()
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	appLogger.Info("Redis connection established")

	// Wire domain components
	db := dbClient.GetDB()

	runStore := run.NewPostgresStore(db, appLogger.Logger)
	userJobStore := userjob.NewPostgresStore(db, appLogger.Logger)

	scraper := scrapeclient.New(&scrapeclient.Config{
		BaseURL:          cfg.Scraper.BaseURL,
		WarmUpTimeout:    cfg.Scraper.WarmUpTimeout,
		DeliveryTimeout:  cfg.Scraper.DeliveryTimeout,
		QueuePollTimeout: cfg.Scraper.QueuePollTimeout,
	}, appLogger.Logger)

	scheduler := run.NewScheduler(runStore, scraper, run.SchedulerConfig{
		FreshnessHours:  cfg.Dispatch.FreshnessHours,
		InsertBatchSize: cfg.Dispatch.InsertBatchSize,
		ScanLimit:       cfg.Dispatch.ScanLimit,
		QueueBatchSize:  cfg.Scraper.QueueBatchSize,
	}, appLogger.Logger)

	monitor := run.NewMonitor(runStore, cfg.Monitor.PollInterval, appLogger.Logger)
	engine := userjob.NewEngine(userJobStore, appLogger.Logger)

	eventPublisher := notify.NewPublisher(rabbitClient, appLogger.Logger)
	ingestor := run.NewIngestor(runStore, userJobStore, eventPublisher, appLogger.Logger)

	journalStore := journal.NewRedisStore(redisClient, cfg.Journal.StaleAfter, appLogger.Logger)
	completionPublisher := journal.NewRedisCompletionPublisher(redisClient, appLogger.Logger)
	resumer := journal.NewResumer(journalStore, engine, completionPublisher, journal.ResumerConfig{
		CleanupDelay: cfg.Journal.CleanupDelay,
	}, appLogger.Logger)

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, &handler.Dependencies{
		Logger:    appLogger.Logger,
		Scheduler: scheduler,
		Monitor:   monitor,
		Engine:    engine,
		Ingestor:  ingestor,
		Jobs:      userJobStore,
		Journal:   journalStore,
		Resumer:   resumer,
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	cleanup := func() {
		cancel()
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
	}
	defer cleanup()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, logger *slog.Logger, deps *handler.Dependencies) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, router.Config{
		DispatchSecret: cfg.Dispatch.Secret,
	})
}
