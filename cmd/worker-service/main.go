package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/config"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/notify"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/run"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/scrapeclient"
	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/postgresql"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/rabbitmq"
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
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting worker service",
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

	emailClient := notify.NewResendClient(notify.EmailConfig{
		APIURL:      cfg.Email.APIURL,
		APIKey:      cfg.Email.APIKey,
		Sender:      cfg.Email.Sender,
		SendTimeout: cfg.Email.SendTimeout,
	}, appLogger.Logger)

	notifier := notify.NewNotifier(&notify.Config{
		Logger:       appLogger.Logger,
		RabbitClient: rabbitClient,
		Users:        notify.NewPostgresUserStore(db),
		Jobs:         userJobStore,
		Email:        emailClient,
		Concurrency:  cfg.Notifier.Concurrency,
		DigestLimit:  100,
		SendTimeout:  cfg.Email.SendTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start notifier in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := notifier.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Schedule periodic batch dispatch
	scheduleCron := cron.New()
	_, err = scheduleCron.AddFunc(cfg.Dispatch.CronSpec, func() {
		result, err := scheduler.ScheduleAllFromLastSuccess(ctx, 0)
		if err != nil {
			appLogger.Error("Scheduled batch dispatch failed",
				slog.Int("inserted", result.Inserted),
				slog.Any("error", err),
			)
			return
		}
		appLogger.Info("Scheduled batch dispatch complete",
			slog.Int("inserted", result.Inserted),
			slog.Int("triggered", result.Triggered),
			slog.Bool("queue_wakeup", result.QueueWakeup),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule batch dispatch: %w", err)
	}
	scheduleCron.Start()

	appLogger.Info("Worker service started successfully",
		slog.String("cron_spec", cfg.Dispatch.CronSpec),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Notifier error",
			slog.Any("error", err),
		)
		return err
	}

	// Stop cron first so no new batches start during shutdown
	cronCtx := scheduleCron.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Notifier.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-cronCtx.Done():
	case <-shutdownCtx.Done():
		appLogger.Warn("Cron jobs still running at shutdown timeout")
	}

	cleanup := func() {
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	cleanup()

	appLogger.Info("Worker service shutdown complete")
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
