package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadymuxd/searching-the-fox-sub001/shared/rabbitmq"
)

// Publisher emits run-completed events to RabbitMQ for the worker service
type Publisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher over an established RabbitMQ client
func NewPublisher(client *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// PublishRunCompleted publishes a RunCompletedEvent with retry on transient
// broker failures
func (p *Publisher) PublishRunCompleted(ctx context.Context, runID, userID, status string, newJobs int) error {
	event := RunCompletedEvent{
		RunID:     runID,
		UserID:    userID,
		Status:    status,
		NewJobs:   newJobs,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run completed event: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish run completed event: %w", err)
	}

	p.logger.Info("Run completed event published",
		slog.String("run_id", runID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.Int("new_jobs", newJobs),
	)

	return nil
}
