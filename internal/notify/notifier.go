package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
	"github.com/vadymuxd/searching-the-fox-sub001/shared/rabbitmq"
)

// JobSource loads the jobs that go into a user's digest
type JobSource interface {
	RecentNewJobs(ctx context.Context, userID string, limit int) ([]userjob.ListedJob, error)
}

// Config holds notifier configuration
type Config struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Users        UserStore
	Jobs         JobSource
	Email        EmailSender
	Concurrency  int
	DigestLimit  int
	SendTimeout  time.Duration
}

// eventMessage pairs a parsed event with its broker delivery tag
type eventMessage struct {
	event       RunCompletedEvent
	deliveryTag uint64
}

// Notifier consumes run-completed events and emails job digests
type Notifier struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	users        UserStore
	jobs         JobSource
	email        EmailSender
	concurrency  int
	digestLimit  int
	sendTimeout  time.Duration
	eventsChan   chan *eventMessage
	wg           sync.WaitGroup
}

// NewNotifier creates a notifier instance
func NewNotifier(cfg *Config) *Notifier {
	return &Notifier{
		logger:       cfg.Logger,
		rabbitClient: cfg.RabbitClient,
		users:        cfg.Users,
		jobs:         cfg.Jobs,
		email:        cfg.Email,
		concurrency:  cfg.Concurrency,
		digestLimit:  cfg.DigestLimit,
		sendTimeout:  cfg.SendTimeout,
		eventsChan:   make(chan *eventMessage),
	}
}

// Start consumes events until ctx is canceled
func (n *Notifier) Start(ctx context.Context) error {
	n.logger.Info("Starting notifier",
		slog.Int("concurrency", n.concurrency),
	)

	deliveries, err := n.setupConsumer()
	if err != nil {
		return err
	}

	for i := 0; i < n.concurrency; i++ {
		n.wg.Add(1)
		go n.workerLoop(ctx, i)
	}

	n.dispatch(ctx, deliveries)

	close(n.eventsChan)
	n.wg.Wait()
	n.logger.Info("Notifier stopped")
	return nil
}

// setupConsumer configures QoS and starts consuming from the events queue
func (n *Notifier) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := n.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Prefetch one batch per worker so a slow email send does not starve
	// the other workers.
	if err := channel.Qos(n.concurrency, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := n.rabbitClient.Consume("notifier")
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	n.logger.Info("Notifier consumer started",
		slog.Int("prefetch_count", n.concurrency),
	)

	return deliveries, nil
}

// dispatch reads broker deliveries, parses them, and hands valid events to
// the worker pool. Malformed messages are NACKed without requeue.
func (n *Notifier) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Notifier dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				n.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var event RunCompletedEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil || event.UserID == "" {
				n.logger.Error("Discarding malformed run completed event",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					n.logger.Error("Failed to NACK malformed event",
						slog.Any("error", nackErr),
					)
				}
				continue
			}

			msg := &eventMessage{event: event, deliveryTag: delivery.DeliveryTag}

			select {
			case n.eventsChan <- msg:
			case <-ctx.Done():
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					n.logger.Error("Failed to NACK event on shutdown",
						slog.Any("error", nackErr),
					)
				}
				return
			}
		}
	}
}

func (n *Notifier) workerLoop(ctx context.Context, workerNum int) {
	defer n.wg.Done()

	for msg := range n.eventsChan {
		err := n.processEvent(ctx, msg.event)

		channel := n.rabbitClient.GetChannel()
		if channel == nil {
			n.logger.Error("Failed to get RabbitMQ channel for ACK",
				slog.Int("worker_num", workerNum),
				slog.String("run_id", msg.event.RunID),
			)
			continue
		}

		if err != nil {
			n.logger.Error("Failed to process run completed event",
				slog.Int("worker_num", workerNum),
				slog.String("run_id", msg.event.RunID),
				slog.String("user_id", msg.event.UserID),
				slog.Any("error", err),
			)
			if nackErr := channel.Nack(msg.deliveryTag, false, n.shouldRequeue(err)); nackErr != nil {
				n.logger.Error("Failed to NACK event",
					slog.Any("error", nackErr),
				)
			}
			continue
		}

		if ackErr := channel.Ack(msg.deliveryTag, false); ackErr != nil {
			n.logger.Error("Failed to ACK event",
				slog.Any("error", ackErr),
			)
		}
	}
}

// processEvent sends one digest email for a completed run. Users without
// notifications enabled, without keywords, or with no matching jobs are
// skipped without error.
func (n *Notifier) processEvent(ctx context.Context, event RunCompletedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	user, err := n.users.GetUser(ctx, event.UserID)
	if err != nil {
		return err
	}

	if !user.NotificationsEnabled {
		n.logger.Info("Email notifications disabled, skipping",
			slog.String("user_id", user.ID),
		)
		return nil
	}
	if user.Email == "" {
		n.logger.Warn("User has no email address, skipping",
			slog.String("user_id", user.ID),
		)
		return nil
	}
	if len(user.Keywords) == 0 {
		n.logger.Info("User has no keywords configured, skipping",
			slog.String("user_id", user.ID),
		)
		return nil
	}

	jobs, err := n.jobs.RecentNewJobs(ctx, user.ID, n.digestLimit)
	if err != nil {
		return fmt.Errorf("failed to load digest jobs: %w", err)
	}

	matched := filterByKeywords(jobs, user.Keywords)

	subject := DigestSubject(len(matched))
	body := RenderDigest(matched, time.Now())

	messageID, err := n.email.Send(ctx, user.Email, subject, body)
	if err != nil {
		if errors.Is(err, ErrEmailNotConfigured) {
			n.logger.Warn("Email service not configured, dropping digest",
				slog.String("user_id", user.ID),
			)
			return nil
		}
		return fmt.Errorf("failed to send digest to %s: %w", user.Email, err)
	}

	n.logger.Info("Digest sent",
		slog.String("user_id", user.ID),
		slog.String("run_id", event.RunID),
		slog.Int("job_count", len(matched)),
		slog.String("message_id", messageID),
	)

	return nil
}

// filterByKeywords keeps jobs whose title contains any keyword,
// case-insensitive
func filterByKeywords(jobs []userjob.ListedJob, keywords []string) []userjob.ListedJob {
	matched := make([]userjob.ListedJob, 0, len(jobs))

	for _, job := range jobs {
		title := strings.ToLower(job.Title)
		for _, keyword := range keywords {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			if strings.Contains(title, strings.ToLower(keyword)) {
				matched = append(matched, job)
				break
			}
		}
	}

	return matched
}

// shouldRequeue requeues only transient failures
func (n *Notifier) shouldRequeue(err error) bool {
	if errors.Is(err, ErrUserNotFound) {
		return false
	}

	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}
