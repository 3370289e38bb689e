package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// All journal keys live under one fixed namespace
const keyPrefix = "stf:journal:"

// CompletionChannel is the pub/sub channel completion signals go out on.
// Components that need to refresh when a bulk operation finishes subscribe
// here instead of reaching for shared mutable state.
const CompletionChannel = "stf:journal:completed"

// RedisStore implements Store over Redis. Entries carry a TTL matching the
// staleness bound so abandoned journals age out server-side too; the load
// path still enforces staleness explicitly for entries read just before
// expiry.
type RedisStore struct {
	rdb        *redis.Client
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewRedisStore creates a RedisStore
func NewRedisStore(rdb *redis.Client, staleAfter time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		rdb:        rdb,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// Load returns the session's journal, discarding it when stale
func (r *RedisStore) Load(ctx context.Context, sessionID string) (*OperationState, error) {
	raw, err := r.rdb.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	var state OperationState
	if err := json.Unmarshal(raw, &state); err != nil {
		// A corrupt journal cannot be resumed; drop it.
		r.logger.Warn("Discarding unreadable journal",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		r.rdb.Del(ctx, keyPrefix+sessionID)
		return nil, nil
	}

	if state.IsStale(r.now(), r.staleAfter) {
		r.logger.Info("Discarding stale journal",
			slog.String("session_id", sessionID),
			slog.String("operation_id", state.OperationID),
		)
		if err := r.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
			return nil, fmt.Errorf("failed to delete stale journal: %w", err)
		}
		return nil, nil
	}

	return &state, nil
}

// Save stores the session's journal with the staleness TTL
func (r *RedisStore) Save(ctx context.Context, sessionID string, state *OperationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}

	if err := r.rdb.Set(ctx, keyPrefix+sessionID, raw, r.staleAfter).Err(); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}

	return nil
}

// Delete removes the session's journal
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	return nil
}

// RedisCompletionPublisher broadcasts completion signals over Redis pub/sub
type RedisCompletionPublisher struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRedisCompletionPublisher creates a RedisCompletionPublisher
func NewRedisCompletionPublisher(rdb *redis.Client, logger *slog.Logger) *RedisCompletionPublisher {
	return &RedisCompletionPublisher{rdb: rdb, logger: logger}
}

// PublishCompletion announces a finished operation with its final counts
func (p *RedisCompletionPublisher) PublishCompletion(ctx context.Context, state *OperationState) error {
	payload, err := json.Marshal(map[string]interface{}{
		"operationId":  state.OperationID,
		"userId":       state.UserID,
		"successCount": state.SuccessCount,
		"failedCount":  state.FailedCount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode completion event: %w", err)
	}

	if err := p.rdb.Publish(ctx, CompletionChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	p.logger.Debug("Operation completion broadcast",
		slog.String("operation_id", state.OperationID),
	)

	return nil
}
