package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadymuxd/searching-the-fox-sub001/internal/userjob"
)

// BulkApplier is the slice of the bulk mutation engine the resumer drives
type BulkApplier interface {
	BulkApply(ctx context.Context, callerID, userID string, userJobIDs []string, op userjob.BulkOperation) (userjob.BulkResult, error)
}

// CompletionPublisher broadcasts a finished operation to interested parties
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, state *OperationState) error
}

// ResumerConfig holds resumption timing
type ResumerConfig struct {
	CleanupDelay time.Duration // grace period before a completed journal is deleted
}

// Resumer picks up interrupted bulk operations and drives them to completion
// through the bulk mutation engine. Clients trigger it on reconnect and on
// their polling interval; at most one resumption is in flight per session,
// and a resume attempt for a busy session is a no-op.
type Resumer struct {
	store     Store
	engine    BulkApplier
	publisher CompletionPublisher
	config    ResumerConfig
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewResumer creates a Resumer. publisher may be nil.
func NewResumer(store Store, engine BulkApplier, publisher CompletionPublisher, config ResumerConfig, logger *slog.Logger) *Resumer {
	return &Resumer{
		store:     store,
		engine:    engine,
		publisher: publisher,
		config:    config,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// begin claims the session's resumption slot. Sessions are independent: one
// session's slow resumption never blocks another's.
func (r *Resumer) begin(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[sessionID]; busy {
		return false
	}
	r.inFlight[sessionID] = struct{}{}
	return true
}

func (r *Resumer) end(sessionID string) {
	r.mu.Lock()
	delete(r.inFlight, sessionID)
	r.mu.Unlock()
}

// ResumeOnce loads the session's journal and, when it holds an interrupted
// operation owned by userID, applies the unprocessed remainder as one bulk
// call. Returns true when a resumption ran to completion.
func (r *Resumer) ResumeOnce(ctx context.Context, sessionID, userID string) (bool, error) {
	if !r.begin(sessionID) {
		return false, nil
	}
	defer r.end(sessionID)

	state, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}

	if state.UserID != userID {
		// Never resume someone else's operation, and never delete it either:
		// the owning session may still come back for it.
		return false, ErrOwnershipMismatch
	}

	if state.Completed {
		r.scheduleCleanup(sessionID, state.OperationID)
		return false, nil
	}

	remaining := state.Remaining()
	if len(remaining) == 0 {
		return true, r.finalize(ctx, sessionID, state)
	}

	r.logger.Info("Resuming interrupted bulk operation",
		slog.String("operation_id", state.OperationID),
		slog.String("user_id", userID),
		slog.String("operation_type", state.OperationType),
		slog.Int("remaining", len(remaining)),
		slog.Int("already_processed", len(state.ProcessedJobIDs)),
	)

	ids := make([]string, len(remaining))
	for i, job := range remaining {
		ids[i] = job.UserJobID
	}

	result, err := r.engine.BulkApply(ctx, userID, userID, ids, userjob.BulkOperation{
		Type:         state.OperationType,
		TargetStatus: state.TargetStatus,
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply journal remainder: %w", err)
	}

	// The batch statement settled every submitted id one way or the other,
	// so all of them count as processed.
	state.MarkProcessed(time.Now().UTC(), ids...)
	state.SuccessCount += result.SuccessCount
	state.FailedCount += result.FailedCount

	return true, r.finalize(ctx, sessionID, state)
}

// finalize marks the journal complete, broadcasts the outcome, and schedules
// deletion after the grace delay so late readers can still see final counts.
func (r *Resumer) finalize(ctx context.Context, sessionID string, state *OperationState) error {
	state.Completed = true
	state.LastUpdatedAt = time.Now().UTC()

	if err := r.store.Save(ctx, sessionID, state); err != nil {
		return fmt.Errorf("failed to save completed journal: %w", err)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishCompletion(ctx, state); err != nil {
			r.logger.Warn("Failed to broadcast operation completion",
				slog.String("operation_id", state.OperationID),
				slog.Any("error", err),
			)
		}
	}

	r.logger.Info("Bulk operation journal completed",
		slog.String("operation_id", state.OperationID),
		slog.Int("success_count", state.SuccessCount),
		slog.Int("failed_count", state.FailedCount),
	)

	r.scheduleCleanup(sessionID, state.OperationID)
	return nil
}

// scheduleCleanup removes the completed journal after the grace delay. The
// session may have started a newer operation in the meantime, so the delete
// only happens when the stored journal is still the one whose cleanup was
// scheduled.
func (r *Resumer) scheduleCleanup(sessionID, operationID string) {
	time.AfterFunc(r.config.CleanupDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		state, err := r.store.Load(ctx, sessionID)
		if err != nil {
			r.logger.Warn("Failed to clean up completed journal",
				slog.String("operation_id", operationID),
				slog.Any("error", err),
			)
			return
		}
		if state == nil || state.OperationID != operationID {
			return
		}

		if err := r.store.Delete(ctx, sessionID); err != nil {
			r.logger.Warn("Failed to clean up completed journal",
				slog.String("operation_id", operationID),
				slog.Any("error", err),
			)
		}
	})
}
