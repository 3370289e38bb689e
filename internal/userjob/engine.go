package userjob

import (
	"context"
	"fmt"
	"log/slog"
)

// Engine applies bulk mutations to user-owned job rows. Each call is one
// atomic batch statement scoped by row ownership; there is no per-row loop
// and no ordering among the submitted ids.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// NewEngine creates an Engine
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// BulkApply executes one bulk operation for the authenticated caller.
// callerID must equal userID; the check runs before any mutation. Rows that
// did not match the batch statement (missing, or owned by someone else) are
// counted in FailedCount without per-row error detail, preserving
// SuccessCount + FailedCount == len(userJobIDs).
func (e *Engine) BulkApply(ctx context.Context, callerID, userID string, userJobIDs []string, op BulkOperation) (BulkResult, error) {
	if len(userJobIDs) == 0 {
		return BulkResult{}, ErrEmptySelection
	}

	if callerID != userID {
		e.logger.Warn("Bulk mutation rejected: identity mismatch",
			slog.String("caller_id", callerID),
			slog.String("user_id", userID),
		)
		return BulkResult{}, ErrIdentityMismatch
	}

	if err := op.Validate(); err != nil {
		return BulkResult{}, err
	}

	var (
		affected int64
		err      error
	)
	switch op.Type {
	case OperationStatusChange:
		affected, err = e.store.UpdateStatus(ctx, userID, userJobIDs, op.TargetStatus)
	case OperationRemove:
		affected, err = e.store.Delete(ctx, userID, userJobIDs)
	}
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk %s failed: %w", op.Type, err)
	}

	result := BulkResult{
		SuccessCount: int(affected),
		FailedCount:  len(userJobIDs) - int(affected),
	}

	e.logger.Info("Bulk mutation applied",
		slog.String("user_id", userID),
		slog.String("operation", op.Type),
		slog.String("target_status", op.TargetStatus),
		slog.Int("success_count", result.SuccessCount),
		slog.Int("failed_count", result.FailedCount),
	)

	return result, nil
}
