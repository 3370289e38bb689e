// Package journal persists the progress of an in-flight bulk mutation so an
// interrupted operation resumes where it left off instead of restarting or
// silently losing work. Each journal is owned by exactly one client session
// and guarded by a user-id match on resume; it is never shared across
// sessions or devices.
package journal

import (
	"context"
	"errors"
	"time"
)

// Operation types mirrored from the bulk mutation engine
const (
	OperationStatusChange = "status-change"
	OperationRemove       = "remove"
)

// StaleAfter is the default age bound: a journal whose last update is older
// than this is discarded on load regardless of completion state.
const StaleAfter = time.Hour

var (
	// ErrOwnershipMismatch is returned when a journal belongs to a
	// different user than the one resuming it
	ErrOwnershipMismatch = errors.New("journal owned by a different user")
)

// JobRef is the snapshot of one selected job taken when the operation began
type JobRef struct {
	UserJobID string `json:"userJobId"`
	JobID     string `json:"jobId"`
	Title     string `json:"title"`
	Company   string `json:"company"`
}

// OperationState is the durable journal of one bulk mutation
type OperationState struct {
	OperationID     string    `json:"operationId"`
	UserID          string    `json:"userId"`
	OperationType   string    `json:"operationType"`
	TargetStatus    string    `json:"targetStatus,omitempty"`
	Jobs            []JobRef  `json:"jobs"`
	ProcessedJobIDs []string  `json:"processedJobIds"`
	StartedAt       time.Time `json:"startedAt"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
	Completed       bool      `json:"completed"`
	SuccessCount    int       `json:"successCount"`
	FailedCount     int       `json:"failedCount"`
}

// IsStale reports whether the journal is too old to resume
func (s *OperationState) IsStale(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(s.LastUpdatedAt) > staleAfter
}

// Remaining returns the snapshot entries not yet processed, in the order
// they were captured. The processed set only ever grows.
func (s *OperationState) Remaining() []JobRef {
	processed := make(map[string]struct{}, len(s.ProcessedJobIDs))
	for _, id := range s.ProcessedJobIDs {
		processed[id] = struct{}{}
	}

	remaining := make([]JobRef, 0, len(s.Jobs))
	for _, job := range s.Jobs {
		if _, ok := processed[job.UserJobID]; !ok {
			remaining = append(remaining, job)
		}
	}
	return remaining
}

// MarkProcessed records ids as handled and bumps the update timestamp
func (s *OperationState) MarkProcessed(now time.Time, userJobIDs ...string) {
	existing := make(map[string]struct{}, len(s.ProcessedJobIDs))
	for _, id := range s.ProcessedJobIDs {
		existing[id] = struct{}{}
	}

	for _, id := range userJobIDs {
		if _, ok := existing[id]; !ok {
			s.ProcessedJobIDs = append(s.ProcessedJobIDs, id)
			existing[id] = struct{}{}
		}
	}
	s.LastUpdatedAt = now
}

// Store is the durable keyed storage behind the journal. Load returns nil
// (and removes the entry) when the stored journal has gone stale.
type Store interface {
	Load(ctx context.Context, sessionID string) (*OperationState, error)
	Save(ctx context.Context, sessionID string, state *OperationState) error
	Delete(ctx context.Context, sessionID string) error
}
