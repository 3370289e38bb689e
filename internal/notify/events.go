package notify

import "time"

// RunCompletedEvent is the message published when a search run reaches a
// terminal state. The worker service consumes it to send job digests.
type RunCompletedEvent struct {
	RunID     string    `json:"run_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	NewJobs   int       `json:"new_jobs"`
	Timestamp time.Time `json:"timestamp"`
}
