// Package userjob implements per-user job tracking and bulk status mutation.
package userjob

import (
	"errors"
	"time"
)

// UserJob status constants. Transitions are unrestricted: any status may move
// to any other, including via bulk mutation.
const (
	StatusNew        = "new"
	StatusInterested = "interested"
	StatusApplied    = "applied"
	StatusProgressed = "progressed"
	StatusRejected   = "rejected"
	StatusArchived   = "archived"
)

// Bulk operation types
const (
	OperationStatusChange = "status-change"
	OperationRemove       = "remove"
)

var (
	// ErrEmptySelection is returned when a bulk call carries no ids
	ErrEmptySelection = errors.New("at least one user job id is required")

	// ErrIdentityMismatch is returned when the caller tries to mutate
	// another user's rows
	ErrIdentityMismatch = errors.New("authenticated user does not match target user")

	// ErrMissingTargetStatus is returned when a status-change has no target
	ErrMissingTargetStatus = errors.New("target status is required for status-change")

	// ErrInvalidStatus is returned for an unknown job status
	ErrInvalidStatus = errors.New("invalid user job status")

	// ErrInvalidOperation is returned for an unknown bulk operation type
	ErrInvalidOperation = errors.New("invalid bulk operation type")
)

// ValidStatus reports whether status is one of the known job statuses
func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusInterested, StatusApplied, StatusProgressed, StatusRejected, StatusArchived:
		return true
	default:
		return false
	}
}

// Job is a canonical posting, upserted by scraper result ingest and never
// written by the mutation path.
type Job struct {
	ID             string     `db:"id"`
	Title          string     `db:"title"`
	Company        string     `db:"company"`
	CompanyURL     string     `db:"company_url"`
	CompanyLogoURL string     `db:"company_logo_url"`
	Location       string     `db:"location"`
	IsRemote       bool       `db:"is_remote"`
	JobURL         string     `db:"job_url"`
	Description    string     `db:"description"`
	JobType        string     `db:"job_type"`
	JobLevel       string     `db:"job_level"`
	JobFunction    string     `db:"job_function"`
	SalaryMin      *float64   `db:"salary_min"`
	SalaryMax      *float64   `db:"salary_max"`
	SalaryCurrency string     `db:"salary_currency"`
	Site           string     `db:"site"`
	SourceSite     string     `db:"source_site"`
	DatePosted     *time.Time `db:"date_posted"`
	CreatedAt      time.Time  `db:"created_at"`
}

// UserJob links one user to one Job with a tracked status
type UserJob struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	JobID     string    `db:"job_id"`
	Status    string    `db:"status"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BulkOperation describes what a bulk call should do to the selected rows
type BulkOperation struct {
	Type         string
	TargetStatus string
}

// Validate checks the operation shape before any mutation is attempted
func (op BulkOperation) Validate() error {
	switch op.Type {
	case OperationStatusChange:
		if op.TargetStatus == "" {
			return ErrMissingTargetStatus
		}
		if !ValidStatus(op.TargetStatus) {
			return ErrInvalidStatus
		}
	case OperationRemove:
	default:
		return ErrInvalidOperation
	}
	return nil
}

// BulkResult reports per-id outcome counts for one bulk call. The target
// invariant is SuccessCount + FailedCount == number of submitted ids; rows
// that exist but belong to someone else land in FailedCount without error
// detail.
type BulkResult struct {
	SuccessCount int
	FailedCount  int
	Errors       []string
}
