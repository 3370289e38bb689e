package notify

import "errors"

var (
	// ErrEmailNotConfigured is returned when no email API key is set
	ErrEmailNotConfigured = errors.New("email service is not configured")

	// ErrUserNotFound is returned when the event references an unknown user
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidEvent is returned when an event message is malformed
	ErrInvalidEvent = errors.New("invalid event message")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
