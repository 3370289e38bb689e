// Package run implements search-run scheduling, dispatch, and status tracking.
package run

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Run source constants
const (
	SourceCron   = "cron"
	SourceManual = "manual"
	SourceAPI    = "api"
)

// Run status constants. Pending and running are transient; success and failed
// are terminal and only ever set by the external scraper reporting back.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	// ErrRunNotFound is returned when a search run cannot be found
	ErrRunNotFound = errors.New("search run not found")

	// ErrInvalidSource is returned for an unknown run source
	ErrInvalidSource = errors.New("invalid run source")
)

// IsTerminal reports whether a run status is final
func IsTerminal(status string) bool {
	return status == StatusSuccess || status == StatusFailed
}

// ValidSource reports whether source is one of cron, manual, api
func ValidSource(source string) bool {
	return source == SourceCron || source == SourceManual || source == SourceAPI
}

// Parameters is the per-user search criteria snapshot stored on each run.
// Persisted as a JSONB column.
type Parameters struct {
	Title         string `json:"title"`
	Location      string `json:"location"`
	Site          string `json:"site"`
	ResultsWanted int    `json:"results_wanted"`
	HoursOld      int    `json:"hours_old"`
	Country       string `json:"country"`
}

// Value implements driver.Valuer for JSONB storage
func (p Parameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB storage
func (p *Parameters) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported parameters column type %T", src)
	}
}

// SiteNames expands the site selector into the concrete scraper site list
func (p Parameters) SiteNames() []string {
	switch p.Site {
	case "", "all":
		return []string{"linkedin", "indeed"}
	default:
		return []string{p.Site}
	}
}

// SearchRun is one request to scrape job postings for a user. Rows are
// append-only from the dispatcher's point of view: after creation only the
// external scraper moves them to a terminal status.
type SearchRun struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	Source        string     `db:"source"`
	Parameters    Parameters `db:"parameters"`
	Status        string     `db:"status"`
	ClientContext string     `db:"client_context"`
	CreatedAt     time.Time  `db:"created_at"`
	CompletedAt   *time.Time `db:"completed_at"`
}

// BatchResult summarizes one batch-scheduling invocation
type BatchResult struct {
	Inserted    int
	Triggered   int
	QueueWakeup bool
}
