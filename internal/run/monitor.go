package run

import (
	"context"
	"log/slog"
	"time"
)

// Monitor exposes the "active run" view used by polling clients. At most the
// most-recently-created run per user counts as active, and only while its
// status is non-terminal.
type Monitor struct {
	store        Store
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewMonitor creates a Monitor
func NewMonitor(store Store, pollInterval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:        store,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// ActiveRun returns the user's active run, or nil when there is none. A
// transiently unreachable datastore is treated as "no active run" rather than
// an error: pollers must keep polling, not crash.
func (m *Monitor) ActiveRun(ctx context.Context, userID string) *SearchRun {
	latest, err := m.store.LatestRun(ctx, userID)
	if err != nil {
		if err != ErrRunNotFound {
			m.logger.Warn("Active run lookup failed, reporting no active run",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
		return nil
	}

	if IsTerminal(latest.Status) {
		return nil
	}

	return latest
}

// Watch polls the user's latest run on the configured interval and sends each
// observed state on the returned channel. The channel closes once the run
// reaches a terminal status, no run exists, or ctx is done.
func (m *Monitor) Watch(ctx context.Context, userID string) <-chan SearchRun {
	updates := make(chan SearchRun, 1)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()

		for {
			latest, err := m.store.LatestRun(ctx, userID)
			if err == nil {
				select {
				case updates <- *latest:
				case <-ctx.Done():
					return
				}

				if IsTerminal(latest.Status) {
					return
				}
			} else if err == ErrRunNotFound {
				return
			}
			// Transient store errors fall through to the next tick.

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates
}
