// Package scrapeclient is a thin HTTP client for the remote scraping service.
//
// The remote worker may cold-start and take longer to answer than any caller
// here is willing to wait, so the client separates delivery from completion:
// a call counts as delivered once any HTTP response comes back, regardless of
// status code. The scraper finishes asynchronously and reports results through
// the ingest endpoint. Transport failures never propagate as errors to the
// caller; they degrade to a DeliveryResult with Delivered=false.
package scrapeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"
)

// Config holds the scraper endpoint and per-call time budgets
type Config struct {
	BaseURL          string
	WarmUpTimeout    time.Duration
	DeliveryTimeout  time.Duration
	QueuePollTimeout time.Duration
}

// ScrapeParams is the search criteria forwarded to the remote scraper
type ScrapeParams struct {
	SearchTerm    string   `json:"search_term"`
	Location      string   `json:"location"`
	SiteNames     []string `json:"site_name"`
	ResultsWanted int      `json:"results_wanted"`
	HoursOld      int      `json:"hours_old"`
	CountryIndeed string   `json:"country_indeed"`
}

// scrapeRequest is the wire shape of POST /scrape
type scrapeRequest struct {
	ScrapeParams
	RunID  string `json:"run_id"`
	UserID string `json:"user_id"`
}

// DeliveryResult reports whether a scrape request reached the remote process.
// Assumed is set when the call aborted after the request body had been
// written; delivery is then taken on faith, not confirmed by the remote side.
type DeliveryResult struct {
	Delivered  bool
	Assumed    bool
	StatusCode int
	Err        error
}

// Client talks to the remote scraping service
type Client struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a scrape client with a shared HTTP transport
func New(config *Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		http:   &http.Client{},
		logger: logger,
	}
}

// TriggerScrape delivers one scrape request for a run. Any HTTP response
// counts as delivered; the scrape itself completes out of band.
func (c *Client) TriggerScrape(ctx context.Context, runID, userID string, params ScrapeParams) DeliveryResult {
	body, err := json.Marshal(scrapeRequest{
		ScrapeParams: params,
		RunID:        runID,
		UserID:       userID,
	})
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("failed to encode scrape request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.DeliveryTimeout)
	defer cancel()

	// Track whether the request body made it onto the wire before an abort.
	var wrote atomic.Bool
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				wrote.Store(true)
			}
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("failed to build scrape request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Best-effort assumption: the request was fully written before the
		// budget expired, so the remote side most likely has it. There is no
		// confirmation; the queue-poll backstop covers the other case.
		if wrote.Load() {
			c.logger.Warn("Scrape call aborted after request was sent, assuming delivery",
				slog.String("run_id", runID),
				slog.Any("error", err),
			)
			return DeliveryResult{Delivered: true, Assumed: true, Err: err}
		}

		c.logger.Warn("Scrape delivery failed",
			slog.String("run_id", runID),
			slog.Any("error", err),
		)
		return DeliveryResult{Err: err}
	}
	defer drain(resp)

	c.logger.Info("Scrape request delivered",
		slog.String("run_id", runID),
		slog.String("user_id", userID),
		slog.Int("status", resp.StatusCode),
	)

	return DeliveryResult{Delivered: true, StatusCode: resp.StatusCode}
}

// WarmUp pings /health to wake a cold remote worker. Failures are ignored;
// the return value only says whether the service answered.
func (c *Client) WarmUp(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.WarmUpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Scraper warm-up ping failed",
			slog.Any("error", err),
		)
		return false
	}
	defer drain(resp)

	return true
}

// Health checks the remote service and returns its reported status
func (c *Client) Health(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.WarmUpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	defer drain(resp)

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode health response: %w", err)
	}

	return payload.Status, nil
}

// PollQueue asks the remote worker to drain its internal queue. Used as a
// reliability backstop after batch dispatch: a trigger dropped in transit is
// recovered when the worker polls. Best-effort, never returns an error to
// block the caller.
func (c *Client) PollQueue(ctx context.Context, batchSize int) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.QueuePollTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/worker/poll-queue?batch_size=%d", c.config.BaseURL, batchSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Queue wake-up failed",
			slog.Any("error", err),
		)
		return false
	}
	defer drain(resp)

	c.logger.Info("Queue wake-up delivered",
		slog.Int("batch_size", batchSize),
		slog.Int("status", resp.StatusCode),
	)

	return true
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
