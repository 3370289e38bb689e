package scrapeclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
)

func testClient(baseURL string) *Client {
	return New(&Config{
		BaseURL:          baseURL,
		WarmUpTimeout:    time.Second,
		DeliveryTimeout:  time.Second,
		QueuePollTimeout: time.Second,
	}, logger.NewDefault().Logger)
}

func TestTriggerScrape_AnyResponseCountsAsDelivered(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{name: "200 response", statusCode: http.StatusOK},
		{name: "202 response", statusCode: http.StatusAccepted},
		{name: "500 response", statusCode: http.StatusInternalServerError},
		{name: "429 response", statusCode: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/scrape", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req scrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "run-1", req.RunID)
				assert.Equal(t, "user-1", req.UserID)
				assert.Equal(t, "golang developer", req.SearchTerm)

				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			result := testClient(srv.URL).TriggerScrape(context.Background(), "run-1", "user-1", ScrapeParams{
				SearchTerm: "golang developer",
				SiteNames:  []string{"linkedin", "indeed"},
			})

			assert.True(t, result.Delivered)
			assert.False(t, result.Assumed)
			assert.Equal(t, tt.statusCode, result.StatusCode)
			assert.NoError(t, result.Err)
		})
	}
}

func TestTriggerScrape_TimeoutAfterBodySentAssumesDelivery(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body is fully read, then the response is held past the
		// delivery budget.
		_, _ = io.Copy(io.Discard, r.Body)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := New(&Config{
		BaseURL:         srv.URL,
		DeliveryTimeout: 200 * time.Millisecond,
	}, logger.NewDefault().Logger)

	result := client.TriggerScrape(context.Background(), "run-1", "user-1", ScrapeParams{
		SearchTerm: "golang developer",
	})

	assert.True(t, result.Delivered)
	assert.True(t, result.Assumed)
	assert.Error(t, result.Err)
}

func TestTriggerScrape_ConnectionRefusedNotDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens on the address anymore

	result := testClient(srv.URL).TriggerScrape(context.Background(), "run-1", "user-1", ScrapeParams{})

	assert.False(t, result.Delivered)
	assert.False(t, result.Assumed)
	assert.Error(t, result.Err)
}

func TestWarmUp(t *testing.T) {
	t.Run("reachable service", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.True(t, testClient(srv.URL).WarmUp(context.Background()))
	})

	t.Run("unreachable service", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		assert.False(t, testClient(srv.URL).WarmUp(context.Background()))
	})
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	status, err := testClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status)
}

func TestPollQueue(t *testing.T) {
	t.Run("delivers batch size", func(t *testing.T) {
		var gotBatchSize string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/worker/poll-queue", r.URL.Path)
			gotBatchSize = r.URL.Query().Get("batch_size")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.True(t, testClient(srv.URL).PollQueue(context.Background(), 10))
		assert.Equal(t, "10", gotBatchSize)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		assert.False(t, testClient(srv.URL).PollQueue(context.Background(), 10))
	})
}
