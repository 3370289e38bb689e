package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadymuxd/searching-the-fox-sub001/shared/logger"
)

func testResendClient(apiURL, apiKey string) *ResendClient {
	return NewResendClient(EmailConfig{
		APIURL:      apiURL,
		APIKey:      apiKey,
		Sender:      "alerts@example.com",
		SendTimeout: 2 * time.Second,
	}, logger.NewDefault().Logger)
}

func TestResendClient_Send(t *testing.T) {
	var captured struct {
		auth    string
		request sendRequest
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.request))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-123"}`))
	}))
	defer srv.Close()

	client := testResendClient(srv.URL, "re_test_key")

	messageID, err := client.Send(context.Background(), "user@example.com", "2 New Jobs Matching Your Criteria", "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, "msg-123", messageID)

	assert.Equal(t, "Bearer re_test_key", captured.auth)
	assert.Equal(t, "alerts@example.com", captured.request.From)
	assert.Equal(t, []string{"user@example.com"}, captured.request.To)
	assert.Equal(t, "2 New Jobs Matching Your Criteria", captured.request.Subject)
}

func TestResendClient_Send_MissingAPIKey(t *testing.T) {
	client := testResendClient("http://localhost:1", "")

	_, err := client.Send(context.Background(), "user@example.com", "subject", "body")
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
}

func TestResendClient_Send_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := testResendClient(srv.URL, "re_test_key")

	_, err := client.Send(context.Background(), "user@example.com", "subject", "body")
	require.Error(t, err)

	var retryable *RetryableError
	assert.True(t, errors.As(err, &retryable))
}

func TestResendClient_Send_RejectionIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid recipient"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := testResendClient(srv.URL, "re_test_key")

	_, err := client.Send(context.Background(), "not-an-email", "subject", "body")
	require.Error(t, err)

	var retryable *RetryableError
	assert.False(t, errors.As(err, &retryable))
	assert.Contains(t, err.Error(), "422")
}

func TestResendClient_Send_ConnectionErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := testResendClient(srv.URL, "re_test_key")

	_, err := client.Send(context.Background(), "user@example.com", "subject", "body")
	require.Error(t, err)

	var retryable *RetryableError
	assert.True(t, errors.As(err, &retryable))
}

func TestShouldRequeue(t *testing.T) {
	n := &Notifier{}

	assert.False(t, n.shouldRequeue(ErrUserNotFound))
	assert.False(t, n.shouldRequeue(errors.New("template broke")))
	assert.True(t, n.shouldRequeue(NewRetryableError(errors.New("smtp timeout"))))
}
