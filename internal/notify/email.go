package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// EmailSender delivers a rendered digest to one recipient
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// EmailConfig holds Resend API settings
type EmailConfig struct {
	APIURL      string
	APIKey      string
	Sender      string
	SendTimeout time.Duration
}

// ResendClient sends email through the Resend HTTP API
type ResendClient struct {
	config     EmailConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewResendClient creates a ResendClient with a bounded request timeout
func NewResendClient(config EmailConfig, logger *slog.Logger) *ResendClient {
	return &ResendClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.SendTimeout,
		},
		logger: logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the email to the Resend API and returns the provider message id.
// 5xx responses and transport errors are retryable, 4xx responses are not.
func (c *ResendClient) Send(ctx context.Context, to, subject, html string) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrEmailNotConfigured
	}

	payload, err := json.Marshal(sendRequest{
		From:    c.config.Sender,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewRetryableError(fmt.Errorf("email request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", NewRetryableError(fmt.Errorf("failed to read email response: %w", err))
	}

	if resp.StatusCode >= 500 {
		return "", NewRetryableError(fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("email provider rejected request with %d: %s", resp.StatusCode, string(body))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode email response: %w", err)
	}

	c.logger.Info("Email sent",
		slog.String("to", to),
		slog.String("message_id", parsed.ID),
	)

	return parsed.ID, nil
}
