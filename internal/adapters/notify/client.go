package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andrescamacho/dispatch-go/internal/domain/shared"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/config"
)

// Client posts push notifications to an external delivery service.
// Notifications are best effort; callers log failures and move on.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a notification client from configuration
func NewClient(cfg *config.NotificationConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type pushRequest struct {
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

// Push sends one notification
func (c *Client) Push(ctx context.Context, recipientID, title, body string) error {
	payload, err := json.Marshal(pushRequest{RecipientID: recipientID, Title: title, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewUpstreamError("notification service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return shared.NewUpstreamError(fmt.Sprintf("notification service returned %d", resp.StatusCode), nil)
	}
	return nil
}

// NoopSink drops notifications; used when the sink is disabled
type NoopSink struct {
	Logger *slog.Logger
}

// Push logs and drops the notification
func (s *NoopSink) Push(ctx context.Context, recipientID, title, body string) error {
	if s.Logger != nil {
		s.Logger.Debug("notification suppressed", "recipient_id", recipientID, "title", title)
	}
	return nil
}
