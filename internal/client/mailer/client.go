package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/talentmatch/messaging-service/internal/config"
)

type request struct {
	RecipientID string `json:"recipient_id"`
	Subject     string `json:"subject"`
	HTML        string `json:"html"`
	Text        string `json:"text"`
}

// Client calls the outbound email edge function. The function resolves the
// recipient's address from the user id.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		url:    cfg.Mailer.URL,
		apiKey: cfg.Mailer.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Mailer.Timeout,
		},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) SendNotification(ctx context.Context, recipientID, subject, html, text string) error {
	jsonData, err := json.Marshal(request{
		RecipientID: recipientID,
		Subject:     subject,
		HTML:        html,
		Text:        text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	return nil
}
