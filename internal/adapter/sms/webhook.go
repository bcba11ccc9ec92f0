package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"weighttracker/internal/domain"
)

// WebhookTransport delivers messages by POSTing them as JSON to an SMS
// gateway. Multipart messages are split locally and sent in one request.
type WebhookTransport struct {
	url    string
	token  string
	limit  int
	client *http.Client
}

var _ domain.TextTransport = (*WebhookTransport)(nil)

type webhookPayload struct {
	To    string   `json:"to"`
	Parts []string `json:"parts"`
}

// NewWebhookTransport creates a WebhookTransport. A non-empty token is sent
// as a bearer token.
func NewWebhookTransport(url, token string, limit int) *WebhookTransport {
	if limit <= 0 {
		limit = domain.DefaultSingleMessageLimit
	}
	return &WebhookTransport{
		url:    url,
		token:  token,
		limit:  limit,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the HTTP client.
func (t *WebhookTransport) WithHTTPClient(c *http.Client) *WebhookTransport {
	t.client = c
	return t
}

// SendText delivers message as a single part.
func (t *WebhookTransport) SendText(ctx context.Context, phone, message string) error {
	return t.post(ctx, webhookPayload{To: phone, Parts: []string{message}})
}

// SendMultipartText splits message and delivers all parts together.
func (t *WebhookTransport) SendMultipartText(ctx context.Context, phone, message string) error {
	return t.post(ctx, webhookPayload{To: phone, Parts: DivideMessage(message, t.limit)})
}

// SingleMessageLimit returns the configured single-part length.
func (t *WebhookTransport) SingleMessageLimit() int {
	return t.limit
}

func (t *WebhookTransport) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned %s", resp.Status)
	}
	return nil
}
