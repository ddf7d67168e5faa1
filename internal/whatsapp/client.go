// Package whatsapp is a thin client for the provider's cloud messaging API.
// The provider is treated as a black box: send a message, get back a
// provider message id.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Gateway is the outbound messaging capability used by the REST order flow
// and the chat interpreter.
type Gateway interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendList(ctx context.Context, to string, list InteractiveList) (string, error)
	MarkRead(ctx context.Context, messageID string) error
}

// ProviderError is a non-2xx answer from the provider. Callers treat it as
// retryable noise, not a pipeline failure.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewClient(baseURL, accessToken, phoneNumberID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:       baseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// InteractiveList is an interactive list message: a body text plus rows the
// customer can pick from.
type InteractiveList struct {
	Header string
	Body   string
	Button string
	Rows   []ListRow
}

type ListRow struct {
	ID          string
	Title       string
	Description string
}

func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	return c.send(ctx, payload)
}

func (c *Client) SendList(ctx context.Context, to string, list InteractiveList) (string, error) {
	rows := make([]map[string]any, 0, len(list.Rows))
	for _, r := range list.Rows {
		rows = append(rows, map[string]any{
			"id":          r.ID,
			"title":       r.Title,
			"description": r.Description,
		})
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"header": map[string]any{"type": "text", "text": list.Header},
			"body":   map[string]any{"text": list.Body},
			"action": map[string]any{
				"button":   list.Button,
				"sections": []map[string]any{{"rows": rows}},
			},
		},
	}
	return c.send(ctx, payload)
}

// MarkRead acknowledges an inbound message. Callers treat failure as
// non-fatal.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	_, err := c.send(ctx, payload)
	return err
}

func (c *Client) send(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	// An accepted send without a message id still needs a unique id of our
	// own, or every such outbound row would collide on provider_message_id.
	if err := json.Unmarshal(respBody, &out); err != nil || len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "local-" + uuid.New().String(), nil
	}
	return out.Messages[0].ID, nil
}
