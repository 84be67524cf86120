// Package host is the HTTP client for the bot host's OneBot-style
// API: fetching referenced messages and delivering replies.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/models"
)

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewClient(baseURL, accessToken string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type apiResponse struct {
	Status  string          `json:"status"`
	Retcode int             `json:"retcode"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s params: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request failed: status %d", action, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if envelope.Retcode != 0 {
		return fmt.Errorf("%s returned retcode %d", action, envelope.Retcode)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode %s data: %w", action, err)
		}
	}
	return nil
}

// GetMessage fetches a message by id and returns its segment chain.
func (c *Client) GetMessage(ctx context.Context, messageID int64) ([]models.Segment, error) {
	var data struct {
		Message []models.Segment `json:"message"`
	}
	params := map[string]any{"message_id": messageID}
	if err := c.call(ctx, "get_msg", params, &data); err != nil {
		return nil, err
	}
	return data.Message, nil
}

// SendText sends a plain-text reply to the event's origin.
func (c *Client) SendText(ctx context.Context, target models.Target, text string) error {
	seg := map[string]any{"type": "text", "data": map[string]any{"text": text}}
	return c.send(ctx, target, seg)
}

// SendImage sends an image reply by local file path.
func (c *Client) SendImage(ctx context.Context, target models.Target, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	seg := map[string]any{"type": "image", "data": map[string]any{"file": "file://" + abs}}
	return c.send(ctx, target, seg)
}

func (c *Client) send(ctx context.Context, target models.Target, segment map[string]any) error {
	params := map[string]any{
		"message_type": target.MessageType,
		"message":      []map[string]any{segment},
	}
	if target.MessageType == "group" {
		params["group_id"] = target.GroupID
	} else {
		params["user_id"] = target.UserID
	}
	return c.call(ctx, "send_msg", params, nil)
}
