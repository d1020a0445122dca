// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slack posts messages to a Slack channel through the Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/pubwatch/internal/httputil"
	"github.com/pdiddy/pubwatch/pkg/types"
)

// postMessageBase is the chat.postMessage endpoint. Declared as a var so
// tests can substitute an httptest server.
var postMessageBase = "https://slack.com/api/chat.postMessage"

// Client sends messages to one channel using a bot token.
type Client struct {
	HTTP      *http.Client
	Token     string
	Channel   string
	UserAgent string
}

// NewClient builds a Slack client from configuration.
func NewClient(cfg types.SlackConfig) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		Token:     cfg.Token,
		Channel:   cfg.Channel,
		UserAgent: cfg.UserAgent,
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Send posts text to the configured channel. Transient HTTP failures are
// retried; an ok:false API payload is an error, since Slack reports most
// delivery problems with HTTP 200.
func (c *Client) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(postMessageRequest{Channel: c.Channel, Text: text})
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postMessageBase, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return fmt.Errorf("Slack API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack API returned HTTP %d", resp.StatusCode)
	}

	var pmr postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pmr); err != nil {
		return fmt.Errorf("parsing Slack response: %w", err)
	}
	if !pmr.OK {
		return fmt.Errorf("Slack API error: %s", pmr.Error)
	}
	return nil
}
