// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// Default chat-completions endpoints for OpenAI-compatible providers.
const (
	SiliconFlowURL = "https://api.siliconflow.cn/v1/chat/completions"
	OpenAIURL      = "https://api.openai.com/v1/chat/completions"
)

// ChatBackend calls an OpenAI-compatible chat completions API with bearer
// authentication.
type ChatBackend struct {
	// Provider names the service in errors and logs.
	Provider string

	URL         string
	APIKey      string
	Language    string
	Temperature float64
	MaxTokens   int
	Client      *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Name implements Backend.
func (c *ChatBackend) Name() string { return c.Provider }

// Ready implements Backend.
func (c *ChatBackend) Ready() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: no %s API key configured", types.ErrAuth, c.Provider)
	}
	return nil
}

// Translate implements Backend.
func (c *ChatBackend) Translate(ctx context.Context, text, model string) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	system, err := renderSystemPrompt(c.Language)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	body, err := doJSON(c.Client, req, c.Provider)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding %s response: %v", types.ErrFormat, c.Provider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: %s response has no message content", types.ErrFormat, c.Provider)
	}
	return resp.Choices[0].Message.Content, nil
}

// doJSON sends req and returns the body of a 200 response. 401 and 403 map
// to types.ErrAuth, other statuses to *types.APIError.
func doJSON(client *http.Client, req *http.Request, source string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling %s: %v", types.ErrNetwork, source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", types.ErrNetwork, source, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s rejected the API key (HTTP %d)", types.ErrAuth, source, resp.StatusCode)
	default:
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return nil, &types.APIError{Source: source, Status: resp.StatusCode, Body: msg}
	}
}
