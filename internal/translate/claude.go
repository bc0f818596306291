// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend translates through the Claude Messages API.
type ClaudeBackend struct {
	// URL overrides claudeAPIURL.
	URL string

	APIKey      string
	Language    string
	Temperature float64
	MaxTokens   int
	Client      *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Name implements Backend.
func (c *ClaudeBackend) Name() string { return string(types.ProviderAnthropic) }

// Ready implements Backend.
func (c *ClaudeBackend) Ready() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: no anthropic API key configured", types.ErrAuth)
	}
	return nil
}

// Translate implements Backend.
func (c *ClaudeBackend) Translate(ctx context.Context, text, model string) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	system, err := renderSystemPrompt(c.Language)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:       model,
		MaxTokens:   c.MaxTokens,
		System:      system,
		Temperature: c.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.URL
	if url == "" {
		url = claudeAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	body, err := doJSON(c.Client, req, "Claude API")
	if err != nil {
		return "", err
	}

	var cResp claudeResponse
	if err := json.Unmarshal(body, &cResp); err != nil {
		return "", fmt.Errorf("%w: decoding Claude response: %v", types.ErrFormat, err)
	}
	for _, block := range cResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in Claude API response", types.ErrFormat)
}
