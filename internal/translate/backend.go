// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// Completion defaults.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
)

// Backend abstracts the LLM API so tests can supply a mock. Each call
// translates one text.
type Backend interface {
	// Name identifies the provider in logs and messages.
	Name() string

	// Ready reports types.ErrAuth when no credential is configured.
	Ready() error

	// Translate returns the model's translation of text.
	Translate(ctx context.Context, text, model string) (string, error)
}

// Credentials resolves a named secret.
type Credentials interface {
	Get(key string) (string, bool)
}

// CredentialKey is the secret name holding the API key for provider.
func CredentialKey(provider types.TranslationProvider) string {
	return string(provider) + "-api-key"
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider types.TranslationProvider) string {
	switch provider {
	case types.ProviderAnthropic:
		return "claude-sonnet-4-5"
	case types.ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "Qwen/Qwen2.5-7B-Instruct"
	}
}

// NewBackend builds the backend for cfg.Provider. The API key comes from
// cfg.APIKey, then from creds. A missing key is not an error here; Ready
// reports it so the pipeline can ask the user to configure one.
func NewBackend(cfg types.TranslationConfig, creds Credentials) (Backend, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = types.ProviderSiliconFlow
	}

	key := cfg.APIKey
	if key == "" && creds != nil {
		key, _ = creds.Get(CredentialKey(provider))
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch provider {
	case types.ProviderSiliconFlow, types.ProviderOpenAI:
		url := cfg.BaseURL
		if url == "" {
			url = SiliconFlowURL
			if provider == types.ProviderOpenAI {
				url = OpenAIURL
			}
		}
		return &ChatBackend{
			Provider:    string(provider),
			URL:         url,
			APIKey:      key,
			Language:    cfg.TargetLanguage,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Client:      client,
		}, nil
	case types.ProviderAnthropic:
		return &ClaudeBackend{
			URL:         cfg.BaseURL,
			APIKey:      key,
			Language:    cfg.TargetLanguage,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Client:      client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", provider)
	}
}
