// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-desk/internal/secrets"
	"github.com/pdiddy/paper-desk/pkg/types"
)

// --- ChatBackend ---

func chatServer(t *testing.T, status int, body string, seen *chatRequest, header *http.Header) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		if header != nil {
			*header = r.Header.Clone()
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestChatBackendTranslate(t *testing.T) {
	var seen chatRequest
	var header http.Header
	ts := chatServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"图神经网络"}}]}`, &seen, &header)

	b := &ChatBackend{
		Provider:    "siliconflow",
		URL:         ts.URL,
		APIKey:      "sk-test",
		Language:    "Simplified Chinese",
		Temperature: DefaultTemperature,
		MaxTokens:   512,
		Client:      ts.Client(),
	}
	got, err := b.Translate(context.Background(), "Graph neural networks", "Qwen/Qwen2.5-7B-Instruct")
	require.NoError(t, err)

	assert.Equal(t, "图神经网络", got)
	assert.Equal(t, "Bearer sk-test", header.Get("Authorization"))
	assert.Equal(t, "Qwen/Qwen2.5-7B-Instruct", seen.Model)
	assert.InDelta(t, 0.3, seen.Temperature, 1e-9)
	assert.Equal(t, 512, seen.MaxTokens)
	assert.False(t, seen.Stream)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[0].Content, "Simplified Chinese")
	assert.Contains(t, seen.Messages[0].Content, "Output only the translation")
	assert.Equal(t, chatMessage{Role: "user", Content: "Graph neural networks"}, seen.Messages[1])
}

func TestChatBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, types.ErrAuth},
		{"forbidden", http.StatusForbidden, ``, types.ErrAuth},
		{"server error", http.StatusInternalServerError, `oops`, types.ErrAPI},
		{"malformed json", http.StatusOK, `{"choices":`, types.ErrFormat},
		{"no choices", http.StatusOK, `{"choices":[]}`, types.ErrFormat},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, types.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := chatServer(t, tt.status, tt.body, nil, nil)
			b := &ChatBackend{Provider: "siliconflow", URL: ts.URL, APIKey: "k", Client: ts.Client()}

			_, err := b.Translate(context.Background(), "x", "m")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChatBackendMissingKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected without a key")
	}))
	defer ts.Close()

	b := &ChatBackend{Provider: "siliconflow", URL: ts.URL, Client: ts.Client()}
	assert.ErrorIs(t, b.Ready(), types.ErrAuth)

	_, err := b.Translate(context.Background(), "x", "m")
	assert.ErrorIs(t, err, types.ErrAuth)
}

func TestChatBackendNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	b := &ChatBackend{Provider: "siliconflow", URL: url, APIKey: "k"}
	_, err := b.Translate(context.Background(), "x", "m")
	assert.ErrorIs(t, err, types.ErrNetwork)
}

// --- ClaudeBackend ---

func TestClaudeBackendTranslate(t *testing.T) {
	var seen claudeRequest
	var header http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		header = r.Header.Clone()
		w.Write([]byte(`{"content":[{"type":"thinking","text":""},{"type":"text","text":"\n\n注意力机制"}]}`))
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "ak", Temperature: DefaultTemperature, MaxTokens: 256, Client: ts.Client()}
	got, err := b.Translate(context.Background(), "Attention", "claude-sonnet-4-5")
	require.NoError(t, err)

	assert.Equal(t, "\n\n注意力机制", got, "cleanup happens in the pipeline")
	assert.Equal(t, "ak", header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", header.Get("anthropic-version"))
	assert.Equal(t, "claude-sonnet-4-5", seen.Model)
	assert.Equal(t, 256, seen.MaxTokens)
	assert.Contains(t, seen.System, DefaultLanguage)
	assert.Equal(t, []claudeMessage{{Role: "user", Content: "Attention"}}, seen.Messages)
}

func TestClaudeBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, types.ErrAuth},
		{"overloaded", 529, `{"type":"error"}`, types.ErrAPI},
		{"no text block", http.StatusOK, `{"content":[]}`, types.ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := chatServer(t, tt.status, tt.body, nil, nil)
			b := &ClaudeBackend{URL: ts.URL, APIKey: "ak", Client: ts.Client()}
			_, err := b.Translate(context.Background(), "x", "m")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// --- NewBackend ---

func TestNewBackend(t *testing.T) {
	creds := secrets.FromMap(map[string]string{
		"siliconflow-api-key": "sf-key",
		"anthropic-api-key":   "an-key",
	})

	b, err := NewBackend(types.TranslationConfig{}, creds)
	require.NoError(t, err)
	chat, ok := b.(*ChatBackend)
	require.True(t, ok)
	assert.Equal(t, SiliconFlowURL, chat.URL)
	assert.Equal(t, "sf-key", chat.APIKey)
	assert.InDelta(t, DefaultTemperature, chat.Temperature, 1e-9)
	assert.Equal(t, DefaultMaxTokens, chat.MaxTokens)

	b, err = NewBackend(types.TranslationConfig{Provider: types.ProviderAnthropic}, creds)
	require.NoError(t, err)
	claude, ok := b.(*ClaudeBackend)
	require.True(t, ok)
	assert.Equal(t, "an-key", claude.APIKey)

	b, err = NewBackend(types.TranslationConfig{
		Provider: types.ProviderOpenAI,
		AIConfig: types.AIConfig{APIKey: "inline"},
	}, creds)
	require.NoError(t, err)
	chat = b.(*ChatBackend)
	assert.Equal(t, OpenAIURL, chat.URL)
	assert.Equal(t, "inline", chat.APIKey)

	b, err = NewBackend(types.TranslationConfig{Provider: types.ProviderOpenAI}, creds)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Ready(), types.ErrAuth, "missing key surfaces through Ready")

	_, err = NewBackend(types.TranslationConfig{Provider: "babelfish"}, creds)
	assert.Error(t, err)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "Qwen/Qwen2.5-7B-Instruct", DefaultModel(types.ProviderSiliconFlow))
	assert.Equal(t, "claude-sonnet-4-5", DefaultModel(types.ProviderAnthropic))
	assert.Equal(t, "siliconflow-api-key", CredentialKey(types.ProviderSiliconFlow))
}
