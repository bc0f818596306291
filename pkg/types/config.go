package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single request attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the arXiv search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the arXiv query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxResults is the default user cap on total results (default 40).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// SortBy and SortOrder are the default sort parameters.
	SortBy    string `json:"sort_by" yaml:"sort_by" mapstructure:"sort_by"`
	SortOrder string `json:"sort_order" yaml:"sort_order" mapstructure:"sort_order"`

	// RequestInterval is the minimum spacing between API requests (default 3s).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`

	// MaxAttempts is the total attempt budget per request (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
}

// TranslationProvider identifies the LLM API used for translation.
type TranslationProvider string

const (
	ProviderSiliconFlow TranslationProvider = "siliconflow"
	ProviderOpenAI      TranslationProvider = "openai"
	ProviderAnthropic   TranslationProvider = "anthropic"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "Qwen/Qwen2.5-7B-Instruct").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey overrides the key from the secrets directory.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// TranslationConfig holds settings for the translation stage.
type TranslationConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: siliconflow, openai or anthropic.
	Provider TranslationProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// TargetLanguage is the language titles and summaries are translated into.
	TargetLanguage string `json:"target_language" yaml:"target_language" mapstructure:"target_language"`

	// Temperature and MaxTokens bound each completion.
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds a single completion request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// LibraryConfig holds settings for the local library database.
type LibraryConfig struct {
	// Dir contains library.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// HistoryLimit caps the number of search history entries (default 10).
	HistoryLimit int `json:"history_limit" yaml:"history_limit" mapstructure:"history_limit"`
}

// ExportConfig holds settings for paper exports.
type ExportConfig struct {
	// Dir is the default directory for export files; empty means ask.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Translation TranslationConfig `json:"translation" yaml:"translation" mapstructure:"translation"`
	Library     LibraryConfig     `json:"library" yaml:"library" mapstructure:"library"`
	Export      ExportConfig      `json:"export" yaml:"export" mapstructure:"export"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
}
