// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config registers paper-desk defaults with viper and decodes the
// merged configuration into types.AppConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-desk/internal/search"
	"github.com/pdiddy/paper-desk/internal/translate"
	"github.com/pdiddy/paper-desk/pkg/types"
)

// Name is the config file base name and the default directory name.
const Name = "paper-desk"

// EnvPrefix prefixes environment overrides, e.g. PAPER_DESK_SEARCH_MAX_RESULTS.
const EnvPrefix = "PAPER_DESK"

const defaultUserAgent = "paper-desk/0.1"

// Dir returns ~/.config/paper-desk, or .paper-desk when there is no home
// directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + Name
	}
	return filepath.Join(home, ".config", Name)
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("search.base_url", search.DefaultBaseURL)
	v.SetDefault("search.max_results", 40)
	v.SetDefault("search.sort_by", types.SortSubmitted)
	v.SetDefault("search.sort_order", types.OrderDescending)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.request_interval", search.DefaultRequestInterval)
	v.SetDefault("search.max_attempts", 3)

	v.SetDefault("translation.provider", string(types.ProviderSiliconFlow))
	v.SetDefault("translation.model", "")
	v.SetDefault("translation.target_language", translate.DefaultLanguage)
	v.SetDefault("translation.temperature", translate.DefaultTemperature)
	v.SetDefault("translation.max_tokens", translate.DefaultMaxTokens)
	v.SetDefault("translation.timeout", translate.DefaultTimeout)

	v.SetDefault("library.dir", Dir())
	v.SetDefault("library.history_limit", 10)

	v.SetDefault("export.dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load decodes v into an AppConfig. An empty translation model resolves
// to the provider default.
func Load(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	switch cfg.Translation.Provider {
	case types.ProviderSiliconFlow, types.ProviderOpenAI, types.ProviderAnthropic:
	default:
		return cfg, fmt.Errorf("translation.provider %q: want siliconflow, openai or anthropic", cfg.Translation.Provider)
	}
	if cfg.Translation.Model == "" {
		cfg.Translation.Model = translate.DefaultModel(cfg.Translation.Provider)
	}
	if cfg.Search.MaxResults < 1 {
		return cfg, fmt.Errorf("search.max_results must be at least 1, got %d", cfg.Search.MaxResults)
	}
	return cfg, nil
}
