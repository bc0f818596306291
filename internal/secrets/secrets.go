// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials. Each file in the secrets
// directory holds one secret: the filename is the key name and the trimmed
// contents are the value. Keys missing from the directory fall back to an
// environment variable derived from the key name.
//
// Known keys: siliconflow-api-key, openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Store holds credentials loaded from disk plus an environment fallback.
type Store struct {
	values    map[string]string
	envPrefix string
	getenv    func(string) string
}

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error. Unreadable files are logged and skipped.
func Load(dir, envPrefix string, log zerolog.Logger) (*Store, error) {
	s := &Store{
		values:    map[string]string{},
		envPrefix: envPrefix,
		getenv:    os.Getenv,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s.values[name] = value
		}
	}

	return s, nil
}

// FromMap builds a Store from fixed values, without environment fallback.
func FromMap(values map[string]string) *Store {
	return &Store{values: values, getenv: func(string) string { return "" }}
}

// Get returns the credential for key, consulting the directory first and
// then PREFIX_KEY_NAME in the environment.
func (s *Store) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if v, ok := s.values[key]; ok {
		return v, true
	}
	if s.envPrefix == "" {
		return "", false
	}
	if v := strings.TrimSpace(s.getenv(EnvName(s.envPrefix, key))); v != "" {
		return v, true
	}
	return "", false
}

// Names lists the keys loaded from disk in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EnvName returns the environment variable consulted for key,
// e.g. ("PAPER_DESK", "anthropic-api-key") -> "PAPER_DESK_ANTHROPIC_API_KEY".
func EnvName(prefix, key string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}
