// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// ResultFile is the on-disk representation of a search and its results.
// A researcher can save a search to a file and reload it later without
// re-querying arXiv.
type ResultFile struct {
	Request    types.SearchRequest `yaml:"request"`
	Papers     []types.Paper       `yaml:"papers"`
	Translated []types.Paper       `yaml:"translated,omitempty"`
	Model      string              `yaml:"model,omitempty"`
	Summary    ResultSummary       `yaml:"summary"`
}

// ResultSummary stores result statistics and a timestamp.
type ResultSummary struct {
	Returned     int       `yaml:"returned"`
	TotalResults int       `yaml:"total_results"`
	APITotal     int       `yaml:"api_total"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// NewResultFile snapshots a completed search.
func NewResultFile(req types.SearchRequest, res types.SearchResult, now time.Time) *ResultFile {
	return &ResultFile{
		Request: req,
		Papers:  types.ClonePapers(res.Papers),
		Summary: ResultSummary{
			Returned:     len(res.Papers),
			TotalResults: res.TotalResults,
			APITotal:     res.APITotal,
			Timestamp:    now,
		},
	}
}

// Result rebuilds the SearchResult stored in the file.
func (f *ResultFile) Result() types.SearchResult {
	return types.SearchResult{
		Papers:       types.ClonePapers(f.Papers),
		TotalResults: f.Summary.TotalResults,
		APITotal:     f.Summary.APITotal,
	}
}

// WriteResultFile saves f as YAML.
func WriteResultFile(path string, f *ResultFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var f ResultFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parsing result file: %v", types.ErrParse, err)
	}
	if len(f.Translated) > 0 && len(f.Translated) != len(f.Papers) {
		return nil, fmt.Errorf("%w: result file has %d translated papers for %d papers",
			types.ErrParse, len(f.Translated), len(f.Papers))
	}
	return &f, nil
}
