// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export turns a paper selection into the JSON export record and
// writes it to disk.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// filenameLayout is the time layout of default export filenames.
const filenameLayout = "2006-01-02_15-04"

// Record is the export document. Field names are stable.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Papers    []Entry   `json:"papers"`
}

// Entry is one exported paper.
type Entry struct {
	Title      string   `json:"title"`
	Authors    string   `json:"authors"`
	Published  string   `json:"published"`
	Link       string   `json:"link"`
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
	Translated bool     `json:"translated"`
}

// IDSet is a set of paper identities.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Select returns the selected papers, or all papers when selected is
// empty, deduplicated by link in first-seen order. Papers without a link
// share one bucket, so only the first of them is kept.
func Select(papers []types.Paper, selected IDSet) []types.Paper {
	seen := make(map[string]bool, len(papers))
	var out []types.Paper
	for _, p := range papers {
		if len(selected) > 0 && !selected.Has(p.Identity()) {
			continue
		}
		if seen[p.Link] {
			continue
		}
		seen[p.Link] = true
		out = append(out, p)
	}
	return out
}

// NewEntry converts a paper. translated marks text that came from the
// translation pipeline.
func NewEntry(p types.Paper, translated bool) Entry {
	e := Entry{
		Title:      p.Title,
		Authors:    p.Authors,
		Link:       p.Link,
		Summary:    p.Summary,
		Categories: p.Categories,
		Translated: translated,
	}
	if e.Categories == nil {
		e.Categories = []string{}
	}
	if !p.Published.IsZero() {
		e.Published = p.Published.UTC().Format(time.RFC3339)
	}
	return e
}

// NewRecord wraps entries with a timestamp and count.
func NewRecord(entries []Entry, now time.Time) Record {
	if entries == nil {
		entries = []Entry{}
	}
	return Record{Timestamp: now, Count: len(entries), Papers: entries}
}

// Format builds the export record for the displayed papers.
func Format(papers []types.Paper, selected IDSet, translated bool, now time.Time) Record {
	chosen := Select(papers, selected)
	entries := make([]Entry, len(chosen))
	for i, p := range chosen {
		entries[i] = NewEntry(p, translated)
	}
	return NewRecord(entries, now)
}

// Marshal renders rec as JSON with two-space indentation.
func Marshal(rec Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling export record: %w", err)
	}
	return append(data, '\n'), nil
}

// Write saves rec to path, creating parent directories.
func Write(path string, rec Record) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export %s: %w", path, err)
	}
	return nil
}

// DefaultFilename is the suggested export file name for now.
func DefaultFilename(now time.Time) string {
	return "arxiv-export_" + now.Format(filenameLayout) + ".json"
}
