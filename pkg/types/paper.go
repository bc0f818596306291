// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds the normalized metadata of one arXiv entry.
type Paper struct {
	// ID is the arXiv identifier without version suffix (e.g. "2502.14776").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with newlines folded into spaces.
	Title string `json:"title" yaml:"title"`

	// Authors is the author list joined with ", ".
	Authors string `json:"authors" yaml:"authors"`

	// Published is the first submission time.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the time of the latest version.
	Updated time.Time `json:"updated" yaml:"updated"`

	// Summary is the abstract with newlines folded into spaces.
	Summary string `json:"summary" yaml:"summary"`

	// Link is the abstract page URL and the paper's primary identity.
	Link string `json:"link" yaml:"link"`

	// Categories lists the arXiv category terms in feed order.
	Categories []string `json:"categories" yaml:"categories"`
}

// Identity returns the key used for selection, dedup and cache checks:
// the link when present, the arXiv ID otherwise.
func (p Paper) Identity() string {
	if p.Link != "" {
		return p.Link
	}
	return p.ID
}

// Clone returns a copy that shares no slices with p.
func (p Paper) Clone() Paper {
	c := p
	if p.Categories != nil {
		c.Categories = append([]string(nil), p.Categories...)
	}
	return c
}

// ClonePapers deep-copies a paper slice.
func ClonePapers(papers []Paper) []Paper {
	if papers == nil {
		return nil
	}
	out := make([]Paper, len(papers))
	for i, p := range papers {
		out[i] = p.Clone()
	}
	return out
}

// Identities returns the ordered identity list of papers.
func Identities(papers []Paper) []string {
	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.Identity()
	}
	return ids
}
