// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package results holds the current search result list and slices it into
// fixed-size display pages.
package results

import "github.com/pdiddy/paper-desk/pkg/types"

// PageSize is the number of papers shown per page.
const PageSize = 20

// Set is an ordered result list with a current page. The zero value is an
// empty set positioned on page 1. Set is not safe for concurrent use; the
// session serializes access.
type Set struct {
	papers  []types.Paper
	current int
}

// New returns a Set over papers, positioned on page 1.
func New(papers []types.Paper) *Set {
	s := &Set{}
	s.Replace(papers)
	return s
}

// Replace swaps in a new result list and returns to page 1.
func (s *Set) Replace(papers []types.Paper) {
	s.papers = papers
	s.current = 1
}

// Update swaps in a same-search list (for example translated papers) while
// keeping the current page, clamped to the new page count.
func (s *Set) Update(papers []types.Paper) {
	s.papers = papers
	s.current = s.clamp(s.current)
}

// Len returns the number of papers.
func (s *Set) Len() int { return len(s.papers) }

// Papers returns the backing list.
func (s *Set) Papers() []types.Paper { return s.papers }

// PageCount is max(1, ceil(len/PageSize)).
func (s *Set) PageCount() int {
	return max(1, (len(s.papers)+PageSize-1)/PageSize)
}

// CurrentPage returns the 1-based current page.
func (s *Set) CurrentPage() int {
	return s.clamp(s.current)
}

// SetPage moves to page n, clamped into [1, PageCount], and returns the
// page actually selected.
func (s *Set) SetPage(n int) int {
	s.current = s.clamp(n)
	return s.current
}

// Page returns the papers on page n after clamping n.
func (s *Set) Page(n int) []types.Paper {
	n = s.clamp(n)
	lo := (n - 1) * PageSize
	hi := min(lo+PageSize, len(s.papers))
	if lo >= hi {
		return nil
	}
	return s.papers[lo:hi]
}

// Current returns the papers on the current page.
func (s *Set) Current() []types.Paper {
	return s.Page(s.current)
}

func (s *Set) clamp(n int) int {
	return min(max(n, 1), s.PageCount())
}
