// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package results

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// PageView is one rendered page of a result set.
type PageView struct {
	Papers []types.Paper `json:"papers"`

	// Page and Pages are 1-based.
	Page  int `json:"page"`
	Pages int `json:"pages"`

	// Offset is the zero-based position of Papers[0] in the full list.
	Offset int `json:"offset"`

	// Returned and Total describe the whole search.
	Returned int `json:"returned"`
	Total    int `json:"total"`
}

// View renders the current page of s. total is the search total shown
// alongside the page.
func (s *Set) View(total int) PageView {
	page := s.CurrentPage()
	return PageView{
		Papers:   s.Page(page),
		Page:     page,
		Pages:    s.PageCount(),
		Offset:   (page - 1) * PageSize,
		Returned: s.Len(),
		Total:    total,
	}
}

// FormatTable writes v as a human-readable table to w.
func FormatTable(v PageView, w io.Writer) {
	if len(v.Papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-60s  %-20s  %s\n",
		"#", "arXiv", "Title", "Authors", "Published")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, p := range v.Papers {
		published := ""
		if !p.Published.IsZero() {
			published = p.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-12s  %s  %s  %s\n",
			v.Offset+i+1, p.ID, pad(truncate(p.Title, 60), 60), pad(formatAuthors(p.Authors), 20), published)
	}

	fmt.Fprintf(w, "\nPage %d/%d, %d results", v.Page, v.Pages, v.Returned)
	if v.Total > v.Returned {
		fmt.Fprintf(w, " of %d", v.Total)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v PageView, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors string) string {
	first, rest, found := strings.Cut(authors, ", ")
	if !found || rest == "" {
		return truncate(first, 20)
	}
	return truncate(first, 14) + " et al."
}

// truncate cuts s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// pad right-pads s with spaces to width runes.
func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
