// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paper-desk/pkg/types"
)

func TestToCSLItem(t *testing.T) {
	p := types.Paper{
		ID:         "1706.03762",
		Title:      "Attention Is All You Need",
		Authors:    "Ashish Vaswani, Noam Shazeer, Vaswani",
		Summary:    "The dominant sequence transduction models...",
		Link:       "http://arxiv.org/abs/1706.03762v7",
		Published:  time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC),
		Categories: []string{"cs.CL", "cs.LG"},
	}

	item := toCSLItem(p)

	if item.Type != "article" {
		t.Errorf("Type = %q, want %q", item.Type, "article")
	}
	if item.ID != "1706.03762" {
		t.Errorf("ID = %q, want %q", item.ID, "1706.03762")
	}
	if item.Number != "arXiv:1706.03762" {
		t.Errorf("Number = %q, want %q", item.Number, "arXiv:1706.03762")
	}
	if len(item.Author) != 3 {
		t.Fatalf("len(Author) = %d, want 3", len(item.Author))
	}
	if item.Author[0].Family != "Vaswani" || item.Author[0].Given != "Ashish" {
		t.Errorf("Author[0] = %+v, want Ashish Vaswani", item.Author[0])
	}
	if item.Author[2].Literal != "Vaswani" {
		t.Errorf("single-token author should be literal, got %+v", item.Author[2])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 || item.Issued.DateParts[0][1] != 6 {
		t.Errorf("Issued = %+v, want 2017-06", item.Issued)
	}
	if item.Keyword != "cs.CL, cs.LG" {
		t.Errorf("Keyword = %q", item.Keyword)
	}
}

func TestToCSLItemWithoutID(t *testing.T) {
	item := toCSLItem(types.Paper{Title: "Untitled", Link: "http://example.org/x"})

	if item.ID != "http://example.org/x" {
		t.Errorf("ID should fall back to link, got %q", item.ID)
	}
	if item.Number != "" || item.Publisher != "" {
		t.Errorf("Number/Publisher should be empty without an arXiv ID, got %q/%q", item.Number, item.Publisher)
	}
	if item.Issued != nil {
		t.Error("Issued should be nil for a zero date")
	}
	if len(item.Author) != 0 {
		t.Errorf("len(Author) = %d, want 0", len(item.Author))
	}
}

func TestFormatCSL(t *testing.T) {
	papers := []types.Paper{
		{ID: "1706.03762", Title: "Attention Is All You Need", Authors: "Ashish Vaswani"},
		{ID: "1810.04805", Title: "BERT", Authors: "Jacob Devlin"},
	}

	var buf bytes.Buffer
	if err := FormatCSL(papers, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}
	s := buf.String()

	if strings.Count(s, "type: article") != 2 {
		t.Errorf("expected 2 articles, got output:\n%s", s)
	}
	if !strings.Contains(s, "number: arXiv:1810.04805") {
		t.Error("CSL output should contain the arXiv number")
	}
	if !strings.Contains(s, "family: Devlin") {
		t.Error("CSL output should contain parsed author family names")
	}
}
