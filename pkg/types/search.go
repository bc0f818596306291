// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for paper-desk: search
// clauses and requests, normalized papers, result envelopes, configuration
// and the error taxonomy.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Field selects which part of a paper a clause searches.
type Field string

const (
	FieldAll      Field = "all"
	FieldTitle    Field = "title"
	FieldAuthor   Field = "author"
	FieldAbstract Field = "abstract"
	FieldCategory Field = "category"
)

// Operator joins a clause to the clauses before it.
type Operator string

const (
	OpNone Operator = ""
	OpAnd  Operator = "AND"
	OpOr   Operator = "OR"
	OpNot  Operator = "NOT"
)

// SearchClause is one field/term/operator unit of a boolean query. The
// operator of the first clause is ignored.
type SearchClause struct {
	Field    Field    `json:"field" yaml:"field" validate:"omitempty,oneof=all title author abstract category"`
	Term     string   `json:"term" yaml:"term"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty" validate:"omitempty,oneof=AND OR NOT"`
}

// ParseClause reads the CLI clause form "[OP:]field:term", for example
// "title:graph neural networks" or "AND:author:Hinton".
func ParseClause(s string) (SearchClause, error) {
	var c SearchClause
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 2 {
		switch op := Operator(strings.ToUpper(parts[0])); op {
		case OpAnd, OpOr, OpNot:
			c.Operator = op
			s = parts[1]
		}
	}
	parts = strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return c, fmt.Errorf("clause %q: want [OP:]field:term", s)
	}
	c.Field = Field(strings.ToLower(strings.TrimSpace(parts[0])))
	switch c.Field {
	case FieldAll, FieldTitle, FieldAuthor, FieldAbstract, FieldCategory:
	default:
		return c, fmt.Errorf("clause %q: unknown field %q", s, parts[0])
	}
	c.Term = strings.TrimSpace(parts[1])
	return c, nil
}

// DateRange is an inclusive published-date window applied after fetch.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t lies within [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Time range presets offered by the search form.
const (
	RangeAll         = "all"
	RangeLastMonth   = "last_month"
	RangeLast3Months = "last_3_months"
	RangeLast6Months = "last_6_months"
	RangeLastYear    = "last_year"
)

// PresetRange resolves a named preset against now. Unknown names and "all"
// start at 2000-01-01.
func PresetRange(name string, now time.Time) DateRange {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, now.Location())
	switch name {
	case RangeLastMonth:
		start = now.AddDate(0, -1, 0)
	case RangeLast3Months:
		start = now.AddDate(0, -3, 0)
	case RangeLast6Months:
		start = now.AddDate(0, -6, 0)
	case RangeLastYear:
		start = now.AddDate(-1, 0, 0)
	}
	return DateRange{Start: start, End: now}
}

// Sort keys accepted by the arXiv API.
const (
	SortRelevance   = "relevance"
	SortLastUpdated = "lastUpdatedDate"
	SortSubmitted   = "submittedDate"

	OrderAscending  = "ascending"
	OrderDescending = "descending"
)

// MaxPageSize is the largest page the arXiv API serves per request.
const MaxPageSize = 100

// SearchRequest is built per search and discarded afterwards.
type SearchRequest struct {
	Clauses      []SearchClause `json:"clauses" yaml:"clauses" validate:"dive"`
	Start        int            `json:"start" yaml:"start" validate:"gte=0"`
	PageCap      int            `json:"page_cap,omitempty" yaml:"page_cap,omitempty" validate:"gte=0,lte=100"`
	UserTotalCap int            `json:"user_total_cap" yaml:"user_total_cap" validate:"gte=1"`
	SortBy       string         `json:"sort_by,omitempty" yaml:"sort_by,omitempty" validate:"omitempty,oneof=relevance lastUpdatedDate submittedDate"`
	SortOrder    string         `json:"sort_order,omitempty" yaml:"sort_order,omitempty" validate:"omitempty,oneof=ascending descending"`
	DateRange    *DateRange     `json:"date_range,omitempty" yaml:"date_range,omitempty"`
}

// EnsureClause synthesizes an empty "all" clause when none were supplied.
func (r *SearchRequest) EnsureClause() {
	if len(r.Clauses) == 0 {
		r.Clauses = []SearchClause{{Field: FieldAll}}
	}
}

// PageSize returns the per-request page size: min(100, UserTotalCap),
// further bounded by PageCap when set.
func (r SearchRequest) PageSize() int {
	size := min(MaxPageSize, r.UserTotalCap)
	if r.PageCap > 0 {
		size = min(size, r.PageCap)
	}
	return size
}

// SearchResult is the normalized outcome of one search.
type SearchResult struct {
	// Papers holds at most UserTotalCap entries.
	Papers []Paper `json:"papers" yaml:"papers"`

	// TotalResults is min(APITotal, UserTotalCap).
	TotalResults int `json:"total_results" yaml:"total_results"`

	// APITotal is the total the API reported for the query.
	APITotal int `json:"api_total" yaml:"api_total"`
}
