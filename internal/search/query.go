// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// arxivIDPattern matches a bare new-style arXiv identifier such as
// "2502.14776" or "2502.14776v2".
var arxivIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// fieldPrefixes maps clause fields to arXiv search_query prefixes.
var fieldPrefixes = map[types.Field]string{
	types.FieldAll:      "all",
	types.FieldTitle:    "ti",
	types.FieldAuthor:   "au",
	types.FieldAbstract: "abs",
	types.FieldCategory: "cat",
}

// BuildQuery turns an ordered clause list into an encoded arXiv
// search_query value. Blank clauses are skipped; an identifier-shaped term
// becomes an exact id: lookup whatever field was chosen. It fails with
// types.ErrEmptyQuery when no clause yields a segment.
func BuildQuery(clauses []types.SearchClause) (string, error) {
	var segments []string
	for _, c := range clauses {
		seg := clauseSegment(c)
		if seg == "" {
			continue
		}
		if len(segments) > 0 && c.Operator != types.OpNone {
			seg = string(c.Operator) + "+" + seg
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return "", types.ErrEmptyQuery
	}
	return strings.Join(segments, "+"), nil
}

// clauseSegment renders one clause without its operator.
func clauseSegment(c types.SearchClause) string {
	term := strings.TrimSpace(c.Term)
	if c.Field == "" || term == "" {
		return ""
	}
	if IsArxivID(term) {
		return "id:" + term
	}

	prefix, ok := fieldPrefixes[c.Field]
	if !ok {
		prefix = string(c.Field)
	}
	encoded := encodeComponent(term)
	if strings.ContainsFunc(term, isSpace) {
		encoded = "%22" + encoded + "%22"
	}
	return prefix + ":" + encoded
}

// IsArxivID reports whether s is shaped like a new-style arXiv identifier.
func IsArxivID(s string) bool {
	return arxivIDPattern.MatchString(s)
}

// componentUnescaper undoes url.QueryEscape where encodeURIComponent
// differs: spaces become %20 rather than '+', which arXiv would read as a
// clause separator, and !'()* stay literal.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s with encodeURIComponent semantics.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
