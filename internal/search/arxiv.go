// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search builds boolean arXiv queries and fetches, normalizes and
// caps their results.
package search

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-desk/internal/httputil"
	"github.com/pdiddy/paper-desk/pkg/types"
)

// DefaultBaseURL is the arXiv query endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// DefaultRequestInterval follows the arXiv API terms of use: no more than
// one request every three seconds.
const DefaultRequestInterval = 3 * time.Second

var validate = validator.New()

// Client queries the arXiv API.
type Client struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Retrier performs each page request.
	Retrier *httputil.Retrier

	// Limiter paces page requests. Nil disables pacing.
	Limiter *rate.Limiter

	Log zerolog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg types.SearchConfig, log zerolog.Logger) *Client {
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	header := http.Header{}
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}
	return &Client{
		BaseURL: baseURL,
		Retrier: &httputil.Retrier{
			Client:      &http.Client{},
			Source:      "arXiv",
			MaxAttempts: cfg.MaxAttempts,
			Timeout:     cfg.Timeout,
			Header:      header,
			Accept:      looksLikeXML,
			Log:         log,
		},
		Limiter: rate.NewLimiter(rate.Every(interval), 1),
		Log:     log,
	}
}

// Search runs req against the API. It returns at most req.UserTotalCap
// papers; TotalResults is min(APITotal, UserTotalCap). A date range filters
// the fetched papers without changing the reported totals.
func (c *Client) Search(ctx context.Context, req types.SearchRequest) (types.SearchResult, error) {
	req.EnsureClause()
	if err := validate.Struct(req); err != nil {
		return types.SearchResult{}, fmt.Errorf("%w: %v", types.ErrInvalidRequest, err)
	}

	q, err := BuildQuery(req.Clauses)
	if err != nil {
		return types.SearchResult{}, err
	}

	sortBy, sortOrder := req.SortBy, req.SortOrder
	if sortBy == "" {
		sortBy = types.SortSubmitted
	}
	if sortOrder == "" {
		sortOrder = types.OrderDescending
	}

	var (
		papers   []types.Paper
		apiTotal int
		fetched  int
		start    = req.Start
	)
	for fetched < req.UserTotalCap {
		size := min(req.PageSize(), req.UserTotalCap-fetched)
		url := fmt.Sprintf("%s?search_query=%s&start=%d&max_results=%d&sortBy=%s&sortOrder=%s",
			c.baseURL(), q, start, size, sortBy, sortOrder)

		feed, err := c.fetchPage(ctx, url)
		if err != nil {
			return types.SearchResult{}, err
		}
		if fetched == 0 {
			apiTotal = parseTotal(feed.TotalResults)
		}

		for i := range feed.Entries {
			papers = append(papers, entryToPaper(&feed.Entries[i]))
		}
		fetched += len(feed.Entries)
		start += len(feed.Entries)

		c.Log.Debug().
			Str("query", q).
			Int("start", start-len(feed.Entries)).
			Int("entries", len(feed.Entries)).
			Int("api_total", apiTotal).
			Msg("arXiv page fetched")

		if len(feed.Entries) < size || start >= apiTotal {
			break
		}
	}

	if req.DateRange != nil {
		papers = filterByDate(papers, *req.DateRange)
	}
	if len(papers) > req.UserTotalCap {
		papers = papers[:req.UserTotalCap]
	}

	return types.SearchResult{
		Papers:       papers,
		TotalResults: min(apiTotal, req.UserTotalCap),
		APITotal:     apiTotal,
	}, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// fetchPage waits for the limiter, fetches one page and decodes the feed.
func (c *Client) fetchPage(ctx context.Context, url string) (*arxivFeed, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	retrier := c.Retrier
	if retrier == nil {
		retrier = &httputil.Retrier{Source: "arXiv", Accept: looksLikeXML, Log: c.Log}
	}
	body, err := retrier.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: decoding arXiv feed: %v", types.ErrParse, err)
	}
	if feed.XMLName.Local != "feed" {
		return nil, fmt.Errorf("%w: arXiv response has no feed element (got %q)", types.ErrParse, feed.XMLName.Local)
	}
	return &feed, nil
}

// looksLikeXML rejects bodies that are clearly not an XML document, such
// as HTML error pages served with status 200 by intermediaries.
func looksLikeXML(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return fmt.Errorf("%w: arXiv response is not XML", types.ErrParse)
	}
	if bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype html")) || bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html")) {
		return fmt.Errorf("%w: arXiv response is HTML, not XML", types.ErrParse)
	}
	return nil
}

// parseTotal reads opensearch:totalResults, treating anything that is not a
// non-negative integer as 0.
func parseTotal(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// entryToPaper normalizes an Atom entry.
func entryToPaper(e *arxivEntry) types.Paper {
	p := types.Paper{
		ID:      extractArxivID(e.ID),
		Title:   foldNewlines(e.Title),
		Summary: foldNewlines(e.Summary),
		Link:    strings.TrimSpace(e.ID),
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}
	p.Authors = strings.Join(authors, ", ")

	for _, cat := range e.Categories {
		if cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}

	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Updated)); err == nil {
		p.Updated = t
	}
	return p
}

// filterByDate keeps papers published within r. Papers without a parsable
// published date are dropped.
func filterByDate(papers []types.Paper, r types.DateRange) []types.Paper {
	kept := papers[:0:0]
	for _, p := range papers {
		if !p.Published.IsZero() && r.Contains(p.Published) {
			kept = append(kept, p)
		}
	}
	return kept
}

func foldNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	XMLName      xml.Name     `xml:"feed"`
	TotalResults string       `xml:"totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Updated    string          `xml:"updated"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
