// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-desk/internal/library"
	"github.com/pdiddy/paper-desk/internal/results"
	"github.com/pdiddy/paper-desk/internal/search"
	"github.com/pdiddy/paper-desk/internal/session"
	"github.com/pdiddy/paper-desk/internal/translate"
	"github.com/pdiddy/paper-desk/pkg/types"
)

const dateLayout = "2006-01-02"

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search arXiv with a boolean field query",
	Long: `Search builds an arXiv query from clauses and prints the first page of
results. Positional terms form an "all fields" clause; --clause adds clauses
in the form [OP:]field:term, where field is all, title, author, abstract or
category and OP is AND, OR or NOT. A term shaped like an arXiv identifier
(2502.14776) is looked up by ID.

Examples:
  paper-desk search graph neural networks
  paper-desk search --clause title:transformer --clause AND:author:Vaswani
  paper-desk search --clause category:cs.LG --range last_month --cap 150 --out lg.yaml`,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("clause", nil, "search clause [OP:]field:term (repeatable)")
	cmd.Flags().String("range", types.RangeAll, "published-date preset: all, last_month, last_3_months, last_6_months, last_year")
	cmd.Flags().String("from", "", "published on or after (YYYY-MM-DD); overrides --range")
	cmd.Flags().String("to", "", "published on or before (YYYY-MM-DD)")
	cmd.Flags().Int("cap", 0, "maximum number of results (default search.max_results)")
	cmd.Flags().Int("page-size", 0, "papers per API request, at most 100 (0 = automatic)")
	cmd.Flags().String("sort", "", "sort by relevance, lastUpdatedDate or submittedDate")
	cmd.Flags().String("order", "", "sort order: ascending or descending")
	cmd.Flags().Int("page", 1, "result page to print")
	cmd.Flags().String("out", "", "save the results to a YAML result file")
	cmd.Flags().Bool("json", false, "print the page as JSON")
	cmd.Flags().Bool("no-history", false, "do not record this search in the history")
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := searchRequestFromFlags(cmd, args, time.Now())
	if err != nil {
		return err
	}
	noHistory, _ := cmd.Flags().GetBool("no-history")
	return executeSearch(cmd, req, !noHistory)
}

// executeSearch runs req through a session, prints a page and writes the
// result file when --out is set.
func executeSearch(cmd *cobra.Command, req types.SearchRequest, record bool) error {
	var (
		history session.History
		store   *library.Store
	)
	if record {
		s, err := openLibrary()
		if err != nil {
			logger.Warn().Err(err).Msg("search history unavailable")
		} else {
			store = s
			history = s
			defer store.Close()
		}
	}

	sess, err := newSession(history)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Searching arXiv: %s\n", library.Describe(library.Normalize(req)))
	res, err := sess.RunSearch(context.Background(), req)
	if err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	sess.SetPage(page)
	if err := printView(cmd, sess.View()); err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := search.WriteResultFile(out, search.NewResultFile(req, res, time.Now())); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d papers to %s\n", len(res.Papers), out)
	}
	return nil
}

func searchRequestFromFlags(cmd *cobra.Command, args []string, now time.Time) (types.SearchRequest, error) {
	req := types.SearchRequest{
		UserTotalCap: appCfg.Search.MaxResults,
		SortBy:       appCfg.Search.SortBy,
		SortOrder:    appCfg.Search.SortOrder,
	}

	if len(args) > 0 {
		req.Clauses = append(req.Clauses, types.SearchClause{Field: types.FieldAll, Term: strings.Join(args, " ")})
	}
	clauses, _ := cmd.Flags().GetStringArray("clause")
	for _, raw := range clauses {
		c, err := types.ParseClause(raw)
		if err != nil {
			return req, err
		}
		if len(req.Clauses) > 0 && c.Operator == types.OpNone {
			c.Operator = types.OpAnd
		}
		req.Clauses = append(req.Clauses, c)
	}

	if n, _ := cmd.Flags().GetInt("cap"); n > 0 {
		req.UserTotalCap = n
	}
	req.PageCap, _ = cmd.Flags().GetInt("page-size")
	if s, _ := cmd.Flags().GetString("sort"); s != "" {
		req.SortBy = s
	}
	if s, _ := cmd.Flags().GetString("order"); s != "" {
		req.SortOrder = s
	}

	rangeName, _ := cmd.Flags().GetString("range")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	switch {
	case from != "" || to != "":
		r := types.PresetRange(types.RangeAll, now)
		if from != "" {
			t, err := time.Parse(dateLayout, from)
			if err != nil {
				return req, fmt.Errorf("--from %q: want YYYY-MM-DD", from)
			}
			r.Start = t
		}
		if to != "" {
			t, err := time.Parse(dateLayout, to)
			if err != nil {
				return req, fmt.Errorf("--to %q: want YYYY-MM-DD", to)
			}
			r.End = t.Add(24*time.Hour - time.Nanosecond)
		}
		req.DateRange = &r
	case rangeName != "" && rangeName != types.RangeAll:
		r := types.PresetRange(rangeName, now)
		req.DateRange = &r
	}
	return req, nil
}

// newSession wires a session to the arXiv client and the configured
// translation backend.
func newSession(history session.History) (*session.Session, error) {
	backend, err := translate.NewBackend(appCfg.Translation, creds)
	if err != nil {
		return nil, err
	}
	client := search.NewClient(appCfg.Search, logger)
	return session.New(client, backend, history, logger), nil
}

func printView(cmd *cobra.Command, v results.PageView) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return results.FormatJSON(v, os.Stdout)
	}
	results.FormatTable(v, os.Stdout)
	return nil
}
