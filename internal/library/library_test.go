// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// openTestStore opens a store in a temp dir with a clock that advances one
// second per call.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.LibraryConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func request(term string) types.SearchRequest {
	return types.SearchRequest{
		Clauses:      []types.SearchClause{{Field: types.FieldAll, Term: term}},
		UserTotalCap: 40,
		SortBy:       types.SortSubmitted,
		SortOrder:    types.OrderDescending,
	}
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// --- schema ---

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lib")
	s, err := Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, s.historyLimit)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	_, _, err = s1.RecordSearch(context.Background(), request("a"))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()
	h, err := s2.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

// --- history ---

func TestRecordSearchNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, term := range []string{"first", "second", "third"} {
		_, added, err := s.RecordSearch(ctx, request(term))
		require.NoError(t, err)
		assert.True(t, added)
	}

	h, err := s.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"all:third", "all:second", "all:first"}, names(h))
	assert.Equal(t, KindHistory, h[0].Kind)
	assert.NotEmpty(t, h[0].ID)
	assert.Equal(t, "third", h[0].Request.Clauses[0].Term)
}

func TestRecordSearchTrimsToLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := range DefaultHistoryLimit + 3 {
		_, _, err := s.RecordSearch(ctx, request(fmt.Sprintf("q%d", i)))
		require.NoError(t, err)
	}

	h, err := s.History(ctx)
	require.NoError(t, err)
	require.Len(t, h, DefaultHistoryLimit)
	assert.Equal(t, "all:q12", h[0].Name)
	assert.Equal(t, "all:q3", h[len(h)-1].Name)
}

func TestRecordSearchSkipsDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, added, err := s.RecordSearch(ctx, request("llm"))
	require.NoError(t, err)
	require.True(t, added)

	// Same criteria after normalization: padded term, paging offset, and an
	// operator on the first clause.
	dup := request("  llm ")
	dup.Start = 40
	dup.Clauses[0].Operator = types.OpAnd
	_, added, err = s.RecordSearch(ctx, dup)
	require.NoError(t, err)
	assert.False(t, added)

	h, err := s.History(ctx)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestRecordSearchSkipsFavorites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, _, err := s.RecordSearch(ctx, request("diffusion"))
	require.NoError(t, err)
	_, err = s.Favorite(ctx, e.ID, "")
	require.NoError(t, err)

	_, added, err := s.RecordSearch(ctx, request("diffusion"))
	require.NoError(t, err)
	assert.False(t, added, "criteria already saved as a favorite")
}

func TestRecordSearchDistinguishesSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := s.RecordSearch(ctx, request("llm"))
	require.NoError(t, err)

	other := request("llm")
	other.UserTotalCap = 100
	_, added, err := s.RecordSearch(ctx, other)
	require.NoError(t, err)
	assert.True(t, added)
}

// --- favorites ---

func TestFavoriteMovesEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _, err := s.RecordSearch(ctx, request("a"))
	require.NoError(t, err)
	_, _, err = s.RecordSearch(ctx, request("b"))
	require.NoError(t, err)

	fav, err := s.Favorite(ctx, a.ID, "  my search ")
	require.NoError(t, err)
	assert.Equal(t, KindFavorite, fav.Kind)
	assert.Equal(t, "my search", fav.Name)

	h, err := s.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"all:b"}, names(h))

	favs, err := s.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, a.ID, favs[0].ID)
	assert.Equal(t, "my search", favs[0].Name)
}

func TestFavoritesSurviveHistoryTrim(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, _, err := s.RecordSearch(ctx, request("keep"))
	require.NoError(t, err)
	_, err = s.Favorite(ctx, e.ID, "")
	require.NoError(t, err)

	for i := range DefaultHistoryLimit + 5 {
		_, _, err := s.RecordSearch(ctx, request(fmt.Sprintf("q%d", i)))
		require.NoError(t, err)
	}

	favs, err := s.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)
	h, err := s.History(ctx)
	require.NoError(t, err)
	assert.Len(t, h, DefaultHistoryLimit)
}

func TestRemoveAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, _, err := s.RecordSearch(ctx, request("x"))
	require.NoError(t, err)

	got, err := s.Lookup(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Name, got.Name)

	require.NoError(t, s.Remove(ctx, e.ID))
	assert.ErrorIs(t, s.Remove(ctx, e.ID), ErrNotFound)

	_, err = s.Lookup(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Favorite(ctx, e.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- saved papers ---

func TestSaveAndListPapers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p1 := types.Paper{
		ID: "2405.00001", Link: "http://arxiv.org/abs/2405.00001v1", Title: "Graph Transformers",
		Authors: "A. Author", Summary: "We study graphs.", Published: published,
		Categories: []string{"cs.LG"},
	}
	p2 := types.Paper{ID: "2405.00002", Link: "http://arxiv.org/abs/2405.00002v1", Title: "Protein Folding"}

	require.NoError(t, s.SavePaper(ctx, p1, nil))
	require.NoError(t, s.SavePaper(ctx, p2, &Translation{Title: "蛋白质折叠", Summary: "", Model: "m"}))

	saved, err := s.Papers(ctx, "")
	require.NoError(t, err)
	require.Len(t, saved, 2)

	assert.Equal(t, "Protein Folding", saved[0].Paper.Title, "most recently saved first")
	require.NotNil(t, saved[0].Translation)
	assert.Equal(t, "蛋白质折叠", saved[0].Translation.Title)
	assert.Equal(t, "蛋白质折叠", saved[0].Display().Title)

	assert.Nil(t, saved[1].Translation)
	assert.Equal(t, p1.ID, saved[1].Paper.ID)
	assert.Equal(t, []string{"cs.LG"}, saved[1].Paper.Categories)
	assert.True(t, published.Equal(saved[1].Paper.Published))
	assert.False(t, saved[1].SavedAt.IsZero())
}

func TestSavePaperReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := types.Paper{Link: "l1", Title: "Old"}
	require.NoError(t, s.SavePaper(ctx, p, nil))
	p.Title = "New"
	require.NoError(t, s.SavePaper(ctx, p, &Translation{Title: "Neu"}))

	saved, err := s.Papers(ctx, "")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "New", saved[0].Paper.Title)
	assert.Equal(t, "Neu", saved[0].Translation.Title)
}

func TestSavePaperRequiresIdentity(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SavePaper(context.Background(), types.Paper{Title: "orphan"}, nil))
}

func TestPapersQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "1", Title: "Graph Networks"}, nil))
	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "2", Title: "Vision", Authors: "Grace Hopper"}, nil))
	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "3", Title: "Speech"}, &Translation{Title: "语音识别"}))

	got, err := s.Papers(ctx, "graph")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Paper.Link)

	got, err = s.Papers(ctx, "hopper")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Paper.Link)

	got, err = s.Papers(ctx, "语音")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].Paper.Link)
}

func TestRemovePaper(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "l1", Title: "A"}, nil))
	require.NoError(t, s.RemovePaper(ctx, "l1"))
	assert.ErrorIs(t, s.RemovePaper(ctx, "l1"), ErrNotFound)

	require.NoError(t, s.SavePaper(ctx, types.Paper{ID: "2501.00001", Link: "http://arxiv.org/abs/2501.00001v2", Title: "B"}, nil))
	require.NoError(t, s.RemovePaper(ctx, "2501.00001"), "arXiv IDs resolve too")
	got, err := s.Papers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "l1", Title: "Plain", Summary: "S"}, nil))
	require.NoError(t, s.SavePaper(ctx, types.Paper{Link: "l2", Title: "Orig", Summary: "Orig summary"},
		&Translation{Title: "Translated", Summary: "Translated summary"}))

	now := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
	rec, err := s.Export(ctx, "", now)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, "Translated", rec.Papers[0].Title)
	assert.Equal(t, "Translated summary", rec.Papers[0].Summary)
	assert.True(t, rec.Papers[0].Translated)
	assert.Equal(t, "Plain", rec.Papers[1].Title)
	assert.False(t, rec.Papers[1].Translated)
}

// --- helpers ---

func TestDescribe(t *testing.T) {
	req := types.SearchRequest{Clauses: []types.SearchClause{
		{Field: types.FieldTitle, Term: "graph networks"},
		{Field: types.FieldAuthor, Term: "Kipf", Operator: types.OpAnd},
		{Field: types.FieldAll, Term: "gcn"},
	}}
	assert.Equal(t, `title:"graph networks" AND author:Kipf all:gcn`, Describe(req))
	assert.Equal(t, "(empty search)", Describe(types.SearchRequest{}))
}

func TestNormalize(t *testing.T) {
	req := types.SearchRequest{
		Clauses: []types.SearchClause{
			{Field: types.FieldAll, Term: "  "},
			{Field: types.FieldTitle, Term: " x ", Operator: types.OpOr},
			{Field: types.FieldAuthor, Term: "y", Operator: types.OpNot},
		},
		Start:        20,
		UserTotalCap: 10,
	}
	got := Normalize(req)
	assert.Equal(t, []types.SearchClause{
		{Field: types.FieldTitle, Term: "x"},
		{Field: types.FieldAuthor, Term: "y", Operator: types.OpNot},
	}, got.Clauses)
	assert.Zero(t, got.Start)
	assert.Equal(t, 10, got.UserTotalCap)
}
