// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// --- mock backend ---

type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	models   []string
	fail     map[string]error // input text -> forced error
	readyErr error
	reply    func(text string) string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Ready() error { return f.readyErr }

func (f *fakeBackend) Translate(ctx context.Context, text, model string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	f.calls = append(f.calls, text)
	f.models = append(f.models, model)
	if err, ok := f.fail[text]; ok {
		return "", err
	}
	if f.reply != nil {
		return f.reply(text), nil
	}
	return "T(" + text + ")", nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testPapers(n int) []types.Paper {
	out := make([]types.Paper, n)
	for i := range out {
		out[i] = types.Paper{
			ID:      fmt.Sprintf("2401.%05d", i),
			Link:    fmt.Sprintf("http://arxiv.org/abs/2401.%05dv1", i),
			Title:   fmt.Sprintf("title %d", i),
			Summary: fmt.Sprintf("summary %d", i),
		}
	}
	return out
}

// --- Translate ---

func TestTranslateAll(t *testing.T) {
	backend := &fakeBackend{}
	var progress [][2]int
	var updated []int
	p := New(backend, Hooks{
		Progress:   func(done, total int) { progress = append(progress, [2]int{done, total}) },
		ItemUpdate: func(_ types.Paper, i int) { updated = append(updated, i) },
	}, zerolog.Nop())

	papers := testPapers(3)
	res, err := p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, Completed, p.State())
	assert.Equal(t, 3, res.Translated)
	assert.False(t, res.FromCache)
	assert.Equal(t, "T(title 1)", res.Papers[1].Title)
	assert.Equal(t, "T(summary 1)", res.Papers[1].Summary)
	assert.Equal(t, papers[1].Link, res.Papers[1].Link)
	assert.Equal(t, "title 1", papers[1].Title, "input must not be mutated")

	assert.Equal(t, []string{"title 0", "summary 0", "title 1", "summary 1", "title 2", "summary 2"}, backend.calls)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
	assert.Equal(t, []int{0, 1, 2}, updated)
}

func TestTranslateSkipsEmptySummary(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())

	papers := []types.Paper{{Link: "a", Title: "only title", Summary: "  "}}
	res, err := p.Translate(context.Background(), papers, "m")
	require.NoError(t, err)

	assert.Equal(t, []string{"only title"}, backend.calls)
	assert.Equal(t, "  ", res.Papers[0].Summary)
}

func TestTranslateIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())
	papers := testPapers(4)

	first, err := p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)
	calls := backend.callCount()

	second, err := p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)

	assert.Equal(t, calls, backend.callCount(), "cache hit makes no backend calls")
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Papers, second.Papers)
}

func TestTranslateCacheInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		papers func([]types.Paper) []types.Paper
		model  string
	}{
		{"model changed", func(p []types.Paper) []types.Paper { return p }, "m2"},
		{"order changed", func(p []types.Paper) []types.Paper {
			return []types.Paper{p[1], p[0], p[2]}
		}, "m1"},
		{"list changed", func(p []types.Paper) []types.Paper { return p[:2] }, "m1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			p := New(backend, Hooks{}, zerolog.Nop())
			papers := testPapers(3)

			_, err := p.Translate(context.Background(), papers, "m1")
			require.NoError(t, err)
			before := backend.callCount()

			res, err := p.Translate(context.Background(), tt.papers(papers), tt.model)
			require.NoError(t, err)
			assert.False(t, res.FromCache)
			assert.Greater(t, backend.callCount(), before)
		})
	}
}

func TestTranslateCancelAfterK(t *testing.T) {
	const k = 2
	backend := &fakeBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress []int
	p := New(backend, Hooks{
		Progress: func(done, _ int) {
			progress = append(progress, done)
			if done == k {
				cancel()
			}
		},
	}, zerolog.Nop())

	papers := testPapers(5)
	res, err := p.Translate(ctx, papers, "m1")
	require.NoError(t, err)

	assert.Equal(t, Cancelled, res.State)
	assert.Equal(t, Cancelled, p.State())
	assert.Equal(t, k, res.Translated)
	assert.Equal(t, []int{1, 2}, progress)
	assert.Equal(t, "T(title 1)", res.Papers[1].Title)
	assert.Equal(t, "title 2", res.Papers[2].Title, "unreached papers keep the original text")
	assert.Equal(t, 2*k, backend.callCount())

	_, ok := p.Cached(papers, "m1")
	assert.False(t, ok, "a cancelled batch is not a finished cache entry")
}

func TestTranslateResumesAfterCancel(t *testing.T) {
	backend := &fakeBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	p := New(backend, Hooks{
		ItemUpdate: func(_ types.Paper, i int) {
			if i == 0 {
				cancel()
			}
		},
	}, zerolog.Nop())
	papers := testPapers(3)

	res, err := p.Translate(ctx, papers, "m1")
	require.NoError(t, err)
	require.Equal(t, Cancelled, res.State)
	require.Equal(t, 2, backend.callCount())

	p.Hooks.ItemUpdate = nil
	var progress []int
	p.Hooks.Progress = func(done, _ int) { progress = append(progress, done) }

	res, err = p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, 3, res.Translated)
	assert.Equal(t, []string{"title 0", "summary 0", "title 1", "summary 1", "title 2", "summary 2"}, backend.calls,
		"resume continues at the first unattempted paper")
	assert.Equal(t, []int{2, 3}, progress)
}

func TestSeedResumesSavedTranslation(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())
	papers := testPapers(4)

	saved := types.ClonePapers(papers)
	saved[0].Title, saved[0].Summary = "T(title 0)", "T(summary 0)"
	saved[2].Title, saved[2].Summary = "T(title 2)", "T(summary 2)"
	require.True(t, p.Seed(papers, saved, "m1"))

	_, ok := p.Cached(papers, "m1")
	assert.False(t, ok, "a partial seed is resumable, not finished")

	res, err := p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	assert.Equal(t, 4, res.Translated)
	assert.Equal(t, []string{"title 1", "summary 1", "title 3", "summary 3"}, backend.calls)
	assert.Equal(t, "T(title 0)", res.Papers[0].Title)
	assert.Equal(t, "T(title 1)", res.Papers[1].Title)
}

func TestSeedCompleteTranslationIsCached(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())
	papers := testPapers(2)
	saved := types.ClonePapers(papers)
	for i := range saved {
		saved[i].Title = "T(" + saved[i].Title + ")"
	}
	require.True(t, p.Seed(papers, saved, "m1"))

	res, err := p.Translate(context.Background(), papers, "m1")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Zero(t, backend.callCount())

	res, err = p.Translate(context.Background(), papers, "m2")
	require.NoError(t, err)
	assert.False(t, res.FromCache, "another model is a different key")
	assert.Equal(t, 4, backend.callCount())
}

func TestSeedRejectsMisalignedTranslation(t *testing.T) {
	p := New(&fakeBackend{}, Hooks{}, zerolog.Nop())
	papers := testPapers(3)
	assert.False(t, p.Seed(papers, papers[:2], "m1"))
	assert.False(t, p.Seed(nil, nil, "m1"))
}

func TestTranslateFailureIsolation(t *testing.T) {
	backend := &fakeBackend{fail: map[string]error{
		"summary 1": fmt.Errorf("%w: boom", types.ErrFormat),
	}}
	var progress []int
	var updated []int
	p := New(backend, Hooks{
		Progress:   func(done, _ int) { progress = append(progress, done) },
		ItemUpdate: func(_ types.Paper, i int) { updated = append(updated, i) },
	}, zerolog.Nop())

	res, err := p.Translate(context.Background(), testPapers(3), "m1")
	require.NoError(t, err)

	assert.Equal(t, PartiallyFailed, res.State)
	assert.Equal(t, 2, res.Translated)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []int{1, 2, 3}, progress, "progress advances on failure")
	assert.Equal(t, []int{0, 2}, updated)
	assert.Equal(t, "title 1", res.Papers[1].Title, "failed paper keeps both original fields")
	assert.Equal(t, "summary 1", res.Papers[1].Summary)
	assert.Equal(t, "T(title 2)", res.Papers[2].Title)
}

func TestTranslateTruncatesLongText(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())

	long := strings.Repeat("é", MaxTextRunes+5)
	_, err := p.Translate(context.Background(), []types.Paper{{Link: "a", Title: "t", Summary: long}}, "m")
	require.NoError(t, err)

	require.Len(t, backend.calls, 2)
	sent := backend.calls[1]
	assert.Equal(t, MaxTextRunes+len(truncationMarker), utf8.RuneCountInString(sent))
	assert.True(t, strings.HasSuffix(sent, "..."))
}

func TestTranslateMissingCredential(t *testing.T) {
	backend := &fakeBackend{readyErr: fmt.Errorf("%w: no key", types.ErrAuth)}
	var hooked error
	p := New(backend, Hooks{OnCredentialMissing: func(err error) { hooked = err }}, zerolog.Nop())

	res, err := p.Translate(context.Background(), testPapers(2), "m")
	require.Error(t, err)

	assert.ErrorIs(t, err, types.ErrAuth)
	assert.ErrorIs(t, hooked, types.ErrAuth)
	assert.Equal(t, Idle, res.State)
	assert.Equal(t, Idle, p.State())
	assert.Zero(t, backend.callCount())
}

func TestTranslateAuthMidBatchStopsResumably(t *testing.T) {
	backend := &fakeBackend{fail: map[string]error{
		"title 1": fmt.Errorf("%w: HTTP 401", types.ErrAuth),
	}}
	hooks := 0
	p := New(backend, Hooks{OnCredentialMissing: func(error) { hooks++ }}, zerolog.Nop())
	papers := testPapers(3)

	res, err := p.Translate(context.Background(), papers, "m")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAuth)
	assert.Equal(t, 1, hooks)
	assert.Equal(t, Cancelled, res.State)
	assert.Equal(t, 1, res.Translated)

	delete(backend.fail, "title 1")
	res, err = p.Translate(context.Background(), papers, "m")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	assert.Equal(t, "T(title 1)", res.Papers[1].Title)
}

func TestTranslateCleansOutput(t *testing.T) {
	backend := &fakeBackend{reply: func(text string) string { return "\n \n\n" + strings.ToUpper(text) + "\n\n" }}
	p := New(backend, Hooks{}, zerolog.Nop())

	res, err := p.Translate(context.Background(), []types.Paper{{Link: "a", Title: "graph"}}, "m")
	require.NoError(t, err)
	assert.Equal(t, "GRAPH", res.Papers[0].Title)
}

func TestTranslateBlankOutputFails(t *testing.T) {
	backend := &fakeBackend{reply: func(string) string { return "\n\n" }}
	p := New(backend, Hooks{}, zerolog.Nop())

	res, err := p.Translate(context.Background(), []types.Paper{{Link: "a", Title: "graph"}}, "m")
	require.NoError(t, err)
	assert.Equal(t, PartiallyFailed, res.State)
	assert.Equal(t, "graph", res.Papers[0].Title)
}

func TestTranslateEmptyList(t *testing.T) {
	backend := &fakeBackend{readyErr: errors.New("never consulted")}
	p := New(backend, Hooks{}, zerolog.Nop())

	res, err := p.Translate(context.Background(), nil, "m")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.State)
	assert.Empty(t, res.Papers)
}

func TestResetKeepsCacheInvalidateDropsIt(t *testing.T) {
	backend := &fakeBackend{}
	p := New(backend, Hooks{}, zerolog.Nop())
	papers := testPapers(2)

	_, err := p.Translate(context.Background(), papers, "m")
	require.NoError(t, err)

	p.Reset()
	assert.Equal(t, Idle, p.State())
	cached, ok := p.Cached(papers, "m")
	require.True(t, ok)
	assert.Equal(t, "T(title 0)", cached[0].Title)

	p.Invalidate()
	_, ok = p.Cached(papers, "m")
	assert.False(t, ok)
}

// --- helpers ---

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "日本...", Truncate("日本語", 2))
	assert.Equal(t, "", Truncate("", 5))
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"\n\nhello", "hello"},
		{"  \n\t\nhello\nworld\n", "hello\nworld"},
		{"\n\n", ""},
		{"  indented", "  indented"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanOutput(tt.in), "%q", tt.in)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "partially failed", PartiallyFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
