// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the state shared by one researcher's searches,
// result pages and translation batches. A Session serializes access with a
// mutex and numbers each search; results from a search that a newer one
// overtook are discarded.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-desk/internal/export"
	"github.com/pdiddy/paper-desk/internal/library"
	"github.com/pdiddy/paper-desk/internal/results"
	"github.com/pdiddy/paper-desk/internal/translate"
	"github.com/pdiddy/paper-desk/pkg/types"
)

var (
	// ErrSuperseded is returned by RunSearch when a newer search started
	// before this one completed.
	ErrSuperseded = errors.New("search superseded by a newer search")

	// ErrNoResults is returned by StartTranslation before any search.
	ErrNoResults = errors.New("no search results to translate")
)

// Searcher runs one arXiv search.
type Searcher interface {
	Search(ctx context.Context, req types.SearchRequest) (types.SearchResult, error)
}

// History records completed searches.
type History interface {
	RecordSearch(ctx context.Context, req types.SearchRequest) (library.Entry, bool, error)
}

// Session is the controller behind the CLI commands.
type Session struct {
	searcher Searcher
	pipeline *translate.Pipeline
	history  History
	log      zerolog.Logger
	now      func() time.Time

	mu         sync.Mutex
	gen        uint64
	request    types.SearchRequest
	last       types.SearchResult
	translated []types.Paper
	showing    bool
	original   bool
	view       *results.Set
	batch      *Batch
	active     *Batch
}

// New returns a Session that searches with searcher and translates with
// backend. history may be nil.
func New(searcher Searcher, backend translate.Backend, history History, log zerolog.Logger) *Session {
	s := &Session{
		searcher: searcher,
		history:  history,
		log:      log,
		now:      time.Now,
		view:     results.New(nil),
	}
	s.pipeline = translate.New(backend, translate.Hooks{
		Progress:            s.onProgress,
		ItemUpdate:          s.onItem,
		OnCredentialMissing: s.onCredentialMissing,
	}, log)
	return s
}

// RunSearch cancels any live translation, runs req and replaces the
// result set. The search is recorded in the history when one is attached;
// a history failure is logged, not returned.
func (s *Session) RunSearch(ctx context.Context, req types.SearchRequest) (types.SearchResult, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.batch != nil {
		s.batch.Cancel()
	}
	s.pipeline.Invalidate()
	s.mu.Unlock()

	res, err := s.searcher.Search(ctx, req)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Msg("discarding superseded search")
		return types.SearchResult{}, ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		return types.SearchResult{}, err
	}
	s.request = req
	s.last = types.SearchResult{
		Papers:       types.ClonePapers(res.Papers),
		TotalResults: res.TotalResults,
		APITotal:     res.APITotal,
	}
	s.translated = nil
	s.showing = false
	s.original = false
	s.view.Replace(types.ClonePapers(res.Papers))
	s.mu.Unlock()

	s.log.Info().
		Int("returned", len(res.Papers)).
		Int("total", res.TotalResults).
		Int("api_total", res.APITotal).
		Msg("search complete")

	if s.history != nil {
		if _, added, herr := s.history.RecordSearch(ctx, req); herr != nil {
			s.log.Warn().Err(herr).Msg("recording search history")
		} else if added {
			s.log.Debug().Msg("search added to history")
		}
	}
	return res, nil
}

// Load installs a previously saved result as the current search, with its
// translation when one was saved. A translation made with model seeds the
// pipeline, so translating again with that model only sends the papers it
// did not cover.
func (s *Session) Load(req types.SearchRequest, res types.SearchResult, translated []types.Paper, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.batch != nil {
		s.batch.Cancel()
	}
	s.pipeline.Invalidate()
	if model != "" && translated != nil && !s.pipeline.Seed(res.Papers, translated, model) {
		s.log.Debug().Str("model", model).Msg("saved translation not usable as a cache")
	}
	s.request = req
	s.last = types.SearchResult{
		Papers:       types.ClonePapers(res.Papers),
		TotalResults: res.TotalResults,
		APITotal:     res.APITotal,
	}
	s.translated = types.ClonePapers(translated)
	s.showing = false
	s.original = false
	s.view.Replace(types.ClonePapers(res.Papers))
}

// Request returns the request behind the current results.
func (s *Session) Request() types.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// Result returns the current search result with original text.
func (s *Session) Result() types.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.last
	r.Papers = types.ClonePapers(r.Papers)
	return r
}

// Translated returns the latest translated papers, or nil.
func (s *Session) Translated() []types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.ClonePapers(s.translated)
}

// Page returns page n of the displayed papers, clamped into range.
func (s *Session) Page(n int) []types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.ClonePapers(s.view.Page(n))
}

// SetPage moves the current page and returns the clamped page number.
func (s *Session) SetPage(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.SetPage(n)
}

// CurrentPage returns the current page number.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.CurrentPage()
}

// PageCount returns the number of pages of displayed papers.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.PageCount()
}

// View renders the current page for display.
func (s *Session) View() results.PageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view.View(s.last.TotalResults)
	v.Papers = types.ClonePapers(v.Papers)
	return v
}

// ShowingTranslation reports whether the displayed papers are translated.
func (s *Session) ShowingTranslation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showing
}

// ShowOriginal switches the display back to the original text. The
// translation cache is kept, and a running batch keeps translating without
// touching the display.
func (s *Session) ShowOriginal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline.Reset()
	s.showing = false
	s.original = true
	s.view.Update(types.ClonePapers(s.last.Papers))
}

// State returns the translation pipeline state.
func (s *Session) State() translate.State {
	return s.pipeline.State()
}

// FormatExport builds the export record for the selected papers, or all
// papers when selection is empty. With translated set the latest
// translation is exported; without one the originals are exported and the
// record says so.
func (s *Session) FormatExport(selection export.IDSet, translated bool) export.Record {
	s.mu.Lock()
	papers := s.last.Papers
	if translated {
		if s.translated != nil {
			papers = s.translated
		} else {
			translated = false
		}
	}
	papers = types.ClonePapers(papers)
	s.mu.Unlock()

	return export.Format(papers, selection, translated, s.now())
}

// SaveToLibrary stores the selected papers, or all papers when selection
// is empty, in store together with their translation when one exists.
// It returns the number of papers saved.
func (s *Session) SaveToLibrary(ctx context.Context, store *library.Store, selection export.IDSet, model string) (int, error) {
	s.mu.Lock()
	originals := types.ClonePapers(s.last.Papers)
	translated := types.ClonePapers(s.translated)
	s.mu.Unlock()

	byIdentity := make(map[string]types.Paper, len(translated))
	for _, p := range translated {
		byIdentity[p.Identity()] = p
	}

	saved := 0
	for _, p := range export.Select(originals, selection) {
		var tr *library.Translation
		if t, ok := byIdentity[p.Identity()]; ok && (t.Title != p.Title || t.Summary != p.Summary) {
			tr = &library.Translation{Title: t.Title, Summary: t.Summary, Model: model}
		}
		if err := store.SavePaper(ctx, p, tr); err != nil {
			return saved, fmt.Errorf("saving to library: %w", err)
		}
		saved++
	}
	return saved, nil
}

// EventKind distinguishes batch events.
type EventKind int

const (
	EventProgress EventKind = iota
	EventItem
	EventDone
)

// Event is one translation batch notification.
type Event struct {
	Kind EventKind

	// Done and Total are set on EventProgress.
	Done, Total int

	// Paper and Index are set on EventItem.
	Paper types.Paper
	Index int

	// Result and Err are set on EventDone.
	Result translate.Result
	Err    error
}

// Batch is one running translation.
type Batch struct {
	ID     string
	Model  string
	Events <-chan Event

	gen    uint64
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	result translate.Result
	err    error
}

// Cancel stops the batch at the next paper boundary.
func (b *Batch) Cancel() {
	b.cancel()
}

// Wait blocks until the batch ends and returns its result.
func (b *Batch) Wait() (translate.Result, error) {
	<-b.done
	return b.result, b.err
}

// Done is closed when the batch ends.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

func (b *Batch) send(e Event) {
	b.events <- e
}

// StartTranslation translates the current results with model on a new
// goroutine. A running batch is cancelled first and the new one starts
// once it has ended. Events must be drained or the batch ignored; the
// channel is buffered for the whole batch.
func (s *Session) StartTranslation(ctx context.Context, model string) (*Batch, error) {
	s.mu.Lock()
	if len(s.last.Papers) == 0 {
		s.mu.Unlock()
		return nil, ErrNoResults
	}
	papers := types.ClonePapers(s.last.Papers)
	prev := s.batch
	if prev != nil {
		prev.Cancel()
	}
	s.original = false

	bctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 2*len(papers)+1)
	b := &Batch{
		ID:     uuid.NewString(),
		Model:  model,
		Events: events,
		gen:    s.gen,
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.batch = b
	s.mu.Unlock()

	s.log.Debug().Str("batch", b.ID).Str("model", model).Int("papers", len(papers)).Msg("starting translation batch")

	go func() {
		defer cancel()
		if prev != nil {
			<-prev.done
		}

		s.mu.Lock()
		s.active = b
		s.mu.Unlock()

		res, err := s.pipeline.Translate(bctx, papers, model)

		s.mu.Lock()
		s.active = nil
		if b.gen == s.gen && res.Papers != nil {
			s.translated = types.ClonePapers(res.Papers)
			if !s.original {
				s.showing = true
				s.view.Update(types.ClonePapers(res.Papers))
			}
		}
		if s.batch == b {
			s.batch = nil
		}
		s.mu.Unlock()

		b.result, b.err = res, err
		b.send(Event{Kind: EventDone, Result: res, Err: err})
		close(b.events)
		close(b.done)
	}()
	return b, nil
}

// CancelTranslation cancels the running batch, if any.
func (s *Session) CancelTranslation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch != nil {
		s.batch.Cancel()
	}
}

func (s *Session) onProgress(done, total int) {
	s.mu.Lock()
	b := s.active
	s.mu.Unlock()
	if b != nil {
		b.send(Event{Kind: EventProgress, Done: done, Total: total})
	}
}

func (s *Session) onItem(p types.Paper, index int) {
	s.mu.Lock()
	b := s.active
	if b != nil && b.gen == s.gen && !s.original {
		papers := types.ClonePapers(s.view.Papers())
		if index < len(papers) {
			papers[index] = p.Clone()
			s.view.Update(papers)
			s.showing = true
		}
	}
	s.mu.Unlock()
	if b != nil {
		b.send(Event{Kind: EventItem, Paper: p, Index: index})
	}
}

func (s *Session) onCredentialMissing(err error) {
	s.log.Warn().Err(err).Msg("translation credential missing or rejected")
}
