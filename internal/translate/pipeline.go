// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate translates paper titles and summaries with an LLM, one
// paper at a time, caching the result per ordered paper list and model.
// A cancelled batch keeps its partial result and resumes where it stopped.
package translate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-desk/pkg/types"
)

// MaxTextRunes bounds each text sent to the backend. Longer texts are cut
// and end with truncationMarker.
const MaxTextRunes = 12000

const truncationMarker = "..."

// ErrBusy is returned when Translate is called while a batch is running.
var ErrBusy = errors.New("translation already running")

// State is the pipeline lifecycle.
type State int

const (
	Idle State = iota
	Translating
	Completed
	Cancelled
	PartiallyFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Translating:
		return "translating"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case PartiallyFailed:
		return "partially failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Key identifies a cached translation: the ordered paper identities plus
// the model.
type Key struct {
	IDs   []string
	Model string
}

// NewKey builds the cache key for papers translated with model.
func NewKey(papers []types.Paper, model string) Key {
	return Key{IDs: types.Identities(papers), Model: model}
}

// Equal reports whether k and o name the same list and model.
func (k Key) Equal(o Key) bool {
	return k.Model == o.Model && slices.Equal(k.IDs, o.IDs)
}

// Hooks receive batch events. Nil hooks are skipped. Hooks run on the
// goroutine calling Translate.
type Hooks struct {
	// Progress fires after every attempted paper, failed ones included.
	Progress func(done, total int)

	// ItemUpdate fires with each successfully translated paper and its
	// index in the batch.
	ItemUpdate func(p types.Paper, index int)

	// OnCredentialMissing fires when the backend reports types.ErrAuth.
	OnCredentialMissing func(err error)
}

// Result is the outcome of one Translate call.
type Result struct {
	// Papers holds translated papers, with originals in place of items
	// that failed or were not reached.
	Papers []types.Paper

	State      State
	Translated int
	Failed     int

	// FromCache is set when no backend call was made.
	FromCache bool
}

type cacheEntry struct {
	key       Key
	papers    []types.Paper
	attempted []bool
	failed    []bool
	finished  bool
}

func (e *cacheEntry) result(fromCache bool) Result {
	r := Result{Papers: types.ClonePapers(e.papers), FromCache: fromCache}
	for i := range e.papers {
		switch {
		case e.failed[i]:
			r.Failed++
		case e.attempted[i]:
			r.Translated++
		}
	}
	switch {
	case !e.finished:
		r.State = Cancelled
	case r.Failed > 0:
		r.State = PartiallyFailed
	default:
		r.State = Completed
	}
	return r
}

func (e *cacheEntry) attemptedCount() int {
	n := 0
	for _, a := range e.attempted {
		if a {
			n++
		}
	}
	return n
}

// Pipeline runs translation batches against a Backend.
type Pipeline struct {
	Backend Backend
	Hooks   Hooks
	Log     zerolog.Logger

	mu      sync.Mutex
	state   State
	cache   *cacheEntry
	running bool
}

// New returns an idle pipeline.
func New(backend Backend, hooks Hooks, log zerolog.Logger) *Pipeline {
	return &Pipeline{Backend: backend, Hooks: hooks, Log: log}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset returns to Idle, as when the user switches back to the original
// text. The cache survives.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		p.state = Idle
	}
}

// Invalidate drops the cache and returns to Idle. Called on a new search.
func (p *Pipeline) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = nil
	if !p.running {
		p.state = Idle
	}
}

// Cached returns the finished translation for papers and model, if any.
func (p *Pipeline) Cached(papers []types.Paper, model string) ([]types.Paper, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.cache
	if e == nil || !e.finished || len(e.papers) == 0 || !e.key.Equal(NewKey(papers, model)) {
		return nil, false
	}
	return types.ClonePapers(e.papers), true
}

// Seed installs a saved translation of papers made with model as the
// cache entry, so the next Translate for the same key only sends papers
// whose title and summary still equal the original. translated must be
// index-aligned with papers. It reports whether the cache was replaced;
// nothing changes while a batch is running.
func (p *Pipeline) Seed(papers, translated []types.Paper, model string) bool {
	if len(papers) == 0 || len(translated) != len(papers) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}

	e := &cacheEntry{
		key:       NewKey(papers, model),
		papers:    types.ClonePapers(papers),
		attempted: make([]bool, len(papers)),
		failed:    make([]bool, len(papers)),
	}
	for i, t := range translated {
		o := papers[i]
		if t.Identity() != o.Identity() || (t.Title == o.Title && t.Summary == o.Summary) {
			continue
		}
		e.papers[i] = t.Clone()
		e.attempted[i] = true
	}
	e.finished = e.attemptedCount() == len(papers)
	p.cache = e
	return true
}

// Translate translates papers in order with model.
//
// A finished batch for the same papers and model is returned from cache.
// A cancelled batch for the same key resumes at its first unattempted
// paper. Cancelling ctx stops the batch at the next paper boundary; the
// call in flight completes. A single paper's failure is logged and the
// batch continues, except for types.ErrAuth, which stops the batch and
// leaves it resumable.
func (p *Pipeline) Translate(ctx context.Context, papers []types.Paper, model string) (Result, error) {
	if len(papers) == 0 {
		return Result{State: Completed}, nil
	}
	key := NewKey(papers, model)

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return Result{}, ErrBusy
	}
	if e := p.cache; e != nil && e.finished && len(e.papers) > 0 && e.key.Equal(key) {
		res := e.result(true)
		p.state = res.State
		p.mu.Unlock()
		return res, nil
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	if err := p.Backend.Ready(); err != nil {
		p.credentialMissing(err)
		p.mu.Lock()
		p.state = Idle
		p.mu.Unlock()
		return Result{State: Idle}, fmt.Errorf("translation backend %s: %w", p.Backend.Name(), err)
	}

	p.mu.Lock()
	entry := p.cache
	if entry == nil || !entry.key.Equal(key) {
		entry = &cacheEntry{
			key:       key,
			papers:    types.ClonePapers(papers),
			attempted: make([]bool, len(papers)),
			failed:    make([]bool, len(papers)),
		}
		p.cache = entry
	}
	entry.finished = false
	p.state = Translating
	done := entry.attemptedCount()
	p.mu.Unlock()

	total := len(entry.papers)
	if done > 0 {
		p.Log.Info().Int("done", done).Int("total", total).Str("model", model).Msg("resuming translation")
	}

	var (
		stopErr error
		stopped bool
	)
	for i := range entry.papers {
		if entry.attempted[i] {
			continue
		}
		if ctx.Err() != nil {
			stopped = true
			break
		}

		// Not under the lock: only this goroutine writes unattempted slots.
		original := entry.papers[i]
		translated, err := p.translatePaper(context.WithoutCancel(ctx), original, model)
		if errors.Is(err, types.ErrAuth) {
			p.Log.Error().Err(err).Str("paper", original.Identity()).Msg("translation stopped: credential rejected")
			p.credentialMissing(err)
			stopErr = err
			stopped = true
			break
		}

		p.mu.Lock()
		entry.attempted[i] = true
		if err != nil {
			entry.failed[i] = true
		} else {
			entry.papers[i] = translated
		}
		p.mu.Unlock()
		done++

		if err != nil {
			p.Log.Warn().Err(err).
				Str("paper", original.Identity()).
				Int("index", i).
				Msg("translation failed, keeping original")
		} else if p.Hooks.ItemUpdate != nil {
			p.Hooks.ItemUpdate(translated.Clone(), i)
		}
		if p.Hooks.Progress != nil {
			p.Hooks.Progress(done, total)
		}
	}

	p.mu.Lock()
	entry.finished = !stopped
	res := entry.result(false)
	p.state = res.State
	p.mu.Unlock()

	p.Log.Info().
		Str("state", res.State.String()).
		Int("translated", res.Translated).
		Int("failed", res.Failed).
		Int("total", total).
		Msg("translation batch ended")

	if stopErr != nil {
		return res, fmt.Errorf("translation stopped after %d of %d papers: %w", done, total, stopErr)
	}
	return res, nil
}

func (p *Pipeline) credentialMissing(err error) {
	if errors.Is(err, types.ErrAuth) && p.Hooks.OnCredentialMissing != nil {
		p.Hooks.OnCredentialMissing(err)
	}
}

// translatePaper translates the title and, when present, the summary.
func (p *Pipeline) translatePaper(ctx context.Context, paper types.Paper, model string) (types.Paper, error) {
	out := paper.Clone()
	if strings.TrimSpace(paper.Title) != "" {
		title, err := p.translateText(ctx, paper.Title, model)
		if err != nil {
			return paper, fmt.Errorf("translating title: %w", err)
		}
		out.Title = title
	}
	if strings.TrimSpace(paper.Summary) != "" {
		summary, err := p.translateText(ctx, paper.Summary, model)
		if err != nil {
			return paper, fmt.Errorf("translating summary: %w", err)
		}
		out.Summary = summary
	}
	return out, nil
}

func (p *Pipeline) translateText(ctx context.Context, text, model string) (string, error) {
	out, err := p.Backend.Translate(ctx, Truncate(text, MaxTextRunes), model)
	if err != nil {
		return "", err
	}
	out = CleanOutput(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty translation from %s", types.ErrFormat, p.Backend.Name())
	}
	return out, nil
}

// Truncate cuts s to max runes and appends "..." when anything was cut.
func Truncate(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}

// CleanOutput strips leading blank lines and trailing whitespace from
// model output.
func CleanOutput(s string) string {
	for {
		line, rest, found := strings.Cut(s, "\n")
		if strings.TrimSpace(line) != "" || !found {
			break
		}
		s = rest
	}
	return strings.TrimRight(s, " \t\r\n")
}
