// Package terminology is the correction engine: it rewrites misspelled
// terms, proper names and fixed expressions in raw text using a compiled
// [dictionary.Dictionary].
//
// A call to [Engine.Correct] runs four stages in a fixed order, each on the
// output of the previous one:
//
//  1. Targeted fixes: whole-word rewrites for known generation and OCR
//     artefacts.
//  2. Pattern scan: every dictionary variant found by the [pattern.Index]
//     is replaced with its canonical form, preserving the input casing.
//  3. Fuzzy names: capitalised spans close to a known name are replaced
//     with the canonical name.
//  4. Context: ambiguous terms are rewritten when a trigger appears near
//     them.
//
// Text claimed by an earlier stage is never rewritten by a later one.
// Canonical terms claim their spans in the pattern stage even when nothing
// changes, which keeps a corrected text stable under re-correction.
//
// An Engine is immutable after [New] and safe for concurrent use. The only
// shared mutable state is the optional [cache.Cache].
package terminology

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrWong99/termfix/internal/cache"
	"github.com/MrWong99/termfix/internal/contextual"
	"github.com/MrWong99/termfix/internal/dictionary"
	"github.com/MrWong99/termfix/internal/fuzzy"
	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/internal/pattern"
	"github.com/MrWong99/termfix/pkg/types"
)

// Result is the outcome of one correction call.
type Result struct {
	// Text is the corrected text.
	Text string

	// Corrections lists every applied rewrite, sorted by position in the
	// input text. Spans never overlap.
	Corrections []types.Correction
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithBackend selects the pattern index backend by name (see
// [pattern.Backends]). Default: automaton.
func WithBackend(name string) Option {
	return func(e *Engine) {
		e.backend = name
	}
}

// WithFuzzyThreshold sets the minimum similarity for a fuzzy name match.
// Default: [fuzzy.DefaultThreshold].
func WithFuzzyThreshold(t float64) Option {
	return func(e *Engine) {
		e.threshold = t
	}
}

// WithScorer replaces the similarity function of the default name resolver.
func WithScorer(s fuzzy.Scorer) Option {
	return func(e *Engine) {
		e.scorer = s
	}
}

// WithNameResolver replaces the brute-force name resolver used by the fuzzy
// stage. WithFuzzyThreshold and WithScorer are ignored when set.
func WithNameResolver(r fuzzy.NameResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithMaxNameTokens bounds the number of words in a fuzzy name candidate.
// Default: [fuzzy.DefaultMaxTokens].
func WithMaxNameTokens(n int) Option {
	return func(e *Engine) {
		e.maxTokens = n
	}
}

// WithContextWindow sets the number of runes inspected on each side of an
// ambiguous term. Default: [contextual.DefaultWindow].
func WithContextWindow(runes int) Option {
	return func(e *Engine) {
		e.window = runes
	}
}

// WithoutFuzzy disables the fuzzy name stage.
func WithoutFuzzy() Option {
	return func(e *Engine) {
		e.noFuzzy = true
	}
}

// WithCache memoizes results in c under the [cache.KindTerminology]
// namespace.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithCacheTag adds tag to the cache key of every text. Engines that differ
// in something the key cannot see, such as a custom scorer or resolver,
// must use distinct tags when they share a cache store.
func WithCacheTag(tag string) Option {
	return func(e *Engine) {
		e.cacheTag = tag
	}
}

// WithMetrics records durations and correction counts on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine applies a dictionary to text. Create one with [New].
type Engine struct {
	backend   string
	threshold float64
	scorer    fuzzy.Scorer
	resolver  fuzzy.NameResolver
	maxTokens int
	window    int
	noFuzzy   bool
	cache     *cache.Cache
	metrics   *observe.Metrics

	targeted pattern.Index
	patterns pattern.Index
	names    *fuzzy.Matcher
	context  *contextual.Disambiguator

	// cacheModel separates cache entries of differently configured engines
	// sharing one store.
	cacheModel string
	cacheTag   string
}

// New compiles dict into an Engine.
func New(dict *dictionary.Dictionary, opts ...Option) (*Engine, error) {
	if dict == nil {
		return nil, fmt.Errorf("terminology: dictionary must not be nil")
	}
	e := &Engine{
		backend:   pattern.BackendAutomaton,
		threshold: fuzzy.DefaultThreshold,
		scorer:    fuzzy.LCSRatio,
		maxTokens: fuzzy.DefaultMaxTokens,
		window:    contextual.DefaultWindow,
	}
	for _, o := range opts {
		o(e)
	}
	if e.threshold <= 0 || e.threshold > 1 {
		return nil, fmt.Errorf("terminology: fuzzy threshold must be in (0,1], got %g", e.threshold)
	}

	var err error
	if e.targeted, err = pattern.New(e.backend, dict.Targeted()); err != nil {
		return nil, fmt.Errorf("terminology: targeted index: %w", err)
	}
	if e.patterns, err = pattern.New(e.backend, dict.Patterns()); err != nil {
		return nil, fmt.Errorf("terminology: pattern index: %w", err)
	}
	if e.context, err = contextual.New(dict.ContextRules(), contextual.WithWindow(e.window)); err != nil {
		return nil, fmt.Errorf("terminology: context rules: %w", err)
	}
	if !e.noFuzzy {
		fopts := []fuzzy.Option{
			fuzzy.WithThreshold(e.threshold),
			fuzzy.WithScorer(e.scorer),
			fuzzy.WithMaxTokens(e.maxTokens),
		}
		if e.resolver != nil {
			fopts = append(fopts, fuzzy.WithResolver(e.resolver))
		}
		e.names = fuzzy.New(dict.NameIndex(), fopts...)
	}

	e.cacheModel = dict.Fingerprint() + "/" + e.backend +
		"/" + strconv.FormatFloat(e.threshold, 'g', -1, 64) +
		"/" + strconv.Itoa(e.maxTokens) +
		"/" + strconv.Itoa(e.window) +
		"/" + strconv.FormatBool(e.noFuzzy) +
		"/" + e.cacheTag

	slog.Debug("terminology: engine ready",
		"backend", e.backend,
		"patterns", e.patterns.Len(),
		"targeted", e.targeted.Len(),
		"context_rules", e.context.Len(),
		"fuzzy", !e.noFuzzy,
	)
	return e, nil
}

// Correct is [Engine.CorrectContext] with a background context.
func (e *Engine) Correct(text string) Result {
	return e.CorrectContext(context.Background(), text)
}

// CorrectContext corrects text. It never fails: unknown text comes back
// unchanged with no corrections. ctx only reaches the cache store and the
// metrics; the correction itself does not block.
func (e *Engine) CorrectContext(ctx context.Context, text string) Result {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.CorrectDuration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	if e.cache != nil {
		if entry, ok := e.cache.Get(ctx, text, cache.KindTerminology, e.cacheModel); ok {
			return Result{Text: entry.Text, Corrections: entry.Corrections}
		}
	}

	res := e.run(ctx, text)

	if e.metrics != nil {
		counts := make(map[types.Stage]int)
		for _, c := range res.Corrections {
			counts[c.Stage]++
		}
		for _, stage := range types.Stages() {
			e.metrics.RecordCorrections(ctx, string(stage), counts[stage])
		}
	}
	if e.cache != nil {
		e.cache.Set(ctx, text, cache.KindTerminology, e.cacheModel, cache.Entry{
			Text:        res.Text,
			Corrections: res.Corrections,
		})
	}
	return res
}

// run executes the four stages over text.
func (e *Engine) run(ctx context.Context, text string) Result {
	if text == "" {
		return Result{Text: text}
	}
	d := newDocument(text)

	d.apply(types.StageTargeted, e.scanEdits(d, e.targeted))
	d.apply(types.StagePattern, e.scanEdits(d, e.patterns))
	if e.names != nil {
		d.apply(types.StageFuzzy, e.fuzzyEdits(ctx, d))
	}
	d.apply(types.StageContext, e.contextEdits(ctx, d))

	return Result{Text: d.text, Corrections: d.corrections()}
}

// scanEdits turns index hits on the current text into edits: whole words
// only, outside claimed spans, longest match first among overlapping hits.
func (e *Engine) scanEdits(d *document, idx pattern.Index) []edit {
	hits := idx.Scan(d.text)
	if len(hits) == 0 {
		return nil
	}
	candidates := make([]edit, 0, len(hits))
	for _, h := range hits {
		if !pattern.AtWordBoundary(d.text, h.Start, h.End) {
			continue
		}
		candidates = append(candidates, edit{
			start:       h.Start,
			end:         h.End,
			replacement: matchCase(h.Text, h.Replacement),
			runes:       h.Runes(),
			order:       h.Order,
		})
	}
	return d.resolve(candidates)
}

// fuzzyEdits runs the name matcher. A panic inside it is logged and treated
// as no match.
func (e *Engine) fuzzyEdits(ctx context.Context, d *document) (edits []edit) {
	defer func() {
		if r := recover(); r != nil {
			observe.Logger(ctx).Warn("terminology: fuzzy stage failed, skipping", "panic", r)
			edits = nil
		}
	}()
	for i, rep := range e.names.Find(d.text) {
		edits = append(edits, edit{
			start:       rep.Start,
			end:         rep.End,
			replacement: rep.Replacement,
			order:       i,
		})
	}
	return d.resolve(edits)
}

// contextEdits runs the context disambiguator. A panic inside it is logged
// and treated as no match.
func (e *Engine) contextEdits(ctx context.Context, d *document) (edits []edit) {
	defer func() {
		if r := recover(); r != nil {
			observe.Logger(ctx).Warn("terminology: context stage failed, skipping", "panic", r)
			edits = nil
		}
	}()
	for _, rep := range e.context.Find(d.text) {
		edits = append(edits, edit{
			start:       rep.Start,
			end:         rep.End,
			replacement: rep.Replacement,
			order:       rep.Rule,
		})
	}
	return d.resolve(edits)
}
