// Package refine is the LLM rewrite stage of termfix.
//
// A [Refiner] runs the terminology engine over a text, sends the result to a
// language model for minimal spelling and punctuation fixes, and runs the
// engine again over the model output so that canonical terms survive the
// rewrite. Long texts are sent paragraph by paragraph in chunks.
//
// The model is advisory. When it fails, is unreachable, or drops more than a
// small share of the words of a chunk, the terminology-corrected chunk is
// kept instead. Model answers are memoized in the [cache.KindLLMResponse]
// namespace, keyed by chunk text and model name. Only cancellation of the
// caller's context is reported as an error.
package refine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/termfix/internal/cache"
	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/internal/resilience"
	"github.com/MrWong99/termfix/internal/terminology"
	"github.com/MrWong99/termfix/pkg/provider/llm"
	"github.com/MrWong99/termfix/pkg/types"
)

// Defaults for [New].
const (
	DefaultTemperature   = 0.1
	DefaultMinRetention  = 0.9
	DefaultChunkWords    = 800
	DefaultModel         = "default"
	defaultProviderLabel = "llm"
)

// Chunk outcomes reported in [Result] and in provider request metrics.
const (
	outcomeOK       = "ok"
	outcomeCached   = "cached"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeOpen     = "circuit_open"
)

// Result is the outcome of [Refiner.Refine].
type Result struct {
	// Text is the refined text.
	Text string

	// Corrections are the terminology corrections applied to the input
	// before the model call. Positions refer to the input text.
	Corrections []types.Correction

	// PostCorrections are the terminology corrections applied to the model
	// output. Positions refer to the joined model output.
	PostCorrections []types.Correction

	// Chunks is the number of chunks sent through the stage.
	Chunks int

	// Fallbacks is the number of chunks for which the model output was not
	// used.
	Fallbacks int
}

// Option is a functional option for [New].
type Option func(*Refiner)

// WithModel names the model behind the provider. The name is part of the
// response cache key. Default: "default".
func WithModel(name string) Option {
	return func(r *Refiner) {
		r.model = name
	}
}

// WithProviderName labels metrics and logs. Default: "llm".
func WithProviderName(name string) Option {
	return func(r *Refiner) {
		r.providerName = name
	}
}

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(t float64) Option {
	return func(r *Refiner) {
		r.temperature = t
	}
}

// WithMinRetention sets the minimum ratio of output words to input words
// for a model answer to be accepted. Default: 0.9.
func WithMinRetention(ratio float64) Option {
	return func(r *Refiner) {
		r.minRetention = ratio
	}
}

// WithChunkWords sets the maximum number of words per model call.
// Default: 800.
func WithChunkWords(n int) Option {
	return func(r *Refiner) {
		r.chunkWords = n
	}
}

// WithCallTimeout bounds each provider call. A timed out call counts as a
// provider failure. Default: no bound beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Refiner) {
		r.callTimeout = d
	}
}

// WithCache memoizes model answers in c.
func WithCache(c *cache.Cache) Option {
	return func(r *Refiner) {
		r.cache = c
	}
}

// WithBreaker guards provider calls with b. When the breaker is open,
// chunks fall back without calling the provider.
func WithBreaker(b *resilience.Breaker) Option {
	return func(r *Refiner) {
		r.breaker = b
	}
}

// WithMetrics records provider calls on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Refiner) {
		r.metrics = m
	}
}

// Refiner runs the terminology and LLM stages. It is safe for concurrent
// use.
type Refiner struct {
	engine   *terminology.Engine
	provider llm.Provider

	model        string
	providerName string
	temperature  float64
	minRetention float64
	chunkWords   int
	callTimeout  time.Duration
	cache        *cache.Cache
	breaker      *resilience.Breaker
	metrics      *observe.Metrics
}

// New returns a Refiner using engine for terminology passes and provider
// for rewrites.
func New(engine *terminology.Engine, provider llm.Provider, opts ...Option) (*Refiner, error) {
	if engine == nil {
		return nil, errors.New("refine: engine must not be nil")
	}
	if provider == nil {
		return nil, errors.New("refine: provider must not be nil")
	}
	r := &Refiner{
		engine:       engine,
		provider:     provider,
		model:        DefaultModel,
		providerName: defaultProviderLabel,
		temperature:  DefaultTemperature,
		minRetention: DefaultMinRetention,
		chunkWords:   DefaultChunkWords,
	}
	for _, o := range opts {
		o(r)
	}
	if r.minRetention < 0 || r.minRetention > 1 {
		return nil, fmt.Errorf("refine: min retention must be in [0,1], got %g", r.minRetention)
	}
	return r, nil
}

// Refine corrects text. The error is non-nil only when ctx is done.
func (r *Refiner) Refine(ctx context.Context, text string) (Result, error) {
	ctx, span := observe.StartSpan(ctx, "refine.Refine",
		trace.WithAttributes(
			attribute.String("llm.provider", r.providerName),
			attribute.String("llm.model", r.model),
		),
	)
	defer span.End()

	pre := r.engine.CorrectContext(ctx, text)
	res := Result{Corrections: pre.Corrections}

	chunks := r.fitChunks(splitChunks(pre.Text, r.chunkWords))
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Result{}, fmt.Errorf("refine: chunk %d: %w", i, err)
		}
		refined, outcome, err := r.refineChunk(ctx, chunk)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Result{}, fmt.Errorf("refine: chunk %d: %w", i, err)
		}
		if outcome != outcomeOK && outcome != outcomeCached {
			res.Fallbacks++
		}
		out = append(out, refined)
	}
	res.Chunks = len(chunks)

	post := r.engine.CorrectContext(ctx, strings.Join(out, paragraphSep))
	res.Text = post.Text
	res.PostCorrections = post.Corrections

	span.SetAttributes(
		attribute.Int("refine.chunks", res.Chunks),
		attribute.Int("refine.fallbacks", res.Fallbacks),
	)
	observe.Logger(ctx).Debug("refine: text refined",
		"chunks", res.Chunks,
		"fallbacks", res.Fallbacks,
		"corrections", len(res.Corrections),
		"post_corrections", len(res.PostCorrections),
	)
	return res, nil
}

// refineChunk returns the model rewrite of chunk or chunk itself when the
// rewrite is unavailable or rejected. The outcome names which happened.
func (r *Refiner) refineChunk(ctx context.Context, chunk string) (string, string, error) {
	if r.cache != nil {
		if e, ok := r.cache.Get(ctx, chunk, cache.KindLLMResponse, r.model); ok {
			return e.Text, outcomeCached, nil
		}
	}

	log := observe.Logger(ctx)
	answer, err := r.call(ctx, chunk)
	switch {
	case err != nil && ctx.Err() != nil:
		return "", outcomeError, ctx.Err()
	case errors.Is(err, resilience.ErrCircuitOpen):
		r.recordRequest(ctx, outcomeOpen)
		return chunk, outcomeOpen, nil
	case err != nil:
		log.Warn("refine: model call failed, keeping terminology pass", "provider", r.providerName, "err", err)
		r.recordRequest(ctx, outcomeError)
		if r.metrics != nil {
			r.metrics.RecordProviderError(ctx, r.providerName, "complete")
		}
		return chunk, outcomeError, nil
	}

	outcome := outcomeOK
	if !r.accept(chunk, answer) {
		log.Warn("refine: model output lost content, keeping terminology pass",
			"provider", r.providerName,
			"words_in", wordCount(chunk),
			"words_out", wordCount(answer),
		)
		answer, outcome = chunk, outcomeRejected
	}
	r.recordRequest(ctx, outcome)

	if r.cache != nil {
		r.cache.Set(ctx, chunk, cache.KindLLMResponse, r.model, cache.Entry{Text: answer})
	}
	return answer, outcome, nil
}

// call sends one chunk to the provider through the breaker.
func (r *Refiner) call(ctx context.Context, chunk string) (string, error) {
	req := r.request(chunk)
	var answer string
	do := func(ctx context.Context) error {
		if r.callTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
			defer cancel()
		}
		start := time.Now()
		resp, err := r.provider.Complete(ctx, req)
		if r.metrics != nil {
			r.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
		}
		if err != nil {
			return err
		}
		if resp == nil {
			return errors.New("refine: provider returned no response")
		}
		answer = cleanResponse(resp.Content)
		return nil
	}
	if r.breaker == nil {
		return answer, do(ctx)
	}
	return answer, r.breaker.Do(ctx, do)
}

// request builds the completion request for chunk.
func (r *Refiner) request(chunk string) llm.CompletionRequest {
	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Temperature:  r.temperature,
		Messages: []types.Message{
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, chunk)},
		},
	}
	if caps := r.provider.Capabilities(); caps.MaxOutputTokens > 0 {
		req.MaxTokens = caps.MaxOutputTokens
	}
	return req
}

// accept reports whether answer kept enough of chunk's words.
func (r *Refiner) accept(chunk, answer string) bool {
	if answer == "" {
		return false
	}
	return float64(wordCount(answer)) >= float64(wordCount(chunk))*r.minRetention
}

// fitChunks halves chunks whose prompt would not leave room for an answer
// of similar size in the model's context window.
func (r *Refiner) fitChunks(chunks []string) []string {
	window := r.provider.Capabilities().ContextWindow
	if window <= 0 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	var fit func(string)
	fit = func(c string) {
		req := r.request(c)
		msgs := append([]types.Message{{Role: "system", Content: req.SystemPrompt}}, req.Messages...)
		n, err := r.provider.CountTokens(msgs)
		if err != nil || 2*n <= window {
			out = append(out, c)
			return
		}
		left, right, ok := halve(c)
		if !ok {
			out = append(out, c)
			return
		}
		fit(left)
		fit(right)
	}
	for _, c := range chunks {
		fit(c)
	}
	return out
}

func (r *Refiner) recordRequest(ctx context.Context, status string) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordProviderRequest(ctx, r.providerName, status)
}
