// Package cache memoizes correction results.
//
// Entries are content addressed: the key is a hash over the input text, the
// operation kind and an optional model identifier, so identical inputs always
// land on the same entry. Terminology corrections and LLM responses live in
// two namespaces ([KindTerminology], [KindLLMResponse]) of one bounded store.
//
// The cache is an optimisation only. Store failures never surface to callers:
// a failed lookup is reported as a miss and a failed write is dropped.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/MrWong99/termfix/internal/observe"
	"github.com/MrWong99/termfix/pkg/types"
)

// Namespaces shared by the terminology engine and the LLM refine stage.
const (
	KindTerminology = "terminology"
	KindLLMResponse = "llm-response"
)

// ErrNotFound is returned by a [Store] when the key has no entry.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is one cached result.
type Entry struct {
	Key         string             `json:"key"`
	Kind        string             `json:"kind"`
	Text        string             `json:"text"`
	Corrections []types.Correction `json:"corrections,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Store is the storage backend behind a [Cache]. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the entry for key or [ErrNotFound].
	Get(ctx context.Context, key string) (Entry, error)

	// Set stores e under e.Key, replacing any previous value.
	Set(ctx context.Context, e Entry) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Count returns the number of entries per namespace.
	Count(ctx context.Context) (map[string]int, error)
}

// Key derives the content address for (text, kind, model). The namespace is
// kept readable as a prefix so stores can count entries per kind.
func Key(text, kind, model string) string {
	d := xxhash.New()
	_, _ = d.WriteString(text)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(kind)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(model)
	return kind + ":" + hex.EncodeToString(d.Sum(nil))
}

// kindOf returns the namespace prefix of a key produced by [Key].
func kindOf(key string) string {
	kind, _, ok := strings.Cut(key, ":")
	if !ok {
		return ""
	}
	return kind
}

// Stats is a snapshot of cache activity.
type Stats struct {
	// Entries is the number of stored entries per namespace.
	Entries map[string]int
	Hits    int64
	Misses  int64
}

// Option configures a [Cache].
type Option func(*Cache)

// WithMetrics records hits and misses on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithNow overrides the clock used to stamp new entries.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is the front through which the engine and the refine stage reach the
// store. It is safe for concurrent use. Two workers computing the same key
// concurrently both write; the last write wins and both values are equal.
type Cache struct {
	store   Store
	metrics *observe.Metrics
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a Cache backed by store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get looks up the entry for (text, kind, model). The boolean is false on a
// miss, including when the store failed.
func (c *Cache) Get(ctx context.Context, text, kind, model string) (Entry, bool) {
	e, err := c.store.Get(ctx, Key(text, kind, model))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			observe.Logger(ctx).Warn("cache: lookup failed, treating as miss",
				"kind", kind,
				"err", err,
			)
		}
		c.misses.Add(1)
		c.record(ctx, kind, false)
		return Entry{}, false
	}
	c.hits.Add(1)
	c.record(ctx, kind, true)
	e.Corrections = slices.Clone(e.Corrections)
	return e, true
}

// Set stores e for (text, kind, model). Key and Kind are filled in, and
// CreatedAt when zero. A store failure is logged and the write is dropped.
// The stored entry shares no memory with e, and Get returns a fresh copy, so
// callers may modify what they pass in or get back.
func (c *Cache) Set(ctx context.Context, text, kind, model string, e Entry) {
	e.Corrections = slices.Clone(e.Corrections)
	e.Key = Key(text, kind, model)
	e.Kind = kind
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	if err := c.store.Set(ctx, e); err != nil {
		observe.Logger(ctx).Warn("cache: write dropped",
			"kind", kind,
			"err", err,
		)
	}
}

// Clear removes all entries and resets the hit and miss counters.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

// Stats returns the current counters. Entry counts are empty when the store
// cannot be queried.
func (c *Cache) Stats(ctx context.Context) Stats {
	counts, err := c.store.Count(ctx)
	if err != nil {
		slog.Warn("cache: count failed", "err", err)
		counts = map[string]int{}
	}
	return Stats{
		Entries: counts,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *Cache) record(ctx context.Context, kind string, hit bool) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordCacheLookup(ctx, kind, hit)
}
