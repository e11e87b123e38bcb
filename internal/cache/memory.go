package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Defaults for [NewMemoryStore].
const (
	DefaultCapacity      = 10_000
	DefaultEvictFraction = 0.2
)

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithOnEvict registers fn to be called with the number of entries removed by
// each eviction batch. fn runs with the store lock held and must not call
// back into the store.
func WithOnEvict(fn func(n int)) MemoryOption {
	return func(s *MemoryStore) {
		s.onEvict = fn
	}
}

type memoryItem struct {
	entry  Entry
	access uint64
}

// MemoryStore is a bounded in-process [Store]. When a write would exceed the
// capacity it evicts the least recently accessed batch of entries (a fraction
// of the capacity, at least one) instead of keeping a strict LRU order.
// Both namespaces share the capacity.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]*memoryItem
	tick     uint64
	capacity int
	batch    int
	onEvict  func(n int)
}

// NewMemoryStore returns a store holding at most capacity entries, evicting
// capacity*evictFraction entries at a time.
func NewMemoryStore(capacity int, evictFraction float64, opts ...MemoryOption) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache: capacity must be positive, got %d", capacity)
	}
	if evictFraction <= 0 || evictFraction > 1 {
		return nil, fmt.Errorf("cache: evict fraction must be in (0,1], got %g", evictFraction)
	}
	batch := int(float64(capacity) * evictFraction)
	if batch < 1 {
		batch = 1
	}
	s := &MemoryStore{
		items:    make(map[string]*memoryItem),
		capacity: capacity,
		batch:    batch,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Get implements [Store]. A hit refreshes the entry's access time.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	s.tick++
	it.access = s.tick
	return it.entry, nil
}

// Set implements [Store].
func (s *MemoryStore) Set(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	if it, ok := s.items[e.Key]; ok {
		it.entry = e
		it.access = s.tick
		return nil
	}
	if len(s.items) >= s.capacity {
		s.evictLocked()
	}
	s.items[e.Key] = &memoryItem{entry: e, access: s.tick}
	return nil
}

// evictLocked removes the oldest batch by access time. s.mu must be held.
func (s *MemoryStore) evictLocked() {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.items[keys[i]].access < s.items[keys[j]].access
	})
	n := min(s.batch, len(keys))
	for _, k := range keys[:n] {
		delete(s.items, k)
	}
	if s.onEvict != nil && n > 0 {
		s.onEvict(n)
	}
}

// Clear implements [Store].
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*memoryItem)
	return nil
}

// Count implements [Store].
func (s *MemoryStore) Count(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, it := range s.items {
		counts[it.entry.Kind]++
	}
	return counts, nil
}

// Len returns the total number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

var _ Store = (*MemoryStore)(nil)
