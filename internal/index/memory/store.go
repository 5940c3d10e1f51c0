// Package memory implements the embedding index in process memory with
// brute-force cosine search. It backs local runs and degraded mode when no
// vector store is reachable; contents do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// Compile-time check: Store implements index.Store.
var _ index.Store = (*Store)(nil)

// Store is an in-memory embedding index.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order   []string // insertion order of ids, for stable iteration
	entries map[string]index.Entry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Add stores entries in the named collection, creating it if absent. Ids
// repeated within the batch are rejected; re-adding an id from an earlier
// batch overwrites the old record.
func (s *Store) Add(_ context.Context, name string, entries []index.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := index.ValidateBatch(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{entries: make(map[string]index.Entry)}
		s.collections[name] = c
	}
	for _, e := range entries {
		if _, exists := c.entries[e.ID]; !exists {
			c.order = append(c.order, e.ID)
		}
		c.entries[e.ID] = e
	}
	return nil
}

// Query scans the whole collection and returns the topK nearest entries by
// cosine distance. A missing or empty collection yields an empty result set.
func (s *Store) Query(
	_ context.Context, name string, vector []float32, topK int,
) ([]index.Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query %s: vector is required", name)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("query %s: topK must be positive", name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}

	matches := make([]index.Match, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		dist, ok := cosineDistance(vector, e.Vector)
		if !ok {
			continue
		}
		matches = append(matches, index.Match{
			ID:       e.ID,
			Text:     e.Text,
			Metadata: e.Metadata,
			Distance: dist,
			Score:    math.Max(0, 1.0-dist),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// ListCollections names every known collection in sorted order.
func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteCollection removes a collection and its records.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// All returns every entry of a collection in insertion order. Lexical
// retrieval scans this when no embedding provider is available.
func (s *Store) All(_ context.Context, name string) ([]index.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	entries := make([]index.Entry, 0, len(c.order))
	for _, id := range c.order {
		entries = append(entries, c.entries[id])
	}
	return entries, nil
}

// Count returns the record count of a collection; zero when it does not exist.
func (s *Store) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	return len(c.entries), nil
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() {}

// cosineDistance returns 1 - cosine similarity. The second return is false
// when the vectors differ in length or either has zero magnitude.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return 1.0 - dot/(math.Sqrt(na)*math.Sqrt(nb)), true
}
