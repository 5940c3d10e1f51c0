// Package index defines the embedding index contract: named collections of
// text+vector+metadata records with nearest-neighbor queries.
package index

import (
	"context"
	"fmt"

	"github.com/calyptra/docqa/internal/domain"
)

// Metadata is the persisted provenance of an index entry.
type Metadata struct {
	DocName     string
	PageNum     int
	ChunkIndex  int
	WordCount   int
	TokenCount  int
	ContentType domain.ContentType
	HasImages   bool
	ImageCount  int
}

// Entry is the persisted form of a chunk: id, raw text (or an image
// placeholder), embedding vector, and metadata.
type Entry struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Match is one nearest-neighbor query result. Distance ascends across an
// ordered result set; Score is the distance-derived similarity in [0, 1].
type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
	Score    float64
}

// Store is the collection-scoped persistence contract. Collections are
// created lazily on first write (get-or-create under concurrent first
// writers); querying a missing or empty collection yields an empty result
// set, not an error. Re-adding an existing id in a later batch overwrites it
// (last-write-wins).
type Store interface {
	// Add stores entries in the named collection, creating it if absent.
	// Ids repeated within the batch are rejected with domain.ErrDuplicateID.
	Add(ctx context.Context, collection string, entries []Entry) error

	// Query returns up to topK entries ordered by ascending distance.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]Match, error)

	// ListCollections names every known collection.
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteCollection removes a collection and its records. A missing
	// collection is reported as domain.ErrCollectionNotFound.
	DeleteCollection(ctx context.Context, name string) error

	// Count returns the number of records in a collection; zero for a
	// missing collection.
	Count(ctx context.Context, name string) (int, error)

	Close()
}

// ValidateBatch rejects id collisions within a single Add batch; a collision
// would silently drop a chunk, which is a correctness violation.
func ValidateBatch(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: empty id", domain.ErrDuplicateID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
