package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// Compile-time check: Embedding implements Strategy.
var _ Strategy = (*Embedding)(nil)

// Embedding retrieves context by embedding the question and running a
// nearest-neighbor query against the index.
type Embedding struct {
	embedder domain.Embedder
	store    index.Store
	logger   *zap.Logger
}

// NewEmbedding creates the embedding-based retrieval strategy.
func NewEmbedding(embedder domain.Embedder, store index.Store, logger *zap.Logger) *Embedding {
	return &Embedding{embedder: embedder, store: store, logger: logger}
}

func (e *Embedding) Name() string { return "embedding" }

// Retrieve embeds the question and returns the topK nearest stored chunks.
func (e *Embedding) Retrieve(
	ctx context.Context, collection, question string, topK int,
) ([]domain.ContextItem, error) {
	result, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := e.store.Query(ctx, collection, result.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	e.logger.Debug("embedding retrieval",
		zap.String("collection", collection),
		zap.Int("top_k", topK),
		zap.Int("matches", len(matches)),
	)

	items := make([]domain.ContextItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, contextItem(m))
	}
	return items, nil
}
