// Package retrieval selects the context passed to answer synthesis. Two
// interchangeable strategies implement the same contract: embedding-based
// nearest-neighbor search when an embedding provider is configured, and a
// lexical word-overlap ranker otherwise.
package retrieval

import (
	"context"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// Strategy ranks stored content against a question and returns up to topK
// context items ordered from most to least relevant.
type Strategy interface {
	Retrieve(ctx context.Context, collection, question string, topK int) ([]domain.ContextItem, error)

	// Name identifies the strategy in logs and the info endpoint.
	Name() string
}

// contextItem converts an index match into an answer-synthesis context item,
// carrying provenance through untouched.
func contextItem(m index.Match) domain.ContextItem {
	return domain.ContextItem{
		ContentType: m.Metadata.ContentType,
		Text:        m.Text,
		DocName:     m.Metadata.DocName,
		PageNum:     m.Metadata.PageNum,
		ChunkIndex:  m.Metadata.ChunkIndex,
		Score:       m.Score,
		WordCount:   m.Metadata.WordCount,
		HasImages:   m.Metadata.HasImages,
	}
}
