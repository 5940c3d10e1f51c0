package ingest

import (
	"context"
	"time"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// Extractor turns a PDF file into a fully extracted document.
type Extractor interface {
	ProcessFile(ctx context.Context, path string) (domain.Document, error)
}

// Embedder vectorizes chunk texts in batches. nil means no embedding provider
// is configured and records are stored without vectors (lexical-only mode).
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Indexer persists index entries into a named collection.
type Indexer interface {
	Add(ctx context.Context, collection string, entries []index.Entry) error
}

// ImageStore retains page rasters for later API delivery. nil disables
// retention.
type ImageStore interface {
	Put(collection, id string, png []byte)
}

// Recorder receives usage accounting for ingestion runs.
type Recorder interface {
	RecordIngest(stats domain.Stats, duration time.Duration)
	AddEmbeddingTokens(n int)
}
