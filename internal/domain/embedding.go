package domain

import (
	"context"
)

// Embedder is the shared text vectorization contract between layers.
// Embedding is deterministic for identical input text and model version.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call. Ingestion
// prefers this over per-chunk calls.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Generator is the language-model contract consumed by answer synthesis.
// Implementations may fail on transport errors; the synthesizer converts every
// failure into a degraded answer.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}
