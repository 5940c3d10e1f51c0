package ask

import (
	"context"
	"time"

	"github.com/calyptra/docqa/internal/domain"
)

// Retriever ranks stored content against a question.
type Retriever interface {
	Retrieve(ctx context.Context, collection, question string, topK int) ([]domain.ContextItem, error)
	Name() string
}

// Synthesizer produces an answer from context. It never fails: degraded paths
// return fixed fallback text with zero token cost.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, items []domain.ContextItem) (text string, tokens int)
}

// Recorder receives usage accounting for answered questions.
type Recorder interface {
	RecordQuestion(retrieval, synthesis time.Duration, tokens int)
}
