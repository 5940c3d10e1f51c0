// Package ask answers questions against indexed documents: retrieve context,
// synthesize an answer, account cost. Every terminal path returns a
// structurally identical answer record.
package ask

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/metrics"
)

// Service runs the question-answer cycle.
type Service struct {
	retriever   Retriever
	synthesizer Synthesizer
	usage       Recorder
	logger      *zap.Logger
}

// New creates an ask service.
func New(retriever Retriever, synthesizer Synthesizer, usage Recorder, logger *zap.Logger) *Service {
	return &Service{
		retriever:   retriever,
		synthesizer: synthesizer,
		usage:       usage,
		logger:      logger,
	}
}

// Strategy names the active retrieval strategy.
func (s *Service) Strategy() string { return s.retriever.Name() }

// Context retrieves ranked context for a question without synthesizing an
// answer. An empty corpus yields an empty list, not an error.
func (s *Service) Context(
	ctx context.Context, collection, question string, topK int,
) ([]domain.ContextItem, error) {
	items, err := s.retriever.Retrieve(ctx, collection, question, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	return items, nil
}

// Ask answers a question from the collection. Retrieval failures propagate;
// synthesis failures are already absorbed into the degraded answer, so once
// context retrieval succeeds the answer record is always well formed.
// Retrieval and synthesis durations are measured as disjoint intervals.
func (s *Service) Ask(
	ctx context.Context, collection, question string, topK int,
) (domain.Answer, error) {
	start := time.Now()

	retrievalStart := time.Now()
	items, err := s.retriever.Retrieve(ctx, collection, question, topK)
	retrievalDur := time.Since(retrievalStart)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	synthesisStart := time.Now()
	text, tokens := s.synthesizer.Synthesize(ctx, question, items)
	synthesisDur := time.Since(synthesisStart)

	answer := domain.Answer{
		Text:        text,
		Sources:     sourcesFrom(items),
		Context:     items,
		TotalTokens: tokens,
		Timing: domain.Timing{
			Retrieval: retrievalDur,
			Synthesis: synthesisDur,
			Total:     time.Since(start),
		},
	}

	s.usage.RecordQuestion(retrievalDur, synthesisDur, tokens)
	metrics.QuestionsTotal.WithLabelValues(s.retriever.Name()).Inc()
	metrics.RetrievalDuration.Observe(retrievalDur.Seconds())
	metrics.SynthesisDuration.Observe(synthesisDur.Seconds())
	s.logger.Info("question answered",
		zap.String("collection", collection),
		zap.String("strategy", s.retriever.Name()),
		zap.Int("context_items", len(items)),
		zap.Int("tokens", tokens),
		zap.Duration("retrieval", retrievalDur),
		zap.Duration("synthesis", synthesisDur),
	)
	return answer, nil
}

func sourcesFrom(items []domain.ContextItem) []domain.Source {
	sources := make([]domain.Source, 0, len(items))
	for _, item := range items {
		sources = append(sources, domain.Source{
			DocName:    item.DocName,
			PageNum:    item.PageNum,
			ChunkIndex: item.ChunkIndex,
			Score:      item.Score,
		})
	}
	return sources
}
