package answer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
)

// Synthesizer turns retrieved context into a generated answer. Generation
// failures never escape: every path yields a well-formed answer record.
type Synthesizer struct {
	generator domain.Generator
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer. maxTokens caps the model response;
// timeout bounds the model call, a timeout is treated as any other failure.
func NewSynthesizer(generator domain.Generator, maxTokens int, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// Synthesize generates an answer grounded in items. With no context it
// returns the fixed no-context answer; on any generation failure or an empty
// model response it returns the fixed apology with zero token cost.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question string, items []domain.ContextItem,
) (text string, tokens int) {
	if len(items) == 0 {
		return NoContextText, 0
	}
	if s.generator == nil {
		// No language model configured; context was found but cannot be
		// turned into an answer.
		return ApologyText, 0
	}

	prompt := BuildPrompt(question, items)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	response, err := s.generator.Generate(callCtx, prompt, s.maxTokens)
	elapsed := time.Since(start)

	if err != nil || strings.TrimSpace(response) == "" {
		s.logger.Warn("answer generation failed",
			zap.Error(err),
			zap.Duration("elapsed", elapsed),
		)
		return ApologyText, 0
	}

	s.logger.Debug("answer generated",
		zap.Duration("elapsed", elapsed),
		zap.Int("context_items", len(items)),
	)

	// Estimated cost; the generation interface does not report exact usage.
	return response, domain.EstimateTokens(prompt) + domain.EstimateTokens(response)
}
