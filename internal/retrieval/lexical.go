package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
)

// EntrySource lists every stored entry of a collection. The in-memory store
// satisfies this; the lexical ranker needs the full corpus, not a KNN query.
type EntrySource interface {
	All(ctx context.Context, collection string) ([]index.Entry, error)
}

// Compile-time check: Lexical implements Strategy.
var _ Strategy = (*Lexical)(nil)

// Lexical ranks chunks by word overlap with the question. It is the fallback
// when no embedding provider is configured: coarse, but it keeps question
// answering functional on keyword-heavy queries.
type Lexical struct {
	source EntrySource
	logger *zap.Logger
}

// NewLexical creates the lexical retrieval strategy.
func NewLexical(source EntrySource, logger *zap.Logger) *Lexical {
	return &Lexical{source: source, logger: logger}
}

func (l *Lexical) Name() string { return "lexical" }

// Retrieve scores every stored chunk by the fraction of question words it
// contains and returns the topK highest scorers. Chunks with no overlap rank
// last with score 0 but are still eligible. Ties keep insertion order, so
// earlier pages win.
func (l *Lexical) Retrieve(
	ctx context.Context, collection, question string, topK int,
) ([]domain.ContextItem, error) {
	entries, err := l.source.All(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	queryWords := uniqueLowerWords(question)

	scored := make([]domain.ContextItem, 0, len(entries))
	for _, e := range entries {
		item := contextItem(index.Match{ID: e.ID, Text: e.Text, Metadata: e.Metadata})
		item.Score = overlapScore(queryWords, e.Text)
		scored = append(scored, item)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	l.logger.Debug("lexical retrieval",
		zap.String("collection", collection),
		zap.Int("scanned", len(entries)),
		zap.Int("matches", len(scored)),
	)
	return scored, nil
}

// overlapScore is |query words present in text| / max(|query words|, 1).
func overlapScore(queryWords map[string]struct{}, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	textWords := uniqueLowerWords(text)
	overlap := 0
	for w := range queryWords {
		if _, ok := textWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}

func uniqueLowerWords(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
