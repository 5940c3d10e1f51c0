package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func items() []domain.ContextItem {
	return []domain.ContextItem{
		{
			ContentType: domain.ContentTypeText,
			Text:        "The watchdog timer resets after 30 seconds of inactivity.",
			DocName:     "board-manual",
			PageNum:     12,
			ChunkIndex:  0,
			Score:       0.91,
		},
		{
			ContentType: domain.ContentTypePageImage,
			Text:        "[PAGE_IMAGE] Page 13 of board-manual",
			DocName:     "board-manual",
			PageNum:     13,
			Score:       0.44,
		},
	}
}

func TestSynthesize_ReturnsModelAnswerWithTokenEstimate(t *testing.T) {
	gen := &fakeGenerator{response: "The watchdog resets after 30 seconds."}
	s := NewSynthesizer(gen, 512, time.Second, zap.NewNop())

	text, tokens := s.Synthesize(context.Background(), "when does the watchdog reset", items())

	if text != gen.response {
		t.Errorf("answer = %q, want model response", text)
	}
	want := domain.EstimateTokens(gen.prompt) + domain.EstimateTokens(gen.response)
	if tokens != want {
		t.Errorf("tokens = %d, want %d", tokens, want)
	}
}

func TestSynthesize_NoContextYieldsFixedAnswer(t *testing.T) {
	gen := &fakeGenerator{response: "should not be called"}
	s := NewSynthesizer(gen, 512, time.Second, zap.NewNop())

	text, tokens := s.Synthesize(context.Background(), "anything", nil)

	if gen.calls != 0 {
		t.Errorf("generator must not run without context, ran %d times", gen.calls)
	}
	if text != NoContextText {
		t.Errorf("answer = %q, want no-context text", text)
	}
	if tokens != 0 {
		t.Errorf("tokens = %d, want 0", tokens)
	}
}

func TestSynthesize_GenerationFailureYieldsApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	s := NewSynthesizer(gen, 512, time.Second, zap.NewNop())

	text, tokens := s.Synthesize(context.Background(), "anything", items())

	if text != ApologyText {
		t.Errorf("answer = %q, want apology text", text)
	}
	if tokens != 0 {
		t.Errorf("tokens = %d, want 0", tokens)
	}
}

func TestSynthesize_EmptyResponseYieldsApology(t *testing.T) {
	gen := &fakeGenerator{response: "  \n "}
	s := NewSynthesizer(gen, 512, time.Second, zap.NewNop())

	text, tokens := s.Synthesize(context.Background(), "anything", items())

	if text != ApologyText {
		t.Errorf("answer = %q, want apology text", text)
	}
	if tokens != 0 {
		t.Errorf("tokens = %d, want 0", tokens)
	}
}

func TestSynthesize_NilGeneratorYieldsApology(t *testing.T) {
	s := NewSynthesizer(nil, 512, time.Second, zap.NewNop())

	text, tokens := s.Synthesize(context.Background(), "anything", items())

	if text != ApologyText {
		t.Errorf("answer = %q, want apology text", text)
	}
	if tokens != 0 {
		t.Errorf("tokens = %d, want 0", tokens)
	}
}

func TestBuildPrompt_LabelsSourcesAndPinsToContext(t *testing.T) {
	prompt := BuildPrompt("when does the watchdog reset", items())

	for _, want := range []string{
		"Document: board-manual (Page 12, Chunk 0)",
		"Relevance Score: 0.910",
		"The watchdog timer resets after 30 seconds",
		"[PAGE_IMAGE] Page 13 of board-manual",
		"Question: when does the watchdog reset",
		"based only on the provided context",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
