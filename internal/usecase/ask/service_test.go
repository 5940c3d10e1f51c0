package ask

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/answer"
	"github.com/calyptra/docqa/internal/domain"
)

// --- Fakes ---

type fakeRetriever struct {
	items []domain.ContextItem
	err   error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.ContextItem, error) {
	return f.items, f.err
}

func (f *fakeRetriever) Name() string { return "fake" }

type fakeSynthesizer struct {
	text   string
	tokens int
	calls  int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string, items []domain.ContextItem) (string, int) {
	f.calls++
	if len(items) == 0 {
		return answer.NoContextText, 0
	}
	return f.text, f.tokens
}

type fakeRecorder struct {
	questions int
	tokens    int
}

func (f *fakeRecorder) RecordQuestion(_, _ time.Duration, tokens int) {
	f.questions++
	f.tokens += tokens
}

func contextItems() []domain.ContextItem {
	return []domain.ContextItem{
		{ContentType: domain.ContentTypeText, Text: "chunk", DocName: "manual", PageNum: 4, ChunkIndex: 1, Score: 0.8},
		{ContentType: domain.ContentTypePageImage, Text: "[PAGE_IMAGE] Page 5 of manual", DocName: "manual", PageNum: 5, Score: 0.5},
	}
}

// --- Tests ---

func TestAsk_AnswersWithSourcesAndTiming(t *testing.T) {
	ret := &fakeRetriever{items: contextItems()}
	syn := &fakeSynthesizer{text: "the answer", tokens: 120}
	rec := &fakeRecorder{}
	s := New(ret, syn, rec, zap.NewNop())

	a, err := s.Ask(context.Background(), "docs", "question", 5)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if a.Text != "the answer" {
		t.Errorf("text = %q", a.Text)
	}
	if a.TotalTokens != 120 {
		t.Errorf("tokens = %d, want 120", a.TotalTokens)
	}
	if len(a.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(a.Sources))
	}
	if a.Sources[0].DocName != "manual" || a.Sources[0].PageNum != 4 || a.Sources[0].ChunkIndex != 1 {
		t.Errorf("source provenance lost: %+v", a.Sources[0])
	}
	if len(a.Context) != 2 {
		t.Errorf("context = %d items, want 2", len(a.Context))
	}
	if a.Timing.Total < a.Timing.Retrieval || a.Timing.Total < a.Timing.Synthesis {
		t.Errorf("total %v must cover retrieval %v and synthesis %v",
			a.Timing.Total, a.Timing.Retrieval, a.Timing.Synthesis)
	}
	if rec.questions != 1 || rec.tokens != 120 {
		t.Errorf("recorder questions=%d tokens=%d", rec.questions, rec.tokens)
	}
}

func TestAsk_EmptyContextStillReturnsWellFormedAnswer(t *testing.T) {
	ret := &fakeRetriever{}
	syn := &fakeSynthesizer{text: "unused", tokens: 99}
	s := New(ret, syn, &fakeRecorder{}, zap.NewNop())

	a, err := s.Ask(context.Background(), "docs", "question", 5)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if a.Text != answer.NoContextText {
		t.Errorf("text = %q, want no-context answer", a.Text)
	}
	if a.TotalTokens != 0 {
		t.Errorf("tokens = %d, want 0", a.TotalTokens)
	}
	if a.Sources == nil || len(a.Sources) != 0 {
		t.Errorf("sources must be empty, got %v", a.Sources)
	}
}

func TestAsk_RetrievalFailurePropagates(t *testing.T) {
	wantErr := errors.New("store unreachable")
	ret := &fakeRetriever{err: wantErr}
	syn := &fakeSynthesizer{}
	s := New(ret, syn, &fakeRecorder{}, zap.NewNop())

	_, err := s.Ask(context.Background(), "docs", "question", 5)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected retrieval error, got %v", err)
	}
	if syn.calls != 0 {
		t.Errorf("synthesizer ran %d times after retrieval failure", syn.calls)
	}
}

func TestContext_ReturnsRankedItems(t *testing.T) {
	ret := &fakeRetriever{items: contextItems()}
	s := New(ret, &fakeSynthesizer{}, &fakeRecorder{}, zap.NewNop())

	items, err := s.Context(context.Background(), "docs", "question", 5)
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

func TestStrategy_NamesActiveRetriever(t *testing.T) {
	s := New(&fakeRetriever{}, &fakeSynthesizer{}, &fakeRecorder{}, zap.NewNop())
	if s.Strategy() != "fake" {
		t.Errorf("strategy = %q", s.Strategy())
	}
}
