package usage

import (
	"sync"
	"testing"
	"time"

	"github.com/calyptra/docqa/internal/domain"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := current
		current = current.Add(step)
		return now
	}
}

func TestTracker_AccumulatesAndSnapshots(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(fixedClock(start, 10*time.Second))

	tr.RecordIngest(domain.Stats{
		DocumentsIngested: 2,
		TotalPages:        10,
		TotalChunks:       25,
	}, 3*time.Second)
	tr.AddEmbeddingTokens(500)
	tr.RecordQuestion(200*time.Millisecond, 800*time.Millisecond, 120)
	tr.RecordQuestion(400*time.Millisecond, 1200*time.Millisecond, 80)

	r := tr.Snapshot()

	if r.DocumentsIngested != 2 || r.PagesProcessed != 10 || r.ChunksIndexed != 25 {
		t.Errorf("ingest counters = %+v", r)
	}
	if r.QuestionsAnswered != 2 {
		t.Errorf("questions = %d, want 2", r.QuestionsAnswered)
	}
	if r.EmbeddingTokens != 500 || r.AnswerTokens != 200 {
		t.Errorf("tokens = %d/%d, want 500/200", r.EmbeddingTokens, r.AnswerTokens)
	}
	if r.RetrievalTimeSec != 0.6 {
		t.Errorf("retrieval time = %f, want 0.6", r.RetrievalTimeSec)
	}
	if r.AvgRetrievalSec != 0.3 {
		t.Errorf("avg retrieval = %f, want 0.3", r.AvgRetrievalSec)
	}
	if r.AvgSynthesisSec != 1.0 {
		t.Errorf("avg synthesis = %f, want 1.0", r.AvgSynthesisSec)
	}
	if r.UptimeSec != 10 {
		t.Errorf("uptime = %f, want 10", r.UptimeSec)
	}
	if !r.StartedAt.Equal(start) {
		t.Errorf("started at = %v, want %v", r.StartedAt, start)
	}
}

func TestTracker_ResetZeroesCountersAndRestartsClock(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(fixedClock(start, time.Minute))

	tr.RecordQuestion(time.Second, time.Second, 50)
	tr.Reset()

	r := tr.Snapshot()
	if r.QuestionsAnswered != 0 || r.AnswerTokens != 0 {
		t.Errorf("counters survive reset: %+v", r)
	}
	if r.AvgRetrievalSec != 0 {
		t.Errorf("avg retrieval = %f after reset", r.AvgRetrievalSec)
	}
	if !r.StartedAt.After(start) {
		t.Errorf("reset must restart the clock, started at %v", r.StartedAt)
	}
}

func TestTracker_ConcurrentRecording(t *testing.T) {
	tr := NewTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordQuestion(time.Millisecond, time.Millisecond, 1)
			tr.AddEmbeddingTokens(1)
		}()
	}
	wg.Wait()

	r := tr.Snapshot()
	if r.QuestionsAnswered != 20 || r.EmbeddingTokens != 20 {
		t.Errorf("lost updates: %+v", r)
	}
}
