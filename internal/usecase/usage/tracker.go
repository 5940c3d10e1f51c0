// Package usage tracks service-level counters since process start. The
// tracker is injected where accounting happens instead of living in package
// globals, so tests reset it freely and alternate implementations can be
// swapped in.
package usage

import (
	"sync"
	"time"

	"github.com/calyptra/docqa/internal/domain"
)

// Report is a point-in-time snapshot of accumulated usage.
type Report struct {
	StartedAt          time.Time `json:"started_at"`
	UptimeSec          float64   `json:"uptime_sec"`
	DocumentsIngested  int       `json:"documents_ingested"`
	PagesProcessed     int       `json:"pages_processed"`
	ChunksIndexed      int       `json:"chunks_indexed"`
	QuestionsAnswered  int       `json:"questions_answered"`
	EmbeddingTokens    int       `json:"embedding_tokens"`
	AnswerTokens       int       `json:"answer_tokens"`
	IngestTimeSec      float64   `json:"ingest_time_sec"`
	RetrievalTimeSec   float64   `json:"retrieval_time_sec"`
	SynthesisTimeSec   float64   `json:"synthesis_time_sec"`
	AvgRetrievalSec    float64   `json:"avg_retrieval_sec"`
	AvgSynthesisSec    float64   `json:"avg_synthesis_sec"`
}

// Tracker accumulates counters under a mutex. All methods are safe for
// concurrent use.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	startedAt         time.Time
	documentsIngested int
	pagesProcessed    int
	chunksIndexed     int
	questionsAnswered int
	embeddingTokens   int
	answerTokens      int
	ingestTime        time.Duration
	retrievalTime     time.Duration
	synthesisTime     time.Duration
}

// NewTracker creates a tracker started now. now may be nil (wall clock).
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, startedAt: now()}
}

// RecordIngest accounts one ingestion run.
func (t *Tracker) RecordIngest(stats domain.Stats, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.documentsIngested += stats.DocumentsIngested
	t.pagesProcessed += stats.TotalPages
	t.chunksIndexed += stats.TotalChunks
	t.ingestTime += duration
}

// AddEmbeddingTokens accounts embedding API token usage.
func (t *Tracker) AddEmbeddingTokens(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.embeddingTokens += n
}

// RecordQuestion accounts one answered question.
func (t *Tracker) RecordQuestion(retrieval, synthesis time.Duration, tokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.questionsAnswered++
	t.retrievalTime += retrieval
	t.synthesisTime += synthesis
	t.answerTokens += tokens
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := Report{
		StartedAt:         t.startedAt,
		UptimeSec:         t.now().Sub(t.startedAt).Seconds(),
		DocumentsIngested: t.documentsIngested,
		PagesProcessed:    t.pagesProcessed,
		ChunksIndexed:     t.chunksIndexed,
		QuestionsAnswered: t.questionsAnswered,
		EmbeddingTokens:   t.embeddingTokens,
		AnswerTokens:      t.answerTokens,
		IngestTimeSec:     t.ingestTime.Seconds(),
		RetrievalTimeSec:  t.retrievalTime.Seconds(),
		SynthesisTimeSec:  t.synthesisTime.Seconds(),
	}
	if t.questionsAnswered > 0 {
		r.AvgRetrievalSec = r.RetrievalTimeSec / float64(t.questionsAnswered)
		r.AvgSynthesisSec = r.SynthesisTimeSec / float64(t.questionsAnswered)
	}
	return r
}

// Reset zeroes every counter and restarts the clock.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = t.now()
	t.documentsIngested = 0
	t.pagesProcessed = 0
	t.chunksIndexed = 0
	t.questionsAnswered = 0
	t.embeddingTokens = 0
	t.answerTokens = 0
	t.ingestTime = 0
	t.retrievalTime = 0
	t.synthesisTime = 0
}
