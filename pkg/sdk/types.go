package docqa

import "time"

// IngestRequest names what to ingest. Path may be a single PDF or a folder;
// folders are walked recursively. An empty Collection uses the server default.
type IngestRequest struct {
	Path       string `json:"path"`
	Collection string `json:"collection,omitempty"`
}

// FileResult reports the outcome of one file within an ingestion run.
type FileResult struct {
	Path   string `json:"path"`
	Pages  int    `json:"pages"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// Stats summarizes the content of an ingestion run.
type Stats struct {
	TotalPages        int `json:"total_pages"`
	TotalChunks       int `json:"total_chunks"`
	TotalWords        int `json:"total_words"`
	TotalTokens       int `json:"total_tokens"`
	PagesWithText     int `json:"pages_with_text"`
	PagesWithImages   int `json:"pages_with_images"`
	TotalImages       int `json:"total_images"`
	DocumentsIngested int `json:"documents_ingested"`
}

// IngestResult is the response to an ingestion request.
type IngestResult struct {
	Collection  string       `json:"collection"`
	Files       []FileResult `json:"files"`
	Stats       Stats        `json:"stats"`
	DurationSec float64      `json:"duration_sec"`
}

// QueryRequest asks a question against a collection. Zero values fall back
// to the server defaults.
type QueryRequest struct {
	Question      string `json:"question"`
	Collection    string `json:"collection,omitempty"`
	TopK          int    `json:"top_k,omitempty"`
	IncludeImages bool   `json:"include_images,omitempty"`
}

// Source is the provenance of one answer contribution.
type Source struct {
	DocName    string  `json:"doc_name"`
	PageNum    int     `json:"page_num"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"relevance_score"`
}

// ContextItem is one retrieved piece of context.
type ContextItem struct {
	ContentType  string  `json:"content_type"`
	Text         string  `json:"text"`
	DocName      string  `json:"doc_name"`
	PageNum      int     `json:"page_num"`
	ChunkIndex   int     `json:"chunk_index"`
	Score        float64 `json:"relevance_score"`
	WordCount    int     `json:"word_count"`
	HasImages    bool    `json:"has_images"`
	PageImageB64 string  `json:"page_image_b64,omitempty"`
}

// Timing breaks an answer down into its phases.
type Timing struct {
	RetrievalSec float64 `json:"retrieval_sec"`
	SynthesisSec float64 `json:"synthesis_sec"`
	TotalSec     float64 `json:"total_sec"`
}

// Answer is the response to a question.
type Answer struct {
	Question    string        `json:"question"`
	Answer      string        `json:"answer"`
	Sources     []Source      `json:"sources"`
	Context     []ContextItem `json:"context"`
	TotalTokens int           `json:"total_tokens"`
	Timing      Timing        `json:"timing"`
}

// ContextResult is the response to a context-only retrieval.
type ContextResult struct {
	Question string        `json:"question"`
	Context  []ContextItem `json:"context"`
	Count    int           `json:"count"`
}

// Collection describes one named collection.
type Collection struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UsageReport is the service usage snapshot.
type UsageReport struct {
	StartedAt         time.Time `json:"started_at"`
	UptimeSec         float64   `json:"uptime_sec"`
	DocumentsIngested int       `json:"documents_ingested"`
	PagesProcessed    int       `json:"pages_processed"`
	ChunksIndexed     int       `json:"chunks_indexed"`
	QuestionsAnswered int       `json:"questions_answered"`
	EmbeddingTokens   int       `json:"embedding_tokens"`
	AnswerTokens      int       `json:"answer_tokens"`
	IngestTimeSec     float64   `json:"ingest_time_sec"`
	RetrievalTimeSec  float64   `json:"retrieval_time_sec"`
	SynthesisTimeSec  float64   `json:"synthesis_time_sec"`
	AvgRetrievalSec   float64   `json:"avg_retrieval_sec"`
	AvgSynthesisSec   float64   `json:"avg_synthesis_sec"`
}

// ServiceStats combines the usage snapshot with per-collection counts.
type ServiceStats struct {
	Usage       UsageReport  `json:"usage"`
	Collections []Collection `json:"collections"`
}

// ServiceInfo describes the running service.
type ServiceInfo struct {
	Service           string `json:"service"`
	Version           string `json:"version"`
	Strategy          string `json:"retrieval_strategy"`
	StoreDriver       string `json:"store_driver"`
	EmbeddingModel    string `json:"embedding_model,omitempty"`
	LLMModel          string `json:"llm_model,omitempty"`
	DefaultTopK       int    `json:"default_top_k"`
	DefaultCollection string `json:"default_collection"`
}

// Health reports overall service health and per-dependency checks.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
