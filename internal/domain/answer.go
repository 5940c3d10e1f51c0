package domain

import "time"

// ContextItem is one retrieved piece of content handed to answer synthesis,
// with the provenance needed to cite it back.
type ContextItem struct {
	ContentType ContentType
	Text        string
	DocName     string
	PageNum     int
	ChunkIndex  int
	Score       float64
	WordCount   int
	HasImages   bool
}

// Source cites one context item in an answer.
type Source struct {
	DocName    string  `json:"doc_name"`
	PageNum    int     `json:"page_num"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"relevance_score"`
}

// Timing records how long each phase of answering took. Retrieval and
// Synthesis are disjoint measured intervals; Total covers the whole request
// and may exceed their sum by assembly overhead.
type Timing struct {
	Retrieval time.Duration
	Synthesis time.Duration
	Total     time.Duration
}

// Answer is the result of answering a question against indexed documents.
type Answer struct {
	Text        string
	Sources     []Source
	Context     []ContextItem
	TotalTokens int
	Timing      Timing
}
