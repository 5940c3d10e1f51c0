package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and question-answering pipeline metrics.
var (
	DocumentsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "documents_ingested_total",
			Help:      "Total number of documents ingested",
		},
	)

	PagesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "pages_processed_total",
			Help:      "Total number of pages processed, by text source",
		},
		[]string{"text_source"}, // "native" / "ocr" / "none"
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "chunks_indexed_total",
			Help:      "Total number of chunks written to the index",
		},
	)

	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "questions_total",
			Help:      "Total questions answered, by retrieval strategy",
		},
		[]string{"strategy"},
	)

	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "retrieval_duration_seconds",
			Help:      "Context retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SynthesisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "synthesis_duration_seconds",
			Help:      "Answer synthesis duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsIngestedTotal)
	prometheus.MustRegister(PagesProcessedTotal)
	prometheus.MustRegister(ChunksIndexedTotal)
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(RetrievalDuration)
	prometheus.MustRegister(SynthesisDuration)
	pipelineMetricsRegistered = true
}
