// Package chi exposes the service over HTTP: ingestion, retrieval, question
// answering, and collection management, plus health/info/stats/metrics.
package chi

import (
	"context"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/usecase/ingest"
	"github.com/calyptra/docqa/internal/usecase/usage"
)

// Ingestor runs the ingestion pipeline.
type Ingestor interface {
	IngestFile(ctx context.Context, path, collection string) (ingest.Result, error)
	IngestFolder(ctx context.Context, dir, collection string) (ingest.Result, error)
}

// Asker answers questions and retrieves context.
type Asker interface {
	Ask(ctx context.Context, collection, question string, topK int) (domain.Answer, error)
	Context(ctx context.Context, collection, question string, topK int) ([]domain.ContextItem, error)
	Strategy() string
}

// CollectionStore is the collection-management slice of the index contract.
type CollectionStore interface {
	ListCollections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int, error)
}

// UsageReporter snapshots and resets service usage counters.
type UsageReporter interface {
	Snapshot() usage.Report
	Reset()
}

// ImageReader serves retained page rasters. nil disables the image endpoint.
type ImageReader interface {
	Get(collection, id string) ([]byte, bool)
	DropCollection(collection string)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Info describes the running service for GET /info.
type Info struct {
	Service           string `json:"service"`
	Version           string `json:"version"`
	Strategy          string `json:"retrieval_strategy"`
	StoreDriver       string `json:"store_driver"`
	EmbeddingModel    string `json:"embedding_model,omitempty"`
	LLMModel          string `json:"llm_model,omitempty"`
	DefaultTopK       int    `json:"default_top_k"`
	DefaultCollection string `json:"default_collection"`
}

// Server is the HTTP API surface.
type Server struct {
	ingest      Ingestor
	ask         Asker
	collections CollectionStore
	usage       UsageReporter
	images      ImageReader
	checks      map[string]HealthCheck
	info        Info
	logger      *zap.Logger
}

// NewServer creates the API server. checks may be nil.
func NewServer(
	ingestor Ingestor,
	asker Asker,
	collections CollectionStore,
	usageReporter UsageReporter,
	images ImageReader,
	checks map[string]HealthCheck,
	info Info,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:      ingestor,
		ask:         asker,
		collections: collections,
		usage:       usageReporter,
		images:      images,
		checks:      checks,
		info:        info,
		logger:      logger,
	}
}

// Routes registers every endpoint on a fresh router. Middleware (auth,
// metrics, logging) is applied by the caller.
func (s *Server) Routes() chirouter.Router {
	r := chirouter.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	r.Get("/info", s.handleInfo)
	r.Get("/stats", s.handleStats)
	r.Post("/stats/reset", s.handleStatsReset)

	r.Post("/ingest", s.handleIngest)
	r.Post("/context", s.handleContext)
	r.Post("/query", s.handleQuery)

	r.Get("/collections", s.handleListCollections)
	r.Get("/collections/{name}/stats", s.handleCollectionStats)
	r.Delete("/collections/{name}", s.handleDeleteCollection)
	r.Get("/collections/{name}/images/{id}", s.handleGetImage)

	return r
}
