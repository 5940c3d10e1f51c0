package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/answer"
	"github.com/calyptra/docqa/internal/chunker"
	"github.com/calyptra/docqa/internal/config"
	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
	memIndex "github.com/calyptra/docqa/internal/index/memory"
	redisIndex "github.com/calyptra/docqa/internal/index/redis"
	logpkg "github.com/calyptra/docqa/internal/logger"
	"github.com/calyptra/docqa/internal/metrics"
	"github.com/calyptra/docqa/internal/ocr"
	"github.com/calyptra/docqa/internal/pdf"
	"github.com/calyptra/docqa/internal/retrieval"
	chiTransport "github.com/calyptra/docqa/internal/transport/chi"
	openaiTransport "github.com/calyptra/docqa/internal/transport/openai"
	askuc "github.com/calyptra/docqa/internal/usecase/ask"
	ingestuc "github.com/calyptra/docqa/internal/usecase/ingest"
	usageuc "github.com/calyptra/docqa/internal/usecase/usage"
	"github.com/calyptra/docqa/internal/version"
)

// defaultCollection receives ingests and queries that name no collection.
const defaultCollection = "documents"

func main() {
	// Optional .env for local runs; real environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Database.Driver),
		zap.Bool("embedding_configured", cfg.Embedding.Configured()),
		zap.Bool("llm_configured", cfg.LLM.Configured()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()
	checks := map[string]chiTransport.HealthCheck{}

	// Vector store by driver. The lexical fallback needs a full-corpus scan,
	// which only the in-memory store offers.
	var store index.Store
	var memStore *memIndex.Store
	switch cfg.Database.Driver {
	case "redis":
		if !cfg.Embedding.Configured() {
			logger.Fatal("the redis driver requires an embedding provider; " +
				"lexical-only mode runs on the memory driver")
		}
		redisStore, err := redisIndex.NewStore(redisIndex.Config{
			Addrs:     cfg.Database.Addrs,
			Password:  cfg.Database.Password,
			KeyPrefix: cfg.Storage.KeyPrefix,
			VectorDim: cfg.Embedding.Dimensions,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis store not ready", zap.Error(err))
		}
		checks["store"] = redisStore.Ping
		store = redisStore
		logger.Info("Connected to redis store", zap.Strings("addrs", cfg.Database.Addrs))
	case "memory":
		memStore = memIndex.NewStore()
		store = memStore
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Database.Driver))
	}
	defer store.Close()

	// Embedding provider; absent in lexical-only mode.
	var embedder *openaiTransport.Embedder
	if cfg.Embedding.Configured() {
		embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
		checks["embedder"] = embedder.HealthCheck
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	// Retrieval strategy follows the embedder.
	var strategy retrieval.Strategy
	if embedder != nil {
		strategy = retrieval.NewEmbedding(embedder, store, logger)
	} else {
		strategy = retrieval.NewLexical(memStore, logger)
	}
	logger.Info("Retrieval strategy selected", zap.String("strategy", strategy.Name()))

	// Language model; absent means degraded answers. Assigning only a live
	// generator keeps the interface a clean nil otherwise.
	var generator domain.Generator
	if cfg.LLM.Configured() {
		generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Logger:  logger,
		})
	}
	synthesizer := answer.NewSynthesizer(
		generator,
		cfg.LLM.MaxTokens,
		time.Duration(cfg.LLM.TimeoutSec)*time.Second,
		logger,
	)

	// Extraction pipeline
	ch, err := chunker.New(cfg.Processing.ChunkSize, *cfg.Processing.ChunkOverlap)
	if err != nil {
		logger.Fatal("Failed to create chunker", zap.Error(err))
	}

	var recognizer pdf.Recognizer
	if *cfg.Processing.OCREnabled {
		recognizer = ocr.NewEngine(cfg.Processing.OCRLanguage, logger)
	}

	extractor := pdf.NewExtractor(ch, recognizer, pdf.Config{
		DPI:             cfg.Processing.DPI,
		OCREnabled:      *cfg.Processing.OCREnabled,
		ImageExtraction: *cfg.Processing.ImageExtractionEnabled,
		PageWorkers:     cfg.Processing.PageWorkers,
	}, logger)

	images := memIndex.NewImageCache(0)
	tracker := usageuc.NewTracker(time.Now)

	// Pass nil interface (not typed nil pointer!) when the embedder is absent.
	var ingestEmbedder ingestuc.Embedder
	if embedder != nil {
		ingestEmbedder = embedder
	}

	ingestSvc := ingestuc.New(extractor, ingestEmbedder, store, images, tracker, logger)
	askSvc := askuc.New(strategy, synthesizer, tracker, logger)

	server := chiTransport.NewServer(ingestSvc, askSvc, store, tracker, images, checks, chiTransport.Info{
		Service:           "docqa",
		Version:           version.Version,
		Strategy:          strategy.Name(),
		StoreDriver:       cfg.Database.Driver,
		EmbeddingModel:    cfg.Embedding.Model,
		LLMModel:          cfg.LLM.Model,
		DefaultTopK:       cfg.Retrieval.DefaultTopK,
		DefaultCollection: defaultCollection,
	}, logger)

	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
