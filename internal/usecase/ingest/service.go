// Package ingest drives the ingestion pipeline: PDF extraction, batched
// embedding, and index writes, one collection per run.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
	"github.com/calyptra/docqa/internal/index"
	"github.com/calyptra/docqa/internal/metrics"
)

// embedBatchSize bounds texts per embedding API call.
const embedBatchSize = 64

// Service ingests PDF files into an index collection.
type Service struct {
	extractor Extractor
	embedder  Embedder
	store     Indexer
	images    ImageStore
	usage     Recorder
	logger    *zap.Logger
}

// New creates an ingest service. embedder may be nil: records are then stored
// without vectors and retrieval falls back to lexical ranking. images may be
// nil to disable page raster retention.
func New(extractor Extractor, embedder Embedder, store Indexer, images ImageStore, usage Recorder, logger *zap.Logger) *Service {
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		images:    images,
		usage:     usage,
		logger:    logger,
	}
}

// FileResult reports the outcome of one file within a folder run.
type FileResult struct {
	Path   string
	Pages  int
	Chunks int
	Err    error
}

// Result summarizes an ingestion run.
type Result struct {
	Collection string
	Files      []FileResult
	Stats      domain.Stats
	Duration   time.Duration
}

// IngestFile processes a single PDF and indexes its content.
func (s *Service) IngestFile(ctx context.Context, path, collection string) (Result, error) {
	start := time.Now()

	doc, chunks, err := s.ingestOne(ctx, path, collection)
	if err != nil {
		return Result{}, err
	}

	var stats domain.Stats
	stats.Collect(doc)

	res := Result{
		Collection: collection,
		Files: []FileResult{{
			Path:   path,
			Pages:  len(doc.Pages),
			Chunks: chunks,
		}},
		Stats:    stats,
		Duration: time.Since(start),
	}
	s.usage.RecordIngest(stats, res.Duration)
	return res, nil
}

// IngestFolder recursively discovers *.pdf files under dir and ingests each
// into the collection. A failing file is reported and skipped; cancellation is
// honored between documents, not mid-page.
func (s *Service) IngestFolder(ctx context.Context, dir, collection string) (Result, error) {
	start := time.Now()

	paths, err := discoverPDFs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("discover pdfs in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("%w: no pdf files under %s", domain.ErrNotFound, dir)
	}

	res := Result{Collection: collection}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("ingest folder %s: %w", dir, err)
		}

		doc, chunks, err := s.ingestOne(ctx, path, collection)
		if err != nil {
			s.logger.Error("ingest file failed",
				zap.String("path", path), zap.Error(err))
			res.Files = append(res.Files, FileResult{Path: path, Err: err})
			continue
		}

		res.Stats.Collect(doc)
		res.Files = append(res.Files, FileResult{
			Path:   path,
			Pages:  len(doc.Pages),
			Chunks: chunks,
		})
	}

	res.Duration = time.Since(start)
	s.usage.RecordIngest(res.Stats, res.Duration)
	return res, nil
}

// ingestOne extracts one document, embeds its records, and writes them to the
// index. Returns the extracted document and the number of indexed records.
func (s *Service) ingestOne(ctx context.Context, path, collection string) (domain.Document, int, error) {
	doc, err := s.extractor.ProcessFile(ctx, path)
	if err != nil {
		return domain.Document{}, 0, fmt.Errorf("extract %s: %w", path, err)
	}

	entries := buildEntries(doc)
	if len(entries) == 0 {
		s.logger.Warn("document produced no indexable content", zap.String("doc", doc.Name))
		return doc, 0, nil
	}

	if s.embedder != nil {
		if err := s.embedEntries(ctx, entries); err != nil {
			return domain.Document{}, 0, fmt.Errorf("embed %s: %w", doc.Name, err)
		}
	}

	if err := s.store.Add(ctx, collection, entries); err != nil {
		return domain.Document{}, 0, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	if s.images != nil {
		for _, page := range doc.Pages {
			if page.PageImage != nil {
				s.images.Put(collection, domain.PageImageID(doc.Name, page.Number), page.PageImage)
			}
		}
	}

	metrics.DocumentsIngestedTotal.Inc()
	metrics.ChunksIndexedTotal.Add(float64(len(entries)))
	for _, page := range doc.Pages {
		metrics.PagesProcessedTotal.WithLabelValues(string(page.TextSource)).Inc()
	}

	s.logger.Info("document ingested",
		zap.String("doc", doc.Name),
		zap.String("collection", collection),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("records", len(entries)),
	)
	return doc, len(entries), nil
}

// embedEntries fills entry vectors via batched embedding calls.
func (s *Service) embedEntries(ctx context.Context, entries []index.Entry) error {
	for lo := 0; lo < len(entries); lo += embedBatchSize {
		hi := lo + embedBatchSize
		if hi > len(entries) {
			hi = len(entries)
		}

		texts := make([]string, 0, hi-lo)
		for _, e := range entries[lo:hi] {
			texts = append(texts, e.Text)
		}

		result, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return err
		}
		if len(result.Embeddings) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts",
				domain.ErrEmbeddingProviderError, len(result.Embeddings), len(texts))
		}

		for i := range result.Embeddings {
			entries[lo+i].Vector = result.Embeddings[i]
		}
		s.usage.AddEmbeddingTokens(result.TotalTokens)
	}
	return nil
}

// buildEntries converts an extracted document into index records: one per
// text chunk plus one placeholder per page that kept a rasterization.
func buildEntries(doc domain.Document) []index.Entry {
	var entries []index.Entry

	for _, page := range doc.Pages {
		for _, c := range page.Chunks {
			entries = append(entries, index.Entry{
				ID:   c.ID,
				Text: c.Text,
				Metadata: index.Metadata{
					DocName:     c.DocName,
					PageNum:     c.PageNum,
					ChunkIndex:  c.ChunkIndex,
					WordCount:   c.WordCount,
					TokenCount:  c.TokenCount,
					ContentType: domain.ContentTypeText,
					HasImages:   page.HasImages,
					ImageCount:  len(page.Images),
				},
			})
		}

		if page.PageImage != nil {
			placeholder := domain.PageImagePlaceholder(doc.Name, page.Number)
			entries = append(entries, index.Entry{
				ID:   domain.PageImageID(doc.Name, page.Number),
				Text: placeholder,
				Metadata: index.Metadata{
					DocName:     doc.Name,
					PageNum:     page.Number,
					WordCount:   len(strings.Fields(placeholder)),
					TokenCount:  domain.EstimateTokens(placeholder),
					ContentType: domain.ContentTypePageImage,
					HasImages:   page.HasImages,
					ImageCount:  len(page.Images),
				},
			})
		}
	}

	return entries
}

// discoverPDFs walks dir recursively and returns sorted *.pdf paths.
func discoverPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
