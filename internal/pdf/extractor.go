package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/chunker"
	"github.com/calyptra/docqa/internal/domain"
)

// Recognizer recovers text from a PNG-encoded page raster. It never fails:
// unreadable input yields an empty string.
type Recognizer interface {
	Recognize(pngData []byte) string
}

// pageSource is the per-page access surface of Loader, split out so the page
// pipeline can be exercised without a real PDF on disk.
type pageSource interface {
	Text(page int) (string, error)
	Rasterize(page, dpi int) ([]byte, error)
}

// Config controls the per-page extraction pipeline.
type Config struct {
	DPI             int
	OCREnabled      bool
	ImageExtraction bool
	PageWorkers     int
}

// Extractor turns a PDF file into a fully extracted Document. Pages are
// processed by a bounded worker pool; each page is independent of every
// other.
type Extractor struct {
	chunker *chunker.Chunker
	ocr     Recognizer
	cfg     Config
	logger  *zap.Logger
}

// NewExtractor wires the extraction pipeline. ocr may be nil when recognition
// is disabled.
func NewExtractor(ch *chunker.Chunker, ocr Recognizer, cfg Config, logger *zap.Logger) *Extractor {
	if cfg.PageWorkers <= 0 {
		cfg.PageWorkers = 1
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{chunker: ch, ocr: ocr, cfg: cfg, logger: logger}
}

// DocName derives the document name from the source file path.
func DocName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ProcessFile extracts every page of a PDF. A malformed file fails the whole
// document; page-level extraction errors degrade that page only.
func (e *Extractor) ProcessFile(ctx context.Context, path string) (domain.Document, error) {
	probe, err := Open(path)
	if err != nil {
		return domain.Document{}, err
	}
	numPages := probe.NumPages()
	if cerr := probe.Close(); cerr != nil {
		e.logger.Warn("close pdf probe", zap.Error(cerr))
	}

	docName := DocName(path)
	pages := make([]domain.Page, numPages)

	workers := e.cfg.PageWorkers
	if workers > numPages {
		workers = numPages
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// One loader per worker: the underlying document handle is not
			// goroutine-safe.
			loader, err := Open(path)
			if err != nil {
				e.logger.Error("open pdf in worker", zap.String("path", path), zap.Error(err))
				for range jobs {
					// drain
				}
				return
			}
			defer loader.Close()

			for pageNum := range jobs {
				// Each worker writes only its own page slot.
				pages[pageNum] = e.processPage(loader, path, docName, pageNum)
			}
		}()
	}

	for pageNum := 0; pageNum < numPages; pageNum++ {
		jobs <- pageNum
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Document{}, fmt.Errorf("extract %s: %w", docName, err)
	}

	return domain.Document{Name: docName, Pages: pages}, nil
}

// processPage runs one page through the full extraction pass: rasterize,
// embedded images, native text, OCR fallback. The returned page is complete
// and never mutated again.
func (e *Extractor) processPage(loader pageSource, path, docName string, pageNum int) domain.Page {
	page := domain.Page{
		Number:     pageNum,
		TextSource: domain.TextSourceNone,
	}

	// Rasterization failure is non-fatal: the page keeps no stored image and
	// OCR recovery is skipped (it requires the raster).
	raster, err := loader.Rasterize(pageNum, e.cfg.DPI)
	if err != nil {
		e.logger.Warn("rasterize page failed",
			zap.String("doc", docName), zap.Int("page", pageNum), zap.Error(err))
	} else {
		page.PageImage = raster
	}

	if e.cfg.ImageExtraction {
		page.Images = ExtractEmbeddedImages(path, pageNum, e.logger)
		page.HasImages = len(page.Images) > 0
	}

	text, err := loader.Text(pageNum)
	if err != nil {
		e.logger.Warn("native text extraction failed",
			zap.String("doc", docName), zap.Int("page", pageNum), zap.Error(err))
		text = ""
	}

	if strings.TrimSpace(text) != "" {
		page.TextSource = domain.TextSourceNative
		page.Chunks = e.chunker.Split(text, docName, pageNum)
		return page
	}

	// OCR runs only when native extraction yielded nothing, the raster
	// exists, and recognition is enabled.
	if e.cfg.OCREnabled && e.ocr != nil && page.PageImage != nil {
		ocrText := e.ocr.Recognize(page.PageImage)
		if strings.TrimSpace(ocrText) != "" {
			page.TextSource = domain.TextSourceOCR
			page.Chunks = e.chunker.Split(ocrText, docName, pageNum)
			e.logger.Info("ocr recovered page text",
				zap.String("doc", docName), zap.Int("page", pageNum),
				zap.Int("words", len(strings.Fields(ocrText))))
		}
	}

	return page
}
