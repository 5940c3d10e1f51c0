package domain

import "fmt"

// TextSource identifies how a page's text was obtained. The three states are
// mutually exclusive: OCR runs only when native extraction yielded nothing.
type TextSource string

const (
	TextSourceNative TextSource = "native"
	TextSourceOCR    TextSource = "ocr"
	TextSourceNone   TextSource = "none"
)

// ContentType tags an indexed record as a text excerpt or a page-image placeholder.
type ContentType string

const (
	ContentTypeText      ContentType = "text"
	ContentTypePageImage ContentType = "page_image"
)

// Document is an ingested PDF: a name derived from the source file and an
// ordered sequence of pages. Write-once; re-ingestion supersedes, never patches.
type Document struct {
	Name  string
	Pages []Page
}

// Page is one fully extracted PDF page. It is constructed in a single
// extraction pass and never mutated afterwards.
type Page struct {
	Number     int // 0-based
	TextSource TextSource
	HasImages  bool
	PageImage  []byte // PNG-encoded rasterization; nil when rasterization failed
	Images     []Image
	Chunks     []Chunk
}

// HasText reports whether any text (native or OCR) was recovered for the page.
func (p Page) HasText() bool { return p.TextSource != TextSourceNone }

// Image is a raster image embedded inside a page (not the page rasterization).
type Image struct {
	Index    int
	Data     []byte // PNG-encoded
	Width    int
	Height   int
	Channels int
}

// Chunk is the atomic retrieval unit: a bounded, overlap-aware slice of a
// page's text.
type Chunk struct {
	ID          string
	Text        string
	DocName     string
	PageNum     int
	ChunkIndex  int
	WordCount   int
	TokenCount  int
	ContentType ContentType
}

// ChunkID builds the deterministic id for a text chunk. Ids are globally
// unique within an ingestion batch; the index rejects collisions.
func ChunkID(docName string, pageNum, chunkIndex int) string {
	return fmt.Sprintf("%s_page_%d_%d", docName, pageNum, chunkIndex)
}

// PageImageID builds the id for a page-image placeholder record.
func PageImageID(docName string, pageNum int) string {
	return fmt.Sprintf("%s_page_%d_image", docName, pageNum)
}

// PageImagePlaceholder is the text stored for an image-only index record.
func PageImagePlaceholder(docName string, pageNum int) string {
	return fmt.Sprintf("[PAGE_IMAGE] Page %d of %s", pageNum, docName)
}

// Stats summarizes an ingestion run across documents.
type Stats struct {
	TotalPages        int
	TotalChunks       int
	TotalWords        int
	TotalTokens       int
	PagesWithText     int
	PagesWithImages   int
	TotalImages       int
	DocumentsIngested int
}

// Collect accumulates one document into the stats.
func (s *Stats) Collect(doc Document) {
	s.DocumentsIngested++
	for _, p := range doc.Pages {
		s.TotalPages++
		if p.HasText() {
			s.PagesWithText++
		}
		if p.HasImages {
			s.PagesWithImages++
		}
		s.TotalImages += len(p.Images)
		for _, c := range p.Chunks {
			s.TotalChunks++
			s.TotalWords += c.WordCount
			s.TotalTokens += c.TokenCount
		}
	}
}
