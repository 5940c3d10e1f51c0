// Package pdf turns PDF files into fully extracted documents: native page
// text, page rasterization, OCR recovery, and embedded image extraction.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// Loader opens a PDF and exposes page count, per-page native text, and
// per-page rasterization. Not safe for concurrent use; the extractor opens
// one loader per worker.
type Loader struct {
	doc  *fitz.Document
	path string
}

// Open opens a PDF file. A malformed file fails here and aborts ingestion of
// this file only.
func Open(path string) (*Loader, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Loader{doc: doc, path: path}, nil
}

// NumPages returns the page count.
func (l *Loader) NumPages() int {
	return l.doc.NumPage()
}

// Text extracts native (non-rastered) text from a page. May legitimately be
// empty for scanned pages.
func (l *Loader) Text(page int) (string, error) {
	text, err := l.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("extract text from page %d: %w", page, err)
	}
	return text, nil
}

// Rasterize renders a page to a PNG-encoded raster at the given DPI.
func (l *Loader) Rasterize(page, dpi int) ([]byte, error) {
	img, err := l.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d at %d dpi: %w", page, dpi, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d raster: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Close releases the underlying document.
func (l *Loader) Close() error {
	return l.doc.Close()
}
