// Package ocr recovers text from rasterized page images via Tesseract.
// Recognition never fails loudly: unreadable input degrades to an empty
// string so a page falls back to the no-text state instead of aborting
// ingestion.
package ocr

import (
	"bytes"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// DefaultLanguage is the Tesseract language code used when none is configured.
const DefaultLanguage = "eng"

// charWhitelist restricts recognition to the character set of technical
// manuals: alphanumerics plus common punctuation, brackets, and operators.
const charWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	".,;:!?()[]{}\"'-_+=<>/\\|@#$%^&*~`"

// Engine runs Tesseract over preprocessed page rasters.
type Engine struct {
	language string
	logger   *zap.Logger
}

// NewEngine creates an OCR engine for the given language code.
func NewEngine(language string, logger *zap.Logger) *Engine {
	if language == "" {
		language = DefaultLanguage
	}
	return &Engine{language: language, logger: logger}
}

// Recognize decodes a PNG page raster, preprocesses it, and returns the
// recognized text. Any failure along the way yields an empty string.
func (e *Engine) Recognize(pngData []byte) string {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		e.logger.Warn("ocr: decode raster failed", zap.Error(err))
		return ""
	}

	prepared := Preprocess(img)

	encoded, err := encodePNG(prepared)
	if err != nil {
		e.logger.Warn("ocr: encode preprocessed image failed", zap.Error(err))
		return ""
	}

	// A fresh client per page keeps recognition state isolated across the
	// page worker pool.
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		e.logger.Warn("ocr: set language failed", zap.String("language", e.language), zap.Error(err))
		return ""
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		e.logger.Warn("ocr: set page segmentation mode failed", zap.Error(err))
		return ""
	}
	if err := client.SetWhitelist(charWhitelist); err != nil {
		e.logger.Warn("ocr: set whitelist failed", zap.Error(err))
		return ""
	}
	if err := client.SetImageFromBytes(encoded); err != nil {
		e.logger.Warn("ocr: set image failed", zap.Error(err))
		return ""
	}

	text, err := client.Text()
	if err != nil {
		e.logger.Warn("ocr: recognition failed", zap.Error(err))
		return ""
	}
	return text
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
