package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	ltpdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/calyptra/docqa/internal/domain"
)

// ExtractEmbeddedImages walks a page's XObject resources and extracts raster
// images with a grayscale or RGB color representation. Images in other color
// spaces (CMYK, ICC, indexed) are skipped. Each image is independently
// fallible: one failure never aborts the rest of the page.
func ExtractEmbeddedImages(path string, pageNum int, logger *zap.Logger) (images []domain.Image) {
	// The pdf library panics on malformed cross-reference tables; treat that
	// as a page with no extractable images.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("embedded images: page walk failed",
				zap.String("path", path), zap.Int("page", pageNum), zap.Any("reason", r))
		}
	}()

	f, reader, err := ltpdf.Open(path)
	if err != nil {
		logger.Warn("embedded images: open pdf failed",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	// ledongthuc/pdf pages are 1-based.
	page := reader.Page(pageNum + 1)
	if page.V.Kind() == ltpdf.Null {
		return nil
	}

	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.Kind() != ltpdf.Dict {
		return nil
	}

	index := 0
	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Kind() != ltpdf.Stream || obj.Key("Subtype").Name() != "Image" {
			continue
		}

		img, ok := extractOne(obj, index, logger)
		index++
		if !ok {
			continue
		}
		images = append(images, img)
	}
	return images
}

// extractOne converts a single image XObject into PNG pixel data. The object
// walk can panic inside the pdf library on unsupported stream filters, so the
// whole extraction is recovered into a skip.
func extractOne(obj ltpdf.Value, index int, logger *zap.Logger) (img domain.Image, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("embedded images: extraction failed",
				zap.Int("image_index", index), zap.Any("reason", r))
			ok = false
		}
	}()

	width := int(obj.Key("Width").Int64())
	height := int(obj.Key("Height").Int64())
	if width <= 0 || height <= 0 {
		return domain.Image{}, false
	}

	channels, supported := channelCount(obj.Key("ColorSpace"))
	if !supported {
		return domain.Image{}, false
	}
	if bpc := obj.Key("BitsPerComponent").Int64(); bpc != 8 {
		return domain.Image{}, false
	}

	raw, err := io.ReadAll(obj.Reader())
	if err != nil || len(raw) < width*height*channels {
		return domain.Image{}, false
	}

	encoded, err := encodeRawSamples(raw, width, height, channels)
	if err != nil {
		logger.Warn("embedded images: encode failed",
			zap.Int("image_index", index), zap.Error(err))
		return domain.Image{}, false
	}

	return domain.Image{
		Index:    index,
		Data:     encoded,
		Width:    width,
		Height:   height,
		Channels: channels,
	}, true
}

// channelCount maps a ColorSpace entry to a sample channel count. Only
// DeviceGray and DeviceRGB are extractable without color conversion.
func channelCount(cs ltpdf.Value) (int, bool) {
	switch cs.Name() {
	case "DeviceGray", "CalGray":
		return 1, true
	case "DeviceRGB", "CalRGB":
		return 3, true
	default:
		return 0, false
	}
}

// encodeRawSamples packs decoded 8-bit samples into a PNG.
func encodeRawSamples(raw []byte, width, height, channels int) ([]byte, error) {
	var out image.Image
	switch channels {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(gray.Pix[y*gray.Stride:], raw[y*width:(y+1)*width])
		}
		out = gray
	default:
		rgba := image.NewNRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				off := (y*width + x) * 3
				rgba.SetNRGBA(x, y, color.NRGBA{
					R: raw[off], G: raw[off+1], B: raw[off+2], A: 255,
				})
			}
		}
		out = rgba
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
