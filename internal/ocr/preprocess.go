package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Preprocessing parameters tuned for scanned manual pages.
const (
	denoiseSigma  = 0.8
	claheTiles    = 8
	claheClipFrac = 2.0
)

// Preprocess prepares a rasterized page for recognition: single-channel
// grayscale, denoise, then contrast enhancement. Denoising must run before
// contrast enhancement so the equalization does not amplify noise.
func Preprocess(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	denoised := imaging.Blur(gray, denoiseSigma)
	return equalizeAdaptive(toGray(denoised), claheTiles, claheClipFrac)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma weights.
			lum := (299*r + 587*g + 114*bl) / 1000
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return out
}

// equalizeAdaptive applies contrast-limited adaptive histogram equalization:
// the image is divided into a tiles×tiles grid, each tile gets a clipped
// equalization mapping, and pixels are remapped by bilinear interpolation of
// the four surrounding tile mappings.
func equalizeAdaptive(img *image.Gray, tiles int, clipLimit float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}
	if tiles < 1 {
		tiles = 1
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// Per-tile clipped-CDF lookup tables.
	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)
			luts[ty*tiles+tx] = tileLUT(img, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		// Vertical position relative to tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := clampInt(int(fy), 0, tiles-1)
		ty1 := clampInt(ty0+1, 0, tiles-1)
		wy := fy - float64(ty0)
		if wy < 0 {
			wy = 0
		} else if wy > 1 {
			wy = 1
		}

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := clampInt(int(fx), 0, tiles-1)
			tx1 := clampInt(tx0+1, 0, tiles-1)
			wx := fx - float64(tx0)
			if wx < 0 {
				wx = 0
			} else if wx > 1 {
				wx = 1
			}

			v := img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			v00 := float64(luts[ty0*tiles+tx0][v])
			v01 := float64(luts[ty0*tiles+tx1][v])
			v10 := float64(luts[ty1*tiles+tx0][v])
			v11 := float64(luts[ty1*tiles+tx1][v])

			top := v00*(1-wx) + v01*wx
			bottom := v10*(1-wx) + v11*wx
			out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: uint8(top*(1-wy) + bottom*wy + 0.5)})
		}
	}
	return out
}

// tileLUT builds the clip-limited equalization mapping for one tile. Histogram
// mass above clipLimit× the uniform bin height is redistributed evenly, which
// bounds local contrast amplification.
func tileLUT(img *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	total := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[img.GrayAt(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).Y]++
			total++
		}
	}

	var lut [256]uint8
	if total == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	clip := int(clipLimit * float64(total) / 256.0)
	if clip < 1 {
		clip = 1
	}

	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	clipped := 0
	for i := range hist {
		hist[i] += share
		clipped += hist[i]
	}

	cum := 0
	// Normalize against the post-clip mass so redistribution rounding does
	// not compress the output range.
	scale := 255.0 / float64(clipped)
	for i := range hist {
		cum += hist[i]
		lut[i] = uint8(clampInt(int(float64(cum)*scale+0.5), 0, 255))
	}
	return lut
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
