package ocr

import (
	"image"
	"image/color"
	"testing"
)

func flatImage(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

func TestEqualizeAdaptive_PreservesDimensions(t *testing.T) {
	img := flatImage(64, 48, 128)
	out := equalizeAdaptive(img, 8, 2.0)

	if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
}

func TestEqualizeAdaptive_StretchesLowContrast(t *testing.T) {
	// Two narrow bands around mid-gray; equalization must widen the spread.
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(120)
			if (x+y)%2 == 0 {
				v = 136
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	out := equalizeAdaptive(img, 2, 4.0)

	minV, maxV := uint8(255), uint8(0)
	for _, p := range out.Pix {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	if int(maxV)-int(minV) <= 16 {
		t.Errorf("expected contrast stretch beyond input spread of 16, got [%d, %d]", minV, maxV)
	}
}

func TestEqualizeAdaptive_EmptyImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 0, 0))
	out := equalizeAdaptive(img, 8, 2.0)
	if out.Bounds().Dx() != 0 || out.Bounds().Dy() != 0 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
}

func TestToGray_ConvertsColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.NRGBA{A: 255})

	gray := toGray(img)
	if got := gray.GrayAt(0, 0).Y; got < 250 {
		t.Errorf("white pixel converted to %d", got)
	}
	if got := gray.GrayAt(1, 0).Y; got > 5 {
		t.Errorf("black pixel converted to %d", got)
	}
}

func TestPreprocess_ProducesGray(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 100, A: 255})
		}
	}

	out := Preprocess(img)
	if out == nil {
		t.Fatal("Preprocess returned nil")
	}
	if out.Bounds().Dx() != 16 || out.Bounds().Dy() != 16 {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
}
