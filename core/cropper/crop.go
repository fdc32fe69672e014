// Package cropper normalizes a panel to a target aspect ratio by center-fill
// cropping. It never stretches and never upsamples: the output is always a
// centered sub-rectangle of the (possibly black-padded) source.
package cropper

import (
	"fmt"
	"image"
	"image/draw"
	"math"
)

// Minimum viable source size. Anything smaller is padded with black borders
// up to this size before cropping so the crop never degenerates.
const (
	MinWidth  = 64
	MinHeight = 36
)

// RatioTolerance is the allowed deviation of the output ratio from the target.
const RatioTolerance = 0.01

// Ratio returns width/height of img.
func Ratio(img image.Image) float64 {
	b := img.Bounds()
	return float64(b.Dx()) / float64(b.Dy())
}

// CenterFill crops img to targetRatio (width/height), keeping the center.
// Sources wider than the target lose width; taller sources lose height.
// The result is a fresh RGBA copy that does not alias the source pixels.
func CenterFill(img image.Image, targetRatio float64) (*image.RGBA, error) {
	if targetRatio <= 0 {
		return nil, fmt.Errorf("target aspect ratio must be positive, got %g", targetRatio)
	}
	src := toRGBA(img)
	if src.Bounds().Dx() < MinWidth || src.Bounds().Dy() < MinHeight {
		src = padToMin(src)
	}
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()

	cropW, cropH := w, h
	if float64(w)/float64(h) > targetRatio {
		// Too wide: trim width, keep full height.
		cropW = int(math.Round(float64(h) * targetRatio))
		if cropW < 1 {
			cropW = 1
		}
		if cropW > w {
			cropW = w
		}
	} else {
		// Too tall (or exact): trim height, keep full width.
		cropH = int(math.Round(float64(w) / targetRatio))
		if cropH < 1 {
			cropH = 1
		}
		if cropH > h {
			cropH = h
		}
	}

	x0 := src.Bounds().Min.X + (w-cropW)/2
	y0 := src.Bounds().Min.Y + (h-cropH)/2
	out := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	draw.Draw(out, out.Bounds(), src, image.Pt(x0, y0), draw.Src)

	if got := float64(cropW) / float64(cropH); math.Abs(got-targetRatio) >= RatioTolerance {
		return nil, fmt.Errorf("crop of %dx%d missed target ratio %g (got %g)", w, h, targetRatio, got)
	}
	return out, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// padToMin centers src on an opaque black canvas of at least MinWidth x MinHeight.
func padToMin(src *image.RGBA) *image.RGBA {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	if w < MinWidth {
		w = MinWidth
	}
	if h < MinHeight {
		h = MinHeight
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)
	x0 := (w - src.Bounds().Dx()) / 2
	y0 := (h - src.Bounds().Dy()) / 2
	r := image.Rect(x0, y0, x0+src.Bounds().Dx(), y0+src.Bounds().Dy())
	draw.Draw(out, r, src, src.Bounds().Min, draw.Src)
	return out
}
