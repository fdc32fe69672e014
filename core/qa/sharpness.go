// Package qa scores panel sharpness and applies the run-level quality policy.
//
// The metric is Laplacian variance: the variance of a 4-neighbour Laplacian
// over the Rec.601 luma of the image. Blurry panels have weak edge responses
// everywhere (low variance); detailed panels spread energy widely.
package qa

import "image"

// Tier buckets for a single panel's sharpness score.
type Tier string

const (
	TierTooSoft         Tier = "too_soft"
	TierAcceptable      Tier = "acceptable"
	TierGood            Tier = "good"
	TierOversharpenRisk Tier = "oversharpen_risk"
)

// Score thresholds (documented contract, not tunables).
const (
	TooSoftBelow    = 50.0  // tier boundary and per-panel/mean failure floor
	GoodFrom        = 100.0 // below this an individual panel draws a warning
	OversharpenFrom = 500.0 // at or above this a panel draws a warning
)

// AspectTolerance is the maximum allowed relative deviation of a panel's
// post-crop aspect ratio from the target before the run fails.
const AspectTolerance = 0.05

// Sharpness returns the Laplacian variance of img. Images with no interior
// (under 3x3) score zero.
func Sharpness(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	// Rec.601 luma plane.
	luma := make([]float64, w*h)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			luma[i] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			i++
		}
	}

	// 4-neighbour Laplacian over interior pixels, then population variance.
	n := (w - 2) * (h - 2)
	sum, sumSq := 0.0, 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := luma[y*w+x]
			v := luma[(y-1)*w+x] + luma[(y+1)*w+x] + luma[y*w+x-1] + luma[y*w+x+1] - 4*c
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// Classify maps a sharpness score to its tier.
func Classify(score float64) Tier {
	switch {
	case score < TooSoftBelow:
		return TierTooSoft
	case score < GoodFrom:
		return TierAcceptable
	case score < OversharpenFrom:
		return TierGood
	default:
		return TierOversharpenRisk
	}
}

// Warns reports whether an individual panel's score draws a review warning
// (soft but not failing, or oversharpen risk).
func Warns(score float64) bool {
	return score < GoodFrom || score >= OversharpenFrom
}
