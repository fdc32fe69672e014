package cropper

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestCenterFill_RatioInvariant(t *testing.T) {
	cases := []struct {
		w, h   int
		target float64
	}{
		{300, 300, 16.0 / 9.0},
		{300, 300, 1.0},
		{640, 360, 16.0 / 9.0}, // already on target
		{360, 640, 16.0 / 9.0}, // too tall
		{1920, 400, 4.0 / 3.0}, // too wide
		{101, 97, 16.0 / 9.0},
	}
	for _, c := range cases {
		src := gradient(c.w, c.h)
		out, err := CenterFill(src, c.target)
		if err != nil {
			t.Errorf("CenterFill(%dx%d, %g): %v", c.w, c.h, c.target, err)
			continue
		}
		ow, oh := out.Bounds().Dx(), out.Bounds().Dy()
		if got := float64(ow) / float64(oh); math.Abs(got-c.target) >= RatioTolerance {
			t.Errorf("CenterFill(%dx%d, %g): ratio %g off target", c.w, c.h, c.target, got)
		}
		// Never upsample.
		if ow > c.w && c.w >= MinWidth {
			t.Errorf("CenterFill(%dx%d): output width %d exceeds source", c.w, c.h, ow)
		}
		if oh > c.h && c.h >= MinHeight {
			t.Errorf("CenterFill(%dx%d): output height %d exceeds source", c.w, c.h, oh)
		}
	}
}

func TestCenterFill_CropsCentered(t *testing.T) {
	// 300x300 to 3:1 target must keep the middle 300x100 band.
	src := gradient(300, 300)
	out, err := CenterFill(src, 3.0)
	if err != nil {
		t.Fatalf("CenterFill: %v", err)
	}
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 100 {
		t.Fatalf("got %dx%d, want 300x100", out.Bounds().Dx(), out.Bounds().Dy())
	}
	// Top-left of output corresponds to source pixel (0, 100).
	want := src.RGBAAt(0, 100)
	if got := out.RGBAAt(0, 0); got != want {
		t.Fatalf("output not centered: got %v, want %v", got, want)
	}
}

func TestCenterFill_PadsTinySources(t *testing.T) {
	src := gradient(10, 8)
	out, err := CenterFill(src, 16.0/9.0)
	if err != nil {
		t.Fatalf("CenterFill: %v", err)
	}
	if got := float64(out.Bounds().Dx()) / float64(out.Bounds().Dy()); math.Abs(got-16.0/9.0) >= RatioTolerance {
		t.Fatalf("padded crop ratio %g off target", got)
	}
	// The padded border is opaque black.
	if got := out.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Fatalf("corner = %v, want opaque black padding", got)
	}
}

func TestCenterFill_RejectsBadRatio(t *testing.T) {
	src := gradient(100, 100)
	for _, r := range []float64{0, -1.5} {
		if _, err := CenterFill(src, r); err == nil {
			t.Errorf("CenterFill(target=%g): expected error", r)
		}
	}
}
