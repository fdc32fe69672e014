// Package engine promotes single panels: slice from the master grid,
// normalize to the target aspect ratio, derive the seed, score sharpness.
// It is domain-only and never touches the filesystem; keep it that way so
// panels can be promoted concurrently against one shared master image.
package engine

import (
	"fmt"
	"image"
	"image/draw"

	"promotion-core/cropper"
	"promotion-core/grid"
	"promotion-core/qa"
	"promotion-core/seed"
)

// Config holds the per-run parameters shared by every panel.
type Config struct {
	Spec        grid.Spec
	GlobalSeed  int64
	TargetRatio float64 // width/height of promoted panels
}

// Panel is one unit of promotion work.
type Panel struct {
	ID              string
	Pos             grid.Position
	PromptExtension string
}

// Outcome is the result of promoting one panel.
type Outcome struct {
	PanelID     string
	Bounds      grid.Bounds
	Image       *image.RGBA // cropped, promoted pixels
	Seed        int64
	Sharpness   float64
	Tier        qa.Tier
	AspectRatio float64 // post-crop width/height
	AspectDev   float64 // relative deviation from TargetRatio
}

// Engine promotes panels of one master grid image.
type Engine struct {
	cfg Config
}

// New creates an Engine. TargetRatio must be positive.
func New(cfg Config) (*Engine, error) {
	if cfg.TargetRatio <= 0 {
		return nil, fmt.Errorf("target aspect ratio must be positive, got %g", cfg.TargetRatio)
	}
	if cfg.Spec.Cols < 1 || cfg.Spec.Rows < 1 {
		return nil, fmt.Errorf("grid spec %s has non-positive dimensions", cfg.Spec)
	}
	return &Engine{cfg: cfg}, nil
}

// Promote runs the slice -> crop -> seed -> score pipeline for one panel.
// master is read-only; Promote is safe to call from multiple goroutines.
func (e *Engine) Promote(master image.Image, p Panel) (Outcome, error) {
	mb := master.Bounds()
	bounds, err := grid.PanelBounds(p.Pos, e.cfg.Spec, mb.Dx(), mb.Dy())
	if err != nil {
		return Outcome{}, fmt.Errorf("panel %s: %w", p.ID, err)
	}
	if bounds.Width() < 1 || bounds.Height() < 1 {
		return Outcome{}, fmt.Errorf("panel %s: degenerate slice %dx%d", p.ID, bounds.Width(), bounds.Height())
	}

	sliced := slice(master, bounds)
	cropped, err := cropper.CenterFill(sliced, e.cfg.TargetRatio)
	if err != nil {
		return Outcome{}, fmt.Errorf("panel %s: %w", p.ID, err)
	}

	ratio := cropper.Ratio(cropped)
	dev := (ratio - e.cfg.TargetRatio) / e.cfg.TargetRatio
	if dev < 0 {
		dev = -dev
	}

	score := qa.Sharpness(cropped)
	return Outcome{
		PanelID:     p.ID,
		Bounds:      bounds,
		Image:       cropped,
		Seed:        seed.Derive(e.cfg.GlobalSeed, p.ID),
		Sharpness:   score,
		Tier:        qa.Classify(score),
		AspectRatio: ratio,
		AspectDev:   dev,
	}, nil
}

// slice copies the bounds region of master into a fresh RGBA so the outcome
// never aliases the shared master pixels.
func slice(master image.Image, b grid.Bounds) *image.RGBA {
	mb := master.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Width(), b.Height()))
	draw.Draw(out, out.Bounds(), master, image.Pt(mb.Min.X+b.Left, mb.Min.Y+b.Top), draw.Src)
	return out
}
