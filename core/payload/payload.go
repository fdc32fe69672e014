// Package payload assembles refinement requests for external diffusion
// backends. Two wire schemas are supported; both carry identical logical
// values, so schema choice is purely a serialization decision. The builder
// performs no network I/O.
package payload

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Backend selects the request schema.
type Backend string

const (
	BackendComfyUI Backend = "comfyui"
	BackendA1111   Backend = "a1111"
)

// Suggested defaults for refinement parameters.
const (
	DefaultDenoisingStrength = 0.35
	DefaultCFGScale          = 7.5
	DefaultSteps             = 30
	DefaultSamplerName       = "euler_ancestral"
	DefaultScheduler         = "karras"
)

// PromptSuffix is appended to every refinement prompt.
const PromptSuffix = ", highly detailed, 8k"

// Params are the logical values shared by both schemas.
type Params struct {
	Prompt            string
	NegativePrompt    string
	Seed              int64
	DenoisingStrength float64
	CFGScale          float64
	Steps             int
	SamplerName       string
	Scheduler         string
	Model             string
	Width             int
	Height            int
}

// BuildPrompt composes the refinement prompt from the global style anchor
// and the panel's extension.
func BuildPrompt(styleAnchor, promptExtension string) string {
	base := strings.TrimSpace(strings.TrimSpace(styleAnchor) + " " + strings.TrimSpace(promptExtension))
	return base + PromptSuffix
}

// Request is one backend-specific refinement payload.
type Request interface {
	Backend() Backend
}

// ComfyUI is the ComfyUI-style request shape.
type ComfyUI struct {
	InputImage        string  `json:"input_image"`
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	DenoisingStrength float64 `json:"denoising_strength"`
	Seed              int64   `json:"seed"`
	CFGScale          float64 `json:"cfg_scale"`
	Steps             int     `json:"steps"`
	SamplerName       string  `json:"sampler_name"`
	Scheduler         string  `json:"scheduler"`
	Model             string  `json:"model"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

func (ComfyUI) Backend() Backend { return BackendComfyUI }

// Automatic1111 is the Automatic1111-style request shape.
type Automatic1111 struct {
	InitImages        []string `json:"init_images"`
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt"`
	DenoisingStrength float64  `json:"denoising_strength"`
	Seed              int64    `json:"seed"`
	CFGScale          float64  `json:"cfg_scale"`
	Steps             int      `json:"steps"`
	SamplerIndex      string   `json:"sampler_index"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	RestoreFaces      bool     `json:"restore_faces"`
	Tiling            bool     `json:"tiling"`
}

func (Automatic1111) Backend() Backend { return BackendA1111 }

// BuildComfyUI builds a ComfyUI request referencing the promoted image by path.
func BuildComfyUI(imagePath string, p Params) ComfyUI {
	return ComfyUI{
		InputImage:        imagePath,
		Prompt:            p.Prompt,
		NegativePrompt:    p.NegativePrompt,
		DenoisingStrength: p.DenoisingStrength,
		Seed:              p.Seed,
		CFGScale:          p.CFGScale,
		Steps:             p.Steps,
		SamplerName:       p.SamplerName,
		Scheduler:         p.Scheduler,
		Model:             p.Model,
		Width:             p.Width,
		Height:            p.Height,
	}
}

// BuildA1111 builds an Automatic1111 request carrying the promoted image
// inline as base64 PNG bytes.
func BuildA1111(pngBytes []byte, p Params) Automatic1111 {
	return Automatic1111{
		InitImages:        []string{base64.StdEncoding.EncodeToString(pngBytes)},
		Prompt:            p.Prompt,
		NegativePrompt:    p.NegativePrompt,
		DenoisingStrength: p.DenoisingStrength,
		Seed:              p.Seed,
		CFGScale:          p.CFGScale,
		Steps:             p.Steps,
		SamplerIndex:      p.SamplerName,
		Width:             p.Width,
		Height:            p.Height,
	}
}

// Build constructs the request for the chosen backend. imagePath locates the
// promoted PNG on disk; pngBytes are its encoded contents.
func Build(b Backend, imagePath string, pngBytes []byte, p Params) (Request, error) {
	switch b {
	case BackendComfyUI:
		return BuildComfyUI(imagePath, p), nil
	case BackendA1111:
		return BuildA1111(pngBytes, p), nil
	default:
		return nil, fmt.Errorf("unknown refinement backend %q (want %q or %q)", b, BackendComfyUI, BackendA1111)
	}
}
