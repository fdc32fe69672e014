package payload

import (
	"encoding/base64"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	cases := []struct {
		anchor, ext, want string
	}{
		{"dark fantasy oil painting", "a ruined tower", "dark fantasy oil painting a ruined tower, highly detailed, 8k"},
		{"style", "", "style, highly detailed, 8k"},
		{"", "just the panel", "just the panel, highly detailed, 8k"},
	}
	for _, c := range cases {
		if got := BuildPrompt(c.anchor, c.ext); got != c.want {
			t.Errorf("BuildPrompt(%q, %q) = %q, want %q", c.anchor, c.ext, got, c.want)
		}
	}
}

func TestBuild_SchemasCarrySameLogicalValues(t *testing.T) {
	p := Params{
		Prompt:            BuildPrompt("anchor", "ext"),
		NegativePrompt:    "blurry, jpeg artifacts",
		Seed:              123456,
		DenoisingStrength: DefaultDenoisingStrength,
		CFGScale:          DefaultCFGScale,
		Steps:             DefaultSteps,
		SamplerName:       DefaultSamplerName,
		Scheduler:         DefaultScheduler,
		Model:             "sd_xl_base_1.0",
		Width:             300,
		Height:            169,
	}
	png := []byte{0x89, 'P', 'N', 'G'}

	cReq, err := Build(BackendComfyUI, "/out/panel_01_promoted.png", png, p)
	if err != nil {
		t.Fatalf("Build comfyui: %v", err)
	}
	aReq, err := Build(BackendA1111, "/out/panel_01_promoted.png", png, p)
	if err != nil {
		t.Fatalf("Build a1111: %v", err)
	}

	c := cReq.(ComfyUI)
	a := aReq.(Automatic1111)

	if c.Prompt != a.Prompt || c.NegativePrompt != a.NegativePrompt {
		t.Fatal("prompts diverge between schemas")
	}
	if c.Seed != a.Seed || c.DenoisingStrength != a.DenoisingStrength ||
		c.CFGScale != a.CFGScale || c.Steps != a.Steps {
		t.Fatal("numeric parameters diverge between schemas")
	}
	if c.Width != a.Width || c.Height != a.Height {
		t.Fatal("dimensions diverge between schemas")
	}
	if c.InputImage != "/out/panel_01_promoted.png" {
		t.Fatalf("comfyui input_image = %q", c.InputImage)
	}
	if len(a.InitImages) != 1 || a.InitImages[0] != base64.StdEncoding.EncodeToString(png) {
		t.Fatal("a1111 init_images is not the base64 PNG")
	}
	if a.RestoreFaces || a.Tiling {
		t.Fatal("restore_faces and tiling default to false")
	}
}

func TestBuild_UnknownBackend(t *testing.T) {
	if _, err := Build(Backend("dalle"), "p.png", nil, Params{}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBackendTags(t *testing.T) {
	if (ComfyUI{}).Backend() != BackendComfyUI {
		t.Fatal("ComfyUI backend tag wrong")
	}
	if (Automatic1111{}).Backend() != BackendA1111 {
		t.Fatal("Automatic1111 backend tag wrong")
	}
}
