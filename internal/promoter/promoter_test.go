package promoter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"promotion-core/payload"
	"promotion-core/qa"
	"promotion-core/seed"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/backend"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/plan"
)

// writeMaster renders a textured 900x900 master grid PNG.
func writeMaster(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 900, 900))
	for y := 0; y < 900; y++ {
		for x := 0; x < 900; x++ {
			v := uint8(100)
			if (x/4+y/4)%2 == 0 {
				v = 170
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode master: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write master: %v", err)
	}
}

func testPlan(t *testing.T, dir string) plan.PromotionPlan {
	t.Helper()
	master := filepath.Join(dir, "grid.png")
	writeMaster(t, master)
	return plan.PromotionPlan{
		MasterGridPath:    master,
		OutputDirectory:   filepath.Join(dir, "out"),
		GridSpecification: "3x3",
		GlobalSeed:        42,
		StyleAnchor:       "dark fantasy oil painting",
		Panels: []plan.PanelSpec{
			{PanelID: "panel_01", GridPosition: [2]int{0, 0}, PromptExtension: "a ruined tower"},
			{PanelID: "panel_02", GridPosition: [2]int{1, 1}, PromptExtension: "a stone bridge"},
		},
	}
}

func defaultOptions() Options {
	return Options{
		Workers:           2,
		Backend:           payload.BackendComfyUI,
		NegativePrompt:    "blurry",
		TargetAspectRatio: 16.0 / 9.0,
		DenoisingStrength: payload.DefaultDenoisingStrength,
		CFGScale:          payload.DefaultCFGScale,
		Steps:             payload.DefaultSteps,
		SamplerName:       payload.DefaultSamplerName,
		Scheduler:         payload.DefaultScheduler,
	}
}

func TestProcessGrid_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	pl := testPlan(t, dir)
	rec := &backend.Recorder{}
	opt := defaultOptions()
	opt.Dispatcher = rec

	res, err := ProcessGrid(context.Background(), pl, opt)
	if err != nil {
		t.Fatalf("ProcessGrid: %v", err)
	}
	if res.Status != qa.StatusPassed && res.Status != qa.StatusReviewNeeded {
		t.Fatalf("status = %s", res.Status)
	}
	if res.RunID == "" {
		t.Fatal("run id missing")
	}

	for _, name := range []string{"panel_01_promoted.png", "panel_02_promoted.png", QAReportName, SummaryName} {
		if _, err := os.Stat(filepath.Join(pl.OutputDirectory, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if len(res.Manifest) != 4 {
		t.Fatalf("manifest = %v", res.Manifest)
	}

	// Report entries are sorted by panel_id and carry metrics.
	if len(res.Report.PanelMetrics) != 2 ||
		res.Report.PanelMetrics[0].PanelID != "panel_01" ||
		res.Report.PanelMetrics[1].PanelID != "panel_02" {
		t.Fatalf("panel metrics = %+v", res.Report.PanelMetrics)
	}
	for _, m := range res.Report.PanelMetrics {
		if m.Status != string(PanelPayloadBuilt) {
			t.Errorf("panel %s status = %s", m.PanelID, m.Status)
		}
		if m.SharpnessScore <= 0 || m.QualityTier == "" {
			t.Errorf("panel %s metrics incomplete: %+v", m.PanelID, m)
		}
	}
	if res.Report.AggregateStats.MeanSharpness <= 0 {
		t.Fatal("aggregate mean missing")
	}

	// Summary records seeds exactly as derived, plus payload snapshots.
	for i, p := range res.Summary.Panels {
		want := seed.Derive(42, p.PanelID)
		if p.Seed != want {
			t.Errorf("panel %s seed = %d, want %d", p.PanelID, p.Seed, want)
		}
		if len(p.Payload) == 0 {
			t.Errorf("panel %s payload snapshot missing", p.PanelID)
		}
		if p.PromotedPath == "" || p.CroppedPath != p.PromotedPath {
			t.Errorf("panel %s paths = %q / %q", p.PanelID, p.CroppedPath, p.PromotedPath)
		}
		if i > 0 && res.Summary.Panels[i-1].PanelID >= p.PanelID {
			t.Error("summary panels not sorted by panel_id")
		}
	}

	// Every successful panel was dispatched.
	if subs := rec.Submissions(); len(subs) != 2 {
		t.Fatalf("dispatched %d payloads, want 2", len(subs))
	}
}

func TestProcessGrid_FailFastOnBadSpec(t *testing.T) {
	dir := t.TempDir()
	pl := testPlan(t, dir)
	pl.GridSpecification = "3x"

	_, err := ProcessGrid(context.Background(), pl, defaultOptions())
	if !errors.Is(err, plan.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if _, statErr := os.Stat(pl.OutputDirectory); !os.IsNotExist(statErr) {
		t.Fatal("fail-fast run must not create the output directory")
	}
}

func TestProcessGrid_MissingMasterIsValidationFailure(t *testing.T) {
	dir := t.TempDir()
	pl := testPlan(t, dir)
	pl.MasterGridPath = filepath.Join(dir, "nope.png")

	_, err := ProcessGrid(context.Background(), pl, defaultOptions())
	if !errors.Is(err, plan.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestProcessGrid_WorkerCountInvariance(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "grid.png")
	writeMaster(t, master)

	run := func(workers int, out string) ([]byte, []byte) {
		pl := plan.PromotionPlan{
			MasterGridPath:    master,
			OutputDirectory:   filepath.Join(dir, out),
			GridSpecification: "3x3",
			GlobalSeed:        42,
			Panels: []plan.PanelSpec{
				{PanelID: "panel_01", GridPosition: [2]int{0, 0}},
				{PanelID: "panel_02", GridPosition: [2]int{0, 1}},
				{PanelID: "panel_03", GridPosition: [2]int{1, 0}},
				{PanelID: "panel_04", GridPosition: [2]int{2, 2}},
			},
		}
		opt := defaultOptions()
		opt.Workers = workers
		if _, err := ProcessGrid(context.Background(), pl, opt); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		report, err := os.ReadFile(filepath.Join(pl.OutputDirectory, QAReportName))
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		img, err := os.ReadFile(filepath.Join(pl.OutputDirectory, "panel_03_promoted.png"))
		if err != nil {
			t.Fatalf("read panel: %v", err)
		}
		return report, img
	}

	r1, i1 := run(1, "w1")
	r2, i2 := run(2, "w2")
	r8, i8 := run(8, "w8")

	if !bytes.Equal(r1, r2) || !bytes.Equal(r1, r8) {
		t.Fatal("qa_report.json differs across worker counts")
	}
	if !bytes.Equal(i1, i2) || !bytes.Equal(i1, i8) {
		t.Fatal("promoted PNG bytes differ across worker counts")
	}
}

func TestProcessGrid_CancelledWritesNoAggregates(t *testing.T) {
	dir := t.TempDir()
	pl := testPlan(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessGrid(ctx, pl, defaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(filepath.Join(pl.OutputDirectory, QAReportName)); !os.IsNotExist(statErr) {
		t.Fatal("cancelled run must not write qa_report.json")
	}
	if _, statErr := os.Stat(filepath.Join(pl.OutputDirectory, SummaryName)); !os.IsNotExist(statErr) {
		t.Fatal("cancelled run must not write promotion_summary.json")
	}
}

func TestProcessGrid_A1111PayloadShape(t *testing.T) {
	dir := t.TempDir()
	pl := testPlan(t, dir)
	pl.Panels = pl.Panels[:1]
	opt := defaultOptions()
	opt.Backend = payload.BackendA1111

	res, err := ProcessGrid(context.Background(), pl, opt)
	if err != nil {
		t.Fatalf("ProcessGrid: %v", err)
	}
	raw := string(res.Summary.Panels[0].Payload)
	for _, field := range []string{`"init_images"`, `"sampler_index"`, `"restore_faces"`, `"tiling"`} {
		if !bytes.Contains([]byte(raw), []byte(field)) {
			t.Errorf("a1111 payload missing %s: %s", field, raw)
		}
	}
}
