// Package promoter orchestrates one promotion run: validate the plan, fan
// panels through the core engine, write promoted images, and aggregate the
// QA report and promotion summary.
//
// Plan-level validation failures abort before any panel work; per-panel
// failures are recorded and the run completes so operators get a full
// picture. Aggregate files are written only after every panel finished.
package promoter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // master grids may arrive as JPEG
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"promotion-core/engine"
	"promotion-core/payload"
	"promotion-core/qa"
	"promotion-core/seed"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/backend"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/jsonutil"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/pipeline"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/plan"
	"github.com/zedarvates/StoryCore-Engine-sub014/pkg/api"
)

// Per-panel lifecycle states. A panel that errors anywhere before payload
// construction lands in SKIPPED_ON_FAIL.
type PanelStatus string

const (
	PanelPending       PanelStatus = "PENDING"
	PanelSliced        PanelStatus = "SLICED"
	PanelCropped       PanelStatus = "CROPPED"
	PanelSeeded        PanelStatus = "SEEDED"
	PanelScored        PanelStatus = "SCORED"
	PanelPayloadBuilt  PanelStatus = "PAYLOAD_BUILT"
	PanelSkippedOnFail PanelStatus = "SKIPPED_ON_FAIL"
)

// Run-level phases, used to locate failures in returned errors.
type runPhase string

const (
	phaseValidating  runPhase = "VALIDATING_INPUT"
	phaseProcessing  runPhase = "PROCESSING_PANELS"
	phaseAggregating runPhase = "AGGREGATING"
)

// Report and summary artifact names inside the output directory.
const (
	QAReportName = "qa_report.json"
	SummaryName  = "promotion_summary.json"
)

// Options carries run parameters resolved from config and flags.
type Options struct {
	Workers int
	Backend payload.Backend

	StyleAnchor       string // plan-level anchor wins when set
	NegativePrompt    string
	TargetAspectRatio float64 // plan-level ratio wins when set

	DenoisingStrength float64
	CFGScale          float64
	Steps             int
	SamplerName       string
	Scheduler         string
	Model             string

	// Dispatcher receives each built payload. Nil means backend.Nop.
	Dispatcher backend.Dispatcher
}

// RunResult is the aggregate outcome of one ProcessGrid call.
type RunResult struct {
	RunID    string
	Status   qa.Status
	Report   api.QAReportV1
	Summary  api.RunSummaryV1
	Manifest []string // every file written, promoted panels first
	Warnings []string // non-fatal run notes (e.g. dispatch refusals)
}

// panelResult is what one worker hands the collector.
type panelResult struct {
	spec         plan.PanelSpec
	status       PanelStatus
	outcome      engine.Outcome
	promotedPath string
	payloadJSON  json.RawMessage
	err          error
	dispatchErr  error
}

// ProcessGrid runs the whole promotion pipeline for one plan.
func ProcessGrid(ctx context.Context, pl plan.PromotionPlan, opt Options) (RunResult, error) {
	var res RunResult

	// VALIDATING_INPUT: fail fast, no side effects.
	spec, err := pl.Validate()
	if err != nil {
		return res, fmt.Errorf("%s: %w", phaseValidating, err)
	}
	master, err := loadMaster(pl.MasterGridPath)
	if err != nil {
		return res, fmt.Errorf("%s: %w: %v", phaseValidating, plan.ErrInvalid, err)
	}

	anchor := opt.StyleAnchor
	if pl.StyleAnchor != "" {
		anchor = pl.StyleAnchor
	}
	ratio := opt.TargetAspectRatio
	if pl.TargetAspectRatio > 0 {
		ratio = pl.TargetAspectRatio
	}

	eng, err := engine.New(engine.Config{Spec: spec, GlobalSeed: pl.GlobalSeed, TargetRatio: ratio})
	if err != nil {
		return res, fmt.Errorf("%s: %w: %v", phaseValidating, plan.ErrInvalid, err)
	}
	if err := os.MkdirAll(pl.OutputDirectory, 0o755); err != nil {
		return res, fmt.Errorf("%s: create output directory: %w", phaseValidating, err)
	}

	dispatcher := opt.Dispatcher
	if dispatcher == nil {
		dispatcher = backend.Nop{}
	}

	// PROCESSING_PANELS: embarrassingly parallel, per-panel failures recorded.
	work := func(ctx context.Context, ps plan.PanelSpec) panelResult {
		return promoteOne(ctx, eng, master, ps, pl.OutputDirectory, anchor, opt, dispatcher)
	}
	results := make([]panelResult, 0, len(pl.Panels))
	err = pipeline.ForEach(ctx, opt.Workers, pl.Panels, work, func(r panelResult) error {
		results = append(results, r)
		return nil
	})
	if err != nil {
		// Cancelled or collector failure: written panels stay valid, but no
		// partial aggregate reports are emitted.
		return res, fmt.Errorf("%s: %w", phaseProcessing, err)
	}

	// AGGREGATING: stable order, verdict, artifacts.
	sort.Slice(results, func(i, j int) bool { return results[i].spec.PanelID < results[j].spec.PanelID })

	res.RunID = uuid.NewString()
	res.Report, res.Status = buildReport(results)
	res.Summary = buildSummary(res, pl, anchor, ratio, opt.Backend, results)

	for _, r := range results {
		if r.promotedPath != "" {
			res.Manifest = append(res.Manifest, r.promotedPath)
		}
		if r.dispatchErr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("panel %s: refinement dispatch: %v", r.spec.PanelID, r.dispatchErr))
		}
	}
	reportPath := filepath.Join(pl.OutputDirectory, QAReportName)
	summaryPath := filepath.Join(pl.OutputDirectory, SummaryName)
	if err := jsonutil.WriteFile(reportPath, res.Report); err != nil {
		return res, fmt.Errorf("%s: %w", phaseAggregating, err)
	}
	if err := jsonutil.WriteFile(summaryPath, res.Summary); err != nil {
		return res, fmt.Errorf("%s: %w", phaseAggregating, err)
	}
	res.Manifest = append(res.Manifest, reportPath, summaryPath)
	return res, nil
}

// promoteOne runs the full per-panel pipeline. Every failure is captured in
// the result; the run never aborts because of one panel.
func promoteOne(
	ctx context.Context,
	eng *engine.Engine,
	master image.Image,
	ps plan.PanelSpec,
	outDir, anchor string,
	opt Options,
	dispatcher backend.Dispatcher,
) panelResult {
	r := panelResult{spec: ps, status: PanelPending}

	out, err := eng.Promote(master, engine.Panel{
		ID:              ps.PanelID,
		Pos:             ps.Position(),
		PromptExtension: ps.PromptExtension,
	})
	if err != nil {
		r.status, r.err = PanelSkippedOnFail, err
		return r
	}
	r.outcome = out
	r.status = PanelScored

	var buf bytes.Buffer
	if err := png.Encode(&buf, out.Image); err != nil {
		r.status, r.err = PanelSkippedOnFail, fmt.Errorf("encode panel %s: %w", ps.PanelID, err)
		return r
	}
	r.promotedPath = filepath.Join(outDir, ps.PanelID+"_promoted.png")
	if err := os.WriteFile(r.promotedPath, buf.Bytes(), 0o644); err != nil {
		r.promotedPath = ""
		r.status, r.err = PanelSkippedOnFail, fmt.Errorf("write panel %s: %w", ps.PanelID, err)
		return r
	}

	params := payload.Params{
		Prompt:            payload.BuildPrompt(anchor, ps.PromptExtension),
		NegativePrompt:    opt.NegativePrompt,
		Seed:              out.Seed,
		DenoisingStrength: opt.DenoisingStrength,
		CFGScale:          opt.CFGScale,
		Steps:             opt.Steps,
		SamplerName:       opt.SamplerName,
		Scheduler:         opt.Scheduler,
		Model:             opt.Model,
		Width:             out.Image.Bounds().Dx(),
		Height:            out.Image.Bounds().Dy(),
	}
	req, err := payload.Build(opt.Backend, r.promotedPath, buf.Bytes(), params)
	if err != nil {
		r.status, r.err = PanelSkippedOnFail, err
		return r
	}
	snapshot, err := json.Marshal(req)
	if err != nil {
		r.status, r.err = PanelSkippedOnFail, fmt.Errorf("snapshot payload %s: %w", ps.PanelID, err)
		return r
	}
	r.payloadJSON = snapshot
	r.status = PanelPayloadBuilt

	if _, err := dispatcher.SubmitRefinement(ctx, ps.PanelID, req); err != nil {
		// Dispatch is an external concern; a refusal downgrades nothing.
		r.dispatchErr = err
	}
	return r
}

func buildReport(results []panelResult) (api.QAReportV1, qa.Status) {
	var (
		metrics []api.PanelMetricV1
		ev      qa.Evidence
	)
	ev.PanelsTotal = len(results)
	for _, r := range results {
		m := api.PanelMetricV1{PanelID: r.spec.PanelID, Status: string(r.status)}
		if r.err != nil {
			m.Error = r.err.Error()
			ev.PanelsFailed++
		} else {
			m.SharpnessScore = r.outcome.Sharpness
			m.QualityTier = string(r.outcome.Tier)
			m.AspectRatio = r.outcome.AspectRatio
			ev.Scores = append(ev.Scores, r.outcome.Sharpness)
			ev.AspectDevs = append(ev.AspectDevs, r.outcome.AspectDev)
		}
		metrics = append(metrics, m)
	}
	stats := qa.Aggregate(ev.Scores)
	report := api.QAReportV1{
		PanelMetrics: metrics,
		AggregateStats: api.AggregateStatsV1{
			MeanSharpness: stats.Mean,
			MinSharpness:  stats.Min,
			MaxSharpness:  stats.Max,
			StdSharpness:  stats.Std,
		},
	}
	status := qa.Verdict(ev)
	report.ValidationStatus = string(status)
	return report, status
}

func buildSummary(res RunResult, pl plan.PromotionPlan, anchor string, ratio float64, be payload.Backend, results []panelResult) api.RunSummaryV1 {
	s := api.RunSummaryV1{
		RunID:             res.RunID,
		MasterGridPath:    pl.MasterGridPath,
		OutputDirectory:   pl.OutputDirectory,
		GridSpecification: pl.GridSpecification,
		GlobalSeed:        pl.GlobalSeed,
		StyleAnchor:       anchor,
		Backend:           string(be),
		TargetAspectRatio: ratio,
		ValidationStatus:  string(res.Status),
	}
	for _, r := range results {
		p := api.PanelSummaryV1{
			PanelID:      r.spec.PanelID,
			GridPosition: r.spec.GridPosition,
			Seed:         seed.Derive(pl.GlobalSeed, r.spec.PanelID),
			PanelHash:    seed.PanelHash(r.spec.PanelID),
			Status:       string(r.status),
			Payload:      r.payloadJSON,
		}
		if r.err != nil {
			p.Error = r.err.Error()
		} else {
			p.Bounds = api.BoundsV1{
				Left:   r.outcome.Bounds.Left,
				Top:    r.outcome.Bounds.Top,
				Right:  r.outcome.Bounds.Right,
				Bottom: r.outcome.Bounds.Bottom,
			}
			// No in-engine upscale happens, so the cropped panel is the
			// promoted artifact.
			p.CroppedPath = r.promotedPath
			p.PromotedPath = r.promotedPath
		}
		s.Panels = append(s.Panels, p)
	}
	return s
}

func loadMaster(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open master grid: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode master grid %s: %w", path, err)
	}
	return img, nil
}
