// Package api holds the stable on-disk JSON schemas for qa_report.json and
// promotion_summary.json. Keep fields, names, and types stable; add new
// fields only with ",omitempty".
package api

import "encoding/json"

// BoundsV1 is a panel rectangle in source-image pixel space.
type BoundsV1 struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// PanelMetricV1 is one entry of qa_report.json's panel_metrics.
type PanelMetricV1 struct {
	PanelID        string  `json:"panel_id"`
	SharpnessScore float64 `json:"sharpness_score"`
	QualityTier    string  `json:"quality_tier"`
	AspectRatio    float64 `json:"aspect_ratio"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// AggregateStatsV1 summarizes sharpness over all processed panels.
type AggregateStatsV1 struct {
	MeanSharpness float64 `json:"mean_sharpness"`
	MinSharpness  float64 `json:"min_sharpness"`
	MaxSharpness  float64 `json:"max_sharpness"`
	StdSharpness  float64 `json:"std_sharpness"`
}

// QAReportV1 is the full qa_report.json document.
type QAReportV1 struct {
	PanelMetrics     []PanelMetricV1  `json:"panel_metrics"`
	AggregateStats   AggregateStatsV1 `json:"aggregate_stats"`
	ValidationStatus string           `json:"validation_status"`
}

// PanelSummaryV1 records one panel's full derivation for audit: the seed and
// its inputs, bounds, output paths, and the exact refinement payload built.
type PanelSummaryV1 struct {
	PanelID      string          `json:"panel_id"`
	GridPosition [2]int          `json:"grid_position"` // [row, col]
	Seed         int64           `json:"seed"`
	PanelHash    int64           `json:"panel_hash"`
	Bounds       BoundsV1        `json:"bounds"`
	CroppedPath  string          `json:"cropped_path,omitempty"`
	PromotedPath string          `json:"promoted_path,omitempty"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// RunSummaryV1 is the full promotion_summary.json document.
type RunSummaryV1 struct {
	RunID             string           `json:"run_id"`
	MasterGridPath    string           `json:"master_grid_path"`
	OutputDirectory   string           `json:"output_directory"`
	GridSpecification string           `json:"grid_specification"`
	GlobalSeed        int64            `json:"global_seed"`
	StyleAnchor       string           `json:"style_anchor"`
	Backend           string           `json:"backend"`
	TargetAspectRatio float64          `json:"target_aspect_ratio"`
	ValidationStatus  string           `json:"validation_status"`
	Panels            []PanelSummaryV1 `json:"panels"`
}
