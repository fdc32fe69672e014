// Package plan loads and validates promotion plans. Validation is fail-fast:
// a plan that does not hold every invariant is rejected before any panel work
// begins.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"promotion-core/grid"
)

// ErrInvalid wraps every plan validation failure so callers can map the whole
// category to a usage-style exit code.
var ErrInvalid = errors.New("invalid promotion plan")

// PanelSpec describes one panel of the master grid.
type PanelSpec struct {
	PanelID         string `json:"panel_id" yaml:"panel_id"`
	GridPosition    [2]int `json:"grid_position" yaml:"grid_position,flow"` // [row, col]
	PromptExtension string `json:"prompt_extension" yaml:"prompt_extension"`
}

// Position returns the panel's grid position with named axes.
func (p PanelSpec) Position() grid.Position {
	return grid.Position{Row: p.GridPosition[0], Col: p.GridPosition[1]}
}

// PromotionPlan is the unit of work handed to the promotion engine.
type PromotionPlan struct {
	MasterGridPath    string      `json:"master_grid_path" yaml:"master_grid_path"`
	OutputDirectory   string      `json:"output_directory" yaml:"output_directory"`
	GridSpecification string      `json:"grid_specification" yaml:"grid_specification"`
	GlobalSeed        int64       `json:"global_seed" yaml:"global_seed"`
	StyleAnchor       string      `json:"style_anchor,omitempty" yaml:"style_anchor"`
	TargetAspectRatio float64     `json:"target_aspect_ratio,omitempty" yaml:"target_aspect_ratio"`
	Panels            []PanelSpec `json:"panels" yaml:"panels"`
}

// Load reads a plan from a JSON file, or YAML when the extension is
// .yaml/.yml. The loaded plan is validated before it is returned.
func Load(path string) (PromotionPlan, error) {
	var pl PromotionPlan
	data, err := os.ReadFile(path)
	if err != nil {
		return pl, fmt.Errorf("read plan: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pl)
	default:
		err = json.Unmarshal(data, &pl)
	}
	if err != nil {
		return pl, fmt.Errorf("parse plan %s: %w: %v", path, ErrInvalid, err)
	}
	if _, err := pl.Validate(); err != nil {
		return pl, err
	}
	return pl, nil
}

// Validate checks every plan-level invariant and returns the parsed grid
// spec. It touches no files; existence of the master image is the
// orchestrator's concern.
func (pl PromotionPlan) Validate() (grid.Spec, error) {
	spec, err := grid.ParseSpec(pl.GridSpecification)
	if err != nil {
		return grid.Spec{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if pl.MasterGridPath == "" {
		return grid.Spec{}, fmt.Errorf("%w: master_grid_path is empty", ErrInvalid)
	}
	if pl.OutputDirectory == "" {
		return grid.Spec{}, fmt.Errorf("%w: output_directory is empty", ErrInvalid)
	}
	if len(pl.Panels) == 0 {
		return grid.Spec{}, fmt.Errorf("%w: plan has no panels", ErrInvalid)
	}
	if pl.TargetAspectRatio < 0 {
		return grid.Spec{}, fmt.Errorf("%w: target_aspect_ratio must not be negative", ErrInvalid)
	}

	ids := make(map[string]struct{}, len(pl.Panels))
	positions := make(map[grid.Position]string, len(pl.Panels))
	for _, p := range pl.Panels {
		if p.PanelID == "" {
			return grid.Spec{}, fmt.Errorf("%w: panel with empty panel_id", ErrInvalid)
		}
		if strings.ContainsAny(p.PanelID, `/\`) {
			return grid.Spec{}, fmt.Errorf("%w: panel_id %q must not contain path separators", ErrInvalid, p.PanelID)
		}
		if _, dup := ids[p.PanelID]; dup {
			return grid.Spec{}, fmt.Errorf("%w: duplicate panel_id %q", ErrInvalid, p.PanelID)
		}
		ids[p.PanelID] = struct{}{}

		pos := p.Position()
		if pos.Row < 0 || pos.Col < 0 || pos.Row >= spec.Rows || pos.Col >= spec.Cols {
			return grid.Spec{}, fmt.Errorf("%w: panel %q grid_position %s out of range for grid %s (position is [row,col]; e.g. grid \"3x2\" allows rows 0..1, cols 0..2)",
				ErrInvalid, p.PanelID, pos, spec)
		}
		if prev, dup := positions[pos]; dup {
			return grid.Spec{}, fmt.Errorf("%w: panels %q and %q share grid_position %s", ErrInvalid, prev, p.PanelID, pos)
		}
		positions[pos] = p.PanelID
	}
	return spec, nil
}
