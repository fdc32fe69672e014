// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"

	"promotion-core/payload"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/version"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Input
	Plan   string
	Config string

	// Run parameters
	Workers     int
	Backend     string
	StyleAnchor string
	Aspect      float64 // 0 = take from plan/config

	// Bookkeeping
	Ledger string

	// Output
	Quiet bool

	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: promote master-grid panels into refinement-ready images

Slices a composite grid image into panels, normalizes each to a target
aspect ratio, derives deterministic per-panel seeds, scores sharpness,
and emits qa_report.json plus promotion_summary.json.

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.Plan, "plan", "", "promotion plan file, JSON or YAML [*]")
	fs.StringVar(&opt.Config, "config", "", "engine config file (YAML) [optional]")

	fs.IntVar(&opt.Workers, "workers", 0, "concurrent panel workers (0 = all CPUs) [0]")
	fs.StringVar(&opt.Backend, "backend", "", "payload schema: comfyui | a1111 [from config]")
	fs.StringVar(&opt.StyleAnchor, "style-anchor", "", "global style anchor prepended to prompts [from config/plan]")
	fs.Float64Var(&opt.Aspect, "aspect", 0, "target aspect ratio (width/height, 0 = from plan/config) [0]")

	fs.StringVar(&opt.Ledger, "ledger", "", "SQLite run-ledger path [optional]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress per-panel summary and warnings [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	// Validation
	if opt.Plan == "" {
		return opt, errors.New("--plan is required")
	}
	if opt.Workers < 0 {
		return opt, errors.New("--workers must be ≥ 0")
	}
	if opt.Aspect < 0 {
		return opt, errors.New("--aspect must be ≥ 0")
	}
	switch payload.Backend(opt.Backend) {
	case "", payload.BackendComfyUI, payload.BackendA1111:
	default:
		return opt, fmt.Errorf("invalid --backend %q (want comfyui or a1111)", opt.Backend)
	}
	return opt, nil
}
