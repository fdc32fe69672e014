// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"promotion-core/payload"
	"promotion-core/qa"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/cli"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/cmdutil"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/config"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/output"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/plan"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/promoter"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/runutil"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/store"
	"github.com/zedarvates/StoryCore-Engine-sub014/internal/version"
)

// Exit codes: 0 passed/review-needed, 1 quality failure, 2 usage or plan
// validation, 3 I/O failure, 130 cancelled.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("promote")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			if e := outw.Flush(); e != nil && !output.IsBrokenPipe(e) {
				_, _ = fmt.Fprintln(stderr, e)
				return 3
			}
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return 2
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "promote version %s\n", version.Version)
		if e := outw.Flush(); e != nil && !output.IsBrokenPipe(e) {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	// Flags override config.
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.StyleAnchor != "" {
		cfg.StyleAnchor = opts.StyleAnchor
	}
	if opts.Aspect > 0 {
		cfg.TargetAspectRatio = opts.Aspect
	}
	if opts.Ledger != "" {
		cfg.LedgerPath = opts.Ledger
	}

	pl, err := plan.Load(opts.Plan)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	res, err := promoter.ProcessGrid(parent, pl, promoter.Options{
		Workers:           runutil.EffectiveWorkers(cfg.Workers),
		Backend:           payload.Backend(cfg.Backend),
		StyleAnchor:       cfg.StyleAnchor,
		NegativePrompt:    cfg.NegativePrompt,
		TargetAspectRatio: cfg.TargetAspectRatio,
		DenoisingStrength: cfg.DenoisingStrength,
		CFGScale:          cfg.CFGScale,
		Steps:             cfg.Steps,
		SamplerName:       cfg.SamplerName,
		Scheduler:         cfg.Scheduler,
		Model:             cfg.Model,
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return 130
		case errors.Is(err, plan.ErrInvalid):
			_, _ = fmt.Fprintln(stderr, err)
			return 2
		default:
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
	}

	for _, w := range res.Warnings {
		cmdutil.Warnf(stderr, opts.Quiet, "%s", w)
	}

	if cfg.LedgerPath != "" {
		if lerr := recordRun(cfg.LedgerPath, res, opts.Plan); lerr != nil {
			// Artifacts on disk stay authoritative; a ledger failure only warns.
			cmdutil.Warnf(stderr, opts.Quiet, "ledger: %v", lerr)
		}
	}

	if !opts.Quiet {
		if werr := output.WriteText(outw, res); werr != nil && !output.IsBrokenPipe(werr) {
			_, _ = fmt.Fprintln(stderr, werr)
			return 3
		}
	}
	if e := outw.Flush(); e != nil && !output.IsBrokenPipe(e) {
		_, _ = fmt.Fprintln(stderr, e)
		return 3
	}

	if res.Status == qa.StatusFailed {
		return 1
	}
	return 0
}

func recordRun(ledgerPath string, res promoter.RunResult, planPath string) error {
	l, err := store.Open(ledgerPath)
	if err != nil {
		return err
	}
	defer l.Close()
	return l.RecordRun(res, planPath)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
