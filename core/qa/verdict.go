package qa

import "math"

// Status is the run-level validation verdict.
type Status string

const (
	StatusPassed       Status = "PASSED"
	StatusReviewNeeded Status = "REVIEW_NEEDED"
	StatusFailed       Status = "FAILED"
)

// Stats aggregates per-panel sharpness scores.
type Stats struct {
	Mean float64
	Min  float64
	Max  float64
	Std  float64 // population standard deviation
}

// Aggregate computes Stats over scores. Empty input yields zero stats.
func Aggregate(scores []float64) Stats {
	if len(scores) == 0 {
		return Stats{}
	}
	s := Stats{Min: scores[0], Max: scores[0]}
	sum := 0.0
	for _, v := range scores {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(scores))
	varSum := 0.0
	for _, v := range scores {
		d := v - s.Mean
		varSum += d * d
	}
	s.Std = math.Sqrt(varSum / float64(len(scores)))
	return s
}

// Evidence is everything the verdict depends on for one completed run.
// Plan-level validation failures abort before any of this exists, so they
// never reach Verdict.
type Evidence struct {
	Scores       []float64 // one per successfully processed panel
	AspectDevs   []float64 // relative deviation from the target ratio, same order
	PanelsFailed int       // panels that errored during processing
	PanelsTotal  int
}

// Verdict applies the fail/warn policy:
//
//	FAIL: mean sharpness below the floor, any aspect deviation beyond
//	      tolerance, or no panel survived processing.
//	WARN: any individual panel in the soft or oversharpen band, or any
//	      panel failed while others survived.
func Verdict(ev Evidence) Status {
	if len(ev.Scores) == 0 {
		return StatusFailed
	}
	stats := Aggregate(ev.Scores)
	if stats.Mean < TooSoftBelow {
		return StatusFailed
	}
	for _, d := range ev.AspectDevs {
		if d > AspectTolerance {
			return StatusFailed
		}
	}
	warned := ev.PanelsFailed > 0
	for _, sc := range ev.Scores {
		if Warns(sc) {
			warned = true
			break
		}
	}
	if warned {
		return StatusReviewNeeded
	}
	return StatusPassed
}
