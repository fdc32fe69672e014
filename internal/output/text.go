// Package output renders run results for humans. The JSON artifacts are the
// machine surface (pkg/api); this is just the operator-facing summary.
package output

import (
	"fmt"
	"io"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/promoter"
)

// WriteText prints one line per panel plus an aggregate line.
func WriteText(w io.Writer, res promoter.RunResult) error {
	if _, err := fmt.Fprintf(w, "run\t%s\t%s\n", res.RunID, res.Status); err != nil {
		return err
	}
	metricsByID := make(map[string]int, len(res.Report.PanelMetrics))
	for i, m := range res.Report.PanelMetrics {
		metricsByID[m.PanelID] = i
	}
	for _, p := range res.Summary.Panels {
		m := res.Report.PanelMetrics[metricsByID[p.PanelID]]
		if p.Error != "" {
			if _, err := fmt.Fprintf(w, "%s\tseed=%d\t%s\terror=%s\n", p.PanelID, p.Seed, p.Status, p.Error); err != nil {
				return err
			}
			continue
		}
		_, err := fmt.Fprintf(w, "%s\tseed=%d\tsharpness=%.2f\t%s\t(%d,%d,%d,%d)\n",
			p.PanelID, p.Seed, m.SharpnessScore, m.QualityTier,
			p.Bounds.Left, p.Bounds.Top, p.Bounds.Right, p.Bounds.Bottom)
		if err != nil {
			return err
		}
	}
	st := res.Report.AggregateStats
	_, err := fmt.Fprintf(w, "aggregate\tmean=%.2f\tmin=%.2f\tmax=%.2f\tstd=%.2f\n",
		st.MeanSharpness, st.MinSharpness, st.MaxSharpness, st.StdSharpness)
	return err
}
