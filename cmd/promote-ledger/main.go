// cmd/promote-ledger/main.go
//
// Lists recent promotion runs recorded in a run ledger.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/store"
)

func main() {
	dbPath := flag.String("ledger", "runs.db", "SQLite run-ledger path")
	limit := flag.Int("n", 20, "max runs to list")
	flag.Parse()

	l, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer l.Close()

	runs, err := l.ListRuns(*limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tGRID\tSEED\tPANELS\tMEAN\tSTATUS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.GridSpec, r.GlobalSeed, r.PanelCount, r.MeanSharpness, r.Status)
	}
	_ = w.Flush()
}
