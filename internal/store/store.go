// Package store keeps an optional SQLite ledger of promotion runs so seeds
// and metrics stay queryable after the output directories move on.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zedarvates/StoryCore-Engine-sub014/internal/promoter"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	plan_path       TEXT NOT NULL,
	grid_spec       TEXT NOT NULL,
	global_seed     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	panel_count     INTEGER NOT NULL,
	mean_sharpness  REAL NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS panel_metrics (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	panel_id   TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	sharpness  REAL NOT NULL,
	tier       TEXT NOT NULL,
	status     TEXT NOT NULL,
	PRIMARY KEY (run_id, panel_id)
);
`

// Ledger is a SQLite-backed run history.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(path string) (*Ledger, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// RecordRun persists one completed run and its per-panel metrics.
func (l *Ledger) RecordRun(res promoter.RunResult, planPath string) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, plan_path, grid_spec, global_seed, status, panel_count, mean_sharpness, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		res.RunID, planPath, res.Summary.GridSpecification, res.Summary.GlobalSeed,
		string(res.Status), len(res.Summary.Panels), res.Report.AggregateStats.MeanSharpness, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	metricsByID := make(map[string]float64, len(res.Report.PanelMetrics))
	tiersByID := make(map[string]string, len(res.Report.PanelMetrics))
	for _, m := range res.Report.PanelMetrics {
		metricsByID[m.PanelID] = m.SharpnessScore
		tiersByID[m.PanelID] = m.QualityTier
	}
	for _, p := range res.Summary.Panels {
		_, err = tx.Exec(
			`INSERT INTO panel_metrics (run_id, panel_id, seed, sharpness, tier, status) VALUES (?,?,?,?,?,?)`,
			res.RunID, p.PanelID, p.Seed, metricsByID[p.PanelID], tiersByID[p.PanelID], p.Status,
		)
		if err != nil {
			return fmt.Errorf("insert panel %s: %w", p.PanelID, err)
		}
	}
	return tx.Commit()
}

// RunRow is one ledger entry for listing.
type RunRow struct {
	ID            string
	PlanPath      string
	GridSpec      string
	GlobalSeed    int64
	Status        string
	PanelCount    int
	MeanSharpness float64
	CreatedAt     time.Time
}

// ListRuns returns the most recent runs, newest first.
func (l *Ledger) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(
		`SELECT id, plan_path, grid_spec, global_seed, status, panel_count, mean_sharpness, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.PlanPath, &r.GridSpec, &r.GlobalSeed, &r.Status, &r.PanelCount, &r.MeanSharpness, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PanelSeeds returns the recorded seed for every panel of a run, keyed by
// panel_id. Useful when re-running a plan must reproduce old outputs.
func (l *Ledger) PanelSeeds(runID string) (map[string]int64, error) {
	rows, err := l.db.Query(`SELECT panel_id, seed FROM panel_metrics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query panel seeds: %w", err)
	}
	defer rows.Close()

	seeds := map[string]int64{}
	for rows.Next() {
		var id string
		var s int64
		if err := rows.Scan(&id, &s); err != nil {
			return nil, err
		}
		seeds[id] = s
	}
	return seeds, rows.Err()
}
