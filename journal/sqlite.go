package journal

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/ratecheck/reconcile"
)

type SQLite struct {
	db *sql.DB

	mu  sync.Mutex
	seq map[string]int
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, seq: make(map[string]int)}, nil
}

// RecordRun inserts r, replacing any earlier record with the same ID.
func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, trades_file, dates, unresolved_dates,
		 total, matching, divergent, unresolved, settlement_mismatch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC(), r.FinishedAt.UTC(), r.TradesFile, r.Dates, r.UnresolvedDates,
		r.Total, r.Matching, r.Divergent, r.Unresolved, r.SettlementMismatch,
	)
	return err
}

// RecordVerdict appends v to the run. Verdicts keep the order they were
// recorded in.
func (j *SQLite) RecordVerdict(runID string, v reconcile.Verdict) error {
	j.mu.Lock()
	seq := j.seq[runID]
	j.seq[runID] = seq + 1
	j.mu.Unlock()

	rec := Record(runID, seq, v)
	_, err := j.db.Exec(`
		INSERT INTO verdicts
		(run_id, seq, trader_id, instrument, side, quantity,
		 date, recorded_pct, curve_pct, prev_date, prev_recorded_pct, prev_curve_pct,
		 recorded_result, result, status, divergent, settlement_mismatch, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.TraderID, rec.Instrument, rec.Side, rec.Quantity,
		rec.Date, rec.RecordedPct, rec.CurvePct, rec.PrevDate, rec.PrevRecordedPct, rec.PrevCurvePct,
		rec.RecordedResult, rec.Result, rec.Status, rec.Divergent, rec.SettlementMismatch, rec.Reason,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
