package journal

import (
	"database/sql"
	"fmt"

	"github.com/rustyeddy/ratecheck/reconcile"
)

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	var r Run

	row := j.db.QueryRow(`
		SELECT run_id, started_at, finished_at, trades_file, dates, unresolved_dates,
		       total, matching, divergent, unresolved, settlement_mismatch
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&r.ID,
		&r.StartedAt,
		&r.FinishedAt,
		&r.TradesFile,
		&r.Dates,
		&r.UnresolvedDates,
		&r.Total,
		&r.Matching,
		&r.Divergent,
		&r.Unresolved,
		&r.SettlementMismatch,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// ListVerdicts returns the verdicts of a run in the order they were recorded.
func (j *SQLite) ListVerdicts(runID string) ([]VerdictRecord, error) {
	return j.listVerdicts(`WHERE run_id = ?`, runID)
}

// ListFlagged returns the verdicts of a run that are divergent, unresolved
// or whose settlement did not match.
func (j *SQLite) ListFlagged(runID string) ([]VerdictRecord, error) {
	return j.listVerdicts(`WHERE run_id = ? AND (divergent = 1 OR settlement_mismatch = 1 OR status = ?)`,
		runID, reconcile.StatusUnresolved.String())
}

func (j *SQLite) listVerdicts(where string, args ...any) ([]VerdictRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, seq, trader_id, instrument, side, quantity,
		       date, recorded_pct, curve_pct, prev_date, prev_recorded_pct, prev_curve_pct,
		       recorded_result, result, status, divergent, settlement_mismatch, reason
		FROM verdicts
		`+where+`
		ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var (
			rec                      VerdictRecord
			curve, prevCurve, result sql.NullFloat64
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.TraderID,
			&rec.Instrument,
			&rec.Side,
			&rec.Quantity,
			&rec.Date,
			&rec.RecordedPct,
			&curve,
			&rec.PrevDate,
			&rec.PrevRecordedPct,
			&prevCurve,
			&rec.RecordedResult,
			&result,
			&rec.Status,
			&rec.Divergent,
			&rec.SettlementMismatch,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		rec.CurvePct = nullable(curve)
		rec.PrevCurvePct = nullable(prevCurve)
		rec.Result = nullable(result)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
