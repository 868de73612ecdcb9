// Package journal persists reconciliation runs and their verdicts.
package journal

import (
	"time"

	"github.com/rustyeddy/ratecheck/reconcile"
)

// Run is one invocation of the reconciler.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	TradesFile string
	// Dates is the number of distinct valuation dates requested and
	// UnresolvedDates how many of them had no curve.
	Dates           int
	UnresolvedDates int
	reconcile.Summary
}

// VerdictRecord is a verdict flattened for storage. Rates are in percent;
// nil means the value was not available.
type VerdictRecord struct {
	RunID      string
	Seq        int
	TraderID   string
	Instrument string
	Side       string
	Quantity   float64

	Date        string
	RecordedPct float64
	CurvePct    *float64

	PrevDate        string
	PrevRecordedPct float64
	PrevCurvePct    *float64

	RecordedResult float64
	Result         *float64

	Status             string
	Divergent          bool
	SettlementMismatch bool
	Reason             string
}

type Journal interface {
	RecordRun(Run) error
	RecordVerdict(runID string, v reconcile.Verdict) error
	Close() error
}

// Record converts v into its stored form. This is the only place rates are
// turned back into percent.
func Record(runID string, seq int, v reconcile.Verdict) VerdictRecord {
	rec := VerdictRecord{
		RunID:              runID,
		Seq:                seq,
		TraderID:           v.TraderID,
		Instrument:         v.Instrument,
		Side:               v.Side.String(),
		Quantity:           v.Quantity,
		Date:               v.Current.Date.String(),
		RecordedPct:        float64(v.Current.Recorded.Percent()),
		PrevDate:           v.Previous.Date.String(),
		PrevRecordedPct:    float64(v.Previous.Recorded.Percent()),
		RecordedResult:     v.RecordedResult,
		Status:             v.Status.String(),
		Divergent:          v.Divergent,
		SettlementMismatch: v.SettlementMismatch,
	}
	if v.Current.Resolved {
		p := float64(v.Current.Implied.Percent())
		rec.CurvePct = &p
	}
	if v.Previous.Resolved {
		p := float64(v.Previous.Implied.Percent())
		rec.PrevCurvePct = &p
	}
	if v.HasResult {
		r := v.Result
		rec.Result = &r
	}
	switch {
	case v.Current.Err != nil:
		rec.Reason = v.Current.Err.Error()
	case v.Previous.Err != nil:
		rec.Reason = v.Previous.Err.Error()
	}
	return rec
}
