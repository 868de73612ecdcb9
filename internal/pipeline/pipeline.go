// Package pipeline runs a reconciliation end to end: trades in, curves
// resolved, verdicts out to a journal.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rustyeddy/ratecheck/journal"
	"github.com/rustyeddy/ratecheck/pkg/id"
	"github.com/rustyeddy/ratecheck/reconcile"
	"github.com/rustyeddy/ratecheck/snapshot"
)

type RunnerOptions struct {
	Parallelism int
	// TradesFile is recorded on the run for reference.
	TradesFile string
	// OrgPath, when set, receives an Org-mode summary of the run.
	OrgPath string
}

type Runner struct {
	Fetcher    *snapshot.Fetcher
	Reconciler *reconcile.Reconciler
	Options    RunnerOptions
	Logger     *slog.Logger

	now func() time.Time
}

// Result is what one run produced.
type Result struct {
	Run      journal.Run
	Verdicts []reconcile.Verdict
	// Unresolved holds the dates no curve could be found for.
	Unresolved map[civil.Date]error
}

// Run reconciles trades and records the run and every verdict in j (which
// may be nil). Invalid trades fail the run before any curve is fetched.
func (r *Runner) Run(ctx context.Context, trades []reconcile.TradeRecord, j journal.Journal) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	if err := reconcile.Validate(trades); err != nil {
		return nil, err
	}

	run := journal.Run{
		ID:         id.New(),
		StartedAt:  now(),
		TradesFile: r.Options.TradesFile,
	}
	logger = logger.With(slog.String("run_id", run.ID))

	dates := reconcile.DistinctDates(trades)
	run.Dates = len(dates)
	logger.InfoContext(ctx, "resolving curves",
		slog.Int("trades", len(trades)),
		slog.Int("dates", len(dates)),
	)

	book, failed, err := r.Fetcher.BuildBook(ctx, dates, r.Options.Parallelism)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build book: %w", err)
	}
	run.UnresolvedDates = len(failed)

	verdicts, err := r.Reconciler.Reconcile(trades, book)
	if err != nil {
		return nil, err
	}
	run.Summary = reconcile.Summarize(verdicts)
	run.FinishedAt = now()

	for _, v := range verdicts {
		switch v.Status {
		case reconcile.StatusDivergent:
			logger.WarnContext(ctx, "divergent trade",
				slog.String("trader", v.TraderID),
				slog.String("instrument", v.Instrument),
				slog.String("date", v.Current.Date.String()),
				slog.Float64("recorded_pct", float64(v.Current.Recorded.Percent())),
				slog.Float64("curve_pct", float64(v.Current.Implied.Percent())),
			)
		case reconcile.StatusUnresolved:
			logger.DebugContext(ctx, "unresolved trade",
				slog.String("trader", v.TraderID),
				slog.String("instrument", v.Instrument),
			)
		}
	}

	if j != nil {
		for _, v := range verdicts {
			if err := j.RecordVerdict(run.ID, v); err != nil {
				return nil, fmt.Errorf("pipeline: record verdict: %w", err)
			}
		}
		if err := j.RecordRun(run); err != nil {
			return nil, fmt.Errorf("pipeline: record run: %w", err)
		}
	}

	if r.Options.OrgPath != "" {
		recs := make([]journal.VerdictRecord, len(verdicts))
		for i, v := range verdicts {
			recs[i] = journal.Record(run.ID, i, v)
		}
		if err := journal.WriteOrgFile(r.Options.OrgPath, run, recs); err != nil {
			return nil, fmt.Errorf("pipeline: write org: %w", err)
		}
	}

	logger.InfoContext(ctx, "reconciliation done",
		slog.Int("total", run.Total),
		slog.Int("matching", run.Matching),
		slog.Int("divergent", run.Divergent),
		slog.Int("unresolved", run.Unresolved),
		slog.Int("settlement_mismatch", run.SettlementMismatch),
		slog.Int("unresolved_dates", run.UnresolvedDates),
	)

	return &Result{Run: run, Verdicts: verdicts, Unresolved: failed}, nil
}
