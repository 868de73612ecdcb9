// Package reconcile re-prices DI futures positions off resolved curves and
// flags the ones whose recorded rate disagrees with the curve.
package reconcile

import (
	"fmt"
	"math"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/ratecheck/curve"
)

const (
	DefaultNotional         = 100_000.0
	DefaultRateTolerance    = 1e-9
	DefaultSettlementPlaces = 3
)

// Status is the outcome of checking one trade.
type Status int

const (
	StatusMatching Status = iota + 1
	StatusDivergent
	// StatusUnresolved means at least one side had no curve value, so the
	// trade could not be validated either way.
	StatusUnresolved
)

func (s Status) String() string {
	switch s {
	case StatusMatching:
		return "matching"
	case StatusDivergent:
		return "divergent"
	case StatusUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// SideCheck is the comparison for one valuation date.
type SideCheck struct {
	Date         civil.Date
	DU           int
	BusinessDays int
	Recorded     curve.Rate
	Implied      curve.Rate
	// CurveDate is the date the curve used was published under.
	CurveDate civil.Date
	Resolved  bool
	Err       error
}

// Verdict is the result of reconciling one TradeRecord. It shares no
// memory with the trade it came from.
type Verdict struct {
	TraderID   string
	Instrument string
	Side       Side
	Quantity   float64

	Current  SideCheck
	Previous SideCheck

	Status    Status
	Divergent bool

	RecordedResult float64
	// Result is the recomputed settlement; valid only when HasResult. It is
	// unset when a side is unresolved or the recomputation is not finite.
	Result    float64
	HasResult bool
	// SettlementMismatch is set when Result and RecordedResult differ after
	// rounding to the configured number of places, or when both sides
	// resolved but the recomputed result is not finite.
	SettlementMismatch bool
}

type Options struct {
	Notional         float64
	RateTolerance    float64
	SettlementPlaces int32
	// RequireExactDate treats a curve published under an earlier date than
	// the trade date as unresolved.
	RequireExactDate bool
}

func DefaultOptions() Options {
	return Options{
		Notional:         DefaultNotional,
		RateTolerance:    DefaultRateTolerance,
		SettlementPlaces: DefaultSettlementPlaces,
		RequireExactDate: true,
	}
}

type Reconciler struct {
	opts Options
}

// New returns a Reconciler. Non-positive Notional and RateTolerance and a
// negative SettlementPlaces fall back to the defaults.
func New(opts Options) *Reconciler {
	if opts.Notional <= 0 {
		opts.Notional = DefaultNotional
	}
	if opts.RateTolerance <= 0 {
		opts.RateTolerance = DefaultRateTolerance
	}
	if opts.SettlementPlaces < 0 {
		opts.SettlementPlaces = DefaultSettlementPlaces
	}
	return &Reconciler{opts: opts}
}

func (r *Reconciler) Options() Options { return r.opts }

// Reconcile produces one verdict per trade, in input order. Missing curves
// or day counts only mark the affected side unresolved; an error is returned
// only when a trade is structurally invalid, in which case no verdicts are
// returned.
func (r *Reconciler) Reconcile(trades []TradeRecord, book *curve.Book) ([]Verdict, error) {
	if err := Validate(trades); err != nil {
		return nil, err
	}

	out := make([]Verdict, len(trades))
	for i, t := range trades {
		out[i] = r.check(t, book)
	}
	return out, nil
}

func (r *Reconciler) check(t TradeRecord, book *curve.Book) Verdict {
	v := Verdict{
		TraderID:       t.TraderID,
		Instrument:     t.Instrument,
		Side:           t.Side,
		Quantity:       t.Quantity,
		RecordedResult: t.RecordedResult,
		Current:        r.resolve(t.Current, book),
		Previous:       r.resolve(t.Previous, book),
	}

	if !v.Current.Resolved || !v.Previous.Resolved {
		v.Status = StatusUnresolved
		return v
	}

	carry := t.CarryFactor
	if carry == 0 {
		carry = 1
	}
	puCur := r.price(v.Current.Implied, t.Current.BusinessDays)
	puPrev := r.price(v.Previous.Implied, t.Previous.BusinessDays)

	// A bought rate position gains when the unit price falls.
	result := t.Quantity * (puPrev*carry - puCur)
	if t.Side == Sold {
		result = -result
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		// The curve priced the contract out of float range, so the recorded
		// result cannot be confirmed.
		v.SettlementMismatch = true
	} else {
		v.Result = result
		v.HasResult = true

		diff := decimal.NewFromFloat(result).Sub(decimal.NewFromFloat(t.RecordedResult)).Abs()
		v.SettlementMismatch = !diff.Round(r.opts.SettlementPlaces).IsZero()
	}

	v.Divergent = r.diverges(v.Current) || r.diverges(v.Previous)
	if v.Divergent {
		v.Status = StatusDivergent
	} else {
		v.Status = StatusMatching
	}
	return v
}

func (r *Reconciler) resolve(leg Leg, book *curve.Book) SideCheck {
	sc := SideCheck{
		Date:         leg.Date,
		DU:           leg.DU,
		BusinessDays: leg.BusinessDays,
		Recorded:     leg.Rate,
	}

	dense, ok := book.Get(leg.Date)
	if !ok {
		sc.Err = fmt.Errorf("no curve for %v: %w", leg.Date, ErrUnresolvedTradeSide)
		return sc
	}
	sc.CurveDate = dense.Date()
	if r.opts.RequireExactDate && dense.Date() != leg.Date {
		sc.Err = fmt.Errorf("curve for %v was published on %v: %w", leg.Date, dense.Date(), ErrUnresolvedTradeSide)
		return sc
	}

	rate, ok := dense.At(leg.DU)
	if !ok {
		sc.Err = fmt.Errorf("du %d outside curve %v [%d, %d]: %w",
			leg.DU, dense.Date(), dense.Min(), dense.Max(), ErrUnresolvedTradeSide)
		return sc
	}
	sc.Implied = rate
	sc.Resolved = true
	return sc
}

func (r *Reconciler) diverges(sc SideCheck) bool {
	return math.Abs(float64(sc.Recorded-sc.Implied)) > r.opts.RateTolerance
}

// price is the unit price (PU) of the contract at rate with bd business days
// to maturity.
func (r *Reconciler) price(rate curve.Rate, bd int) float64 {
	return r.opts.Notional / curve.Factor(bd, rate)
}

// Summary counts verdicts by outcome.
type Summary struct {
	Total              int
	Matching           int
	Divergent          int
	Unresolved         int
	SettlementMismatch int
}

func Summarize(verdicts []Verdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case StatusMatching:
			s.Matching++
		case StatusDivergent:
			s.Divergent++
		case StatusUnresolved:
			s.Unresolved++
		}
		if v.SettlementMismatch {
			s.SettlementMismatch++
		}
	}
	return s
}
