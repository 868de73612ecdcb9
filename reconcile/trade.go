package reconcile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/rustyeddy/ratecheck/curve"
)

var (
	// ErrUnresolvedTradeSide marks a trade side whose date or DU is not on
	// any resolved curve. It is recorded per side and never fails a batch.
	ErrUnresolvedTradeSide = errors.New("unresolved trade side")

	// ErrInvalidTrade is returned for structurally broken trade records.
	ErrInvalidTrade = errors.New("invalid trade record")
)

// Side is the trade direction from the point of view of the rate.
type Side int

const (
	Bought Side = iota + 1
	Sold
)

func (s Side) String() string {
	switch s {
	case Bought:
		return "bought"
	case Sold:
		return "sold"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide accepts the blotter codes C (compra) and V (venda) as well as
// the English words.
func ParseSide(s string) (Side, error) {
	switch s {
	case "C", "c", "bought", "buy", "B":
		return Bought, nil
	case "V", "v", "sold", "sell", "S":
		return Sold, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// Leg is one valuation date of a position.
type Leg struct {
	Date civil.Date
	// DU is the curve lookup key (running days to maturity).
	DU int
	// BusinessDays is the business-day count used for discounting.
	BusinessDays int
	// Rate is the rate recorded by the back office for this date.
	Rate curve.Rate
}

// TradeRecord is one futures position as recorded, valued on the current
// and previous dates.
type TradeRecord struct {
	TraderID   string
	Instrument string
	Side       Side
	Quantity   float64
	// CarryFactor is the accrual factor applied to the previous price.
	// Zero means absent and is treated as 1.
	CarryFactor    float64
	RecordedResult float64

	Current  Leg
	Previous Leg
}

func (t TradeRecord) validate() error {
	for _, l := range []struct {
		name string
		leg  Leg
	}{{"current", t.Current}, {"previous", t.Previous}} {
		if l.leg.Date == (civil.Date{}) {
			return fmt.Errorf("%s date missing", l.name)
		}
		if !l.leg.Date.IsValid() {
			return fmt.Errorf("%s date %v invalid", l.name, l.leg.Date)
		}
		if l.leg.DU < 0 || l.leg.BusinessDays < 0 {
			return fmt.Errorf("%s day counts negative", l.name)
		}
		if !finite(float64(l.leg.Rate)) {
			return fmt.Errorf("%s rate %v", l.name, l.leg.Rate)
		}
	}
	if t.Side != Bought && t.Side != Sold {
		return fmt.Errorf("side %v", t.Side)
	}
	if !(t.Quantity > 0) || math.IsInf(t.Quantity, 1) {
		return fmt.Errorf("quantity %v", t.Quantity)
	}
	if !finite(t.CarryFactor) || t.CarryFactor < 0 {
		return fmt.Errorf("carry factor %v", t.CarryFactor)
	}
	if !finite(t.RecordedResult) {
		return fmt.Errorf("recorded result %v", t.RecordedResult)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate checks every trade and reports the first invalid one by index.
func Validate(trades []TradeRecord) error {
	for i, t := range trades {
		if err := t.validate(); err != nil {
			return fmt.Errorf("reconcile: trade %d (%s %s): %v: %w", i, t.TraderID, t.Instrument, err, ErrInvalidTrade)
		}
	}
	return nil
}

// DistinctDates returns every date referenced by trades, ascending.
func DistinctDates(trades []TradeRecord) []civil.Date {
	seen := make(map[civil.Date]struct{})
	for _, t := range trades {
		seen[t.Current.Date] = struct{}{}
		seen[t.Previous.Date] = struct{}{}
	}
	out := make([]civil.Date, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
