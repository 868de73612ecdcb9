// Package marketdata defines the boundary with curve publishers. Quotes come
// in as whole percentages and are converted to curve.Rate exactly once, in
// ToPoints.
package marketdata

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/rustyeddy/ratecheck/curve"
)

// Quote is one published vertex: running days to maturity and the 252
// rate in percent.
type Quote struct {
	DU   int           `json:"du"`
	Rate curve.Percent `json:"rate_pct"`
}

// Source returns the raw curve published for a date. An empty result means
// nothing was published for that date. Errors are treated as transient.
type Source interface {
	Snapshot(ctx context.Context, date civil.Date) ([]Quote, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, date civil.Date) ([]Quote, error)

func (f SourceFunc) Snapshot(ctx context.Context, date civil.Date) ([]Quote, error) {
	return f(ctx, date)
}

// ToPoints converts published quotes to decimal-fraction curve points.
func ToPoints(quotes []Quote) []curve.Point {
	pts := make([]curve.Point, len(quotes))
	for i, q := range quotes {
		pts[i] = curve.Point{DU: q.DU, Rate: q.Rate.Rate()}
	}
	return pts
}
