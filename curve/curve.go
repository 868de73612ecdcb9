package curve

import (
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// ErrInvalidCurve is returned when a curve breaks its construction rules.
var ErrInvalidCurve = errors.New("invalid curve")

// Point is one vertex: running day count to maturity and its rate.
type Point struct {
	DU   int
	Rate Rate
}

// Sparse holds only the maturities that were actually published for a date.
// Points are kept sorted by DU with no duplicates.
type Sparse struct {
	date   civil.Date
	points []Point
}

// NewSparse validates and sorts points. The input slice is not retained.
func NewSparse(date civil.Date, points []Point) (*Sparse, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("curve: %v: no points: %w", date, ErrInvalidCurve)
	}

	ps := make([]Point, len(points))
	copy(ps, points)
	sort.Slice(ps, func(i, j int) bool { return ps[i].DU < ps[j].DU })

	for i, p := range ps {
		if p.DU < 0 {
			return nil, fmt.Errorf("curve: %v: negative du %d: %w", date, p.DU, ErrInvalidCurve)
		}
		if !p.Rate.Valid() {
			return nil, fmt.Errorf("curve: %v: du %d rate %v: %w", date, p.DU, p.Rate, ErrInvalidCurve)
		}
		if i > 0 && ps[i-1].DU == p.DU {
			return nil, fmt.Errorf("curve: %v: duplicate du %d: %w", date, p.DU, ErrInvalidCurve)
		}
	}

	return &Sparse{date: date, points: ps}, nil
}

// Date is the date the snapshot was published under.
func (s *Sparse) Date() civil.Date { return s.date }

// Len returns the number of published vertices.
func (s *Sparse) Len() int { return len(s.points) }

// Points returns a copy of the vertices in ascending DU order.
func (s *Sparse) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Dense covers every integer DU between the first and last vertex of the
// Sparse curve it was built from.
type Dense struct {
	date  civil.Date
	min   int
	rates []Rate
}

// Date is the publication date of the snapshot the curve was built from.
func (d *Dense) Date() civil.Date { return d.date }

// Min is the shortest DU on the curve.
func (d *Dense) Min() int { return d.min }

// Max is the longest DU on the curve.
func (d *Dense) Max() int { return d.min + len(d.rates) - 1 }

// Len is the number of DU keys, Max-Min+1.
func (d *Dense) Len() int { return len(d.rates) }

// At returns the rate for du, or false when du is outside [Min, Max].
func (d *Dense) At(du int) (Rate, bool) {
	i := du - d.min
	if i < 0 || i >= len(d.rates) {
		return 0, false
	}
	return d.rates[i], true
}

// Points returns every (du, rate) pair in ascending order.
func (d *Dense) Points() []Point {
	out := make([]Point, len(d.rates))
	for i, r := range d.rates {
		out[i] = Point{DU: d.min + i, Rate: r}
	}
	return out
}
