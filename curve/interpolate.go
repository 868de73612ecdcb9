package curve

import (
	"fmt"
	"math"
)

// Densify fills every missing DU between consecutive vertices of s using
// Flat-Forward 252. Vertices keep their published rate and nothing is
// extrapolated beyond the first and last vertex.
func Densify(s *Sparse) (*Dense, error) {
	if s == nil || len(s.points) == 0 {
		return nil, fmt.Errorf("curve: densify: empty curve: %w", ErrInvalidCurve)
	}

	pts := s.points
	first, last := pts[0].DU, pts[len(pts)-1].DU
	rates := make([]Rate, last-first+1)
	rates[0] = pts[0].Rate

	for i := 1; i < len(pts); i++ {
		prev, next := pts[i-1], pts[i]
		if next.DU <= prev.DU {
			return nil, fmt.Errorf("curve: densify %v: du %d after %d: %w",
				s.date, next.DU, prev.DU, ErrInvalidCurve)
		}
		for du := prev.DU + 1; du < next.DU; du++ {
			r, err := flatForward(prev, next, du)
			if err != nil {
				return nil, fmt.Errorf("curve: densify %v: %w", s.date, err)
			}
			rates[du-first] = r
		}
		rates[next.DU-first] = next.Rate
	}

	return &Dense{date: s.date, min: first, rates: rates}, nil
}

// FlatForward returns the rate at du implied by holding the forward rate
// constant between prev and next. du must lie strictly between them.
func FlatForward(prev, next Point, du int) (Rate, error) {
	if !(prev.DU < du && du < next.DU) {
		return 0, fmt.Errorf("curve: du %d not inside (%d, %d): %w", du, prev.DU, next.DU, ErrInvalidCurve)
	}
	return flatForward(prev, next, du)
}

// flatForward assumes prev.DU < du < next.DU. NewSparse rejects negative DU,
// so du is always positive here.
func flatForward(prev, next Point, du int) (Rate, error) {
	fPrev := Factor(prev.DU, prev.Rate)
	fNext := Factor(next.DU, next.Rate)
	ratio := fNext / fPrev
	exponent := float64(du-prev.DU) / float64(next.DU-prev.DU)
	combined := fPrev * math.Pow(ratio, exponent)

	r := Rate(math.Pow(combined, DaysPerYear/float64(du)) - 1)
	if !r.Valid() {
		return 0, fmt.Errorf("curve: du %d in (%d, %d) gives rate %v: %w", du, prev.DU, next.DU, r, ErrInvalidCurve)
	}
	return r, nil
}
