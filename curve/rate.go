package curve

import "math"

// DaysPerYear is the business-day compounding basis.
const DaysPerYear = 252.0

// Rate is a per-year return as a decimal fraction (0.105 for 10.5%).
// All curve arithmetic is done in Rate.
type Rate float64

// Percent is a rate quoted in whole percent (10.5 for 10.5%), the way the
// market source and the trade blotter publish it.
type Percent float64

// Rate converts a percent quote into a decimal fraction.
func (p Percent) Rate() Rate {
	return Rate(float64(p) / 100)
}

// Percent converts r back to whole percent for presentation.
func (r Rate) Percent() Percent {
	return Percent(float64(r) * 100)
}

// Valid reports whether 1+r is a usable compounding base.
func (r Rate) Valid() bool {
	f := float64(r)
	return f > -1 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Factor returns the compounding factor (1+r)^(du/252).
func Factor(du int, r Rate) float64 {
	return math.Pow(1+float64(r), float64(du)/DaysPerYear)
}
