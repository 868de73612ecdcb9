// Package ptbr parses numbers and dates written the Brazilian way, as found
// in B3 pages and back-office exports ("1.274", "13,31", "08/jul/25").
package ptbr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

// ParseFloat accepts "13,31", "1.013,27", "-0,97" and plain "13.31".
// NaN, infinities and out-of-range values are rejected.
func ParseFloat(s string) (float64, error) {
	s = clean(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("ptbr: bad number %q", s)
	}
	return f, nil
}

// ParseInt accepts integers with "." thousands separators ("1.274").
func ParseInt(s string) (int, error) {
	s = strings.ReplaceAll(clean(s), ".", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("ptbr: bad integer %q", s)
	}
	return n, nil
}

var months = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY and DD/mmm/YY (pt-BR month
// abbreviations, e.g. 08/jul/25).
func ParseDate(s string) (civil.Date, error) {
	s = clean(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return civil.DateOf(t), nil
	}

	parts := strings.Split(s, "/")
	if len(parts) == 3 {
		day, err1 := strconv.Atoi(parts[0])
		month, ok := months[strings.ToLower(parts[1])]
		year, err2 := strconv.Atoi(parts[2])
		if err1 == nil && ok && err2 == nil {
			if len(parts[2]) == 2 {
				year += 2000
			}
			d := civil.Date{Year: year, Month: month, Day: day}
			if d.IsValid() {
				return d, nil
			}
		}
	}
	return civil.Date{}, fmt.Errorf("ptbr: bad date %q", s)
}
