package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

// HolidaySet is a HolidayTable built from an explicit list of dates.
type HolidaySet map[civil.Date]struct{}

// NewHolidaySet builds a HolidaySet from dates.
func NewHolidaySet(dates ...civil.Date) HolidaySet {
	s := make(HolidaySet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

// ParseHolidaySet builds a HolidaySet from YYYY-MM-DD strings.
func ParseHolidaySet(dates ...string) (HolidaySet, error) {
	s := make(HolidaySet, len(dates))
	for _, str := range dates {
		d, err := civil.ParseDate(str)
		if err != nil {
			return nil, err
		}
		s[d] = struct{}{}
	}
	return s, nil
}

// IsHoliday reports whether d is in the set.
func (s HolidaySet) IsHoliday(d civil.Date) bool {
	_, ok := s[d]
	return ok
}

// Brazil returns the national (ANBIMA) holiday table used by B3.
func Brazil() HolidayTable {
	return brazil{}
}

type brazil struct{}

type monthDay struct {
	month time.Month
	day   int
}

var brazilFixed = []monthDay{
	{time.January, 1},   // Confraternização Universal
	{time.April, 21},    // Tiradentes
	{time.May, 1},       // Dia do Trabalho
	{time.September, 7}, // Independência
	{time.October, 12},  // Nossa Senhora Aparecida
	{time.November, 2},  // Finados
	{time.November, 15}, // Proclamação da República
	{time.December, 25}, // Natal
}

func (brazil) IsHoliday(d civil.Date) bool {
	for _, md := range brazilFixed {
		if d.Month == md.month && d.Day == md.day {
			return true
		}
	}
	// Dia da Consciência Negra became a national holiday in 2024.
	if d.Year >= 2024 && d.Month == time.November && d.Day == 20 {
		return true
	}

	easter := Easter(d.Year)
	switch d.DaysSince(easter) {
	case -48, -47: // Carnaval
		return true
	case -2: // Sexta-feira Santa
		return true
	case 60: // Corpus Christi
		return true
	}
	return false
}

// Easter returns Easter Sunday for year using the anonymous Gregorian
// algorithm.
func Easter(year int) civil.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return civil.Date{Year: year, Month: time.Month(month), Day: day}
}
