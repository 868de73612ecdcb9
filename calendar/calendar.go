package calendar

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidDate is returned for dates that are not valid Gregorian dates.
var ErrInvalidDate = errors.New("invalid date")

// maxWalk bounds how far Previous and OnOrBefore will step before giving up.
// No real holiday table has a gap this long.
const maxWalk = 31

// HolidayTable is the static set of non-business dates.
type HolidayTable interface {
	IsHoliday(d civil.Date) bool
}

// Calendar answers business-day questions for a single holiday table.
type Calendar struct {
	table HolidayTable
}

// New returns a Calendar backed by table. A nil table means weekends only.
func New(table HolidayTable) *Calendar {
	if table == nil {
		table = HolidaySet{}
	}
	return &Calendar{table: table}
}

// IsBusinessDay reports whether d is neither a weekend day nor a holiday.
func (c *Calendar) IsBusinessDay(d civil.Date) (bool, error) {
	if !d.IsValid() {
		return false, fmt.Errorf("calendar: %v: %w", d, ErrInvalidDate)
	}
	switch weekday(d) {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	return !c.table.IsHoliday(d), nil
}

// Previous returns the business day immediately before d.
func (c *Calendar) Previous(d civil.Date) (civil.Date, error) {
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("calendar: %v: %w", d, ErrInvalidDate)
	}
	return c.walkBack(d.AddDays(-1))
}

// OnOrBefore returns d if it is a business day, otherwise the closest
// business day before it.
func (c *Calendar) OnOrBefore(d civil.Date) (civil.Date, error) {
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("calendar: %v: %w", d, ErrInvalidDate)
	}
	return c.walkBack(d)
}

func (c *Calendar) walkBack(d civil.Date) (civil.Date, error) {
	for i := 0; i < maxWalk; i++ {
		ok, err := c.IsBusinessDay(d)
		if err != nil {
			return civil.Date{}, err
		}
		if ok {
			return d, nil
		}
		d = d.AddDays(-1)
	}
	return civil.Date{}, fmt.Errorf("calendar: no business day within %d days of %v", maxWalk, d)
}

// BusinessDaysBetween counts business days in (from, to]. It returns a
// negative count when to is before from.
func (c *Calendar) BusinessDaysBetween(from, to civil.Date) (int, error) {
	if !from.IsValid() || !to.IsValid() {
		return 0, fmt.Errorf("calendar: %v..%v: %w", from, to, ErrInvalidDate)
	}
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	n := 0
	for d := from.AddDays(1); !d.After(to); d = d.AddDays(1) {
		ok, err := c.IsBusinessDay(d)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return sign * n, nil
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}
