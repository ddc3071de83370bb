// Package calendar resolves option expiries to tradable last trading days
// using the US exchange holiday rules.
package calendar

import (
	"errors"
	"time"
)

// ErrInvalidExpiry is returned when the resolver is given a zero expiry.
var ErrInvalidExpiry = errors.New("invalid expiry date")

// Calendar evaluates the US exchange holiday rules. It is stateless and
// safe for concurrent use; holiday sets are derived from fixed rules, not
// stored dates.
type Calendar struct{}

// NewUS returns the US equity exchange calendar.
func NewUS() *Calendar {
	return &Calendar{}
}

// LastTradingDay computes the final tradable day for a contract expiry.
// Standard American-style contracts nominally expire on a Saturday in some
// feeds; the tradable last day is the preceding business day. A Saturday
// expiry steps back one day, then the date walks back over any holidays.
// The holiday loop does not re-check for weekends: a Saturday expiry
// preceded by a holiday Friday resolves to the Thursday.
func (c *Calendar) LastTradingDay(expiry time.Time) (time.Time, error) {
	if expiry.IsZero() {
		return time.Time{}, ErrInvalidExpiry
	}

	d := Midnight(expiry)
	if d.Weekday() == time.Saturday {
		d = d.AddDate(0, 0, -1)
	}
	for c.IsHoliday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d, nil
}

// IsHoliday reports whether d falls on a designated exchange holiday.
// Observed dates can spill into the prior year (New Year's Day observed on
// December 31), so the following year's rules are consulted as well.
func (c *Calendar) IsHoliday(d time.Time) bool {
	d = Midnight(d)
	for _, h := range holidaysFor(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	for _, h := range holidaysFor(d.Year() + 1) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// Midnight truncates t to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// holidaysFor returns the observed exchange holidays for one year:
// New Year's Day, MLK Day, Presidents Day, Good Friday, Memorial Day,
// Independence Day, Labor Day, Thanksgiving, and Christmas.
func holidaysFor(year int) []time.Time {
	return []time.Time{
		nearestWorkday(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		goodFriday(year),
		lastWeekday(year, time.May, time.Monday),
		nearestWorkday(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		nearestWorkday(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)),
	}
}

// nearestWorkday shifts a weekend date to the closest weekday:
// Saturday observes on Friday, Sunday observes on Monday.
func nearestWorkday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// nthWeekday returns the n-th given weekday of a month (n >= 1).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final given weekday of a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// goodFriday is two days before Easter Sunday, computed with the anonymous
// Gregorian algorithm.
func goodFriday(year int) time.Time {
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
	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return easter.AddDate(0, 0, -2)
}
