package stats

import (
	"fmt"
	"time"

	"github.com/simonvc/moneymanager/internal/ledger"
)

type Dimension string

const (
	Day   Dimension = "day"
	Week  Dimension = "week"
	Month Dimension = "month"
	Year  Dimension = "year"
	All   Dimension = "all"
)

var Dimensions = []Dimension{Day, Week, Month, Year, All}

// ParseDimension accepts the lower-case dimension names. An empty string
// means Month.
func ParseDimension(s string) (Dimension, error) {
	if s == "" {
		return Month, nil
	}
	for _, d := range Dimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ledger.ErrInvalidDimension, s)
}

// Range is a closed interval: both Start and End are inside it.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days is the length of the range in days, saturating for very long ranges.
func (r Range) Days() float64 {
	return r.End.Sub(r.Start).Hours() / 24
}

// ResolveRange returns the calendar period of dimension d that contains ref,
// in ref's location. Weeks start on Monday. All spans years 1 to 9999 of
// ref's calendar; its Start is the zero instant.
func ResolveRange(d Dimension, ref time.Time) (Range, error) {
	y, m, day := ref.Date()
	loc := ref.Location()

	var start, next time.Time
	switch d {
	case Day:
		start = time.Date(y, m, day, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 1)
	case Week:
		offset := (int(ref.Weekday()) + 6) % 7
		start = time.Date(y, m, day-offset, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 7)
	case Month:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	case Year:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	case All:
		start = time.Time{}.In(loc)
		next = time.Date(10000, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return Range{}, fmt.Errorf("%w: %q", ledger.ErrInvalidDimension, d)
	}
	return Range{Start: start, End: next.Add(-time.Nanosecond)}, nil
}

// Shift moves ref by n periods of dimension d. Month and year shifts clamp
// to the end of the target month so Jan 31 + 1 month is Feb 28/29. All does
// not move.
func Shift(d Dimension, ref time.Time, n int) (time.Time, error) {
	switch d {
	case Day:
		return ref.AddDate(0, 0, n), nil
	case Week:
		return ref.AddDate(0, 0, 7*n), nil
	case Month:
		return addMonthsClamped(ref, n), nil
	case Year:
		return addMonthsClamped(ref, 12*n), nil
	case All:
		return ref, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ledger.ErrInvalidDimension, d)
}

func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
