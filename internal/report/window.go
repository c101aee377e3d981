// Package report aggregates transactions over calendar windows.
//
// Every function here is pure: it reads a transaction slice (usually a wallet
// snapshot, or the concatenation of several) and never mutates it.
package report

import (
	"errors"
	"strings"
	"time"
)

type Window string

const (
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
)

var ErrInvalidWindow = errors.New("invalid window")

// ParseWindow accepts week, month or year in any case. Empty means month.
func ParseWindow(s string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case "", Month:
		return Month, nil
	case Week:
		return Week, nil
	case Year:
		return Year, nil
	default:
		return "", ErrInvalidWindow
	}
}

// ParseWeekday accepts english weekday names ("sunday", "Mon", ...).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return time.Sunday, errors.New("invalid weekday")
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.HasPrefix(strings.ToLower(d.String()), s) {
			return d, nil
		}
	}
	return time.Sunday, errors.New("invalid weekday")
}

// Range is a half-open time interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// AllTime contains every representable date.
var AllTime = Range{End: time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Bounds returns the calendar-aligned window containing now, in now's location.
func Bounds(now time.Time, w Window, weekStart time.Weekday) Range {
	y, m, d := now.Date()
	loc := now.Location()
	switch w {
	case Week:
		offset := (int(now.Weekday()) - int(weekStart) + 7) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		return Range{Start: start, End: time.Date(y, m, d-offset+7, 0, 0, 0, 0, loc)}
	case Year:
		return Range{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y+1, time.January, 1, 0, 0, 0, 0, loc),
		}
	default:
		return MonthRange(y, m, loc)
	}
}

// MonthRange is the [first day, first day of next month) range of a month.
func MonthRange(year int, month time.Month, loc *time.Location) Range {
	return Range{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, month+1, 1, 0, 0, 0, 0, loc),
	}
}
