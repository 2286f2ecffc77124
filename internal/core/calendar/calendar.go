// Package calendar generates the date dimension
package calendar

import (
	"time"

	perr "insightmart/internal/platform/errors"
)

// Day is one row of dim_date
type Day struct {
	DateKey        int // yyyymmdd
	Date           time.Time
	Year           int
	Quarter        int
	Month          int
	MonthName      string
	Day            int
	Week           int // ISO week
	Weekday        int // 1 = Monday
	DayName        string
	IsWeekend      bool
	IsMonthStart   bool
	IsMonthEnd     bool
	IsQuarterStart bool
	IsQuarterEnd   bool
	IsYearStart    bool
	IsYearEnd      bool
}

// Key is the yyyymmdd key of t
func Key(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate returns one Day per date in [start, end], both truncated to UTC days
func Generate(start, end time.Time) ([]Day, error) {
	start, end = midnight(start), midnight(end)
	if end.Before(start) {
		return nil, perr.InvalidArgf("calendar: end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	n := int(end.Sub(start).Hours()/24) + 1
	out := make([]Day, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, build(d))
	}
	return out, nil
}

func build(d time.Time) Day {
	_, week := d.ISOWeek()
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	q := (int(d.Month())-1)/3 + 1
	next := d.AddDate(0, 0, 1)
	monthEnd := next.Month() != d.Month()
	quarterStart := d.Day() == 1 && (int(d.Month())-1)%3 == 0
	quarterEnd := monthEnd && int(d.Month())%3 == 0

	return Day{
		DateKey:        Key(d),
		Date:           d,
		Year:           d.Year(),
		Quarter:        q,
		Month:          int(d.Month()),
		MonthName:      d.Month().String(),
		Day:            d.Day(),
		Week:           week,
		Weekday:        wd,
		DayName:        d.Weekday().String(),
		IsWeekend:      wd >= 6,
		IsMonthStart:   d.Day() == 1,
		IsMonthEnd:     monthEnd,
		IsQuarterStart: quarterStart,
		IsQuarterEnd:   quarterEnd,
		IsYearStart:    d.YearDay() == 1,
		IsYearEnd:      d.Month() == time.December && d.Day() == 31,
	}
}

// Bounds pins either end of the horizon; nil ends are derived
type Bounds struct {
	Start *time.Time
	End   *time.Time
	// MarginDays widens derived ends on both sides
	MarginDays int
}

// Horizon derives the span of observed dates widened by the margin.
// Configured ends win over derived ones; with nothing observed, derived ends sit around now
func Horizon(observed []*time.Time, b Bounds, now time.Time) (time.Time, time.Time, error) {
	var lo, hi *time.Time
	for _, t := range observed {
		if t == nil {
			continue
		}
		if lo == nil || t.Before(*lo) {
			lo = t
		}
		if hi == nil || t.After(*hi) {
			hi = t
		}
	}
	if lo == nil {
		n := midnight(now)
		lo, hi = &n, &n
	}
	start := midnight(*lo).AddDate(0, 0, -b.MarginDays)
	end := midnight(*hi).AddDate(0, 0, b.MarginDays)
	if b.Start != nil {
		start = midnight(*b.Start)
	}
	if b.End != nil {
		end = midnight(*b.End)
	}
	if end.Before(start) {
		return start, end, perr.InvalidArgf("calendar: horizon end %s is before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}
