package report

import (
	"fmt"
	"time"

	"pharmapos/internal/store"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodRange Period = "range"
)

// Window is a half-open interval [Start, End) in the shop's location.
// A range window ends one nanosecond after to 23:59:59.999999999 so a record
// stamped 23:59:59.999 on the last day is inside and the next midnight is not.
type Window struct {
	Period Period
	Start  time.Time
	End    time.Time
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func Day(date time.Time, loc *time.Location) Window {
	start := startOfDay(date, loc)
	return Window{Period: PeriodDay, Start: start, End: start.AddDate(0, 0, 1)}
}

func Month(date time.Time, loc *time.Location) Window {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Period: PeriodMonth, Start: start, End: start.AddDate(0, 1, 0)}
}

// Range covers from 00:00 through the end of to, both calendar days inclusive.
func Range(from time.Time, to time.Time, loc *time.Location) (Window, error) {
	start := startOfDay(from, loc)
	end := startOfDay(to, loc).AddDate(0, 0, 1)
	if !end.After(start) {
		return Window{}, fmt.Errorf("%w: range ends before it starts", store.ErrInvalidInput)
	}
	return Window{Period: PeriodRange, Start: start, End: end}, nil
}

func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Label is the date part used in titles and export file names.
func (w Window) Label() string {
	switch w.Period {
	case PeriodMonth:
		return w.Start.Format("2006-01")
	case PeriodRange:
		return w.Start.Format("2006-01-02") + "-to-" + w.End.AddDate(0, 0, -1).Format("2006-01-02")
	default:
		return w.Start.Format("2006-01-02")
	}
}
