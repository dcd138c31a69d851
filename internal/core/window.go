package core

import (
	"fmt"
	"time"
)

// MonthWindow is one calendar month used as an inclusive date filter.
// It is always normalized: out-of-range months roll into the adjacent
// year, so every (Year, Month) pair names a real month.
type MonthWindow struct {
	Year  int
	Month time.Month
}

// NewMonthWindow builds a normalized window; month 0 rolls back to
// December of the previous year, month 13 forward to January of the next.
func NewMonthWindow(year int, month time.Month) MonthWindow {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{Year: t.Year(), Month: t.Month()}
}

// WindowOf returns the month window containing t.
func WindowOf(t time.Time) MonthWindow {
	return MonthWindow{Year: t.Year(), Month: t.Month()}
}

// FirstDay is the first calendar day of the month.
func (w MonthWindow) FirstDay() Date {
	return NewDate(w.Year, w.Month, 1)
}

// LastDay is the true last calendar day of the month, leap years
// included: day zero of the following month.
func (w MonthWindow) LastDay() Date {
	return Date{Time: time.Date(w.Year, w.Month+1, 0, 0, 0, 0, 0, time.UTC)}
}

// Prev returns the preceding month, rolling into the prior year from
// January.
func (w MonthWindow) Prev() MonthWindow {
	return NewMonthWindow(w.Year, w.Month-1)
}

// Next returns the following month, rolling into the next year from
// December.
func (w MonthWindow) Next() MonthWindow {
	return NewMonthWindow(w.Year, w.Month+1)
}

// Contains reports whether d falls inside the window, bounds inclusive.
func (w MonthWindow) Contains(d Date) bool {
	day := d.Truncated()
	return !day.Before(w.FirstDay().Time) && !day.After(w.LastDay().Time)
}

func (w MonthWindow) String() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}
