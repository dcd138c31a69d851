package core

import (
	"testing"
	"time"
)

func TestMonthWindowLastDay(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2026, time.February, 28},
		{2024, time.February, 29}, // leap year
		{2000, time.February, 29}, // 400-year leap rule
		{1900, time.February, 28}, // 100-year non-leap rule
		{2026, time.April, 30},
		{2026, time.December, 31},
		{2026, time.January, 31},
	}
	for _, tc := range cases {
		w := NewMonthWindow(tc.year, tc.month)
		if got := w.LastDay().Day(); got != tc.day {
			t.Fatalf("%v: last day = %d, want %d", w, got, tc.day)
		}
		if got := w.FirstDay().Day(); got != 1 {
			t.Fatalf("%v: first day = %d, want 1", w, got)
		}
	}
}

func TestMonthWindowISO(t *testing.T) {
	w := NewMonthWindow(2026, time.February)
	if got := w.FirstDay().ISO(); got != "2026-02-01" {
		t.Fatalf("first day ISO = %q", got)
	}
	if got := w.LastDay().ISO(); got != "2026-02-28" {
		t.Fatalf("last day ISO = %q", got)
	}
}

func TestMonthWindowNavigation(t *testing.T) {
	jan := NewMonthWindow(2026, time.January)

	prev := jan.Prev()
	if prev.Year != 2025 || prev.Month != time.December {
		t.Fatalf("Prev(Jan 2026) = %v", prev)
	}

	dec := NewMonthWindow(2025, time.December)
	next := dec.Next()
	if next.Year != 2026 || next.Month != time.January {
		t.Fatalf("Next(Dec 2025) = %v", next)
	}

	// Normalization of out-of-range months.
	if w := NewMonthWindow(2026, 0); w.Year != 2025 || w.Month != time.December {
		t.Fatalf("NewMonthWindow(2026, 0) = %v", w)
	}
	if w := NewMonthWindow(2026, 13); w.Year != 2027 || w.Month != time.January {
		t.Fatalf("NewMonthWindow(2026, 13) = %v", w)
	}
}

func TestMonthWindowContains(t *testing.T) {
	w := NewMonthWindow(2026, time.February)
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2026, time.February, 1), true},  // first day inclusive
		{NewDate(2026, time.February, 28), true}, // last day inclusive
		{NewDate(2026, time.February, 15), true},
		{NewDate(2026, time.January, 31), false},
		{NewDate(2026, time.March, 1), false},
		{NewDate(2025, time.February, 15), false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.d); got != tc.in {
			t.Fatalf("Contains(%s) = %v, want %v", tc.d.ISO(), got, tc.in)
		}
	}
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2026-02-03")
	if err != nil {
		t.Fatalf("ParseISODate: %v", err)
	}
	if d.ISO() != "2026-02-03" {
		t.Fatalf("round trip = %q", d.ISO())
	}
	if _, err := ParseISODate("03/02/2026"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}
