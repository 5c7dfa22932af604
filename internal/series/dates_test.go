package series

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartYear(t *testing.T) {
	tests := []struct {
		name         string
		inputYear    int
		currentYear  int
		wantYear     int
		wantAdjusted bool
	}{
		{"current year", 2025, 2025, 2025, false},
		{"future year", 2027, 2025, 2027, false},
		{"one year back", 2024, 2025, 2024, false},
		{"two years back pulled forward", 2023, 2025, 2024, true},
		{"far past pulled forward", 2010, 2025, 2024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, adjusted := StartYear(tt.inputYear, tt.currentYear)
			if got != tt.wantYear {
				t.Errorf("StartYear(%d, %d) = %d, want %d", tt.inputYear, tt.currentYear, got, tt.wantYear)
			}
			if adjusted != tt.wantAdjusted {
				t.Errorf("adjusted = %v, want %v", adjusted, tt.wantAdjusted)
			}
		})
	}
}

func TestStartDateClampsFeb29(t *testing.T) {
	anchor := date(2024, time.February, 29)

	got := StartDate(anchor, 2025)
	if want := date(2025, time.February, 28); !got.Equal(want) {
		t.Errorf("non-leap start = %v, want %v", got, want)
	}

	got = StartDate(anchor, 2028)
	if want := date(2028, time.February, 29); !got.Equal(want) {
		t.Errorf("leap start = %v, want %v", got, want)
	}
}

func TestStartDateOrdinaryDate(t *testing.T) {
	got := StartDate(date(2024, time.June, 15), 2026)
	if want := date(2026, time.June, 15); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDatesKeepsMonthAndDay(t *testing.T) {
	got := Dates(date(2024, time.June, 15), 2024, Span)
	want := []time.Time{
		date(2024, time.June, 15),
		date(2025, time.June, 15),
		date(2026, time.June, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// A Feb-29 anchor starting in a non-leap year is clamped to Feb 28 for the
// start year only. Later non-leap years are skipped, not clamped.
func TestDatesFeb29Asymmetry(t *testing.T) {
	got := Dates(date(2024, time.February, 29), 2025, Span)
	want := []time.Time{
		date(2025, time.February, 28),
		// 2026 and 2027 are non-leap: skipped entirely.
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !got[0].Equal(want[0]) {
		t.Errorf("dates[0] = %v, want %v", got[0], want[0])
	}
}

func TestDatesFeb29FromLeapStart(t *testing.T) {
	got := Dates(date(2024, time.February, 29), 2024, 5)
	want := []time.Time{
		date(2024, time.February, 29),
		date(2028, time.February, 29),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestYearDate(t *testing.T) {
	if d, ok := YearDate(date(2024, time.June, 15), 2030); !ok || !d.Equal(date(2030, time.June, 15)) {
		t.Errorf("YearDate = %v, %v", d, ok)
	}
	if _, ok := YearDate(date(2024, time.February, 29), 2025); ok {
		t.Error("Feb 29 should not exist in 2025")
	}
	if d, ok := YearDate(date(2024, time.February, 29), 2028); !ok || !d.Equal(date(2028, time.February, 29)) {
		t.Errorf("YearDate leap = %v, %v", d, ok)
	}
}
