package core

import (
	"testing"
	"time"
)

func TestDateRangeWindow(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC),
	}
	from, before := r.Window(time.UTC)
	if !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", from)
	}
	if !before.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("before = %v", before)
	}
	days := r.Days(time.UTC)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if DayKey(days[2], time.UTC) != "2024-01-03" {
		t.Fatalf("last day = %s", DayKey(days[2], time.UTC))
	}
}

func TestDateRangeValidate(t *testing.T) {
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := (DateRange{Start: end.AddDate(0, 0, 1), End: end}).Validate(); err == nil {
		t.Fatalf("expected error when start is after end")
	}
	if err := (DateRange{Start: end, End: end}).Validate(); err != nil {
		t.Fatalf("expected ok for equal bounds, got %v", err)
	}
}

func TestDateRangeValidateDays(t *testing.T) {
	evening := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	morning := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	if err := (DateRange{Start: evening, End: morning}).ValidateDays(time.UTC); err != nil {
		t.Fatalf("expected same-day range to pass, got %v", err)
	}
	if err := (DateRange{Start: evening, End: morning.AddDate(0, 0, -1)}).ValidateDays(time.UTC); err == nil {
		t.Fatalf("expected error when start day is after end day")
	}
	// 23:30 UTC on Jan 1 is already Jan 2 in CET
	rome := time.FixedZone("CET", 3600)
	late := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	if err := (DateRange{Start: late, End: morning}).ValidateDays(rome); err == nil {
		t.Fatalf("expected error for a start day after end day in the configured zone")
	}
}

func TestNextDayAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	day := StartOfDay(time.Date(2024, 3, 31, 12, 0, 0, 0, loc), loc)
	next := NextDay(day)
	if next.Hour() != 0 || next.Day() != 1 {
		t.Fatalf("next = %v", next)
	}
	if next.Sub(day) != 23*time.Hour {
		t.Fatalf("expected a 23h day, got %v", next.Sub(day))
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-02-29", time.UTC)
	if err != nil || d.Day() != 29 {
		t.Fatalf("ParseDay day: %v %v", d, err)
	}
	d, err = ParseDay("2024-02-29T23:00:00Z", time.UTC)
	if err != nil || d.Hour() != 23 {
		t.Fatalf("ParseDay instant: %v %v", d, err)
	}
	if _, err := ParseDay("yesterday", time.UTC); err == nil {
		t.Fatalf("expected error")
	}
}
