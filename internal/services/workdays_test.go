package services

import (
	"testing"
	"time"
)

func TestIsWorkday_Weekend(t *testing.T) {
	svc := NewWorkdayService()

	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	if svc.IsWorkday(saturday, "NONE") {
		t.Error("Saturday should not be a workday")
	}
	if !svc.IsWorkday(monday, "NONE") {
		t.Error("Monday should be a workday")
	}
}

func TestIsWorkday_USHoliday(t *testing.T) {
	svc := NewWorkdayService()

	// Independence Day 2026 falls on a Saturday; July 3rd is the observed holiday.
	observed := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)
	if svc.IsWorkday(observed, "US") {
		t.Error("observed Independence Day should not be a US workday")
	}
	if !svc.IsWorkday(observed, "NONE") {
		t.Error("plain weekday calendar should ignore US holidays")
	}
}

func TestIsWorkday_UnknownRegionFallsBack(t *testing.T) {
	svc := NewWorkdayService()

	wednesday := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !svc.IsWorkday(wednesday, "ZZ") {
		t.Error("unknown region should fall back to weekday logic")
	}
}

func TestWorkingDaysUntil(t *testing.T) {
	svc := NewWorkdayService()

	// Monday to next Monday: five working days, start excluded, end included.
	from := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	if got := svc.WorkingDaysUntil(from, to, "NONE"); got != 5 {
		t.Errorf("working days = %d, expected 5", got)
	}

	if got := svc.WorkingDaysUntil(from, from, "NONE"); got != 0 {
		t.Errorf("same-day working days = %d, expected 0", got)
	}
	if got := svc.WorkingDaysUntil(to, from, "NONE"); got != 0 {
		t.Errorf("inverted range working days = %d, expected 0", got)
	}
}

func TestGetSupportedCountries(t *testing.T) {
	svc := NewWorkdayService()
	countries := svc.GetSupportedCountries()
	if len(countries) == 0 {
		t.Fatal("expected a non-empty country list")
	}

	var hasNone bool
	for _, c := range countries {
		if c.Code == "NONE" {
			hasNone = true
		}
	}
	if !hasNone {
		t.Error("NONE fallback region missing")
	}
}
