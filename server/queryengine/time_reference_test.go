package queryengine

import (
	"testing"
	"time"
)

// A fixed Wednesday keeps weekday arithmetic deterministic.
var wednesday = time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)

func TestResolveTimeReference_Today(t *testing.T) {
	ref := ResolveTimeReference("What's the weather?", wednesday)
	if ref.Kind != TimeToday {
		t.Fatalf("kind = %q, want %q", ref.Kind, TimeToday)
	}
	if ref.StartDate != "2025-06-04" || ref.EndDate != "2025-06-04" {
		t.Errorf("window = %s..%s, want 2025-06-04..2025-06-04", ref.StartDate, ref.EndDate)
	}
	if !ref.AssumedToday {
		t.Error("expected AssumedToday for a query with no time marker")
	}
}

func TestResolveTimeReference_Tomorrow(t *testing.T) {
	ref := ResolveTimeReference("What's the weather in Paris tomorrow?", wednesday)
	if ref.Kind != TimeTomorrow {
		t.Fatalf("kind = %q, want %q", ref.Kind, TimeTomorrow)
	}
	if ref.StartDate != "2025-06-05" || ref.EndDate != "2025-06-05" {
		t.Errorf("window = %s..%s, want 2025-06-05..2025-06-05", ref.StartDate, ref.EndDate)
	}
	if ref.AssumedToday {
		t.Error("AssumedToday must be false when a marker matched")
	}
}

func TestResolveTimeReference_Weekend(t *testing.T) {
	ref := ResolveTimeReference("will it rain this weekend", wednesday)
	if ref.Kind != TimeWeekend {
		t.Fatalf("kind = %q, want %q", ref.Kind, TimeWeekend)
	}
	if ref.StartDate != "2025-06-07" || ref.EndDate != "2025-06-08" {
		t.Errorf("window = %s..%s, want 2025-06-07..2025-06-08", ref.StartDate, ref.EndDate)
	}
	if ref.Granularity != GranularityDaily {
		t.Errorf("granularity = %q, want daily", ref.Granularity)
	}
}

func TestResolveTimeReference_WeekdayNeverSameDay(t *testing.T) {
	ref := ResolveTimeReference("weather on wednesday", wednesday)
	if ref.Kind != TimeWeekday || ref.Weekday != "wednesday" {
		t.Fatalf("got kind=%q weekday=%q", ref.Kind, ref.Weekday)
	}
	// Asking for Wednesday on a Wednesday means next week.
	if ref.StartDate != "2025-06-11" {
		t.Errorf("start = %s, want 2025-06-11", ref.StartDate)
	}
}

func TestResolveTimeReference_FutureWindow(t *testing.T) {
	ref := ResolveTimeReference("upcoming weather in Oslo", wednesday)
	if ref.Kind != TimeFutureWindow {
		t.Fatalf("kind = %q, want %q", ref.Kind, TimeFutureWindow)
	}
	if ref.StartDate != "2025-06-05" || ref.EndDate != "2025-06-07" {
		t.Errorf("window = %s..%s, want 2025-06-05..2025-06-07", ref.StartDate, ref.EndDate)
	}
}

func TestResolveTimeReference_SpecificDates(t *testing.T) {
	ref := ResolveTimeReference("weather on 2025-12-24 in Munich", wednesday)
	if ref.Kind != TimeSpecificDate || ref.StartDate != "2025-12-24" {
		t.Fatalf("got kind=%q start=%s", ref.Kind, ref.StartDate)
	}

	ref = ResolveTimeReference("forecast for 24/12/2025", wednesday)
	if ref.Kind != TimeSpecificDate || ref.StartDate != "2025-12-24" {
		t.Fatalf("d/m/y: got kind=%q start=%s", ref.Kind, ref.StartDate)
	}

	// Overflow dates must not normalize into the next month.
	ref = ResolveTimeReference("forecast for 32/1/2025", wednesday)
	if ref.Kind == TimeSpecificDate {
		t.Errorf("32/1/2025 should not parse as a date, got start=%s", ref.StartDate)
	}
}

func TestResolveTimeReference_HourlyGranularity(t *testing.T) {
	ref := ResolveTimeReference("hourly forecast for tomorrow", wednesday)
	if ref.Kind != TimeTomorrow {
		t.Fatalf("kind = %q, want %q", ref.Kind, TimeTomorrow)
	}
	if ref.Granularity != GranularityHourly {
		t.Errorf("granularity = %q, want hourly", ref.Granularity)
	}
}

func TestResolveTimeReference_StartNeverAfterEnd(t *testing.T) {
	queries := []string{
		"weather", "tomorrow", "this weekend", "upcoming days",
		"on friday", "2025-01-01", "hourly today",
	}
	for _, q := range queries {
		ref := ResolveTimeReference(q, wednesday)
		if ref.StartDate > ref.EndDate {
			t.Errorf("%q: start %s after end %s", q, ref.StartDate, ref.EndDate)
		}
	}
}
