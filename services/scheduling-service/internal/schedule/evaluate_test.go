package schedule

import (
	"testing"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

func TestProjectOccurrences(t *testing.T) {
	// 2024-06-10 is a Monday.
	dates := ProjectOccurrences(date(2024, time.June, 10), weekdays, 3)
	want := []time.Time{
		date(2024, time.June, 10),
		date(2024, time.June, 11),
		date(2024, time.June, 12),
	}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(dates))
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("date[%d] = %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestProjectOccurrencesSkipsWeekend(t *testing.T) {
	// Friday anchor with Mon-Fri working days: next occurrence is Monday.
	dates := ProjectOccurrences(date(2024, time.June, 14), weekdays, 2)
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	if !dates[1].Equal(date(2024, time.June, 17)) {
		t.Fatalf("second occurrence = %s, want Monday 2024-06-17", dates[1])
	}
}

func TestProjectOccurrencesNonWorkingAnchor(t *testing.T) {
	// Saturday anchor is skipped, not counted.
	dates := ProjectOccurrences(date(2024, time.June, 8), weekdays, 1)
	if len(dates) != 1 || !dates[0].Equal(date(2024, time.June, 10)) {
		t.Fatalf("expected Monday 2024-06-10, got %v", dates)
	}
}

func TestProjectOccurrencesBounded(t *testing.T) {
	// One working day per week: 60 sessions would need ~420 days, so the
	// 365-day cap truncates the series instead of erroring.
	dates := ProjectOccurrences(date(2024, time.June, 10), []time.Weekday{time.Monday}, 60)
	if len(dates) >= 60 {
		t.Fatalf("expected truncated series, got %d dates", len(dates))
	}
	if len(dates) == 0 {
		t.Fatal("expected a usable partial series")
	}
	if dates := ProjectOccurrences(date(2024, time.June, 10), nil, 5); len(dates) != 0 {
		t.Fatalf("empty working-day set should project nothing, got %d", len(dates))
	}
}

func TestEvaluateConcreteScenario(t *testing.T) {
	grid := Grid(model.OperatingHours{Open: "08:00", Close: "12:00"})
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		scheduled("s1", monday, "09:00", "09:30"),
	})

	results := Evaluate(grid, occ, monday, weekdays, 3)
	if len(results) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(results))
	}
	for _, r := range results {
		if r.TotalSessions != 3 {
			t.Fatalf("slot %s: total = %d, want 3", r.Slot.Value, r.TotalSessions)
		}
		if r.Slot.Value == "09:00" {
			if r.AvailableSessions != 2 || !r.IsPartiallyAvailable || r.IsFullyAvailable {
				t.Fatalf("09:00: got %+v, want 2/3 partially available", r)
			}
			if r.Conflicting == nil || r.Conflicting.ID != "s1" {
				t.Fatalf("09:00: expected conflicting session s1, got %+v", r.Conflicting)
			}
			continue
		}
		if !r.IsFullyAvailable || r.AvailableSessions != 3 || r.Conflicting != nil {
			t.Fatalf("slot %s: got %+v, want fully available", r.Slot.Value, r)
		}
	}
}

func TestEvaluateCountingInvariant(t *testing.T) {
	grid := Grid(model.OperatingHours{Open: "08:00", Close: "12:00"})
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		scheduled("s1", monday, "08:00", "08:30"),
		scheduled("s2", date(2024, time.June, 11), "08:00", "08:30"),
		scheduled("s3", date(2024, time.June, 12), "08:00", "08:30"),
	})

	results := Evaluate(grid, occ, monday, weekdays, 3)
	for _, r := range results {
		if r.AvailableSessions < 0 || r.AvailableSessions > r.TotalSessions {
			t.Fatalf("slot %s: counts out of range: %+v", r.Slot.Value, r)
		}
	}
	// 08:00 is taken on all three occurrence dates: fully occupied.
	first := results[0]
	if first.AvailableSessions != 0 || first.IsFullyAvailable || first.IsPartiallyAvailable {
		t.Fatalf("08:00: got %+v, want fully occupied", first)
	}
}

func TestEvaluateSingleSessionMatchesSlotCheck(t *testing.T) {
	grid := Grid(model.OperatingHours{Open: "08:00", Close: "12:00"})
	// Saturday: not a working day, but a single-session request checks the
	// anchor date directly.
	saturday := date(2024, time.June, 8)
	occ := BuildOccupancy([]model.Session{
		scheduled("s1", saturday, "09:00", "09:30"),
	})

	results := Evaluate(grid, occ, saturday, weekdays, 1)
	for _, r := range results {
		check := CheckSlot(grid, occ, saturday, r.Slot.Value)
		if check.Occupied == r.IsFullyAvailable {
			t.Fatalf("slot %s: evaluate and single-slot check disagree", r.Slot.Value)
		}
		if r.TotalSessions != 1 {
			t.Fatalf("slot %s: total = %d, want 1", r.Slot.Value, r.TotalSessions)
		}
	}
}
