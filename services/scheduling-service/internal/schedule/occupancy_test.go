package schedule

import (
	"testing"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccupancyLookup(t *testing.T) {
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		{ID: "s1", VehicleID: "V1", ClientName: "Asha", SessionDate: monday, StartTime: "09:00:00", EndTime: "09:30:00", Status: model.StatusScheduled},
	})

	s, taken := occ.Lookup(monday, "09:00")
	if !taken || s.ID != "s1" {
		t.Fatalf("expected s1 at 09:00, got taken=%v session=%+v", taken, s)
	}
	// Seconds must not matter on either side.
	if _, taken := occ.Lookup(monday, "09:00:00"); !taken {
		t.Fatal("lookup with seconds should hit the same key")
	}
	if _, taken := occ.Lookup(monday, "09:30"); taken {
		t.Fatal("09:30 should be free")
	}
	if _, taken := occ.Lookup(date(2024, time.June, 11), "09:00"); taken {
		t.Fatal("other dates should be free")
	}
}

func TestOccupancyExcludesCancelled(t *testing.T) {
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		{ID: "s1", SessionDate: monday, StartTime: "09:00", EndTime: "09:30", Status: model.StatusCancelled},
	})
	if _, taken := occ.Lookup(monday, "09:00"); taken {
		t.Fatal("cancelled session must never occupy a slot")
	}
}

func TestOccupancyFirstSessionWins(t *testing.T) {
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		{ID: "s1", SessionDate: monday, StartTime: "09:00", Status: model.StatusScheduled},
		{ID: "s2", SessionDate: monday, StartTime: "09:00", Status: model.StatusScheduled},
	})
	s, taken := occ.Lookup(monday, "09:00")
	if !taken || s.ID != "s1" {
		t.Fatalf("expected first session to win, got %+v", s)
	}
}

func TestOccupancySkipsUnparseableTimes(t *testing.T) {
	monday := date(2024, time.June, 10)
	occ := BuildOccupancy([]model.Session{
		{ID: "s1", SessionDate: monday, StartTime: "morning", Status: model.StatusScheduled},
	})
	if _, taken := occ.Lookup(monday, "09:00"); taken {
		t.Fatal("unparseable start time should not index anything")
	}
}
