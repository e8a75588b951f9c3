package schedule

import (
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

// maxProjectionDays bounds the occurrence-date walk so any working-day set,
// including an empty one, terminates.
const maxProjectionDays = 365

// SlotAvailability reports how a slot fares across a projected series of
// occurrence dates. Conflicting is the first occupying session encountered,
// kept for display only.
type SlotAvailability struct {
	Slot                 model.TimeSlot
	AvailableSessions    int
	TotalSessions        int
	IsFullyAvailable     bool
	IsPartiallyAvailable bool
	Conflicting          *model.Session
}

// ProjectOccurrences walks forward day by day from anchor and collects the
// first n dates falling on a working day. Hitting the 365-day bound first
// yields a shorter series; callers surface the partial result rather than
// failing.
func ProjectOccurrences(anchor time.Time, workingDays []time.Weekday, n int) []time.Time {
	if n < 1 {
		return nil
	}
	working := make(map[time.Weekday]bool, len(workingDays))
	for _, d := range workingDays {
		working[d] = true
	}

	var dates []time.Time
	day := DateOnly(anchor)
	for i := 0; i < maxProjectionDays && len(dates) < n; i++ {
		if working[day.Weekday()] {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// Evaluate projects the occurrence dates for a recurring booking request and
// scans every grid slot across them, counting free dates per slot. Slots come
// back in grid order (ascending time); no ranking is applied. With n <= 1 the
// projection is skipped and the anchor date alone is checked, matching the
// single-slot checker's verdict.
func Evaluate(grid []model.TimeSlot, occ *Occupancy, anchor time.Time, workingDays []time.Weekday, n int) []SlotAvailability {
	var dates []time.Time
	if n <= 1 {
		dates = []time.Time{DateOnly(anchor)}
	} else {
		dates = ProjectOccurrences(anchor, workingDays, n)
	}

	results := make([]SlotAvailability, 0, len(grid))
	for _, slot := range grid {
		avail := SlotAvailability{Slot: slot, TotalSessions: len(dates)}
		for _, date := range dates {
			s, taken := occ.Lookup(date, slot.Value)
			if !taken {
				avail.AvailableSessions++
				continue
			}
			if avail.Conflicting == nil {
				conflicting := s
				avail.Conflicting = &conflicting
			}
		}
		avail.IsFullyAvailable = avail.AvailableSessions == avail.TotalSessions
		avail.IsPartiallyAvailable = avail.AvailableSessions > 0 && avail.AvailableSessions < avail.TotalSessions
		results = append(results, avail)
	}
	return results
}
