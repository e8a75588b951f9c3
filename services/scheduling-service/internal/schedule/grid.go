package schedule

import (
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

// SlotMinutes is the fixed system-wide session slot width.
const SlotMinutes = 30

// Grid derives the bookable slots for a day from the branch operating hours:
// one slot per 30-minute boundary from open (inclusive) to close (exclusive),
// ascending. Unparseable hours or close <= open yield an empty grid rather
// than an error; callers render that as "no slots available".
func Grid(hours model.OperatingHours) []model.TimeSlot {
	open, err := ParseClock(hours.Open)
	if err != nil {
		return nil
	}
	close, err := ParseClock(hours.Close)
	if err != nil {
		return nil
	}

	var slots []model.TimeSlot
	for m := open; m < close; m += SlotMinutes {
		slots = append(slots, model.TimeSlot{
			Value: FormatClock(m),
			Label: FormatLabel(m),
		})
	}
	return slots
}

// SlotIndex returns the position of the slot with the given "HH:MM" value,
// or -1 when it is not part of the grid.
func SlotIndex(grid []model.TimeSlot, value string) int {
	for i, s := range grid {
		if s.Value == value {
			return i
		}
	}
	return -1
}
