package schedule

import (
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

const maxAlternatives = 4

// SlotCheck is the verdict for a single candidate (vehicle, date, time).
type SlotCheck struct {
	Occupied     bool
	Conflicting  *model.Session
	Alternatives []string
}

// CheckSlot looks up one slot in the occupancy index. When the slot is taken
// it proposes up to four free alternative slot labels for the same date:
// the two positions before and two after the requested slot first, then the
// remaining free slots in grid order until four are collected or the grid is
// exhausted. A pure computation over a point-in-time snapshot; writes must
// re-validate separately.
func CheckSlot(grid []model.TimeSlot, occ *Occupancy, date time.Time, clock string) SlotCheck {
	s, taken := occ.Lookup(date, clock)
	if !taken {
		return SlotCheck{}
	}

	check := SlotCheck{Occupied: true, Conflicting: &s}

	normalized, err := NormalizeClock(clock)
	if err != nil {
		return check
	}
	idx := SlotIndex(grid, normalized)

	free := func(i int) (model.TimeSlot, bool) {
		if i < 0 || i >= len(grid) {
			return model.TimeSlot{}, false
		}
		if _, occupied := occ.Lookup(date, grid[i].Value); occupied {
			return model.TimeSlot{}, false
		}
		return grid[i], true
	}

	picked := map[int]bool{}
	if idx >= 0 {
		for _, i := range []int{idx - 1, idx + 1, idx - 2, idx + 2} {
			if len(check.Alternatives) >= maxAlternatives {
				break
			}
			if slot, ok := free(i); ok && !picked[i] {
				picked[i] = true
				check.Alternatives = append(check.Alternatives, slot.Label)
			}
		}
	}
	for i := range grid {
		if len(check.Alternatives) >= maxAlternatives {
			break
		}
		if i == idx || picked[i] {
			continue
		}
		if slot, ok := free(i); ok {
			picked[i] = true
			check.Alternatives = append(check.Alternatives, slot.Label)
		}
	}
	return check
}
