package schedule

import (
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

// Occupancy answers "is slot X on date Y taken, and by whom" for one
// vehicle's sessions. It is rebuilt from a fresh snapshot on every request;
// session volume per vehicle is low and freshness matters more than speed.
type Occupancy struct {
	byKey map[string]model.Session
}

// BuildOccupancy indexes non-cancelled sessions by (date, start time).
// Cancelled sessions never occupy a slot. Start times are normalized to
// "HH:MM" (seconds truncated); sessions with unparseable times are skipped.
// The first session seen for a key wins, which is the query-time enforcement
// point for the one-booking-per-slot invariant.
func BuildOccupancy(sessions []model.Session) *Occupancy {
	byKey := make(map[string]model.Session, len(sessions))
	for _, s := range sessions {
		if s.Status == model.StatusCancelled {
			continue
		}
		clock, err := NormalizeClock(s.StartTime)
		if err != nil {
			continue
		}
		key := occupancyKey(s.SessionDate, clock)
		if _, taken := byKey[key]; taken {
			continue
		}
		byKey[key] = s
	}
	return &Occupancy{byKey: byKey}
}

// Lookup reports the session occupying the slot starting at clock ("HH:MM" or
// "HH:MM:SS") on the given date, if any.
func (o *Occupancy) Lookup(date time.Time, clock string) (model.Session, bool) {
	normalized, err := NormalizeClock(clock)
	if err != nil {
		return model.Session{}, false
	}
	s, ok := o.byKey[occupancyKey(date, normalized)]
	return s, ok
}

func occupancyKey(date time.Time, clock string) string {
	return DateKey(date) + "|" + clock
}
