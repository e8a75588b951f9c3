package model

import "time"

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Session is one booked training slot for a client on a vehicle.
// SessionDate carries the calendar date only; StartTime/EndTime are
// "HH:MM" wall-clock strings within that date.
type Session struct {
	ID            string
	VehicleID     string
	ClientID      string
	ClientName    string
	SessionDate   time.Time
	StartTime     string
	EndTime       string
	Status        string
	SessionNumber int
	CancelledAt   *time.Time
	CreatedAt     time.Time
}

// OperatingHours is a branch's daily open/close window, "HH:MM" 24-hour.
type OperatingHours struct {
	Open  string
	Close string
}

// BranchScheduleConfig is the branch scheduling policy: which weekdays the
// branch runs training sessions and within which hours.
type BranchScheduleConfig struct {
	WorkingDays []time.Weekday
	Hours       OperatingHours
}

// TimeSlot is one bookable 30-minute slot. Value is the machine form
// ("HH:MM" 24-hour, zero-padded); Label is for display ("9:00 AM").
type TimeSlot struct {
	Value string
	Label string
}
