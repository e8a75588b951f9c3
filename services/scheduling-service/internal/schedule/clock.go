package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds, when present, are ignored.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return h*60 + m, nil
}

// NormalizeClock truncates seconds and zero-pads, so "9:00:00" becomes "09:00".
func NormalizeClock(s string) (string, error) {
	mins, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return FormatClock(mins), nil
}

// FormatClock renders minutes since midnight as zero-padded "HH:MM".
func FormatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// FormatLabel renders minutes since midnight as a 12-hour display label.
func FormatLabel(mins int) string {
	h := mins / 60
	m := mins % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m, suffix)
}

// DateKey renders the calendar date portion of t.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateOnly strips the time-of-day portion of t.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
