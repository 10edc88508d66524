package booking

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock "HH:MM" value stored as minutes since midnight.
type TimeOfDay struct {
	minutes int
}

// ParseTimeOfDay validates and normalizes an "HH:MM" string.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// Minutes returns minutes since midnight.
func (timeOfDay TimeOfDay) Minutes() int {
	return timeOfDay.minutes
}

// String formats the value back to "HH:MM".
func (timeOfDay TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", timeOfDay.minutes/60, timeOfDay.minutes%60)
}
