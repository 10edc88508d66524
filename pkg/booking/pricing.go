package booking

import "math"

// PriceForRange derives the total lesson price from a time range and an
// hourly rate. Duration is (end - start) minutes over 60; the result is
// rounded half away from zero. Callers own the end > start invariant: an
// inverted range silently yields a non-positive amount.
func PriceForRange(start TimeOfDay, end TimeOfDay, hourlyRate int64) int64 {
	durationHours := float64(end.Minutes()-start.Minutes()) / 60
	return int64(math.Round(float64(hourlyRate) * durationHours))
}

// Deposit is the 20% portion of the total collected up front.
func Deposit(total int64) int64 {
	return int64(math.Round(float64(total) * depositRate))
}

// PlatformFee is the 10% marketplace cut of the total.
func PlatformFee(total int64) int64 {
	return int64(math.Round(float64(total) * platformFeeRate))
}
