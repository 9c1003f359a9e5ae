package models

import "math"

// DefaultTotalArea is the floor area in square metres covered by one full run.
const DefaultTotalArea = 500

// Label returns the human readable status label.
func (s RobotStatus) Label() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusCleaning:
		return "Cleaning"
	case StatusReturning:
		return "Returning to Base"
	case StatusCharging:
		return "Charging"
	case StatusOffline:
		return "Offline"
	default:
		return string(s)
	}
}

// Connected reports whether the robot link is up.
func (s RobotStatus) Connected() bool {
	return s != StatusOffline
}

// Animated reports whether the status badge blinks.
func (s RobotStatus) Animated() bool {
	return s == StatusCleaning || s == StatusReturning || s == StatusCharging
}

// BatteryBand groups battery levels for colouring.
type BatteryBand string

const (
	BatteryLow    BatteryBand = "low"
	BatteryMedium BatteryBand = "medium"
	BatteryFull   BatteryBand = "full"
)

// BandFor returns the display band of a battery percentage.
func BandFor(percentage int) BatteryBand {
	switch {
	case percentage <= 20:
		return BatteryLow
	case percentage <= 50:
		return BatteryMedium
	default:
		return BatteryFull
	}
}

// RemainingMinutes estimates runtime left on the given charge.
func RemainingMinutes(percentage int) int {
	return int(math.Floor(float64(percentage) * 1.5))
}

// MinutesToFull estimates charge time left.
func MinutesToFull(percentage int) int {
	return int(math.Ceil(float64(100-percentage) / 20))
}

// CleanedArea converts progress into square metres of totalArea.
func CleanedArea(progress, totalArea int) int {
	return int(math.Round(float64(ClampPercent(progress)) / 100 * float64(totalArea)))
}

// CleaningETA estimates minutes until the run completes.
func CleaningETA(progress int) int {
	return int(math.Ceil(float64(100-ClampPercent(progress)) * 0.5))
}

// SessionLabel describes an inactive run.
func SessionLabel(progress int) string {
	if ClampPercent(progress) == 100 {
		return "Completed"
	}
	return "Not started"
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
