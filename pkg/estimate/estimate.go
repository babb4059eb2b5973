// Package estimate derives a discharge-time estimate when the OS does not
// supply one. Estimates produced here are approximations and are flagged as
// such on the snapshot they get attached to.
package estimate

import (
	"math"

	"github.com/izyuk/BatteryData/pkg/types"
)

// TimeToEmptyFromTrend projects minutes remaining from the percentage slope
// between the oldest and newest samples of the estimation window. It yields
// nothing when fewer than two samples exist, when the trend is flat or
// charging-like, or when the projection is non-finite or non-positive.
func TimeToEmptyFromTrend(samples []types.EtaSample) (int, bool) {
	if len(samples) < 2 {
		return 0, false
	}

	oldest := samples[0]
	newest := samples[len(samples)-1]

	elapsedMinutes := newest.Timestamp.Sub(oldest.Timestamp).Minutes()
	if elapsedMinutes <= 0 {
		return 0, false
	}

	// Percent per minute; negative while discharging.
	rate := float64(newest.Percent-oldest.Percent) / elapsedMinutes
	if rate >= 0 {
		return 0, false
	}

	minutes := float64(newest.Percent) / -rate
	return roundPositiveMinutes(minutes)
}

// TimeToEmptyFromEnergy projects minutes remaining from the remaining charge
// and the instantaneous discharge wattage. watts must be negative (net
// discharge); capacity is in mAh and voltage in mV.
func TimeToEmptyFromEnergy(capacityMilliAmpHours, voltageMilliVolts int, watts float64) (int, bool) {
	if capacityMilliAmpHours <= 0 || voltageMilliVolts <= 0 || watts >= 0 {
		return 0, false
	}

	remainingWattHours := float64(capacityMilliAmpHours) * float64(voltageMilliVolts) / 1e6
	minutes := remainingWattHours / -watts * 60
	return roundPositiveMinutes(minutes)
}

// TimeToEmpty applies the two-tier fallback: trend first, energy method only
// when the trend yields nothing.
func TimeToEmpty(samples []types.EtaSample, snap *types.PowerSnapshot) (int, bool) {
	if minutes, ok := TimeToEmptyFromTrend(samples); ok {
		return minutes, true
	}

	if snap.CurrentCapacityMilliAmpHours == nil || snap.VoltageMilliVolts == nil {
		return 0, false
	}
	watts, ok := snap.Watts()
	if !ok {
		return 0, false
	}
	return TimeToEmptyFromEnergy(*snap.CurrentCapacityMilliAmpHours, *snap.VoltageMilliVolts, watts)
}

// Applicable reports whether the fallback estimator should run at all: only
// when the OS reported no usable discharge estimate and the device is
// net-discharging (on battery, or on AC with an adapter deficit).
func Applicable(snap *types.PowerSnapshot) bool {
	if snap.TimeToEmptyMinutes != nil {
		return false
	}
	return snap.Discharging()
}

func roundPositiveMinutes(minutes float64) (int, bool) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, false
	}
	rounded := int(math.Floor(minutes + 0.5))
	if rounded <= 0 {
		return 0, false
	}
	return rounded, true
}
