package types

import (
	"math"
	"time"
)

// AdapterKind describes the connector of an attached power adapter.
type AdapterKind string

const (
	// AdapterNone means no external power adapter is attached.
	AdapterNone AdapterKind = "none"
	// AdapterMagSafe is a MagSafe connector.
	AdapterMagSafe AdapterKind = "magsafe"
	// AdapterUSBCPD is a USB-C Power Delivery adapter.
	AdapterUSBCPD AdapterKind = "usb-c-pd"
	// AdapterAC is an AC adapter whose connector could not be identified further.
	AdapterAC AdapterKind = "ac"
)

// PowerSnapshot is a single poll of the internal battery. Every field is
// independently optional: a nil pointer means the source did not report it
// this cycle. Snapshots are never mutated in place; the estimator produces
// a new variant via WithEstimatedTimeToEmpty.
type PowerSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	Percentage *int  `json:"percentage,omitempty"`
	IsCharging *bool `json:"isCharging,omitempty"`
	OnACPower  *bool `json:"onACPower,omitempty"`

	TimeToEmptyMinutes *int `json:"timeToEmptyMinutes,omitempty"`
	TimeToFullMinutes  *int `json:"timeToFullMinutes,omitempty"`
	// TimeToEmptyEstimated is true when TimeToEmptyMinutes was derived by
	// the fallback estimator instead of being supplied by the OS.
	TimeToEmptyEstimated bool `json:"timeToEmptyEstimated,omitempty"`

	VoltageMilliVolts            *int `json:"voltageMilliVolts,omitempty"`
	CurrentMilliAmps             *int `json:"currentMilliAmps,omitempty"`
	CurrentCapacityMilliAmpHours *int `json:"currentCapacityMilliAmpHours,omitempty"`

	CycleCount                  *int `json:"cycleCount,omitempty"`
	DesignCapacityMilliAmpHours *int `json:"designCapacityMilliAmpHours,omitempty"`
	MaxCapacityMilliAmpHours    *int `json:"maxCapacityMilliAmpHours,omitempty"`

	TemperatureCelsius *float64 `json:"temperatureCelsius,omitempty"`

	AdapterKind       AdapterKind `json:"adapterKind"`
	AdapterRatedWatts *int        `json:"adapterRatedWatts,omitempty"`
}

// Watts returns the instantaneous battery power draw in watts, negative when
// discharging. It is derived from voltage and amperage and absent when either
// is missing.
func (s *PowerSnapshot) Watts() (float64, bool) {
	if s.VoltageMilliVolts == nil || s.CurrentMilliAmps == nil {
		return 0, false
	}
	return float64(*s.VoltageMilliVolts) * float64(*s.CurrentMilliAmps) / 1e6, true
}

// HealthPercent returns max capacity relative to design capacity. Ratios
// outside 5-150% are treated as sensor noise and discarded.
func (s *PowerSnapshot) HealthPercent() (float64, bool) {
	if s.MaxCapacityMilliAmpHours == nil || s.DesignCapacityMilliAmpHours == nil {
		return 0, false
	}
	if *s.DesignCapacityMilliAmpHours <= 0 {
		return 0, false
	}
	h := float64(*s.MaxCapacityMilliAmpHours) / float64(*s.DesignCapacityMilliAmpHours) * 100
	if math.IsNaN(h) || h < 5 || h > 150 {
		return 0, false
	}
	return h, true
}

// Discharging reports whether the battery is net-discharging: on battery
// power, or on AC with negative wattage (load exceeds adapter supply).
func (s *PowerSnapshot) Discharging() bool {
	if s.OnACPower != nil && !*s.OnACPower {
		return true
	}
	if w, ok := s.Watts(); ok && w < 0 {
		return true
	}
	return false
}

// WithEstimatedTimeToEmpty returns a copy of the snapshot with a fallback
// time-to-empty attached and flagged as an approximation.
func (s *PowerSnapshot) WithEstimatedTimeToEmpty(minutes int) *PowerSnapshot {
	out := *s
	out.TimeToEmptyMinutes = &minutes
	out.TimeToEmptyEstimated = true
	return &out
}
