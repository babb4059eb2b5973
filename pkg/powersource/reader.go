// Package powersource polls the OS power APIs and the battery-controller
// property registry, reconciling their partial readings into one
// PowerSnapshot per cycle.
package powersource

import (
	"math"
	"time"

	"github.com/distatus/battery"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/types"
)

// ElectricalSource supplies voltage/amperage readings used only when the
// registry yields nothing plausible, plus a charge percent used as the last
// resort when neither the power-source list nor the registry can produce
// one. Satisfied by *smc.AppleSMC.
type ElectricalSource interface {
	GetVoltageMilliVolts() (int, error)
	GetAmperageMilliAmps() (int, error)
	GetBatteryCharge() (int, error)
}

// Reader produces one PowerSnapshot per call. Every backend is a swappable
// function so tests can feed synthetic readings; all of them are best-effort
// and a failing backend only leaves its fields absent.
type Reader struct {
	Batteries     func() ([]*battery.Battery, error)
	Registry      func() (RegistryEntry, error)
	TimeRemaining func() (TimeRemaining, error)
	Electrical    ElectricalSource
	Now           func() time.Time
}

// NewReader returns a Reader wired to the real OS backends. electrical may
// be nil.
func NewReader(electrical ElectricalSource) *Reader {
	return &Reader{
		Batteries:     battery.GetAll,
		Registry:      ReadSmartBatteryRegistry,
		TimeRemaining: ReadTimeRemaining,
		Electrical:    electrical,
		Now:           time.Now,
	}
}

// Read polls all backends and merges their readings. The overwrite order is
// deliberate: the OS's own time estimate beats capacity-ratio math, while
// registry telemetry (health, electrical) has no OS-level equivalent and is
// always registry-sourced. Read returns false only when every backend is
// unavailable; callers substitute an all-empty snapshot, never crash.
func (r *Reader) Read() (*types.PowerSnapshot, bool) {
	snap := &types.PowerSnapshot{
		Timestamp:   r.Now(),
		AdapterKind: types.AdapterNone,
	}
	available := false

	if bats, err := r.Batteries(); err == nil && len(bats) > 0 {
		available = true
		r.applyBattery(snap, bats[0])
	} else if err != nil {
		logrus.WithError(err).Debug("power-source list unavailable")
	}

	if tr, err := r.TimeRemaining(); err == nil {
		available = true
		r.applyTimeRemaining(snap, tr)
	} else {
		logrus.WithError(err).Debug("OS time-remaining unavailable")
	}

	if reg, err := r.Registry(); err == nil {
		available = true
		r.applyRegistry(snap, reg)
	} else {
		logrus.WithError(err).Debug("battery registry unavailable")
	}

	r.applyElectricalFallback(snap)

	return snap, available
}

func (r *Reader) applyBattery(snap *types.PowerSnapshot, bat *battery.Battery) {
	if bat.Full > 0 {
		pct := roundHalfUp(bat.Current / bat.Full * 100)
		if pct >= 0 && pct <= 100 {
			snap.Percentage = &pct
		}
	}

	charging := bat.State == battery.Charging
	snap.IsCharging = &charging

	switch bat.State {
	case battery.Charging, battery.Full:
		onAC := true
		snap.OnACPower = &onAC
	case battery.Discharging, battery.Empty:
		onAC := false
		snap.OnACPower = &onAC
	}

	// Capacity-ratio time math; the OS estimate overwrites it when present.
	if bat.ChargeRate > 0 {
		switch bat.State {
		case battery.Discharging:
			if m, ok := positiveMinutes(bat.Current / bat.ChargeRate * 60); ok {
				snap.TimeToEmptyMinutes = &m
			}
		case battery.Charging:
			if m, ok := positiveMinutes((bat.Full - bat.Current) / bat.ChargeRate * 60); ok {
				snap.TimeToFullMinutes = &m
			}
		}
	}
}

func (r *Reader) applyTimeRemaining(snap *types.PowerSnapshot, tr TimeRemaining) {
	snap.OnACPower = &tr.OnAC

	if !tr.HasEstimate {
		return
	}

	// Overwrite one direction only, depending on charge direction.
	if tr.Charging {
		m := tr.Minutes
		snap.TimeToFullMinutes = &m
	} else {
		m := tr.Minutes
		snap.TimeToEmptyMinutes = &m
	}
}

func (r *Reader) applyRegistry(snap *types.PowerSnapshot, reg RegistryEntry) {
	if v, ok := reg.PickPlausible(voltageKeys); ok {
		snap.VoltageMilliVolts = &v
	}
	if v, ok := reg.PickPlausible(amperageKeys); ok {
		snap.CurrentMilliAmps = &v
	}
	if v, ok := reg.PickPlausible(currentCapacityKeys); ok {
		snap.CurrentCapacityMilliAmpHours = &v
	}
	if v, ok := reg.PickPlausible(maxCapacityKeys); ok {
		snap.MaxCapacityMilliAmpHours = &v
	}
	if v, ok := reg.PickPlausible(designCapacityKeys); ok {
		snap.DesignCapacityMilliAmpHours = &v
	}
	if v, ok := reg.intValue("CycleCount"); ok && v >= 0 {
		snap.CycleCount = &v
	}
	if t, ok := reg.TemperatureCelsius(); ok {
		snap.TemperatureCelsius = &t
	}

	kind, watts := reg.AdapterInfo()
	snap.AdapterKind = kind
	snap.AdapterRatedWatts = watts

	if snap.IsCharging == nil {
		if charging, ok := reg.boolValue("IsCharging"); ok {
			snap.IsCharging = &charging
		}
	}

	// Percentage fallback when the power-source list gave nothing.
	if snap.Percentage == nil && snap.CurrentCapacityMilliAmpHours != nil && snap.MaxCapacityMilliAmpHours != nil {
		if max := *snap.MaxCapacityMilliAmpHours; max > 0 {
			pct := roundHalfUp(float64(*snap.CurrentCapacityMilliAmpHours) / float64(max) * 100)
			if pct >= 0 && pct <= 100 {
				snap.Percentage = &pct
			}
		}
	}
}

func (r *Reader) applyElectricalFallback(snap *types.PowerSnapshot) {
	if r.Electrical == nil {
		return
	}
	if snap.VoltageMilliVolts == nil {
		if v, err := r.Electrical.GetVoltageMilliVolts(); err == nil && v > 0 {
			snap.VoltageMilliVolts = &v
		} else if err != nil {
			logrus.WithError(err).Trace("SMC voltage read failed")
		}
	}
	if snap.CurrentMilliAmps == nil {
		if v, err := r.Electrical.GetAmperageMilliAmps(); err == nil && v != 0 {
			snap.CurrentMilliAmps = &v
		} else if err != nil {
			logrus.WithError(err).Trace("SMC amperage read failed")
		}
	}
	if snap.Percentage == nil {
		if v, err := r.Electrical.GetBatteryCharge(); err == nil && v >= 0 && v <= 100 {
			snap.Percentage = &v
		} else if err != nil {
			logrus.WithError(err).Trace("SMC charge read failed")
		}
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func positiveMinutes(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	m := roundHalfUp(v)
	if m <= 0 {
		return 0, false
	}
	return m, true
}
