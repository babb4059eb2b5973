package powersource

import (
	"testing"
	"time"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElectrical struct {
	voltage  int
	amperage int
	charge   int
}

func (f *fakeElectrical) GetVoltageMilliVolts() (int, error) { return f.voltage, nil }
func (f *fakeElectrical) GetAmperageMilliAmps() (int, error) { return f.amperage, nil }
func (f *fakeElectrical) GetBatteryCharge() (int, error)     { return f.charge, nil }

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func errReader() *Reader {
	return &Reader{
		Batteries:     func() ([]*battery.Battery, error) { return nil, pkgerrors.New("no batteries") },
		Registry:      func() (RegistryEntry, error) { return nil, pkgerrors.New("no registry") },
		TimeRemaining: func() (TimeRemaining, error) { return TimeRemaining{}, pkgerrors.New("no pmset") },
		Now:           fixedNow,
	}
}

func TestReadAllBackendsUnavailable(t *testing.T) {
	snap, ok := errReader().Read()
	assert.False(t, ok)
	require.NotNil(t, snap)
	assert.Nil(t, snap.Percentage)
	assert.Equal(t, fixedNow(), snap.Timestamp)
}

func TestReadPercentageRoundsHalfUp(t *testing.T) {
	r := errReader()
	r.Batteries = func() ([]*battery.Battery, error) {
		return []*battery.Battery{{
			Current: 845,
			Full:    1000,
			State:   battery.Discharging,
		}}, nil
	}

	snap, ok := r.Read()
	assert.True(t, ok)
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, 85, *snap.Percentage) // 84.5 rounds up

	require.NotNil(t, snap.OnACPower)
	assert.False(t, *snap.OnACPower)
	require.NotNil(t, snap.IsCharging)
	assert.False(t, *snap.IsCharging)
}

func TestReadOSTimeEstimateOverwritesOneDirection(t *testing.T) {
	r := errReader()
	r.Batteries = func() ([]*battery.Battery, error) {
		return []*battery.Battery{{
			Current:    500,
			Full:       1000,
			ChargeRate: 500,
			State:      battery.Charging,
		}}, nil
	}
	r.TimeRemaining = func() (TimeRemaining, error) {
		return TimeRemaining{OnAC: true, Charging: true, Minutes: 42, HasEstimate: true}, nil
	}

	snap, _ := r.Read()

	// Charging: the OS estimate replaces the capacity-ratio time to full.
	require.NotNil(t, snap.TimeToFullMinutes)
	assert.Equal(t, 42, *snap.TimeToFullMinutes)
	assert.Nil(t, snap.TimeToEmptyMinutes)
}

func TestReadOSTimeEstimateDischarging(t *testing.T) {
	r := errReader()
	r.TimeRemaining = func() (TimeRemaining, error) {
		return TimeRemaining{OnAC: false, Charging: false, Minutes: 180, HasEstimate: true}, nil
	}

	snap, ok := r.Read()
	assert.True(t, ok)
	require.NotNil(t, snap.TimeToEmptyMinutes)
	assert.Equal(t, 180, *snap.TimeToEmptyMinutes)
	assert.Nil(t, snap.TimeToFullMinutes)
	require.NotNil(t, snap.OnACPower)
	assert.False(t, *snap.OnACPower)
}

func TestReadRegistryPercentageFallback(t *testing.T) {
	r := errReader()
	r.Registry = func() (RegistryEntry, error) {
		return RegistryEntry{
			"AppleRawCurrentCapacity": int64(4251),
			"AppleRawMaxCapacity":     int64(5000),
		}, nil
	}

	snap, ok := r.Read()
	assert.True(t, ok)
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, 85, *snap.Percentage) // 85.02 rounds down
}

func TestReadRegistryDoesNotOverridePowerSourcePercentage(t *testing.T) {
	r := errReader()
	r.Batteries = func() ([]*battery.Battery, error) {
		return []*battery.Battery{{Current: 900, Full: 1000, State: battery.Discharging}}, nil
	}
	r.Registry = func() (RegistryEntry, error) {
		return RegistryEntry{
			"AppleRawCurrentCapacity": int64(4251),
			"AppleRawMaxCapacity":     int64(5000),
		}, nil
	}

	snap, _ := r.Read()
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, 90, *snap.Percentage)
}

func TestReadElectricalFallback(t *testing.T) {
	r := errReader()
	r.Electrical = &fakeElectrical{voltage: 11400, amperage: -1320}

	snap, _ := r.Read()
	require.NotNil(t, snap.VoltageMilliVolts)
	assert.Equal(t, 11400, *snap.VoltageMilliVolts)
	require.NotNil(t, snap.CurrentMilliAmps)
	assert.Equal(t, -1320, *snap.CurrentMilliAmps)
}

func TestReadIdleBatteryKeepsZeroAmperage(t *testing.T) {
	r := errReader()
	r.Registry = func() (RegistryEntry, error) {
		return RegistryEntry{
			"Voltage":  int64(12600),
			"Amperage": int64(0),
		}, nil
	}

	// A fully idle battery draws nothing; the reading is real, not absent.
	snap, _ := r.Read()
	require.NotNil(t, snap.CurrentMilliAmps)
	assert.Equal(t, 0, *snap.CurrentMilliAmps)

	w, ok := snap.Watts()
	assert.True(t, ok)
	assert.Equal(t, 0.0, w)
}

func TestReadSMCChargeFallback(t *testing.T) {
	r := errReader()
	r.Electrical = &fakeElectrical{voltage: 11400, amperage: -1320, charge: 87}

	// Neither the power-source list nor the registry produced a percentage,
	// so the SMC charge reading is the last resort.
	snap, _ := r.Read()
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, 87, *snap.Percentage)
}

func TestReadSMCChargeDoesNotOverridePercentage(t *testing.T) {
	r := errReader()
	r.Batteries = func() ([]*battery.Battery, error) {
		return []*battery.Battery{{Current: 900, Full: 1000, State: battery.Discharging}}, nil
	}
	r.Electrical = &fakeElectrical{voltage: 11400, amperage: -1320, charge: 40}

	snap, _ := r.Read()
	require.NotNil(t, snap.Percentage)
	assert.Equal(t, 90, *snap.Percentage)
}

func TestReadElectricalFallbackSkippedWhenRegistryHasValues(t *testing.T) {
	r := errReader()
	r.Registry = func() (RegistryEntry, error) {
		return RegistryEntry{
			"Voltage":  int64(12600),
			"Amperage": int64(850),
		}, nil
	}
	r.Electrical = &fakeElectrical{voltage: 11400, amperage: -1320}

	snap, _ := r.Read()
	require.NotNil(t, snap.VoltageMilliVolts)
	assert.Equal(t, 12600, *snap.VoltageMilliVolts)
	require.NotNil(t, snap.CurrentMilliAmps)
	assert.Equal(t, 850, *snap.CurrentMilliAmps)
}
