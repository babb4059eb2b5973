package powersource

import (
	"os/exec"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/izyuk/BatteryData/pkg/types"
)

// RegistryEntry is the raw battery-controller property bag. Keys vary by
// hardware generation, so every lookup goes through an ordered candidate
// list.
type RegistryEntry map[string]interface{}

// Candidate key lists per logical field, in priority order.
var (
	voltageKeys         = []string{"Voltage", "AppleRawBatteryVoltage"}
	amperageKeys        = []string{"Amperage", "InstantAmperage"}
	currentCapacityKeys = []string{"AppleRawCurrentCapacity", "CurrentCapacity", "AbsoluteCapacity"}
	maxCapacityKeys     = []string{"AppleRawMaxCapacity", "MaxCapacity", "NominalChargeCapacity"}
	designCapacityKeys  = []string{"DesignCapacity"}
)

// ReadSmartBatteryRegistry fetches the AppleSmartBattery property bag via
// ioreg's plist output.
func ReadSmartBatteryRegistry() (RegistryEntry, error) {
	out, err := exec.Command("/usr/sbin/ioreg", "-a", "-r", "-c", "AppleSmartBattery").Output()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to run ioreg")
	}

	var entries []map[string]interface{}
	if _, err := plist.Unmarshal(out, &entries); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse ioreg plist output")
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New("no AppleSmartBattery entry in registry")
	}

	return RegistryEntry(entries[0]), nil
}

// PickPlausible consults the candidate keys in priority order and returns the
// first value whose magnitude falls in the plausible range, falling back to
// the largest observed magnitude when none does. Values reported in the wrong
// scale (>= 1e6) are divided by 10.
func (e RegistryEntry) PickPlausible(keys []string) (int, bool) {
	best := 0
	found := false

	for _, k := range keys {
		v, ok := e.intValue(k)
		if !ok {
			continue
		}
		v = correctScale(v)
		if plausibleMagnitude(v) {
			return v, true
		}
		logrus.WithFields(logrus.Fields{
			"key": k,
			"val": v,
		}).Trace("registry value outside plausible range")
		if !found || abs(v) > abs(best) {
			best = v
			found = true
		}
	}

	// Zero is a legitimate reading here: an idle battery reports amperage 0.
	if found {
		return best, true
	}
	return 0, false
}

func plausibleMagnitude(v int) bool {
	m := abs(v)
	return m > 100 && m < 200000
}

func correctScale(v int) int {
	if abs(v) >= 1000000 {
		return v / 10
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (e RegistryEntry) intValue(key string) (int, bool) {
	raw, ok := e[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		// Amperage is stored as an unsigned 64-bit two's complement value.
		return int(int64(v)), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (e RegistryEntry) boolValue(key string) (bool, bool) {
	raw, ok := e[key]
	if !ok {
		return false, false
	}
	b, ok := raw.(bool)
	return b, ok
}

func (e RegistryEntry) dictValue(key string) (map[string]interface{}, bool) {
	raw, ok := e[key]
	if !ok {
		return nil, false
	}
	d, ok := raw.(map[string]interface{})
	return d, ok
}

// TemperatureCelsius converts the registry's tenths-of-Kelvin temperature.
func (e RegistryEntry) TemperatureCelsius() (float64, bool) {
	v, ok := e.intValue("Temperature")
	if !ok || v <= 0 {
		return 0, false
	}
	return float64(v)/10 - 273.15, true
}

// AdapterInfo derives the adapter connector kind and rated wattage. The kind
// is inferred from connector-name strings and the type-C-connected flag,
// defaulting to a generic AC kind when external power is attached but no
// more specific signal exists.
func (e RegistryEntry) AdapterInfo() (types.AdapterKind, *int) {
	connected, ok := e.boolValue("ExternalConnected")
	if !ok || !connected {
		return types.AdapterNone, nil
	}

	var watts *int
	names := make([]string, 0, 3)

	for _, detailsKey := range []string{"AdapterDetails", "AppleRawAdapterDetails"} {
		details, ok := e.dictValue(detailsKey)
		if !ok {
			continue
		}
		de := RegistryEntry(details)
		if w, ok := de.intValue("Watts"); ok && w > 0 && watts == nil {
			watts = &w
		}
		for _, nameKey := range []string{"Name", "Description", "FamilyCode"} {
			if s, ok := details[nameKey].(string); ok {
				names = append(names, s)
			}
		}
	}

	joined := strings.ToLower(strings.Join(names, " "))
	switch {
	case strings.Contains(joined, "magsafe"):
		return types.AdapterMagSafe, watts
	case strings.Contains(joined, "usb-c"), strings.Contains(joined, "usb c"), strings.Contains(joined, "pd charger"):
		return types.AdapterUSBCPD, watts
	}

	if usbc, ok := e.boolValue("UsbCConnected"); ok && usbc {
		return types.AdapterUSBCPD, watts
	}

	return types.AdapterAC, watts
}
