package powersource

import (
	"math"
	"testing"

	"github.com/izyuk/BatteryData/pkg/types"
)

func TestPickPlausible(t *testing.T) {
	tests := []struct {
		name   string
		entry  RegistryEntry
		keys   []string
		want   int
		wantOK bool
	}{
		{
			name:   "first plausible key wins",
			entry:  RegistryEntry{"Voltage": int64(12345), "AppleRawBatteryVoltage": int64(12399)},
			keys:   voltageKeys,
			want:   12345,
			wantOK: true,
		},
		{
			name:   "implausible key skipped in favor of later one",
			entry:  RegistryEntry{"Voltage": int64(12), "AppleRawBatteryVoltage": int64(12399)},
			keys:   voltageKeys,
			want:   12399,
			wantOK: true,
		},
		{
			name:   "largest magnitude fallback when nothing plausible",
			entry:  RegistryEntry{"Voltage": int64(12), "AppleRawBatteryVoltage": int64(95)},
			keys:   voltageKeys,
			want:   95,
			wantOK: true,
		},
		{
			name:   "negative amperage within range",
			entry:  RegistryEntry{"Amperage": int64(-1520)},
			keys:   amperageKeys,
			want:   -1520,
			wantOK: true,
		},
		{
			name:   "wrong scale divided by ten",
			entry:  RegistryEntry{"Voltage": int64(12345000)},
			keys:   voltageKeys,
			want:   1234500,
			wantOK: true,
		},
		{
			name:   "missing keys",
			entry:  RegistryEntry{},
			keys:   voltageKeys,
			wantOK: false,
		},
		{
			name:   "zero kept as a reading",
			entry:  RegistryEntry{"Voltage": int64(0)},
			keys:   voltageKeys,
			want:   0,
			wantOK: true,
		},
		{
			name:   "idle battery amperage zero preserved",
			entry:  RegistryEntry{"Amperage": int64(0), "InstantAmperage": int64(0)},
			keys:   amperageKeys,
			want:   0,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.entry.PickPlausible(tt.keys)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("value = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIntValueDecodesUnsignedTwosComplement(t *testing.T) {
	// ioreg reports Amperage as uint64; a discharge current comes out as a
	// huge unsigned number that must be reinterpreted as negative.
	e := RegistryEntry{"Amperage": uint64(math.MaxUint64 - 1519)} // -1520

	got, ok := e.intValue("Amperage")
	if !ok {
		t.Fatal("expected a value")
	}
	if got != -1520 {
		t.Errorf("value = %d, want -1520", got)
	}
}

func TestTemperatureCelsius(t *testing.T) {
	tests := []struct {
		name   string
		entry  RegistryEntry
		want   float64
		wantOK bool
	}{
		{
			name:   "tenths of kelvin",
			entry:  RegistryEntry{"Temperature": int64(3031)},
			want:   29.95,
			wantOK: true,
		},
		{
			name:   "zero is absent",
			entry:  RegistryEntry{"Temperature": int64(0)},
			wantOK: false,
		},
		{
			name:   "missing key",
			entry:  RegistryEntry{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.entry.TemperatureCelsius()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("celsius = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdapterInfo(t *testing.T) {
	tests := []struct {
		name      string
		entry     RegistryEntry
		wantKind  types.AdapterKind
		wantWatts int // 0 means nil expected
	}{
		{
			name:     "not connected",
			entry:    RegistryEntry{"ExternalConnected": false},
			wantKind: types.AdapterNone,
		},
		{
			name:     "missing flag",
			entry:    RegistryEntry{},
			wantKind: types.AdapterNone,
		},
		{
			name: "magsafe by name",
			entry: RegistryEntry{
				"ExternalConnected": true,
				"AdapterDetails": map[string]interface{}{
					"Name":  "61W MagSafe Charger",
					"Watts": int64(61),
				},
			},
			wantKind:  types.AdapterMagSafe,
			wantWatts: 61,
		},
		{
			name: "usb-c by description",
			entry: RegistryEntry{
				"ExternalConnected": true,
				"AdapterDetails": map[string]interface{}{
					"Description": "usb-c pd charger",
					"Watts":       int64(96),
				},
			},
			wantKind:  types.AdapterUSBCPD,
			wantWatts: 96,
		},
		{
			name: "usb-c by connected flag",
			entry: RegistryEntry{
				"ExternalConnected": true,
				"UsbCConnected":     true,
			},
			wantKind: types.AdapterUSBCPD,
		},
		{
			name: "generic ac fallback",
			entry: RegistryEntry{
				"ExternalConnected": true,
				"AdapterDetails": map[string]interface{}{
					"Watts": int64(85),
				},
			},
			wantKind:  types.AdapterAC,
			wantWatts: 85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, watts := tt.entry.AdapterInfo()
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
			if tt.wantWatts == 0 {
				if watts != nil {
					t.Errorf("watts = %d, want nil", *watts)
				}
			} else if watts == nil || *watts != tt.wantWatts {
				t.Errorf("watts = %v, want %d", watts, tt.wantWatts)
			}
		})
	}
}
