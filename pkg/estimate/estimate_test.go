package estimate

import (
	"testing"
	"time"

	"github.com/izyuk/BatteryData/pkg/types"
	"github.com/izyuk/BatteryData/pkg/utils/ptr"
)

func TestTimeToEmptyFromTrend(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		samples []types.EtaSample
		want    int
		wantOK  bool
	}{
		{
			name: "one percent per minute",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 80},
				{Timestamp: t0.Add(10 * time.Minute), Percent: 70},
			},
			want:   70,
			wantOK: true,
		},
		{
			name: "intermediate samples ignored",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 80},
				{Timestamp: t0.Add(3 * time.Minute), Percent: 79},
				{Timestamp: t0.Add(10 * time.Minute), Percent: 70},
			},
			want:   70,
			wantOK: true,
		},
		{
			name: "charging-like trend yields nothing",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 70},
				{Timestamp: t0.Add(10 * time.Minute), Percent: 80},
			},
			wantOK: false,
		},
		{
			name: "flat trend yields nothing",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 70},
				{Timestamp: t0.Add(10 * time.Minute), Percent: 70},
			},
			wantOK: false,
		},
		{
			name: "single sample yields nothing",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 70},
			},
			wantOK: false,
		},
		{
			name: "zero elapsed yields nothing",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 80},
				{Timestamp: t0, Percent: 70},
			},
			wantOK: false,
		},
		{
			name: "half percent per minute rounds",
			samples: []types.EtaSample{
				{Timestamp: t0, Percent: 76},
				{Timestamp: t0.Add(8 * time.Minute), Percent: 75},
			},
			// rate = -0.125 %/min, 75 / 0.125 = 600
			want:   600,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TimeToEmptyFromTrend(tt.samples)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("minutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeToEmptyFromEnergy(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		voltage  int
		watts    float64
		want     int
		wantOK   bool
	}{
		{
			name:     "reference discharge",
			capacity: 2000,
			voltage:  11000,
			watts:    -11,
			// 22 Wh / 11 W * 60 = 120
			want:   120,
			wantOK: true,
		},
		{
			name:     "positive watts yields nothing",
			capacity: 2000,
			voltage:  11000,
			watts:    5,
			wantOK:   false,
		},
		{
			name:     "zero watts yields nothing",
			capacity: 2000,
			voltage:  11000,
			watts:    0,
			wantOK:   false,
		},
		{
			name:     "zero capacity yields nothing",
			capacity: 0,
			voltage:  11000,
			watts:    -11,
			wantOK:   false,
		},
		{
			name:     "tiny remainder rounds away",
			capacity: 1,
			voltage:  1000,
			watts:    -100,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TimeToEmptyFromEnergy(tt.capacity, tt.voltage, tt.watts)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("minutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeToEmptyFallsBackToEnergy(t *testing.T) {
	// Flat trend, so only the energy method can produce a value.
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	samples := []types.EtaSample{
		{Timestamp: t0, Percent: 50},
		{Timestamp: t0.Add(5 * time.Minute), Percent: 50},
	}

	snap := &types.PowerSnapshot{
		CurrentCapacityMilliAmpHours: ptr.To(2000),
		VoltageMilliVolts:            ptr.To(11000),
		CurrentMilliAmps:             ptr.To(-1000), // -11 W
	}

	got, ok := TimeToEmpty(samples, snap)
	if !ok {
		t.Fatal("expected an estimate")
	}
	if got != 120 {
		t.Errorf("minutes = %d, want 120", got)
	}
}

func TestApplicable(t *testing.T) {
	tests := []struct {
		name string
		snap *types.PowerSnapshot
		want bool
	}{
		{
			name: "on battery without OS estimate",
			snap: &types.PowerSnapshot{OnACPower: ptr.To(false)},
			want: true,
		},
		{
			name: "OS estimate present",
			snap: &types.PowerSnapshot{OnACPower: ptr.To(false), TimeToEmptyMinutes: ptr.To(90)},
			want: false,
		},
		{
			name: "adapter deficit counts as discharging",
			snap: &types.PowerSnapshot{
				OnACPower:         ptr.To(true),
				VoltageMilliVolts: ptr.To(12000),
				CurrentMilliAmps:  ptr.To(-500),
			},
			want: true,
		},
		{
			name: "on AC and net charging",
			snap: &types.PowerSnapshot{
				OnACPower:         ptr.To(true),
				VoltageMilliVolts: ptr.To(12000),
				CurrentMilliAmps:  ptr.To(1500),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Applicable(tt.snap); got != tt.want {
				t.Errorf("Applicable() = %v, want %v", got, tt.want)
			}
		})
	}
}
