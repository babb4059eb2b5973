package history

import (
	"testing"
	"time"

	"github.com/izyuk/BatteryData/pkg/types"
	"github.com/izyuk/BatteryData/pkg/utils/ptr"
)

const (
	chartWindow = 60 * time.Minute
	etaWindow   = 3 * time.Minute
)

func TestAppendEvictsOldSamples(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		s.Append(types.HistorySample{
			Timestamp: t0.Add(time.Duration(i) * 10 * time.Minute),
			Percent:   ptr.To(100 - i),
		}, chartWindow, etaWindow)
	}

	// 90 minutes have passed; only samples within the last 60 minutes of the
	// newest remain.
	samples := s.Samples()
	if len(samples) != 7 {
		t.Fatalf("len(samples) = %d, want 7", len(samples))
	}
	if got := *samples[0].Percent; got != 97 {
		t.Errorf("oldest percent = %d, want 97", got)
	}

	// The eta window is far shorter and holds only the newest sample.
	eta := s.EtaSamples()
	if len(eta) != 1 {
		t.Fatalf("len(eta) = %d, want 1", len(eta))
	}
	if eta[0].Percent != 91 {
		t.Errorf("eta percent = %d, want 91", eta[0].Percent)
	}
}

func TestAppendDropsNonAdvancingTimestamps(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Append(types.HistorySample{Timestamp: t0, Percent: ptr.To(80)}, chartWindow, etaWindow)
	s.Append(types.HistorySample{Timestamp: t0, Percent: ptr.To(79)}, chartWindow, etaWindow)
	s.Append(types.HistorySample{Timestamp: t0.Add(-time.Second), Percent: ptr.To(78)}, chartWindow, etaWindow)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if got := *s.Samples()[0].Percent; got != 80 {
		t.Errorf("percent = %d, want 80", got)
	}
}

func TestAppendWithoutPercentSkipsEtaWindow(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Append(types.HistorySample{Timestamp: t0, Watts: ptr.To(-8.5)}, chartWindow, etaWindow)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	if len(s.EtaSamples()) != 0 {
		t.Errorf("eta window should stay empty without a percent")
	}
}

func TestWattsAt(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Append(types.HistorySample{Timestamp: t0, Watts: ptr.To(-5.0)}, chartWindow, etaWindow)
	s.Append(types.HistorySample{Timestamp: t0.Add(5 * time.Second), Percent: ptr.To(80)}, chartWindow, etaWindow)
	s.Append(types.HistorySample{Timestamp: t0.Add(10 * time.Second), Watts: ptr.To(-18.0)}, chartWindow, etaWindow)

	now := t0.Add(20 * time.Second)

	// Exactly 10s back: the -18 W sample sits on the cutoff and qualifies.
	if w, ok := s.WattsAt(now, 10*time.Second); !ok || w != -18.0 {
		t.Errorf("WattsAt(10s) = %v, %v; want -18, true", w, ok)
	}

	// 12s back: the percent-only sample is skipped, falls through to -5 W.
	if w, ok := s.WattsAt(now, 12*time.Second); !ok || w != -5.0 {
		t.Errorf("WattsAt(12s) = %v, %v; want -5, true", w, ok)
	}

	// Further back than the first sample: nothing qualifies.
	if _, ok := s.WattsAt(now, time.Minute); ok {
		t.Error("WattsAt(1m) should find nothing")
	}
}
