package history

import (
	"sync"
	"time"

	"github.com/izyuk/BatteryData/pkg/types"
)

// Store keeps two bounded, time-windowed sample rings: the long chart window
// of percent+watts samples, and a shorter percent-only window feeding the
// discharge estimator. Timestamps are monotonically increasing; appends that
// do not advance time are dropped.
type Store struct {
	mu      *sync.Mutex
	samples []types.HistorySample
	eta     []types.EtaSample
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		mu:      &sync.Mutex{},
		samples: make([]types.HistorySample, 0),
		eta:     make([]types.EtaSample, 0),
	}
}

// Append records one refresh cycle and evicts samples older than the given
// windows. The eta window only receives samples that carry a percent.
func (s *Store) Append(sample types.HistorySample, chartWindow, etaWindow time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Round to strip monotonic clock reading, so windows survive sleep.
	sample.Timestamp = sample.Timestamp.Round(0)

	if n := len(s.samples); n > 0 && !sample.Timestamp.After(s.samples[n-1].Timestamp) {
		return
	}

	s.samples = append(s.samples, sample)
	s.samples = evictSamples(s.samples, sample.Timestamp.Add(-chartWindow))

	if sample.Percent != nil {
		s.eta = append(s.eta, types.EtaSample{Timestamp: sample.Timestamp, Percent: *sample.Percent})
		s.eta = evictEta(s.eta, sample.Timestamp.Add(-etaWindow))
	}
}

func evictSamples(in []types.HistorySample, cutoff time.Time) []types.HistorySample {
	i := 0
	for ; i < len(in); i++ {
		if !in[i].Timestamp.Before(cutoff) {
			break
		}
	}
	return in[i:]
}

func evictEta(in []types.EtaSample, cutoff time.Time) []types.EtaSample {
	i := 0
	for ; i < len(in); i++ {
		if !in[i].Timestamp.Before(cutoff) {
			break
		}
	}
	return in[i:]
}

// Samples returns a copy of the chart window.
func (s *Store) Samples() []types.HistorySample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.HistorySample, len(s.samples))
	copy(out, s.samples)
	return out
}

// EtaSamples returns a copy of the estimation window.
func (s *Store) EtaSamples() []types.EtaSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.EtaSample, len(s.eta))
	copy(out, s.eta)
	return out
}

// WattsAt returns the wattage of the most recent sample at or before
// now-offset, if any sample in the chart window carries one.
func (s *Store) WattsAt(now time.Time, offset time.Duration) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-offset)
	for i := len(s.samples) - 1; i >= 0; i-- {
		if s.samples[i].Timestamp.After(cutoff) {
			continue
		}
		if s.samples[i].Watts == nil {
			continue
		}
		return *s.samples[i].Watts, true
	}
	return 0, false
}

// Len returns the number of samples in the chart window.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.samples)
}
