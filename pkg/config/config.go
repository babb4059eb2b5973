package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the preference store. Values are flat and string-keyed on disk;
// accessors fall back to defaults when a key is unset.
type Config interface {
	RefreshIntervalSeconds() float64
	EstimationWindowMinutes() int
	ChartWindowMinutes() int
	ShowWatts() bool
	CompactLabel() bool
	StatusBarExpanded() bool

	SetRefreshIntervalSeconds(float64)
	SetEstimationWindowMinutes(int)
	SetChartWindowMinutes(int)
	SetShowWatts(bool)
	SetCompactLabel(bool)
	SetStatusBarExpanded(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	// Snapshot returns an immutable view for one refresh cycle.
	Snapshot() Snapshot

	// LogrusFields returns the config as logrus Fields, for logging purposes.
	LogrusFields() logrus.Fields
}

// Snapshot is the configuration view handed to a refresh cycle. The refresh
// interval is already clamped to the enforced range.
type Snapshot struct {
	RefreshInterval   time.Duration
	EstimationWindow  time.Duration
	ChartWindow       time.Duration
	ShowWatts         bool
	CompactLabel      bool
	StatusBarExpanded bool
}

const (
	// MinRefreshInterval and MaxRefreshInterval bound the refresh cycle to
	// prevent a zero or runaway interval.
	MinRefreshInterval = 500 * time.Millisecond
	MaxRefreshInterval = 3600 * time.Second
)

// ClampRefreshInterval converts a seconds preference into the enforced range.
func ClampRefreshInterval(seconds float64) time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	if d < MinRefreshInterval {
		return MinRefreshInterval
	}
	if d > MaxRefreshInterval {
		return MaxRefreshInterval
	}
	return d
}
