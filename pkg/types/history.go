package types

import "time"

// HistorySample is one point of the long chart window.
type HistorySample struct {
	Timestamp time.Time `json:"timestamp"`
	Percent   *int      `json:"percent,omitempty"`
	Watts     *float64  `json:"watts,omitempty"`
}

// EtaSample is one point of the short estimation window. It is kept separate
// from HistorySample because the two windows have independent lengths.
type EtaSample struct {
	Timestamp time.Time `json:"timestamp"`
	Percent   int       `json:"percent"`
}

// State is the aggregated snapshot republished to observers every refresh.
type State struct {
	Power       PowerSnapshot       `json:"power"`
	Accessories []AccessorySnapshot `json:"accessories"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}
