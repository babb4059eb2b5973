package types

import "time"

// AccessorySnapshot is the published view of a paired audio accessory.
//
// ID is a normalized hardware address when the pairing channel reported one,
// or a "ble:"-prefixed session identifier when the device was only ever seen
// through the GATT battery service. The two namespaces are not unified.
type AccessorySnapshot struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	BatteryPercent *int       `json:"batteryPercent,omitempty"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
	Connected      bool       `json:"connected"`
	// Error holds transient per-device discovery error text, e.g. a failed
	// characteristic read. It never blocks discovery of other devices.
	Error string `json:"error,omitempty"`
}
