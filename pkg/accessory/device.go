// Package accessory discovers paired audio accessories and their battery
// levels through three independent channels: the paired-device enumeration
// (authoritative naming), the GATT battery service (fallback for gaps), and
// a slow external profiler scrape (enrichment only).
package accessory

import "strings"

// Device is one entry of the paired-device enumeration.
type Device struct {
	Address   string
	Name      string
	Connected bool
	Paired    bool
}

// Enumerator lists paired radio devices and reports connect/disconnect
// events.
type Enumerator interface {
	Paired() ([]Device, error)
	// Watch invokes onChange whenever a device connects or disconnects.
	// The returned func tears the registration down.
	Watch(onChange func()) (stop func(), err error)
}

// BatteryProber reads the vendor-private battery percent of a device. The
// property is undocumented and hardware-generation-dependent; every failure
// mode is converted to absence at this boundary and never propagates.
type BatteryProber interface {
	TryReadBatteryPercent(d Device) (int, bool)
}

// LevelEvent is one GATT battery-level notification (service 0x180F,
// characteristic 0x2A19, single byte 0-100). SessionID is a session-scoped
// identifier, deliberately a different namespace from Device.Address.
type LevelEvent struct {
	SessionID string
	Name      string
	Level     int
}

// LevelListener subscribes to GATT battery-level notifications. onError
// reports per-device transient failures (characteristic discovery, value
// reads); they never halt discovery for other devices.
type LevelListener interface {
	Listen(onLevel func(LevelEvent), onGone func(sessionID string), onError func(sessionID, msg string)) (stop func(), err error)
}

// bleIDPrefix marks accessory IDs that come from the session-scoped GATT
// namespace rather than a hardware address.
const bleIDPrefix = "ble:"

// NormalizeAddress canonicalizes a hardware address: dashes and colons are
// interchangeable and case is insignificant.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	return strings.ReplaceAll(addr, "-", ":")
}
