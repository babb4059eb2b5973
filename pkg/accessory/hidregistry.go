package accessory

import (
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

// HIDRegistryProber reads the vendor-private battery percent that paired
// audio devices publish in the HID event-service registry. The property is
// absent on unsupported hardware; any failure is converted to "unknown"
// right here and never propagates.
type HIDRegistryProber struct {
	mu        sync.Mutex
	cache     map[string]int
	fetchedAt time.Time
}

// cacheTTL bounds registry scrapes to one per refresh burst even though the
// prober is called once per device.
const cacheTTL = 2 * time.Second

type hidRegistryEntry struct {
	DeviceAddress  string `plist:"DeviceAddress"`
	BatteryPercent *int   `plist:"BatteryPercent"`
	Product        string `plist:"Product"`
}

// TryReadBatteryPercent probes the registry for the device's battery
// percent.
func (p *HIDRegistryProber) TryReadBatteryPercent(d Device) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache == nil || time.Since(p.fetchedAt) > cacheTTL {
		p.cache = p.scrape()
		p.fetchedAt = time.Now()
	}

	pct, ok := p.cache[NormalizeAddress(d.Address)]
	return pct, ok
}

func (p *HIDRegistryProber) scrape() map[string]int {
	out := make(map[string]int)

	raw, err := exec.Command("/usr/sbin/ioreg", "-a", "-r", "-c", "AppleDeviceManagementHIDEventService").Output()
	if err != nil {
		logrus.WithError(err).Trace("HID registry scrape failed")
		return out
	}

	var entries []hidRegistryEntry
	if _, err := plist.Unmarshal(raw, &entries); err != nil {
		logrus.WithError(err).Trace("HID registry parse failed")
		return out
	}

	for _, e := range entries {
		if e.DeviceAddress == "" || e.BatteryPercent == nil {
			continue
		}
		if *e.BatteryPercent < 0 || *e.BatteryPercent > 100 {
			continue
		}
		out[NormalizeAddress(e.DeviceAddress)] = *e.BatteryPercent
	}

	return out
}
