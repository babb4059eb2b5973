package accessory

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/types"
)

// debounceDelay coalesces bursts of connect/disconnect events (a case
// opening fires two connect events nearly simultaneously).
const debounceDelay = 2 * time.Second

// Discovery owns the published accessory list. All mutation happens under
// one mutex; event callbacks from any goroutine funnel through it. Refresh
// never fails outward: every error degrades to "no additional data for this
// device".
type Discovery struct {
	enum     Enumerator
	prober   BatteryProber
	listener LevelListener
	now      func() time.Time

	mu         sync.Mutex
	byID       map[string]*types.AccessorySnapshot
	blePresent map[string]bool

	debounce   *debouncer
	stopWatch  func()
	stopListen func()
}

// NewDiscovery wires the three channels together. listener may be nil when
// the platform has no GATT transport.
func NewDiscovery(enum Enumerator, prober BatteryProber, listener LevelListener) *Discovery {
	d := &Discovery{
		enum:       enum,
		prober:     prober,
		listener:   listener,
		now:        time.Now,
		byID:       make(map[string]*types.AccessorySnapshot),
		blePresent: make(map[string]bool),
	}
	d.debounce = newDebouncer(debounceDelay, d.Refresh)
	return d
}

// Start registers event-driven re-discovery and the GATT subscription, then
// runs one immediate refresh.
func (d *Discovery) Start() {
	if d.enum != nil {
		stop, err := d.enum.Watch(d.RequestRefresh)
		if err != nil {
			logrus.WithError(err).Warn("device event registration failed, relying on periodic refresh")
		} else {
			d.stopWatch = stop
		}
	}

	if d.listener != nil {
		stop, err := d.listener.Listen(d.handleLevel, d.handleGone, d.handleError)
		if err != nil {
			logrus.WithError(err).Warn("battery-service subscription failed")
		} else {
			d.stopListen = stop
		}
	}

	d.Refresh()
}

// Stop tears everything down: pending debounce timer first, then event
// registrations and subscriptions, then published state.
func (d *Discovery) Stop() {
	d.debounce.stop()
	if d.stopWatch != nil {
		d.stopWatch()
		d.stopWatch = nil
	}
	if d.stopListen != nil {
		d.stopListen()
		d.stopListen = nil
	}

	d.mu.Lock()
	d.byID = make(map[string]*types.AccessorySnapshot)
	d.blePresent = make(map[string]bool)
	d.mu.Unlock()
}

// RequestRefresh schedules a debounced refresh, coalescing with any pending
// one.
func (d *Discovery) RequestRefresh() {
	d.debounce.trigger()
}

// Refresh runs one enumeration pass (channel A) and reconciles presence.
func (d *Discovery) Refresh() {
	devices, err := d.enumerate()
	if err != nil {
		// Keep the previous list: a failed scan says nothing about the
		// devices themselves.
		logrus.WithError(err).Debug("paired-device enumeration failed")
		return
	}

	type probeResult struct {
		id  string
		pct int
	}
	var probes []probeResult

	for _, dev := range devices {
		if !dev.Connected {
			continue
		}
		if d.prober == nil {
			continue
		}
		if pct, ok := d.prober.TryReadBatteryPercent(dev); ok && pct >= 0 && pct <= 100 {
			probes = append(probes, probeResult{id: NormalizeAddress(dev.Address), pct: pct})
		}
	}

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Presence sweep: assume every address-keyed entry is gone, then flip
	// back the ones the enumeration confirms. Whatever stays disconnected
	// is dropped afterwards, so unpaired devices never linger as ghosts.
	for id, acc := range d.byID {
		if !isBLEID(id) {
			acc.Connected = false
		}
	}

	for _, dev := range devices {
		if !dev.Connected {
			continue
		}
		id := NormalizeAddress(dev.Address)
		acc, ok := d.byID[id]
		if !ok {
			acc = &types.AccessorySnapshot{ID: id}
			d.byID[id] = acc
		}
		if dev.Name != "" {
			acc.Name = dev.Name
		}
		acc.Connected = true
		t := now
		acc.LastUpdated = &t
	}

	// The probe only ever adds information; a missing probe result never
	// clears a known percent.
	for _, p := range probes {
		if acc, ok := d.byID[p.id]; ok {
			pct := p.pct
			acc.BatteryPercent = &pct
		}
	}

	for id, acc := range d.byID {
		if isBLEID(id) {
			if !d.blePresent[id[len(bleIDPrefix):]] {
				delete(d.byID, id)
			}
			continue
		}
		if !acc.Connected {
			delete(d.byID, id)
		}
	}
}

func (d *Discovery) enumerate() ([]Device, error) {
	if d.enum == nil {
		return nil, nil
	}
	devices, err := d.enum.Paired()
	if err != nil {
		return nil, err
	}

	out := devices[:0]
	for _, dev := range devices {
		if dev.Address == "" || !audioLike(dev.Name) {
			continue
		}
		out = append(out, dev)
	}
	return out, nil
}

// handleLevel upserts a GATT-channel accessory. These live in their own
// session-scoped namespace, not unified with hardware addresses.
func (d *Discovery) handleLevel(ev LevelEvent) {
	if ev.Level < 0 || ev.Level > 100 {
		return
	}

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.blePresent[ev.SessionID] = true

	id := bleIDPrefix + ev.SessionID
	acc, ok := d.byID[id]
	if !ok {
		acc = &types.AccessorySnapshot{ID: id}
		d.byID[id] = acc
	}
	if ev.Name != "" {
		acc.Name = ev.Name
	}
	lvl := ev.Level
	acc.BatteryPercent = &lvl
	acc.Connected = true
	acc.Error = ""
	t := now
	acc.LastUpdated = &t
}

func (d *Discovery) handleGone(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.blePresent, sessionID)
	delete(d.byID, bleIDPrefix+sessionID)
}

// handleError records transient per-device error text from the GATT channel.
func (d *Discovery) handleError(sessionID, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if acc, ok := d.byID[bleIDPrefix+sessionID]; ok {
		acc.Error = msg
	}
}

// Accessories returns the published list, sorted by name then ID.
func (d *Discovery) Accessories() []types.AccessorySnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]types.AccessorySnapshot, 0, len(d.byID))
	for _, acc := range d.byID {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func isBLEID(id string) bool {
	return len(id) > len(bleIDPrefix) && id[:len(bleIDPrefix)] == bleIDPrefix
}
