package notify

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/types"
)

// Tunables for the three transition detectors. None are persisted; a daemon
// restart starts every state machine fresh.
var lowThresholds = []int{20, 10, 5}

const (
	fullChargeHold = 10 * time.Minute
	spikeDeltaW    = 10.0
	spikeLookback  = 10 * time.Second
	spikeCooldown  = 5 * time.Minute
)

// PriorWatts looks up the power draw recorded at or before the given offset
// in the past. Backed by the history store.
type PriorWatts func(now time.Time, offset time.Duration) (float64, bool)

// Policy tracks notification state across refresh cycles. The three concerns
// (low battery, full charge, power spike) are independent state machines;
// one firing never suppresses another.
//
// Policy is not safe for concurrent use; the controller calls Evaluate from
// its single refresh goroutine.
type Policy struct {
	sink       Sink
	priorWatts PriorWatts

	firedLow  map[int]bool
	fullSince *time.Time
	fullFired bool
	lastSpike time.Time
}

// NewPolicy creates a policy delivering through sink. priorWatts may be nil,
// which disables spike detection.
func NewPolicy(sink Sink, priorWatts PriorWatts) *Policy {
	return &Policy{
		sink:       sink,
		priorWatts: priorWatts,
		firedLow:   make(map[int]bool),
	}
}

// Evaluate runs all three detectors against the latest snapshot. It returns
// the notifications fired this cycle, mainly for the event stream.
func (p *Policy) Evaluate(snap types.PowerSnapshot, now time.Time) []Notification {
	var fired []Notification

	if n := p.evalLow(snap); n != nil {
		fired = append(fired, *n)
	}
	if n := p.evalFullCharge(snap, now); n != nil {
		fired = append(fired, *n)
	}
	if n := p.evalSpike(snap, now); n != nil {
		fired = append(fired, *n)
	}

	for _, n := range fired {
		if err := p.sink.Notify(n); err != nil {
			logrus.WithError(err).Warn("failed to deliver notification")
		}
	}
	return fired
}

// evalLow fires each threshold at most once per continuous on-battery
// episode. Crossing several thresholds in one cycle (e.g. waking from sleep
// at 4%) fires only the lowest, but marks all of them, so climbing back
// through 10% and dipping again stays quiet.
func (p *Policy) evalLow(snap types.PowerSnapshot) *Notification {
	if snap.OnACPower == nil || *snap.OnACPower {
		// External power clears the episode immediately.
		if len(p.firedLow) > 0 {
			p.firedLow = make(map[int]bool)
		}
		return nil
	}
	if snap.Percentage == nil {
		return nil
	}
	pct := *snap.Percentage

	matched := -1
	for _, th := range sortedThresholds() {
		if pct <= th && !p.firedLow[th] {
			p.firedLow[th] = true
			matched = th
		}
	}
	if matched < 0 {
		return nil
	}

	return &Notification{
		Title: "Low Battery",
		Body:  fmt.Sprintf("Battery at %d%%. Connect power soon.", pct),
	}
}

// evalFullCharge fires once after the battery has held 100% on AC for the
// full hold duration. Leaving that condition for even one cycle resets both
// the timer and the fired flag.
func (p *Policy) evalFullCharge(snap types.PowerSnapshot, now time.Time) *Notification {
	onAC := snap.OnACPower != nil && *snap.OnACPower
	full := snap.Percentage != nil && *snap.Percentage >= 100

	if !onAC || !full {
		p.fullSince = nil
		p.fullFired = false
		return nil
	}

	if p.fullSince == nil {
		t := now
		p.fullSince = &t
		return nil
	}
	if p.fullFired || now.Sub(*p.fullSince) < fullChargeHold {
		return nil
	}

	p.fullFired = true
	return &Notification{
		Title: "Fully Charged",
		Body:  "Battery has been at 100% for 10 minutes. You can unplug.",
	}
}

// evalSpike compares the current draw against the draw recorded roughly ten
// seconds earlier. One global cooldown covers all spikes, not one per
// magnitude.
func (p *Policy) evalSpike(snap types.PowerSnapshot, now time.Time) *Notification {
	if p.priorWatts == nil {
		return nil
	}
	cur, ok := snap.Watts()
	if !ok {
		return nil
	}
	prev, ok := p.priorWatts(now, spikeLookback)
	if !ok {
		return nil
	}

	delta := math.Abs(cur - prev)
	if delta < spikeDeltaW {
		return nil
	}
	if !p.lastSpike.IsZero() && now.Sub(p.lastSpike) < spikeCooldown {
		return nil
	}

	p.lastSpike = now
	return &Notification{
		Title: "Power Spike",
		Body:  fmt.Sprintf("Power draw changed by %.1fW (%.1fW to %.1fW).", delta, prev, cur),
	}
}

func sortedThresholds() []int {
	out := make([]int, len(lowThresholds))
	copy(out, lowThresholds)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
