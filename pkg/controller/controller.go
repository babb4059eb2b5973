// Package controller owns the refresh cycle: it polls the power reader,
// feeds the estimator and history windows, runs the notification policy,
// and republishes the aggregated state.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/estimate"
	"github.com/izyuk/BatteryData/pkg/events"
	"github.com/izyuk/BatteryData/pkg/history"
	"github.com/izyuk/BatteryData/pkg/notify"
	"github.com/izyuk/BatteryData/pkg/types"
)

// profilerSchedule is the default cadence for the external diagnostics
// scrape. Far slower than the refresh tick: the tool takes seconds to run.
const profilerSchedule = "@every 2m"

// profilerTimeout bounds one diagnostics run.
const profilerTimeout = 30 * time.Second

// PowerReader is the single-shot snapshot source.
type PowerReader interface {
	Read() (*types.PowerSnapshot, bool)
}

// Controller drives the refresh cycle. One goroutine owns the tick loop;
// everything shared with readers of State() sits behind the mutex.
type Controller struct {
	reader    PowerReader
	discovery *accessory.Discovery
	store     *history.Store
	policy    *notify.Policy
	conf      config.Config
	hub       *events.EventHub
	scheduler *Scheduler
	now       func() time.Time

	mu    sync.RWMutex
	state types.State

	confChangedCh chan struct{}
	stopCh        chan struct{}
	doneCh        chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

// New wires the controller. hub may be nil (no observers).
func New(
	reader PowerReader,
	discovery *accessory.Discovery,
	store *history.Store,
	policy *notify.Policy,
	conf config.Config,
	hub *events.EventHub,
) *Controller {
	c := &Controller{
		reader:        reader,
		discovery:     discovery,
		store:         store,
		policy:        policy,
		conf:          conf,
		hub:           hub,
		now:           time.Now,
		confChangedCh: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	c.scheduler = NewScheduler(c.runProfilerScrape, nil)
	return c
}

// Start begins discovery, the diagnostics scheduler, and the tick loop.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		if c.discovery != nil {
			c.discovery.Start()

			if err := c.scheduler.Schedule(profilerSchedule); err != nil {
				logrus.WithError(err).Warn("invalid diagnostics schedule")
			} else {
				c.scheduler.Start()
			}
		}

		go c.loop()
	})
}

// Stop tears down in reverse dependency order: tick loop first so no cycle
// runs against half-stopped collaborators, then scheduler and discovery,
// then the published state.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		<-c.doneCh

		c.scheduler.Stop()
		if c.discovery != nil {
			c.discovery.Stop()
		}

		c.mu.Lock()
		c.state = types.State{}
		c.mu.Unlock()
	})
}

// ConfigChanged signals that preferences changed. An interval change
// restarts the ticker; everything else just forces one immediate refresh.
func (c *Controller) ConfigChanged() {
	select {
	case c.confChangedCh <- struct{}{}:
	default:
	}
}

// State returns the last published aggregate.
func (c *Controller) State() types.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) loop() {
	defer close(c.doneCh)

	cfg := c.conf.Snapshot()
	c.refresh(cfg)

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.refresh(cfg)
		case <-c.confChangedCh:
			next := c.conf.Snapshot()
			if next.RefreshInterval != cfg.RefreshInterval {
				logrus.WithFields(logrus.Fields{
					"old": cfg.RefreshInterval,
					"new": next.RefreshInterval,
				}).Debug("refresh interval changed, restarting ticker")
				ticker.Reset(next.RefreshInterval)
			}
			cfg = next
			c.refresh(cfg)
		}
	}
}

// refresh runs one full cycle against an immutable config snapshot.
func (c *Controller) refresh(cfg config.Snapshot) {
	now := c.now()

	snap, ok := c.reader.Read()
	if !ok || snap == nil {
		// Readers never crash the cycle; an empty snapshot means "unknown".
		logrus.Debug("power information unavailable, publishing empty snapshot")
		snap = &types.PowerSnapshot{Timestamp: now}
	}

	c.appendHistory(snap, now, cfg)

	if estimate.Applicable(snap) {
		if minutes, ok := estimate.TimeToEmpty(c.store.EtaSamples(), snap); ok {
			snap = snap.WithEstimatedTimeToEmpty(minutes)
		}
	}

	fired := c.policy.Evaluate(*snap, now)

	if c.discovery != nil {
		c.discovery.RequestRefresh()
	}

	state := types.State{
		Power:     *snap,
		UpdatedAt: now,
	}
	if c.discovery != nil {
		state.Accessories = c.discovery.Accessories()
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.publish(snap, fired, now)
}

func (c *Controller) appendHistory(snap *types.PowerSnapshot, now time.Time, cfg config.Snapshot) {
	var watts *float64
	if w, ok := snap.Watts(); ok {
		watts = &w
	}
	c.store.Append(types.HistorySample{
		Timestamp: now,
		Percent:   snap.Percentage,
		Watts:     watts,
	}, cfg.ChartWindow, cfg.EstimationWindow)
}

func (c *Controller) publish(snap *types.PowerSnapshot, fired []notify.Notification, now time.Time) {
	var watts *float64
	if w, ok := snap.Watts(); ok {
		watts = &w
	}
	c.hub.Publish(events.StateUpdated, events.StateUpdatedEvent{
		Percentage: snap.Percentage,
		OnACPower:  snap.OnACPower,
		Watts:      watts,
		Ts:         now.Unix(),
	})
	for _, n := range fired {
		c.hub.Publish(events.NotificationFired, events.NotificationFiredEvent{
			Title: n.Title,
			Body:  n.Body,
			Ts:    now.Unix(),
		})
	}
}

// runProfilerScrape is the scheduled diagnostics task. It runs off the tick
// loop and only ever adds data.
func (c *Controller) runProfilerScrape() error {
	ctx, cancel := context.WithTimeout(context.Background(), profilerTimeout)
	defer cancel()

	rep, err := accessory.FetchProfilerReport(ctx)
	if err != nil {
		return err
	}
	c.discovery.ApplyProfilerReport(rep)
	return nil
}
