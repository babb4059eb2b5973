package controller

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/events"
	"github.com/izyuk/BatteryData/pkg/history"
	"github.com/izyuk/BatteryData/pkg/notify"
	"github.com/izyuk/BatteryData/pkg/types"
	"github.com/izyuk/BatteryData/pkg/utils/ptr"
)

type fakeReader struct {
	snap *types.PowerSnapshot
	ok   bool
}

func (f *fakeReader) Read() (*types.PowerSnapshot, bool) { return f.snap, f.ok }

func newTestController(reader PowerReader, hub *events.EventHub) *Controller {
	conf := config.NewFileFromConfig(&config.RawFileConfig{}, "")
	c := New(reader, nil, history.NewStore(), notify.NewPolicy(notify.LogSink{}, nil), conf, hub)
	c.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestRefreshPublishesState(t *testing.T) {
	reader := &fakeReader{
		snap: &types.PowerSnapshot{
			Percentage: ptr.To(73),
			OnACPower:  ptr.To(true),
		},
		ok: true,
	}
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	c := newTestController(reader, hub)
	c.refresh(c.conf.Snapshot())

	state := c.State()
	require.NotNil(t, state.Power.Percentage)
	assert.Equal(t, 73, *state.Power.Percentage)
	assert.Equal(t, c.now(), state.UpdatedAt)

	select {
	case ev := <-sub:
		assert.Equal(t, events.StateUpdated, ev.Name)
		payload, err := events.DecodeAs[events.StateUpdatedEvent](ev)
		require.NoError(t, err)
		require.NotNil(t, payload.Percentage)
		assert.Equal(t, 73, *payload.Percentage)
	default:
		t.Fatal("no event published")
	}
}

func TestRefreshSurvivesReaderFailure(t *testing.T) {
	c := newTestController(&fakeReader{ok: false}, nil)

	c.refresh(c.conf.Snapshot())

	state := c.State()
	assert.Nil(t, state.Power.Percentage)
	assert.Equal(t, c.now(), state.Power.Timestamp)
}

func TestRefreshAttachesEstimate(t *testing.T) {
	reader := &fakeReader{
		snap: &types.PowerSnapshot{
			Percentage: ptr.To(50),
			OnACPower:  ptr.To(false),
		},
		ok: true,
	}
	c := newTestController(reader, nil)

	// Seed a declining trend inside the estimation window: one percent per
	// minute, two minutes before the refresh.
	cfg := c.conf.Snapshot()
	c.store.Append(types.HistorySample{
		Timestamp: c.now().Add(-2 * time.Minute),
		Percent:   ptr.To(52),
	}, cfg.ChartWindow, cfg.EstimationWindow)

	c.refresh(cfg)

	state := c.State()
	require.NotNil(t, state.Power.TimeToEmptyMinutes)
	assert.Equal(t, 50, *state.Power.TimeToEmptyMinutes)
	assert.True(t, state.Power.TimeToEmptyEstimated)
}

func TestRefreshKeepsOSEstimate(t *testing.T) {
	reader := &fakeReader{
		snap: &types.PowerSnapshot{
			Percentage:         ptr.To(50),
			OnACPower:          ptr.To(false),
			TimeToEmptyMinutes: ptr.To(90),
		},
		ok: true,
	}
	c := newTestController(reader, nil)

	c.refresh(c.conf.Snapshot())

	state := c.State()
	require.NotNil(t, state.Power.TimeToEmptyMinutes)
	assert.Equal(t, 90, *state.Power.TimeToEmptyMinutes)
	assert.False(t, state.Power.TimeToEmptyEstimated, "OS estimate is not an approximation")
}

type countingEnum struct {
	calls atomic.Int32
}

func (e *countingEnum) Paired() ([]accessory.Device, error) {
	e.calls.Add(1)
	return nil, nil
}

func (e *countingEnum) Watch(func()) (func(), error) { return func() {}, nil }

func TestShortRefreshIntervalKeepsAccessoriesCurrent(t *testing.T) {
	enum := &countingEnum{}
	conf := config.NewFileFromConfig(&config.RawFileConfig{}, "")
	conf.SetRefreshIntervalSeconds(0.5)

	c := New(
		&fakeReader{snap: &types.PowerSnapshot{}, ok: true},
		accessory.NewDiscovery(enum, nil, nil),
		history.NewStore(),
		notify.NewPolicy(notify.LogSink{}, nil),
		conf,
		nil,
	)
	c.Start()
	defer c.Stop()

	// Start runs one enumeration pass immediately. Ticks arriving faster
	// than the rescan debounce must still produce follow-up passes instead
	// of pushing the pending timer out forever.
	deadline := time.After(5 * time.Second)
	for enum.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("enumeration ran %d times, want at least 2", enum.calls.Load())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestRefreshAppendsHistory(t *testing.T) {
	reader := &fakeReader{
		snap: &types.PowerSnapshot{
			Percentage:        ptr.To(64),
			VoltageMilliVolts: ptr.To(12000),
			CurrentMilliAmps:  ptr.To(-1000),
		},
		ok: true,
	}
	c := newTestController(reader, nil)

	c.refresh(c.conf.Snapshot())

	samples := c.store.Samples()
	require.Len(t, samples, 1)
	require.NotNil(t, samples[0].Percent)
	assert.Equal(t, 64, *samples[0].Percent)
	require.NotNil(t, samples[0].Watts)
	assert.Equal(t, -12.0, *samples[0].Watts)
}
