package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izyuk/BatteryData/pkg/utils/ptr"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewEventHub()
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(StateUpdated, StateUpdatedEvent{Percentage: ptr.To(50), Ts: 1})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, StateUpdated, ev.Name)
		default:
			t.Fatal("subscriber missed the event")
		}
	}
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewEventHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Overflow the buffer; Publish must never block.
	for i := 0; i < cap(ch)+10; i++ {
		hub.Publish(StateUpdated, StateUpdatedEvent{Ts: int64(i)})
	}

	assert.Len(t, ch, cap(ch))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewEventHub()
	ch := hub.Subscribe()

	hub.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op, not a double close.
	hub.Unsubscribe(ch)
}

func TestPublishOnNilHub(t *testing.T) {
	var hub *EventHub
	hub.Publish(StateUpdated, StateUpdatedEvent{}) // must not panic
}

func TestDecodeAs(t *testing.T) {
	hub := NewEventHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.Publish(NotificationFired, NotificationFiredEvent{Title: "Low Battery", Body: "20%", Ts: 7})

	ev := <-ch
	payload, err := DecodeAs[NotificationFiredEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "Low Battery", payload.Title)
	assert.Equal(t, int64(7), payload.Ts)

	empty, err := DecodeAs[NotificationFiredEvent](Event{Name: NotificationFired})
	require.NoError(t, err)
	assert.Empty(t, empty.Title)
}
