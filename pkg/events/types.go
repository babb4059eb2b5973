package events

import "encoding/json"

// Event name constants
const (
	StateUpdated      = "state.updated"
	NotificationFired = "notification.fired"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// StateUpdatedEvent is the typed payload for state.updated. It carries only
// the headline numbers; clients wanting the full state call the snapshot
// endpoint.
type StateUpdatedEvent struct {
	Percentage *int     `json:"percentage,omitempty"`
	OnACPower  *bool    `json:"onACPower,omitempty"`
	Watts      *float64 `json:"watts,omitempty"`
	Ts         int64    `json:"ts"`
}

// NotificationFiredEvent is the typed payload for notification.fired.
type NotificationFiredEvent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Ts    int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.StateUpdatedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Percentage)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
