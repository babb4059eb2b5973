package accessory

import (
	"encoding/json"
	"os/exec"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BlueutilEnumerator lists paired devices by shelling out to blueutil. The
// tool has no event stream, so Watch polls the connected set and fires on
// any difference; the discovery-side debounce absorbs the bursts.
type BlueutilEnumerator struct {
	// Path to the blueutil binary. Defaults to a PATH lookup.
	Path string
	// WatchInterval between connected-set polls. Defaults to 5s.
	WatchInterval time.Duration
}

type blueutilDevice struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Paired    bool   `json:"paired"`
}

func (e *BlueutilEnumerator) binary() string {
	if e.Path != "" {
		return e.Path
	}
	return "blueutil"
}

// Paired returns all paired devices.
func (e *BlueutilEnumerator) Paired() ([]Device, error) {
	out, err := exec.Command(e.binary(), "--paired", "--format", "json").Output()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to run blueutil")
	}

	var raw []blueutilDevice
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse blueutil output")
	}

	devices := make([]Device, 0, len(raw))
	for _, r := range raw {
		devices = append(devices, Device{
			Address:   r.Address,
			Name:      r.Name,
			Connected: r.Connected,
			Paired:    r.Paired,
		})
	}
	return devices, nil
}

// Watch polls for connection changes until the returned stop func is called.
func (e *BlueutilEnumerator) Watch(onChange func()) (func(), error) {
	interval := e.WatchInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := e.connectedSet()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				cur := e.connectedSet()
				if !sameSet(last, cur) {
					logrus.WithField("connected", len(cur)).Debug("device connection change detected")
					last = cur
					onChange()
				}
			}
		}
	}()

	return func() { once.Do(func() { close(stopCh) }) }, nil
}

func (e *BlueutilEnumerator) connectedSet() map[string]bool {
	set := make(map[string]bool)
	devices, err := e.Paired()
	if err != nil {
		return set
	}
	for _, d := range devices {
		if d.Connected {
			set[NormalizeAddress(d.Address)] = true
		}
	}
	return set
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
