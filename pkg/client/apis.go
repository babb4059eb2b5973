package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/events"
	"github.com/izyuk/BatteryData/pkg/types"
)

func (c *Client) GetState() (*types.State, error) {
	ret, err := c.Get("/snapshot")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get state")
	}

	var st types.State
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal state")
	}
	return &st, nil
}

func (c *Client) GetAccessories() ([]types.AccessorySnapshot, error) {
	ret, err := c.Get("/accessories")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get accessories")
	}

	var accs []types.AccessorySnapshot
	if err := json.Unmarshal([]byte(ret), &accs); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal accessories")
	}
	return accs, nil
}

// History carries both retention windows.
type History struct {
	Samples []types.HistorySample `json:"samples"`
	Eta     []types.EtaSample     `json:"eta"`
}

func (c *Client) GetHistory() (*History, error) {
	ret, err := c.Get("/history")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get history")
	}

	var h History
	if err := json.Unmarshal([]byte(ret), &h); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal history")
	}
	return &h, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	ret = ret[1 : len(ret)-1] // remove the surrounding quotes
	return ret, nil
}

func (c *Client) SetRefreshInterval(seconds float64) (string, error) {
	return c.Put("/refresh-interval", strconv.FormatFloat(seconds, 'f', -1, 64))
}

func (c *Client) SetEstimationWindow(minutes int) (string, error) {
	return c.Put("/estimation-window", strconv.Itoa(minutes))
}

func (c *Client) SetChartWindow(minutes int) (string, error) {
	return c.Put("/chart-window", strconv.Itoa(minutes))
}

func (c *Client) SetShowWatts(enabled bool) (string, error) {
	return c.Put("/show-watts", strconv.FormatBool(enabled))
}

func (c *Client) SetCompactLabel(enabled bool) (string, error) {
	return c.Put("/compact-label", strconv.FormatBool(enabled))
}

func (c *Client) SetStatusBarExpanded(enabled bool) (string, error) {
	return c.Put("/status-bar-expanded", strconv.FormatBool(enabled))
}

// Events subscribes to the daemon's SSE stream and invokes onEvent per
// event until ctx is canceled or the stream ends.
func (c *Client) Events(ctx context.Context, onEvent func(ev events.Event)) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "http://unix/events", nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create events request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to subscribe to events")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Errorf("got %d from event stream", resp.StatusCode)
	}

	var name string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			onEvent(events.Event{Name: name, Data: json.RawMessage(data)})
			name = ""
		}
	}
	return scanner.Err()
}
