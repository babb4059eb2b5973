package accessory

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/types"
)

// ProfilerDevice is one connected device from the external diagnostics
// report. The report shape is not contractually stable, so every field is
// best-effort.
type ProfilerDevice struct {
	Name     string
	Address  string
	Left     *int
	Right    *int
	Case     *int
	Combined *int
}

// ProfilerReport is the parsed output of one diagnostics run.
type ProfilerReport struct {
	Devices []ProfilerDevice
}

// FetchProfilerReport invokes the system diagnostics tool for a Bluetooth
// report. It prefers JSON output and falls back to text parsing. This is the
// one slow call in discovery; callers run it off the refresh path.
func FetchProfilerReport(ctx context.Context) (*ProfilerReport, error) {
	out, err := exec.CommandContext(ctx, "/usr/sbin/system_profiler", "SPBluetoothDataType", "-json").Output()
	if err == nil {
		if rep, jerr := parseProfilerJSON(out); jerr == nil {
			return rep, nil
		} else {
			logrus.WithError(jerr).Debug("profiler JSON parse failed, trying text output")
		}
	}

	out, err = exec.CommandContext(ctx, "/usr/sbin/system_profiler", "SPBluetoothDataType").Output()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to run system_profiler")
	}
	return parseProfilerText(string(out)), nil
}

func parseProfilerJSON(data []byte) (*ProfilerReport, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, pkgerrors.Wrap(err, "unexpected top-level shape")
	}

	raw, ok := top["SPBluetoothDataType"]
	if !ok {
		return nil, pkgerrors.New("missing SPBluetoothDataType key")
	}

	var sections []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, pkgerrors.Wrap(err, "unexpected section shape")
	}

	rep := &ProfilerReport{}
	for _, section := range sections {
		connected, ok := section["device_connected"]
		if !ok {
			continue
		}

		// device_connected is an array of single-key objects mapping the
		// device name to its property bag.
		var entries []map[string]map[string]interface{}
		if err := json.Unmarshal(connected, &entries); err != nil {
			logrus.WithError(err).Debug("skipping malformed device_connected entry")
			continue
		}

		for _, entry := range entries {
			for name, props := range entry {
				dev := ProfilerDevice{
					Name:     name,
					Address:  stringProp(props, "device_address"),
					Left:     parsePercentValue(props["device_batteryLevelLeft"]),
					Right:    parsePercentValue(props["device_batteryLevelRight"]),
					Case:     parsePercentValue(props["device_batteryLevelCase"]),
					Combined: parsePercentValue(props["device_batteryLevel"]),
				}
				rep.Devices = append(rep.Devices, dev)
			}
		}
	}

	return rep, nil
}

var (
	textDeviceRe = regexp.MustCompile(`^( {6}|\t{3})(\S.*):\s*$`)
	textFieldRe  = regexp.MustCompile(`^\s+([^:]+):\s+(.+?)\s*$`)
)

// parseProfilerText parses the free-form key:value report emitted when JSON
// output is unavailable. Best-effort by design.
func parseProfilerText(out string) *ProfilerReport {
	rep := &ProfilerReport{}
	var cur *ProfilerDevice

	flush := func() {
		if cur != nil && (cur.Address != "" || cur.Left != nil || cur.Right != nil || cur.Case != nil || cur.Combined != nil) {
			rep.Devices = append(rep.Devices, *cur)
		}
		cur = nil
	}

	for _, line := range strings.Split(out, "\n") {
		if m := textDeviceRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &ProfilerDevice{Name: strings.TrimSpace(m[2])}
			continue
		}
		if cur == nil {
			continue
		}
		m := textFieldRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		val := strings.TrimSpace(m[2])
		switch key {
		case "Address":
			cur.Address = val
		case "Left Battery Level", "Battery Level (Left)":
			cur.Left = parsePercentValue(val)
		case "Right Battery Level", "Battery Level (Right)":
			cur.Right = parsePercentValue(val)
		case "Case Battery Level", "Battery Level (Case)":
			cur.Case = parsePercentValue(val)
		case "Battery Level":
			cur.Combined = parsePercentValue(val)
		}
	}
	flush()

	return rep
}

func stringProp(props map[string]interface{}, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

// parsePercentValue accepts "95%", "95", or a JSON number and clamps the
// result to 0-100. Anything else is absent.
func parsePercentValue(raw interface{}) *int {
	var v float64
	switch t := raw.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		v = parsed
	case float64:
		v = t
	case int:
		v = float64(t)
	default:
		return nil
	}

	pct := int(math.Floor(v + 0.5))
	if pct < 0 || pct > 100 {
		return nil
	}
	return &pct
}

// BatteryPercent reduces the per-channel readings to one value: a single
// present reading is used directly, otherwise the present values are
// averaged and rounded to nearest.
func (d ProfilerDevice) BatteryPercent() (int, bool) {
	var present []int
	for _, p := range []*int{d.Left, d.Right, d.Case} {
		if p != nil {
			present = append(present, *p)
		}
	}

	switch len(present) {
	case 0:
		if d.Combined != nil {
			return *d.Combined, true
		}
		return 0, false
	case 1:
		return present[0], true
	default:
		sum := 0
		for _, v := range present {
			sum += v
		}
		return int(math.Floor(float64(sum)/float64(len(present)) + 0.5)), true
	}
}

// ApplyProfilerReport merges a diagnostics report into the published list.
// The report only fills gaps: it never overwrites a known percent and never
// creates new accessory rows. Matching is by normalized address first, then
// fuzzy case-insensitive name containment.
func (d *Discovery) ApplyProfilerReport(rep *ProfilerReport) {
	if rep == nil {
		return
	}

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, dev := range rep.Devices {
		acc := d.matchLocked(dev)
		if acc == nil || acc.BatteryPercent != nil {
			continue
		}
		pct, ok := dev.BatteryPercent()
		if !ok {
			continue
		}
		p := pct
		acc.BatteryPercent = &p
		t := now
		acc.LastUpdated = &t
	}
}

func (d *Discovery) matchLocked(dev ProfilerDevice) *types.AccessorySnapshot {
	if dev.Address != "" {
		if acc, ok := d.byID[NormalizeAddress(dev.Address)]; ok {
			return acc
		}
	}

	name := strings.ToLower(strings.TrimSpace(dev.Name))
	if name == "" {
		return nil
	}
	for _, acc := range d.byID {
		accName := strings.ToLower(acc.Name)
		if accName == "" {
			continue
		}
		if strings.Contains(accName, name) || strings.Contains(name, accName) {
			return acc
		}
	}
	return nil
}
