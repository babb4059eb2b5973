package powersource

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// TimeRemaining is the OS's own battery time estimate. HasEstimate is false
// when the OS reported its "no estimate" or "unlimited" sentinels.
type TimeRemaining struct {
	OnAC        bool
	Charging    bool
	Minutes     int
	HasEstimate bool
}

// battLineRe matches the battery line of `pmset -g batt`, e.g.
//
//	-InternalBattery-0 (id=5505123)	85%; discharging; 4:22 remaining present: true
//	-InternalBattery-0 (id=5505123)	49%; charging; (no estimate) remaining present: true
var battLineRe = regexp.MustCompile(`(\d{1,3})%;\s+([a-zA-Z ]+?);\s+(?:\((no estimate)\)|(\d+):(\d{2}))\s+remaining`)

// ReadTimeRemaining shells out to pmset for the OS time estimate and the
// current power source.
func ReadTimeRemaining() (TimeRemaining, error) {
	out, err := exec.Command("/usr/bin/pmset", "-g", "batt").Output()
	if err != nil {
		return TimeRemaining{}, pkgerrors.Wrap(err, "failed to run pmset")
	}
	return parsePmsetOutput(string(out))
}

func parsePmsetOutput(out string) (TimeRemaining, error) {
	tr := TimeRemaining{
		OnAC: strings.Contains(out, "'AC Power'"),
	}

	m := battLineRe.FindStringSubmatch(out)
	if m == nil {
		return tr, pkgerrors.New("no battery line in pmset output")
	}

	state := strings.TrimSpace(m[2])
	tr.Charging = state == "charging" || state == "finishing charge"

	if m[3] != "" {
		// "(no estimate)" sentinel: treat as absent, not a duration.
		return tr, nil
	}

	hours, _ := strconv.Atoi(m[4])
	minutes, _ := strconv.Atoi(m[5])
	total := hours*60 + minutes
	if total > 0 {
		tr.Minutes = total
		tr.HasEstimate = true
	}

	return tr, nil
}
