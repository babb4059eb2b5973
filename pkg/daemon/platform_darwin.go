//go:build darwin

package daemon

import (
	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/notify"
)

// platformLevelListener returns nil: there is no userspace GATT transport
// here, the HID registry probe covers battery levels instead.
func platformLevelListener() accessory.LevelListener {
	return nil
}

func notificationSink() notify.Sink {
	return notify.OsascriptSink{}
}
