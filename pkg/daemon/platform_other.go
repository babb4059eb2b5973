//go:build !darwin && !linux

package daemon

import (
	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/notify"
)

func platformLevelListener() accessory.LevelListener {
	return nil
}

func notificationSink() notify.Sink {
	return notify.LogSink{}
}
