//go:build linux

package daemon

import (
	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/notify"
)

func platformLevelListener() accessory.LevelListener {
	return &accessory.BlueZListener{}
}

func notificationSink() notify.Sink {
	return notify.LogSink{}
}
