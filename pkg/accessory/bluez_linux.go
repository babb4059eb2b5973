//go:build linux

package accessory

import (
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	bluezService       = "org.bluez"
	bluezBatteryIface  = "org.bluez.Battery1"
	bluezDeviceIface   = "org.bluez.Device1"
	dbusPropsIface     = "org.freedesktop.DBus.Properties"
	dbusObjectManager  = "org.freedesktop.DBus.ObjectManager"
	dbusInterfacesGone = dbusObjectManager + ".InterfacesRemoved"
	dbusPropsChanged   = dbusPropsIface + ".PropertiesChanged"
)

// BlueZListener subscribes to org.bluez.Battery1 percentage updates over the
// system bus. Object paths serve as session identifiers; BlueZ reuses a path
// for the same adapter+device pair, which is exactly the session-scoped
// stability the discovery layer expects.
type BlueZListener struct{}

// Listen connects to the system bus, replays current battery state from
// GetManagedObjects, then forwards property changes until stop is called.
func (l *BlueZListener) Listen(onLevel func(LevelEvent), onGone func(sessionID string), onError func(sessionID, msg string)) (func(), error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to system bus")
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusPropsIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, bluezBatteryIface),
	); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to match battery property signals")
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusObjectManager),
		dbus.WithMatchMember("InterfacesRemoved"),
	); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to match object removal signals")
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		l.replayExisting(conn, onLevel, onError)
		for {
			select {
			case <-stopCh:
				conn.RemoveSignal(signals)
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				l.dispatch(conn, sig, onLevel, onGone)
			}
		}
	}()

	return func() { once.Do(func() { close(stopCh) }) }, nil
}

// replayExisting emits one event per device that already exposes Battery1,
// so levels seen before the daemon started are not lost.
func (l *BlueZListener) replayExisting(conn *dbus.Conn, onLevel func(LevelEvent), onError func(sessionID, msg string)) {
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	obj := conn.Object(bluezService, "/")
	if err := obj.Call(dbusObjectManager+".GetManagedObjects", 0).Store(&managed); err != nil {
		logrus.WithError(err).Debug("GetManagedObjects failed, waiting for signals only")
		return
	}

	for path, ifaces := range managed {
		battery, ok := ifaces[bluezBatteryIface]
		if !ok {
			continue
		}
		pct, ok := variantPercent(battery["Percentage"])
		if !ok {
			onError(string(path), "battery service present but percentage unreadable")
			continue
		}
		name := ""
		if dev, ok := ifaces[bluezDeviceIface]; ok {
			if s, ok := dev["Name"].Value().(string); ok {
				name = s
			}
		}
		onLevel(LevelEvent{SessionID: string(path), Name: name, Level: pct})
	}
}

func (l *BlueZListener) dispatch(conn *dbus.Conn, sig *dbus.Signal, onLevel func(LevelEvent), onGone func(sessionID string)) {
	switch sig.Name {
	case dbusPropsChanged:
		if len(sig.Body) < 2 {
			return
		}
		iface, _ := sig.Body[0].(string)
		if iface != bluezBatteryIface {
			return
		}
		changed, _ := sig.Body[1].(map[string]dbus.Variant)
		pct, ok := variantPercent(changed["Percentage"])
		if !ok {
			return
		}
		onLevel(LevelEvent{
			SessionID: string(sig.Path),
			Name:      l.deviceName(conn, sig.Path),
			Level:     pct,
		})
	case dbusInterfacesGone:
		if len(sig.Body) < 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		ifaces, _ := sig.Body[1].([]string)
		for _, iface := range ifaces {
			if iface == bluezBatteryIface || iface == bluezDeviceIface {
				onGone(string(path))
				return
			}
		}
	}
}

func (l *BlueZListener) deviceName(conn *dbus.Conn, path dbus.ObjectPath) string {
	if !strings.HasPrefix(string(path), "/org/bluez/") {
		return ""
	}
	var v dbus.Variant
	obj := conn.Object(bluezService, path)
	if err := obj.Call(dbusPropsIface+".Get", 0, bluezDeviceIface, "Name").Store(&v); err != nil {
		return ""
	}
	name, _ := v.Value().(string)
	return name
}

func variantPercent(v dbus.Variant) (int, bool) {
	switch t := v.Value().(type) {
	case byte:
		return int(t), true
	case uint16:
		return int(t), true
	case uint32:
		return int(t), true
	case int32:
		return int(t), true
	default:
		return 0, false
	}
}
