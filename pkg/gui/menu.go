package gui

import (
	"context"
	"fmt"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/types"
)

// maxAccessoryItems bounds the pre-allocated accessory rows. systray cannot
// remove items, so unused rows are hidden instead.
const maxAccessoryItems = 6

const pollInterval = 2 * time.Second

func onReady() {
	systray.SetTitle("Loading...")
	systray.SetTooltip("BatteryData")

	mStatus := systray.AddMenuItem("Status: Connecting...", "Current battery status")
	mStatus.Disable()

	mEstimate := systray.AddMenuItem("Time Remaining: -", "Time until empty or full")
	mEstimate.Disable()

	mHealth := systray.AddMenuItem("Health: -", "Max capacity relative to design capacity")
	mHealth.Disable()

	mAdapter := systray.AddMenuItem("Adapter: -", "Attached power adapter")
	mAdapter.Disable()

	systray.AddSeparator()

	accessoryItems := make([]*systray.MenuItem, maxAccessoryItems)
	for i := range accessoryItems {
		accessoryItems[i] = systray.AddMenuItem("", "Accessory battery level")
		accessoryItems[i].Disable()
		accessoryItems[i].Hide()
	}

	systray.AddSeparator()

	mShowWatts := systray.AddMenuItemCheckbox("Show Watts", "Show power draw in the menu bar", false)
	mCompact := systray.AddMenuItemCheckbox("Compact Label", "Shorter menu bar label", false)

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the menu bar app, the daemon keeps running")

	go func() {
		refreshCh := make(chan struct{}, 1)
		ctx, cancel := context.WithCancel(context.Background())
		go startEventBridge(ctx, refreshCh)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		update := func() {
			updateStatus(mStatus, mEstimate, mHealth, mAdapter, accessoryItems, mShowWatts, mCompact)
		}
		update()

		for {
			select {
			case <-mShowWatts.ClickedCh:
				toggle(mShowWatts, apiClient.SetShowWatts)
				update()
			case <-mCompact.ClickedCh:
				toggle(mCompact, apiClient.SetCompactLabel)
				update()
			case <-refreshCh:
				update()
			case <-ticker.C:
				update()
			case <-mQuit.ClickedCh:
				cancel()
				systray.Quit()
				return
			}
		}
	}()
}

func toggle(item *systray.MenuItem, set func(bool) (string, error)) {
	enabled := !item.Checked()
	if _, err := set(enabled); err != nil {
		logrus.WithError(err).Error("failed to update preference")
		return
	}
	if enabled {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func updateStatus(
	mStatus, mEstimate, mHealth, mAdapter *systray.MenuItem,
	accessoryItems []*systray.MenuItem,
	mShowWatts, mCompact *systray.MenuItem,
) {
	st, err := apiClient.GetState()
	if err != nil {
		systray.SetTitle("Offline")
		mStatus.SetTitle("Status: Disconnected")
		mEstimate.SetTitle("Time Remaining: -")
		logrus.WithError(err).Debug("cannot connect to daemon")
		return
	}

	rawConfig, err := apiClient.GetConfig()
	if err != nil {
		logrus.WithError(err).Debug("failed to get config")
		return
	}
	conf := config.NewFileFromConfig(rawConfig, "")

	snap := st.Power
	systray.SetTitle(titleFor(&snap, conf.ShowWatts(), conf.CompactLabel()))
	mStatus.SetTitle("Status: " + statusFor(&snap))
	mEstimate.SetTitle("Time Remaining: " + estimateFor(&snap))

	// Health and adapter rows are the expanded detail set.
	if conf.StatusBarExpanded() {
		mHealth.SetTitle("Health: " + healthFor(&snap))
		mAdapter.SetTitle("Adapter: " + adapterFor(&snap))
		mHealth.Show()
		mAdapter.Show()
	} else {
		mHealth.Hide()
		mAdapter.Hide()
	}

	syncCheckbox(mShowWatts, conf.ShowWatts())
	syncCheckbox(mCompact, conf.CompactLabel())

	for i, item := range accessoryItems {
		if i >= len(st.Accessories) {
			item.Hide()
			continue
		}
		acc := st.Accessories[i]
		item.SetTitle(accessoryLine(acc))
		item.Show()
	}
}

func syncCheckbox(item *systray.MenuItem, checked bool) {
	if checked == item.Checked() {
		return
	}
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}

func titleFor(snap *types.PowerSnapshot, showWatts, compact bool) string {
	if snap.Percentage == nil {
		return "-%"
	}

	icon := ""
	if snap.IsCharging != nil && *snap.IsCharging {
		icon = "⚡️"
	}

	title := fmt.Sprintf("%s%d%%", icon, *snap.Percentage)
	if compact {
		return title
	}

	if showWatts {
		if w, ok := snap.Watts(); ok {
			title += fmt.Sprintf(" %.1fW", w)
		}
	}
	return title
}

func statusFor(snap *types.PowerSnapshot) string {
	switch {
	case snap.IsCharging != nil && *snap.IsCharging:
		return "Charging"
	case snap.OnACPower != nil && *snap.OnACPower:
		return "On AC Power"
	case snap.OnACPower != nil:
		return "On Battery"
	default:
		return "Unknown"
	}
}

// estimateFor prefers time-to-full while charging. Estimator-derived values
// get a "~" prefix so the user can tell them from OS-supplied ones.
func estimateFor(snap *types.PowerSnapshot) string {
	if snap.TimeToFullMinutes != nil {
		return formatMinutes(*snap.TimeToFullMinutes) + " until full"
	}
	if snap.TimeToEmptyMinutes != nil {
		s := formatMinutes(*snap.TimeToEmptyMinutes)
		if snap.TimeToEmptyEstimated {
			s = "~" + s
		}
		return s
	}
	return "-"
}

func healthFor(snap *types.PowerSnapshot) string {
	h, ok := snap.HealthPercent()
	if !ok {
		return "-"
	}
	s := fmt.Sprintf("%.0f%%", h)
	if snap.CycleCount != nil {
		s += fmt.Sprintf(" (%d cycles)", *snap.CycleCount)
	}
	return s
}

func adapterFor(snap *types.PowerSnapshot) string {
	var name string
	switch snap.AdapterKind {
	case types.AdapterMagSafe:
		name = "MagSafe"
	case types.AdapterUSBCPD:
		name = "USB-C PD"
	case types.AdapterAC:
		name = "AC"
	default:
		return "None"
	}
	if snap.AdapterRatedWatts != nil {
		name += fmt.Sprintf(" %dW", *snap.AdapterRatedWatts)
	}
	return name
}

func accessoryLine(acc types.AccessorySnapshot) string {
	name := acc.Name
	if name == "" {
		name = acc.ID
	}
	if acc.BatteryPercent != nil {
		return fmt.Sprintf("%s: %d%%", name, *acc.BatteryPercent)
	}
	return name + ": -"
}

func formatMinutes(m int) string {
	if m >= 60 {
		return fmt.Sprintf("%dh %dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}
