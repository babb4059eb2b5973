package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/types"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current battery and accessory status",
		Long:    `Get the current power snapshot, accessory list, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.GetState()
			if err != nil {
				return fmt.Errorf("failed to get state: %w", err)
			}

			rawConfig, err := apiClient.GetConfig()
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}
			conf := config.NewFileFromConfig(rawConfig, "")

			snap := st.Power

			cmd.Println(bold("Battery status:"))

			if snap.Percentage != nil {
				cmd.Printf("  Charge: %s\n", bold("%d%%", *snap.Percentage))
			} else {
				cmd.Printf("  Charge: %s\n", bold("unknown"))
			}

			state := "not charging"
			switch {
			case snap.IsCharging != nil && *snap.IsCharging:
				state = color.GreenString("charging")
			case snap.Discharging():
				state = color.RedString("discharging")
			case snap.Percentage != nil && *snap.Percentage >= 100:
				state = "full"
			}
			cmd.Printf("  State: %s\n", bold("%s", state))

			if w, ok := snap.Watts(); ok {
				var rateStr string
				switch {
				case w > 0:
					rateStr = color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", w)
				case w < 0:
					rateStr = color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", w)
				default:
					rateStr = bold("%+.1f W", w)
				}
				cmd.Printf("  Power draw: %s\n", rateStr)
			}

			if snap.TimeToFullMinutes != nil {
				cmd.Printf("  Time to full: %s\n", bold("%d minutes", *snap.TimeToFullMinutes))
			}
			if snap.TimeToEmptyMinutes != nil {
				if snap.TimeToEmptyEstimated {
					cmd.Printf("  Time to empty: %s\n", bold("~%d minutes (estimated)", *snap.TimeToEmptyMinutes))
				} else {
					cmd.Printf("  Time to empty: %s\n", bold("%d minutes", *snap.TimeToEmptyMinutes))
				}
			}

			if h, ok := snap.HealthPercent(); ok {
				cmd.Printf("  Health: %s\n", bold("%.0f%%", h))
			}
			if snap.CycleCount != nil {
				cmd.Printf("  Cycle count: %s\n", bold("%d", *snap.CycleCount))
			}
			if snap.TemperatureCelsius != nil {
				cmd.Printf("  Temperature: %s\n", bold("%.1f °C", *snap.TemperatureCelsius))
			}
			if snap.VoltageMilliVolts != nil {
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", float64(*snap.VoltageMilliVolts)/1000))
			}

			cmd.Printf("  Adapter: %s\n", bold("%s", adapterText(&snap)))

			cmd.Println()

			cmd.Println(bold("Accessories:"))
			if len(st.Accessories) == 0 {
				cmd.Println("  (none connected)")
			}
			for _, acc := range st.Accessories {
				name := acc.Name
				if name == "" {
					name = acc.ID
				}
				if acc.BatteryPercent != nil {
					cmd.Printf("  %s: %s\n", name, bold("%d%%", *acc.BatteryPercent))
				} else {
					cmd.Printf("  %s: %s\n", name, bold("unknown"))
				}
			}

			cmd.Println()

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Refresh interval: %s\n", bold("%gs", conf.RefreshIntervalSeconds()))
			cmd.Printf("  Estimation window: %s\n", bold("%d minutes", conf.EstimationWindowMinutes()))
			cmd.Printf("  Chart window: %s\n", bold("%d minutes", conf.ChartWindowMinutes()))
			cmd.Printf("  Show watts: %s\n", bool2Text(conf.ShowWatts()))
			cmd.Printf("  Compact label: %s\n", bool2Text(conf.CompactLabel()))
			cmd.Printf("  Status bar expanded: %s\n", bool2Text(conf.StatusBarExpanded()))

			return nil
		},
	}
}

func adapterText(snap *types.PowerSnapshot) string {
	var name string
	switch snap.AdapterKind {
	case types.AdapterMagSafe:
		name = "MagSafe"
	case types.AdapterUSBCPD:
		name = "USB-C PD"
	case types.AdapterAC:
		name = "AC"
	default:
		return "none"
	}
	if snap.AdapterRatedWatts != nil {
		name += fmt.Sprintf(" (%d W)", *snap.AdapterRatedWatts)
	}
	return name
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
