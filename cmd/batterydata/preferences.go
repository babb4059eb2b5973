package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewRefreshIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh-interval [seconds]",
		Short:   "Set the refresh interval",
		GroupID: gBasic,
		Long: `Set the refresh interval in seconds.

Accepted range is 0.5 to 3600 seconds. Shorter intervals give a smoother
power chart at the cost of more frequent polling.`,
		RunE: func(_ *cobra.Command, args []string) error {
			seconds, err := parseFloatArg(args, "refresh interval")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetRefreshInterval(seconds)
			if err != nil {
				return fmt.Errorf("failed to set refresh interval: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			logrus.Infof("successfully set refresh interval to %gs", seconds)
			return nil
		},
	}
}

func NewEstimationWindowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "estimation-window [minutes]",
		Short:   "Set the estimation window",
		GroupID: gAdvanced,
		Long: `Set the window of recent samples used by the discharge estimator.

Accepted range is 1 to 10 minutes.`,
		RunE: func(_ *cobra.Command, args []string) error {
			minutes, err := parseIntArg(args, "estimation window")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetEstimationWindow(minutes)
			if err != nil {
				return fmt.Errorf("failed to set estimation window: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			logrus.Infof("successfully set estimation window to %d minutes", minutes)
			return nil
		},
	}
}

func NewChartWindowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "chart-window [minutes]",
		Short:   "Set the chart retention window",
		GroupID: gAdvanced,
		Long: `Set how much history is retained for the power chart.

Accepted range is 10 to 120 minutes.`,
		RunE: func(_ *cobra.Command, args []string) error {
			minutes, err := parseIntArg(args, "chart window")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetChartWindow(minutes)
			if err != nil {
				return fmt.Errorf("failed to set chart window: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			logrus.Infof("successfully set chart window to %d minutes", minutes)
			return nil
		},
	}
}

func NewShowWattsCommand() *cobra.Command {
	return newEnableDisableCommand(
		"show-watts",
		"power draw in the menu bar label",
		`Show the instantaneous power draw next to the battery percentage in the menu bar.`,
		func() (string, error) { return apiClient.SetShowWatts(true) },
		func() (string, error) { return apiClient.SetShowWatts(false) },
	)
}

func NewCompactLabelCommand() *cobra.Command {
	return newEnableDisableCommand(
		"compact-label",
		"compact menu bar label",
		`Use a shorter menu bar label showing only the battery percentage.`,
		func() (string, error) { return apiClient.SetCompactLabel(true) },
		func() (string, error) { return apiClient.SetCompactLabel(false) },
	)
}

func NewStatusBarExpandedCommand() *cobra.Command {
	return newEnableDisableCommand(
		"status-bar-expanded",
		"expanded status bar details",
		`Show extended details (health, temperature, adapter) in the menu.`,
		func() (string, error) { return apiClient.SetStatusBarExpanded(true) },
		func() (string, error) { return apiClient.SetStatusBarExpanded(false) },
	)
}
