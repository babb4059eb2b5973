package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/izyuk/BatteryData/pkg/daemon"
	utilsdaemon "github.com/izyuk/BatteryData/pkg/utils/daemon"
	"github.com/izyuk/BatteryData/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to allow non-root users to access the daemon.
	alwaysAllowNonRootAccess = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run the daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
			}).Info("batterydata daemon starting")
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Allow non-root users to access the daemon.")

	return cmd
}

func NewInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   "Install the daemon as a launch daemon",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			return utilsdaemon.Install()
		},
	}
}

func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Remove the launch daemon",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			return utilsdaemon.Uninstall()
		},
	}
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s\n", version.Version)
		},
	}
}
