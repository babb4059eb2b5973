package main

import (
	"errors"
	"fmt"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/izyuk/BatteryData/pkg/client"
	"github.com/izyuk/BatteryData/pkg/gui"
	"github.com/izyuk/BatteryData/pkg/utils/osver"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/batterydata.sock"
	configPath     = "/etc/batterydata.json"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: batterydata daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Have you installed it?")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or reinstall the daemon with the '--always-allow-non-root-access' flag to grant permissions to your user")
	}
}

func main() {
	if !osver.IsAtLeast(11, 0, 0) {
		fmt.Fprintln(os.Stderr, "batterydata requires macOS 11.0 or later")
		os.Exit(1)
	}

	// A status poller does not need many CPUs.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batterydata",
		Short: "batterydata shows battery and accessory power status in the menu bar",
		Long: `batterydata shows battery and accessory power status in the menu bar.

Website: https://github.com/izyuk/BatteryData
Report issues: https://github.com/izyuk/BatteryData/issues`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			// Flags are parsed by now, so the socket path is final.
			apiClient = client.NewClient(unixSocketPath)

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. batterydata may not work as expected. Upgrade both to the same version.")
				}
			}

			return nil
		},
	}

	if os.Getenv("BATTERYDATA_RUN_GUI") != "" || path.Base(os.Args[0]) == "batterydata-gui" {
		cmd.Run = func(_ *cobra.Command, _ []string) {
			gui.Run(unixSocketPath)
		}
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewAccessoriesCommand(),
		NewHistoryCommand(),
		NewEventsCommand(),
		NewRefreshIntervalCommand(),
		NewEstimationWindowCommand(),
		NewChartWindowCommand(),
		NewShowWattsCommand(),
		NewCompactLabelCommand(),
		NewStatusBarExpandedCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		gui.NewGUICommand(unixSocketPath, gBasic),
	)

	return cmd
}
