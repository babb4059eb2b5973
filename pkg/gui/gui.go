// Package gui renders the menu bar item. It is a pure client of the daemon:
// all state comes over the unix socket, so the GUI can be quit and restarted
// freely without touching the refresh cycle.
package gui

import (
	"context"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/izyuk/BatteryData/pkg/client"
	"github.com/izyuk/BatteryData/pkg/events"
	"github.com/izyuk/BatteryData/pkg/version"
)

func NewGUICommand(unixSocketPath string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gui",
		Short:   "Start the menu bar app",
		GroupID: groupID,
		Run: func(cmd *cobra.Command, _ []string) {
			// Honor a --daemon-socket override from the root command.
			socket := unixSocketPath
			if f := cmd.Flags().Lookup("daemon-socket"); f != nil {
				socket = f.Value.String()
			}
			Run(socket)
		},
	}

	return cmd
}

var apiClient *client.Client

func Run(unixSocketPath string) {
	apiClient = client.NewClient(unixSocketPath)
	logrus.WithField("version", version.Version).Info("starting menu bar app")
	systray.Run(onReady, onExit)
}

func onExit() {
	logrus.Info("menu bar app exiting")
}

// startEventBridge forwards daemon SSE events into refreshCh so the menu
// updates the moment the daemon publishes, not on the next poll tick.
func startEventBridge(ctx context.Context, refreshCh chan<- struct{}) {
	err := apiClient.Events(ctx, func(ev events.Event) {
		if ev.Name != events.StateUpdated {
			return
		}
		select {
		case refreshCh <- struct{}{}:
		default:
		}
	})
	if err != nil && ctx.Err() == nil {
		logrus.WithError(err).Debug("event stream ended, falling back to polling")
	}
}
