package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/izyuk/BatteryData/pkg/events"
)

func NewAccessoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "accessories",
		GroupID: gBasic,
		Short:   "List connected accessories and their battery levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accs, err := apiClient.GetAccessories()
			if err != nil {
				return fmt.Errorf("failed to get accessories: %w", err)
			}

			if len(accs) == 0 {
				cmd.Println("No accessories connected.")
				return nil
			}

			for _, acc := range accs {
				name := acc.Name
				if name == "" {
					name = acc.ID
				}
				line := name
				if acc.BatteryPercent != nil {
					line += fmt.Sprintf(": %d%%", *acc.BatteryPercent)
				} else {
					line += ": unknown"
				}
				if acc.LastUpdated != nil {
					line += fmt.Sprintf(" (updated %s ago)", time.Since(*acc.LastUpdated).Round(time.Second))
				}
				if acc.Error != "" {
					line += " [" + acc.Error + "]"
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "history",
		GroupID: gAdvanced,
		Short:   "Dump the recorded charge and power history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := apiClient.GetHistory()
			if err != nil {
				return fmt.Errorf("failed to get history: %w", err)
			}

			for _, s := range h.Samples {
				line := s.Timestamp.Format(time.RFC3339)
				if s.Percent != nil {
					line += fmt.Sprintf("  %3d%%", *s.Percent)
				} else {
					line += "    -%"
				}
				if s.Watts != nil {
					line += fmt.Sprintf("  %+.1fW", *s.Watts)
				}
				cmd.Println(line)
			}
			cmd.Printf("%d samples, %d estimation points\n", len(h.Samples), len(h.Eta))
			return nil
		},
	}
}

func NewEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "events",
		GroupID: gAdvanced,
		Short:   "Stream daemon events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return apiClient.Events(cmd.Context(), func(ev events.Event) {
				cmd.Printf("%s %s\n", ev.Name, string(ev.Data))
			})
		},
	}
}
