package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/config"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/server"
)

func newSlotsCmd() *cobra.Command {
	var (
		debugMode  bool
		afterStr   string
		beforeStr  string
		minMinutes int
		calendarID string
		timeZone   string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find free time slots within a window",
		Long: `Query the configured account's calendars and print the free gaps of at
least the requested length within the window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			after, err := time.Parse(time.RFC3339, afterStr)
			if err != nil {
				return fmt.Errorf("invalid --after: %w", err)
			}
			before, err := time.Parse(time.RFC3339, beforeStr)
			if err != nil {
				return fmt.Errorf("invalid --before: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			logger := newLogger(debugMode)
			sc, err := server.NewServerContext(context.Background(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server context: %w", err)
			}
			defer sc.Shutdown()

			slots, err := sc.Service().FindFreeSlots(cmd.Context(), calendarID,
				after, before, time.Duration(minMinutes)*time.Minute, timeZone)
			if err != nil {
				return err
			}

			if len(slots) == 0 {
				fmt.Println("No free slots found.")
				return nil
			}
			for _, slot := range slots {
				fmt.Printf("%s - %s\t%d min\n", slot.StartLocal, slot.EndLocal, slot.DurationMinutes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&afterStr, "after", "", "Start of the search window (RFC3339)")
	cmd.Flags().StringVar(&beforeStr, "before", "", "End of the search window (RFC3339)")
	cmd.Flags().IntVar(&minMinutes, "min", 30, "Minimum slot length in minutes")
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID to consider (default: all calendars)")
	cmd.Flags().StringVar(&timeZone, "tz", "", "IANA time zone for displaying slot times (default: UTC)")
	_ = cmd.MarkFlagRequired("after")
	_ = cmd.MarkFlagRequired("before")

	return cmd
}
