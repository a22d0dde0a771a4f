package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/config"
	"github.com/ryanjamurphy/fastmail-claude-calendar-plugin/internal/server"
)

func newCalendarsCmd() *cobra.Command {
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List the calendars visible to the configured account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

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

			calendars, err := sc.Service().ListCalendars(cmd.Context())
			if err != nil {
				return err
			}

			for _, cal := range calendars {
				writable := "read-only"
				if cal.Writable {
					writable = "writable"
				}
				fmt.Printf("%s\t%s\t%s\n", cal.ID, cal.Name, writable)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	return cmd
}
