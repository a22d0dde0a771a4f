package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calendar plugin
var rootCmd = &cobra.Command{
	Use:   "fastmail-calendar",
	Short: "Calendar integration engine for AI agents, backed by Fastmail",
	Long: `fastmail-calendar exposes a Fastmail account's calendars to AI agents
through a uniform set of operations: listing calendars, querying events,
creating, updating and deleting events, and discovering free time.

Two wire protocols are supported, selected once at startup via
FASTMAIL_PROTOCOL: the JSON protocol (JMAP/JSCalendar) and the text
protocol (CalDAV/iCalendar).

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A standalone CLI for listing calendars and finding free slots`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "fastmail-calendar version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
