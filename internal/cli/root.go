package cli

import (
	"github.com/andy/invoicer/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Client and invoice management for small businesses",
	Long: `Invoicer keeps your clients and invoices in an encrypted local database.

By default, running invoicer without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch TUI
		return launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
