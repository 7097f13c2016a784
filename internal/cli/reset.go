package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andy/invoicer/internal/db"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  invoicer reset invoices    # Delete all invoices and restart numbering
  invoicer reset all         # Wipe everything: clients and invoices`,
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices and restart invoice numbering",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices and restart numbering. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.DB.Reset(context.Background(), db.ResetInvoices); err != nil {
			return err
		}

		appInstance.Log.Warn("invoices reset")
		fmt.Println("All invoices have been deleted.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data: clients and invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL data (clients, invoices, everything). Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.DB.Reset(context.Background(), db.ResetAll); err != nil {
			return err
		}

		appInstance.Log.Warn("all data reset")
		fmt.Println("All data has been deleted.")
		return nil
	},
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetAllCmd)
}
