package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show client and revenue totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := appInstance.StatsService.Refresh(context.Background())
		if err != nil {
			return failure("failed to load stats", err)
		}

		fmt.Printf("Clients:           %d\n", stats.TotalClients)
		fmt.Printf("Invoices:          %d\n", stats.TotalInvoices)
		fmt.Printf("Validated revenue: %s\n", formatMoney(stats.ValidatedRevenue))
		return nil
	},
}
