package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Create, list, edit, validate and cancel invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Parse filters
		var filter repository.InvoiceFilter
		if cmd.Flags().Changed("client") {
			id, err := resolveClientID(ctx, mustString(cmd, "client"))
			if err != nil {
				return err
			}
			filter.ClientID = &id
		}
		if cmd.Flags().Changed("status") {
			s := domain.InvoiceStatus(strings.ToLower(mustString(cmd, "status")))
			if !s.Valid() {
				return fmt.Errorf("invalid status %q (draft, validated, cancelled)", s)
			}
			filter.Status = &s
		}
		filter.Number = mustString(cmd, "number")

		invoices, err := appInstance.InvoiceService.List(ctx, filter)
		if err != nil {
			return failure("failed to list invoices", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-16s %-24s %-10s %-10s %16s\n", "ID", "Number", "Client", "Date", "Status", "Total TTC")
		fmt.Println("--------------------------------------------------------------------------------------")

		for _, invoice := range invoices {
			clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
			if invoice.Client != nil {
				clientName = invoice.Client.Name
			}

			fmt.Printf("%-5d %-16s %-24s %-10s %-10s %16s\n",
				invoice.ID,
				invoice.Number,
				truncate(clientName, 24),
				invoice.Date.Local().Format("2006-01-02"),
				invoice.Status,
				formatMoney(invoice.TotalTTC),
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [client_id_or_name]",
	Short: "Create a new draft invoice",
	Long: `Create a new draft invoice dated today with the next invoice number.

Lines are given as description:quantity:unit_price, e.g.
  invoicer invoices create Rasoa --line "Service A:2:50000"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		clientID, err := resolveClientID(ctx, args[0])
		if err != nil {
			return err
		}

		specs, _ := cmd.Flags().GetStringArray("line")
		lines := make([]*domain.InvoiceLine, 0, len(specs))
		for _, spec := range specs {
			line, err := parseLine(spec)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		invoice, err := appInstance.InvoiceService.Create(ctx, clientID, lines)
		if err != nil {
			return failure("failed to create invoice", err)
		}

		fmt.Printf("✓ Draft invoice created: %s (ID: %d)\n", invoice.Number, invoice.ID)
		fmt.Printf("  Total TTC: %s\n", formatMoney(invoice.TotalTTC))
		return nil
	},
}

var invoicesEditCmd = &cobra.Command{
	Use:   "edit [id_or_number]",
	Short: "Edit a draft invoice",
	Long: `Edit the date, client or lines of a draft invoice.

When --line is given the invoice lines are replaced by the listed ones.
Prefix a line with its ID to keep it, e.g. --line "3=Service A:4:50000".
Lines left out are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoice, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		var edit service.InvoiceEdit
		if cmd.Flags().Changed("date") {
			date, err := parseDate(mustString(cmd, "date"))
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			edit.Date = &date
		}
		if cmd.Flags().Changed("client") {
			clientID, err := resolveClientID(ctx, mustString(cmd, "client"))
			if err != nil {
				return err
			}
			edit.ClientID = &clientID
		}
		if cmd.Flags().Changed("line") {
			specs, _ := cmd.Flags().GetStringArray("line")
			edit.Lines = make([]*domain.InvoiceLine, 0, len(specs))
			for _, spec := range specs {
				line, err := parseLineEdit(spec)
				if err != nil {
					return err
				}
				edit.Lines = append(edit.Lines, line)
			}
		} else {
			edit.Lines = invoice.Lines
		}

		updated, err := appInstance.InvoiceService.Update(ctx, invoice.ID, edit)
		if err != nil {
			return failure("failed to update invoice", err)
		}

		fmt.Printf("✓ Invoice updated: %s\n", updated.Number)
		fmt.Printf("  Total TTC: %s\n", formatMoney(updated.TotalTTC))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_number]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invoice, err := resolveInvoice(context.Background(), args[0])
		if err != nil {
			return err
		}

		printInvoice(invoice)
		return nil
	},
}

var invoicesValidateCmd = &cobra.Command{
	Use:   "validate [id_or_number]",
	Short: "Validate a draft invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(args[0], "validate", appInstance.InvoiceService.Validate)
	},
}

var invoicesCancelCmd = &cobra.Command{
	Use:   "cancel [id_or_number]",
	Short: "Cancel an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(args[0], "cancel", appInstance.InvoiceService.Cancel)
	},
}

var invoicesRecomputeCmd = &cobra.Command{
	Use:   "recompute [id_or_number]",
	Short: "Recompute the totals of a draft invoice from its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(args[0], "recompute", appInstance.InvoiceService.RecomputeTotals)
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id_or_number]",
	Short: "Delete a draft invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoice, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("yes")
		if !force && !confirmPrompt(fmt.Sprintf("Delete invoice %s?", invoice.Number)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.Delete(ctx, invoice.ID); err != nil {
			return failure("failed to delete invoice", err)
		}

		fmt.Printf("✓ Invoice deleted: %s\n", invoice.Number)
		return nil
	},
}

func transition(arg, action string, step func(context.Context, int64) (*domain.Invoice, error)) error {
	ctx := context.Background()

	invoice, err := resolveInvoice(ctx, arg)
	if err != nil {
		return err
	}

	updated, err := step(ctx, invoice.ID)
	if err != nil {
		return failure("failed to "+action+" invoice", err)
	}

	fmt.Printf("✓ Invoice %s: %s\n", updated.Number, updated.Status)
	fmt.Printf("  Total TTC: %s\n", formatMoney(updated.TotalTTC))
	return nil
}

func printInvoice(invoice *domain.Invoice) {
	clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
	if invoice.Client != nil {
		clientName = invoice.Client.Name
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Invoice: %s\n", invoice.Number)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Client: %s\n", clientName)
	fmt.Printf("Date:   %s\n", invoice.Date.Local().Format("2006-01-02"))
	fmt.Printf("Status: %s\n", invoice.Status)
	fmt.Println()

	if len(invoice.Lines) > 0 {
		fmt.Println("Lines:")
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("%-5s %-34s %5s %16s %16s\n", "ID", "Description", "Qty", "Unit price", "Total")
		fmt.Println(strings.Repeat("-", 80))

		for _, line := range invoice.Lines {
			fmt.Printf("%-5d %-34s %5d %16s %16s\n",
				line.ID,
				truncate(line.Description, 34),
				line.Quantity,
				formatMoney(line.UnitPrice),
				formatMoney(line.Total()),
			)
		}
		fmt.Println(strings.Repeat("-", 80))
	}

	fmt.Println()
	fmt.Printf("Total HT:  %s\n", formatMoney(invoice.TotalHT))
	fmt.Printf("TVA:       %s\n", formatMoney(invoice.TVA))
	fmt.Printf("Total TTC: %s\n", formatMoney(invoice.TotalTTC))
	fmt.Println(strings.Repeat("=", 80))
}

// resolveClientID accepts a client ID or a client name
func resolveClientID(ctx context.Context, idOrName string) (int64, error) {
	// Try to parse as ID first
	if id, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return 0, failure("failed to resolve client", err)
		}
		return client.ID, nil
	}

	clients, err := appInstance.ClientService.List(ctx)
	if err != nil {
		return 0, failure("failed to resolve client", err)
	}
	for _, client := range clients {
		if strings.EqualFold(client.Name, strings.TrimSpace(idOrName)) {
			return client.ID, nil
		}
	}

	return 0, fmt.Errorf("client named '%s' not found", idOrName)
}

// resolveInvoice accepts an invoice ID or an invoice number
func resolveInvoice(ctx context.Context, idOrNumber string) (*domain.Invoice, error) {
	var (
		invoice *domain.Invoice
		err     error
	)
	if id, perr := strconv.ParseInt(idOrNumber, 10, 64); perr == nil {
		invoice, err = appInstance.InvoiceService.Get(ctx, id)
	} else {
		invoice, err = appInstance.InvoiceService.GetByNumber(ctx, idOrNumber)
	}
	if err != nil {
		return nil, failure("failed to get invoice", err)
	}
	return invoice, nil
}

func mustString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesEditCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesValidateCmd)
	invoicesCmd.AddCommand(invoicesCancelCmd)
	invoicesCmd.AddCommand(invoicesRecomputeCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)

	// List flags
	invoicesListCmd.Flags().String("client", "", "Filter by client ID or name")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, validated, cancelled)")
	invoicesListCmd.Flags().String("number", "", "Filter by invoice number fragment")

	// Create flags
	invoicesCreateCmd.Flags().StringArray("line", nil, "Invoice line as description:quantity:unit_price (repeatable)")

	// Edit flags
	invoicesEditCmd.Flags().String("date", "", "Invoice date (YYYY-MM-DD, 'today', 'yesterday')")
	invoicesEditCmd.Flags().String("client", "", "New client ID or name")
	invoicesEditCmd.Flags().StringArray("line", nil, "Replacement line as [id=]description:quantity:unit_price (repeatable)")

	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
