package cli

import (
	"context"
	"fmt"

	"github.com/andy/invoicer/internal/domain"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List, add, edit, check and delete clients.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		clients, err := appInstance.ClientService.List(ctx)
		if err != nil {
			return failure("failed to list clients", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-30s %-28s %-16s\n", "ID", "Name", "Email", "Phone")
		fmt.Println("-------------------------------------------------------------------------------")

		for _, client := range clients {
			fmt.Printf("%-5d %-30s %-28s %-16s\n",
				client.ID,
				truncate(client.Name, 30),
				truncate(client.Email, 28),
				truncate(client.Phone, 16),
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a client and their invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.GetWithInvoices(ctx, id)
		if err != nil {
			return failure("failed to get client", err)
		}

		fmt.Printf("%s (ID: %d)\n", client.Name, client.ID)
		if client.Email != "" {
			fmt.Printf("  Email:   %s\n", client.Email)
		}
		if client.Phone != "" {
			fmt.Printf("  Phone:   %s\n", client.Phone)
		}
		if client.Address != "" {
			fmt.Printf("  Address: %s\n", client.Address)
		}
		fmt.Printf("  Since:   %s\n", client.CreatedAt.Local().Format("2006-01-02"))

		if len(client.Invoices) == 0 {
			fmt.Println("\nNo invoices")
			return nil
		}

		fmt.Println()
		for _, inv := range client.Invoices {
			fmt.Printf("  %-16s %-10s %-10s %16s\n",
				inv.Number,
				inv.Date.Local().Format("2006-01-02"),
				inv.Status,
				formatMoney(inv.TotalTTC),
			)
		}
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client := domain.NewClient(args[0])
		client.Email, _ = cmd.Flags().GetString("email")
		client.Phone, _ = cmd.Flags().GetString("phone")
		client.Address, _ = cmd.Flags().GetString("address")

		warnDuplicates(ctx, client)

		if err := appInstance.ClientService.Add(ctx, client); err != nil {
			return failure("failed to create client", err)
		}

		fmt.Printf("✓ Client created: %s (ID: %d)\n", client.Name, client.ID)
		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an existing client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientService.Get(ctx, id)
		if err != nil {
			return failure("failed to get client", err)
		}

		// Update fields if flags provided
		if cmd.Flags().Changed("name") {
			client.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("email") {
			client.Email, _ = cmd.Flags().GetString("email")
		}
		if cmd.Flags().Changed("phone") {
			client.Phone, _ = cmd.Flags().GetString("phone")
		}
		if cmd.Flags().Changed("address") {
			client.Address, _ = cmd.Flags().GetString("address")
		}

		warnDuplicates(ctx, client)

		if err := appInstance.ClientService.Update(ctx, client); err != nil {
			return failure("failed to update client", err)
		}

		fmt.Printf("✓ Client updated: %s\n", client.Name)
		return nil
	},
}

var clientsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a client and all of their invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("yes")
		if !force && !confirmPrompt(fmt.Sprintf("Delete client %d and all of their invoices?", id)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.ClientService.Delete(ctx, id); err != nil {
			return failure("failed to delete client", err)
		}

		fmt.Printf("✓ Client deleted (ID: %d)\n", id)
		return nil
	},
}

var clientsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a name, email or phone is already used",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client := &domain.Client{}
		client.Name, _ = cmd.Flags().GetString("name")
		client.Email, _ = cmd.Flags().GetString("email")
		client.Phone, _ = cmd.Flags().GetString("phone")
		client.ID, _ = cmd.Flags().GetInt64("exclude")

		result, err := appInstance.ClientService.CheckUniqueness(ctx, client)
		if err != nil {
			return failure("failed to check client", err)
		}

		if !result.HasErrors() {
			fmt.Println("✓ No conflicts")
			return nil
		}
		printConflicts(result.NameError, result.EmailError, result.PhoneError)
		return nil
	},
}

// warnDuplicates prints conflicts with existing clients; they don't block
// saving.
func warnDuplicates(ctx context.Context, client *domain.Client) {
	result, err := appInstance.ClientService.CheckUniqueness(ctx, client)
	if err != nil || !result.HasErrors() {
		return
	}
	printConflicts(result.NameError, result.EmailError, result.PhoneError)
}

func printConflicts(msgs ...string) {
	for _, msg := range msgs {
		if msg != "" {
			fmt.Printf("! %s\n", msg)
		}
	}
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsDeleteCmd)
	clientsCmd.AddCommand(clientsCheckCmd)

	// Add flags
	clientsAddCmd.Flags().String("email", "", "Client email")
	clientsAddCmd.Flags().String("phone", "", "Client phone")
	clientsAddCmd.Flags().String("address", "", "Client address")

	// Edit flags
	clientsEditCmd.Flags().String("name", "", "New name")
	clientsEditCmd.Flags().String("email", "", "New email")
	clientsEditCmd.Flags().String("phone", "", "New phone")
	clientsEditCmd.Flags().String("address", "", "New address")

	clientsDeleteCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	// Check flags
	clientsCheckCmd.Flags().String("name", "", "Name to check")
	clientsCheckCmd.Flags().String("email", "", "Email to check")
	clientsCheckCmd.Flags().String("phone", "", "Phone to check")
	clientsCheckCmd.Flags().Int64("exclude", 0, "Client ID to ignore")
}
