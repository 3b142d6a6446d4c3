package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "List and open support tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List support tickets",
	Args:  cobra.NoArgs,
	RunE:  runTicketsList,
}

var ticketsCreateCmd = &cobra.Command{
	Use:   "create <subject> <message>",
	Short: "Open a support ticket",
	Long: `Open a support ticket.

Examples:
  webforge tickets create "Editor froze" "The preview stopped updating" --user <user-id>
  webforge tickets create Billing "Charged twice" --priority high --user <user-id>`,
	Args: cobra.ExactArgs(2),
	RunE: runTicketsCreate,
}

var ticketPriority string

func init() {
	ticketsCreateCmd.Flags().StringVar(&ticketPriority, "priority", string(types.PriorityMedium), "low, medium or high")

	ticketsCmd.AddCommand(ticketsListCmd)
	ticketsCmd.AddCommand(ticketsCreateCmd)
}

func runTicketsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tickets, err := a.svc.Support.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	if len(tickets) == 0 {
		fmt.Println("No tickets found")
		return nil
	}

	for _, t := range tickets {
		fmt.Printf("  [%s/%s] %s\n", t.Status, t.Priority, truncate(t.Subject, 60))
		fmt.Printf("    ID: %s\n", t.ID)
	}
	return nil
}

func runTicketsCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := requireUser()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.Support.Create(ctx, id, types.CreateTicketRequest{
		Subject:  args[0],
		Message:  args[1],
		Priority: types.TicketPriority(ticketPriority),
	})
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	fmt.Printf("Opened ticket %s\n", t.ID)
	return nil
}
