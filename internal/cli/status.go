package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show open requests and active workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			requests, err := wire.MarketplaceService().ListRequests(ctx, primary.RequestFilters{Status: "open"})
			if err != nil {
				return fmt.Errorf("failed to list requests: %w", err)
			}

			fmt.Println(color.New(color.Bold).Sprint("Open requests"))
			if len(requests) == 0 {
				fmt.Println("  (none)")
			}
			for _, r := range requests {
				fmt.Printf("  %s  %s\n", color.New(color.FgCyan).Sprint(r.ID), r.Title)
			}

			workflows, err := wire.WorkflowService().ListWorkflows(ctx, primary.WorkflowFilters{})
			if err != nil {
				return fmt.Errorf("failed to list workflows: %w", err)
			}

			fmt.Println()
			fmt.Println(color.New(color.Bold).Sprint("Workflows"))
			if len(workflows) == 0 {
				fmt.Println("  (none)")
			}
			for _, wf := range workflows {
				fmt.Printf("  %s  %s  %s\n",
					color.New(color.FgCyan).Sprint(wf.ID),
					statusColor(wf.Status).Sprintf("%-15s", wf.Status),
					wf.Title)
			}
			return nil
		},
	}
}

// statusColor maps a workflow status to its display color.
func statusColor(status string) *color.Color {
	switch status {
	case "completed":
		return color.New(color.FgGreen)
	case "failed":
		return color.New(color.FgRed)
	case "researching", "refining", "generating_ppt":
		return color.New(color.FgYellow)
	case "awaiting_review":
		return color.New(color.FgHiMagenta)
	case "collaborating":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
