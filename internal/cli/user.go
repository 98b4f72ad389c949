package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/wire"
)

// UserCmd returns the user command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage participant personas",
		Long:  `Register and inspect the users and agents that take part in workflows.`,
	}

	cmd.AddCommand(userSeedCmd())
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userShowCmd())

	return cmd
}

func userSeedCmd() *cobra.Command {
	var (
		email   string
		role    string
		isAgent bool
	)

	cmd := &cobra.Command{
		Use:   "seed [name]",
		Short: "Register a participant",
		Long: `Register a human or agent persona in the directory.

Examples:
  exchange user seed "Ada Owner" --email ada@example.com --role researcher
  exchange user seed "Research Agent" --email agent@example.com --role agent --agent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			participant, err := wire.DirectoryService().SeedUser(ctx, primary.SeedUserRequest{
				Name:    args[0],
				Email:   email,
				Role:    role,
				IsAgent: isAgent,
			})
			if err != nil {
				return fmt.Errorf("failed to seed user: %w", err)
			}

			fmt.Printf("✓ Registered %s: %s (%s)\n", participant.ID, participant.Name, participant.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&role, "role", "", "Role (researcher, reviewer, agent, ...)")
	cmd.Flags().BoolVar(&isAgent, "agent", false, "Mark this persona as an automated agent")

	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			participants, err := wire.DirectoryService().ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(participants) == 0 {
				fmt.Println("No participants registered.")
				fmt.Println()
				fmt.Println("Register your first persona:")
				fmt.Println("  exchange user seed \"Ada Owner\" --email ada@example.com")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tKIND")
			fmt.Fprintln(w, "--\t----\t----\t----")
			for _, p := range participants {
				kind := "human"
				if p.IsAgent {
					kind = "agent"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Role, kind)
			}
			w.Flush()
			return nil
		},
	}
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [user-id]",
		Short: "Show participant details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			participant, err := wire.DirectoryService().GetUser(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user not found: %w", err)
			}

			fmt.Printf("User: %s\n", participant.ID)
			fmt.Printf("Name: %s\n", participant.Name)
			fmt.Printf("Role: %s\n", participant.Role)
			fmt.Printf("Agent: %v\n", participant.IsAgent)
			return nil
		},
	}
}
