package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/wire"
)

// MarketCmd returns the market command
func MarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Manage marketplace requests",
		Long: `Post collaboration requests, volunteer for them, and accept a
collaborator to start a workflow together.`,
	}

	cmd.AddCommand(marketPostCmd())
	cmd.AddCommand(marketListCmd())
	cmd.AddCommand(marketShowCmd())
	cmd.AddCommand(marketVolunteerCmd())
	cmd.AddCommand(marketInviteCmd())
	cmd.AddCommand(marketAcceptCmd())

	return cmd
}

func marketPostCmd() *cobra.Command {
	var (
		asUser       string
		description  string
		capabilities []string
		parent       string
	)

	cmd := &cobra.Command{
		Use:   "post [title]",
		Short: "Post a collaboration request",
		Long: `Post an open request to the marketplace. Capability tags describe
the help you are looking for; they are advisory metadata and never rank
volunteers.

Examples:
  exchange market post "EV market deck" --desc "Research and slides" --caps research,ppt
  exchange market post "Compliance check" --desc "Audit the claims" --caps compliance --parent WF-001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			resp, err := wire.MarketplaceService().PostRequest(ctx, primary.PostRequestRequest{
				RequesterID:      actor,
				Title:            args[0],
				Description:      description,
				Capabilities:     capabilities,
				ParentWorkflowID: parent,
			})
			if err != nil {
				return fmt.Errorf("failed to post request: %w", err)
			}

			fmt.Printf("✓ Posted request %s: %s\n", resp.RequestID, resp.Request.Title)
			fmt.Printf("  Capabilities: %s\n", strings.Join(resp.Request.Capabilities, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&description, "desc", "", "What you need help with (required)")
	cmd.Flags().StringSliceVar(&capabilities, "caps", nil, "Capability tags, comma separated (required)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent workflow for a sub-task request")

	return cmd
}

func marketListCmd() *cobra.Command {
	var (
		status    string
		requester string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List marketplace requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			requests, err := wire.MarketplaceService().ListRequests(ctx, primary.RequestFilters{
				Status:      status,
				RequesterID: requester,
			})
			if err != nil {
				return fmt.Errorf("failed to list requests: %w", err)
			}

			if len(requests) == 0 {
				fmt.Println("No requests found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tCAPABILITIES\tREQUESTER")
			fmt.Fprintln(w, "--\t-----\t------\t------------\t---------")
			for _, r := range requests {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Title, r.Status, strings.Join(r.Capabilities, ","), r.RequesterID)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (open, matched, closed)")
	cmd.Flags().StringVar(&requester, "requester", "", "Filter by requester id")

	return cmd
}

func marketShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [request-id]",
		Short: "Show a request with its volunteers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			detail, err := wire.MarketplaceService().GetRequest(ctx, args[0])
			if err != nil {
				return fmt.Errorf("request not found: %w", err)
			}

			r := detail.Request
			fmt.Printf("Request: %s [%s]\n", r.ID, r.Status)
			fmt.Printf("Title: %s\n", r.Title)
			fmt.Printf("Description: %s\n", r.Description)
			fmt.Printf("Capabilities: %s\n", strings.Join(r.Capabilities, ", "))
			fmt.Printf("Requester: %s\n", r.RequesterID)
			if r.ParentWorkflowID != "" {
				fmt.Printf("Parent workflow: %s\n", r.ParentWorkflowID)
			}

			if len(detail.Volunteers) == 0 {
				fmt.Println("\nNo volunteers yet.")
				return nil
			}

			fmt.Println("\nVolunteers:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "  ID\tUSER\tORIGIN\tSTATUS\tNOTE")
			for _, v := range detail.Volunteers {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", v.ID, v.UserID, v.Origin, v.Status, v.Note)
			}
			w.Flush()
			return nil
		},
	}
}

func marketVolunteerCmd() *cobra.Command {
	var (
		asUser string
		note   string
	)

	cmd := &cobra.Command{
		Use:   "volunteer [request-id]",
		Short: "Volunteer for an open request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			resp, err := wire.MarketplaceService().Volunteer(ctx, primary.VolunteerRequest{
				RequestID: args[0],
				UserID:    actor,
				Note:      note,
			})
			if err != nil {
				return fmt.Errorf("failed to volunteer: %w", err)
			}

			fmt.Printf("✓ Volunteered as %s for %s (%s)\n", actor, args[0], resp.VolunteerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&note, "note", "", "Short pitch to the requester")

	return cmd
}

func marketInviteCmd() *cobra.Command {
	var (
		asUser string
		note   string
	)

	cmd := &cobra.Command{
		Use:   "invite [request-id] [user-id]",
		Short: "Invite a collaborator directly",
		Long:  `Issue a direct invite for your own request. Requester only.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			resp, err := wire.MarketplaceService().Invite(ctx, primary.InviteRequest{
				RequestID:     args[0],
				ActorID:       actor,
				InvitedUserID: args[1],
				Note:          note,
			})
			if err != nil {
				return fmt.Errorf("failed to invite: %w", err)
			}

			fmt.Printf("✓ Invited %s to %s (%s)\n", args[1], args[0], resp.VolunteerID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&note, "note", "", "Invitation note")

	return cmd
}

func marketAcceptCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "accept [request-id] [volunteer-id]",
		Short: "Accept a volunteer and start the workflow",
		Long: `Accept one volunteer for your request. This matches the request,
creates the shared workflow, and opens the collaboration. A request can be
matched at most once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			resp, err := wire.MarketplaceService().Accept(ctx, primary.AcceptRequest{
				RequestID:   args[0],
				VolunteerID: args[1],
				ActorID:     actor,
			})
			if err != nil {
				return fmt.Errorf("failed to accept: %w", err)
			}

			fmt.Printf("✓ Matched %s; workflow %s created (%s)\n", args[0], resp.WorkflowID, resp.WorkflowType)
			fmt.Printf("  Follow along with: exchange watch %s\n", resp.WorkflowID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}
