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

// WorkflowCmd returns the workflow command
func WorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflows",
		Long: `Create workflows, drive them through research and review, and
steer the completion consensus for collaborative ones.`,
	}

	cmd.AddCommand(workflowCreateCmd())
	cmd.AddCommand(workflowListCmd())
	cmd.AddCommand(workflowShowCmd())
	cmd.AddCommand(workflowMessageCmd())
	cmd.AddCommand(workflowMessagesCmd())
	cmd.AddCommand(workflowStartResearchCmd())
	cmd.AddCommand(workflowReviewCmd())
	cmd.AddCommand(workflowCancelRunCmd())
	cmd.AddCommand(workflowRetryRunCmd())
	cmd.AddCommand(workflowRetryPPTCmd())
	cmd.AddCommand(workflowReadyCmd())
	cmd.AddCommand(workflowReopenCmd())
	cmd.AddCommand(workflowTimelineCmd())

	return cmd
}

func workflowCreateCmd() *cobra.Command {
	var (
		asUser string
		wfType string
		topic  string
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a direct workflow",
		Long: `Create a workflow without the marketplace handshake. The step
pipeline for the workflow type is instantiated immediately.

Examples:
  exchange workflow create "EV market deck" --topic "EV market 2026"
  exchange workflow create "Logo review" --type design_alignment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			resp, err := wire.WorkflowService().CreateWorkflow(ctx, primary.CreateWorkflowRequest{
				OwnerID:      actor,
				Title:        args[0],
				WorkflowType: wfType,
				Topic:        topic,
			})
			if err != nil {
				return fmt.Errorf("failed to create workflow: %w", err)
			}

			fmt.Printf("✓ Created workflow %s: %s [%s]\n", resp.WorkflowID, resp.Workflow.Title, resp.Workflow.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&wfType, "type", "ppt_generation", "Workflow type")
	cmd.Flags().StringVar(&topic, "topic", "", "Research topic (defaults to the title)")

	return cmd
}

func workflowListCmd() *cobra.Command {
	var (
		owner  string
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			workflows, err := wire.WorkflowService().ListWorkflows(ctx, primary.WorkflowFilters{
				OwnerID: owner,
				Status:  status,
				Limit:   limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list workflows: %w", err)
			}

			if len(workflows) == 0 {
				fmt.Println("No workflows found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tOWNER")
			fmt.Fprintln(w, "--\t-----\t----\t------\t-----")
			for _, wf := range workflows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wf.ID, wf.Title, wf.WorkflowType, wf.Status, wf.OwnerID)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner id")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows")

	return cmd
}

func workflowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [workflow-id]",
		Short: "Show a workflow with its steps and votes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			detail, err := wire.WorkflowService().GetWorkflow(ctx, args[0])
			if err != nil {
				return fmt.Errorf("workflow not found: %w", err)
			}

			wf := detail.Workflow
			fmt.Printf("Workflow: %s [%s]\n", wf.ID, statusColor(wf.Status).Sprint(wf.Status))
			fmt.Printf("Title: %s\n", wf.Title)
			fmt.Printf("Type: %s\n", wf.WorkflowType)
			fmt.Printf("Owner: %s\n", wf.OwnerID)
			if wf.ParentID != "" {
				fmt.Printf("Parent: %s\n", wf.ParentID)
			}
			if wf.RequestID != "" {
				fmt.Printf("Request: %s\n", wf.RequestID)
			}

			fmt.Println("\nSteps:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "  #\tTYPE\tSTATUS\tASSIGNED\tITER")
			for _, s := range detail.Steps {
				fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%d\n",
					s.StepOrder, s.StepType, s.Status, s.AssignedTo, s.IterationCount)
			}
			w.Flush()

			if len(detail.Approvals) > 0 {
				fmt.Println("\nCompletion votes:")
				for _, a := range detail.Approvals {
					fmt.Printf("  %s: %s\n", a.UserID, a.Status)
				}
			}

			if len(detail.Participants) > 0 {
				fmt.Println("\nParticipants:")
				for _, p := range detail.Participants {
					kind := "human"
					if p.IsAgent {
						kind = "agent"
					}
					fmt.Printf("  %s: %s (%s)\n", p.ID, p.Name, kind)
				}
			}
			return nil
		},
	}
}

func workflowMessageCmd() *cobra.Command {
	var (
		asUser  string
		channel string
	)

	cmd := &cobra.Command{
		Use:   "message [workflow-id] [body]",
		Short: "Post a chat message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			msg, err := wire.WorkflowService().PostMessage(ctx, primary.PostMessageRequest{
				WorkflowID: args[0],
				SenderID:   actor,
				Channel:    channel,
				Body:       args[1],
			})
			if err != nil {
				return fmt.Errorf("failed to post message: %w", err)
			}

			fmt.Printf("✓ Posted %s\n", msg.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&channel, "channel", "", "Delivery channel tag (web, slack, system)")

	return cmd
}

func workflowMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages [workflow-id]",
		Short: "Show the chat history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			messages, err := wire.WorkflowService().ListMessages(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Println("No messages yet.")
				return nil
			}
			for _, m := range messages {
				fmt.Printf("[%s] %s (%s): %s\n", m.CreatedAt, m.SenderID, m.SenderType, m.Body)
			}
			return nil
		},
	}
}

func workflowStartResearchCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "start-research [workflow-id]",
		Short: "Start the automated research run",
		Long: `Escalate a pending or collaborating workflow into structured
research. The bound agent collaborator runs in the background; follow
progress with 'exchange watch'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().StartResearch(ctx, primary.StartResearchRequest{
				WorkflowID: args[0],
				ActorID:    actor,
			}); err != nil {
				return fmt.Errorf("failed to start research: %w", err)
			}

			fmt.Printf("✓ Research started for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}

func workflowReviewCmd() *cobra.Command {
	var (
		asUser   string
		feedback string
	)

	cmd := &cobra.Command{
		Use:   "review [workflow-id] [approve|refine]",
		Short: "Submit a review decision",
		Long: `Approve the research to move on to slide generation, or request
a refinement round with feedback.

Examples:
  exchange workflow review WF-001 approve
  exchange workflow review WF-001 refine --feedback "add market sizing"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			action := primary.ReviewAction(args[1])
			if action != primary.ReviewApprove && action != primary.ReviewRefine {
				return fmt.Errorf("unknown review action %q (approve or refine)", args[1])
			}

			if err := wire.WorkflowService().SubmitReview(ctx, primary.ReviewRequest{
				WorkflowID: args[0],
				ActorID:    actor,
				Action:     action,
				Feedback:   feedback,
			}); err != nil {
				return fmt.Errorf("failed to submit review: %w", err)
			}

			fmt.Printf("✓ Review submitted: %s\n", action)
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Refinement feedback (required for refine)")

	return cmd
}

func workflowCancelRunCmd() *cobra.Command {
	var (
		asUser string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "cancel-run [workflow-id]",
		Short: "Cancel the active collaborator run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().CancelRun(ctx, primary.RunActionRequest{
				WorkflowID: args[0],
				ActorID:    actor,
				Reason:     reason,
			}); err != nil {
				return fmt.Errorf("failed to cancel run: %w", err)
			}

			fmt.Printf("✓ Run cancelled for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the run is being cancelled")

	return cmd
}

func workflowRetryRunCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "retry-run [workflow-id]",
		Short: "Retry a failed run from its resume point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().RetryRun(ctx, primary.RunActionRequest{
				WorkflowID: args[0],
				ActorID:    actor,
			}); err != nil {
				return fmt.Errorf("failed to retry run: %w", err)
			}

			fmt.Printf("✓ Retry dispatched for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}

func workflowRetryPPTCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "retry-ppt [workflow-id]",
		Short: "Retry a failed slide generation without redoing research",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().RetryGeneration(ctx, primary.RunActionRequest{
				WorkflowID: args[0],
				ActorID:    actor,
			}); err != nil {
				return fmt.Errorf("failed to retry generation: %w", err)
			}

			fmt.Printf("✓ Generation retry dispatched for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}

func workflowReadyCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "ready [workflow-id]",
		Short: "Mark yourself ready to complete the collaboration",
		Long: `Record your completion-consensus vote. When every human
participant is ready the workflow completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().MarkReady(ctx, primary.CompletionRequest{
				WorkflowID: args[0],
				ActorID:    actor,
			}); err != nil {
				return fmt.Errorf("failed to mark ready: %w", err)
			}

			fmt.Printf("✓ Marked ready on %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}

func workflowReopenCmd() *cobra.Command {
	var asUser string

	cmd := &cobra.Command{
		Use:   "reopen [workflow-id]",
		Short: "Withdraw your ready vote, reopening a completed collaboration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := resolveActor(asUser)
			if err != nil {
				return err
			}

			if err := wire.WorkflowService().Reopen(ctx, primary.CompletionRequest{
				WorkflowID: args[0],
				ActorID:    actor,
			}); err != nil {
				return fmt.Errorf("failed to reopen: %w", err)
			}

			fmt.Printf("✓ Vote withdrawn on %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&asUser, "as", "", "Acting user (defaults to configured actor)")

	return cmd
}

func workflowTimelineCmd() *cobra.Command {
	var afterSeq int64

	cmd := &cobra.Command{
		Use:   "timeline [workflow-id]",
		Short: "Show the audit timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			resp, err := wire.WorkflowService().Timeline(ctx, primary.TimelineRequest{
				WorkflowID: args[0],
				AfterSeq:   afterSeq,
			})
			if err != nil {
				return fmt.Errorf("failed to load timeline: %w", err)
			}

			for _, e := range resp.Events {
				printEvent(e)
			}
			fmt.Printf("\nStatus: %s\n", statusColor(resp.Status).Sprint(resp.Status))
			return nil
		},
	}

	cmd.Flags().Int64Var(&afterSeq, "after", 0, "Only events after this sequence number")

	return cmd
}

func printEvent(e *primary.Event) {
	actor := e.ActorID
	if actor == "" {
		actor = e.ActorType
	}
	fmt.Printf("[%s] #%d %s (%s): %s\n", e.CreatedAt, e.Seq, e.EventType, actor, e.Message)
}
