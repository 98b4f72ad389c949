package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/ports/primary"
	"github.com/example/exchange/internal/wire"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	var interval int

	cmd := &cobra.Command{
		Use:   "watch [workflow-id]",
		Short: "Follow a workflow's timeline live",
		Long: `Poll the workflow's audit timeline and print new events as they
land. Stops on Ctrl-C, or automatically once the workflow reaches a
terminal status with no run in flight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflowID := args[0]
			if interval <= 0 {
				interval = wire.Config().PollIntervalSeconds
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var afterSeq int64
			lastStatus := ""
			ticker := time.NewTicker(time.Duration(interval) * time.Second)
			defer ticker.Stop()

			for {
				resp, err := wire.WorkflowService().Timeline(ctx, primary.TimelineRequest{
					WorkflowID: workflowID,
					AfterSeq:   afterSeq,
				})
				if err != nil {
					return fmt.Errorf("failed to poll timeline: %w", err)
				}

				for _, e := range resp.Events {
					printEvent(e)
					afterSeq = e.Seq
				}
				if resp.Status != lastStatus {
					fmt.Printf("-- status: %s\n", statusColor(resp.Status).Sprint(resp.Status))
					lastStatus = resp.Status
				}
				if resp.Status == "completed" || resp.Status == "failed" {
					return nil
				}

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 0, "Poll interval in seconds (defaults to config)")

	return cmd
}
