package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/cli"
	"github.com/example/exchange/internal/version"
	"github.com/example/exchange/internal/wire"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "exchange",
		Short:   "Exchange - collaborative research-to-presentation workflows",
		Version: version.String(),
		Long: `Exchange coordinates humans and agents through a shared workflow:
post a request to the marketplace, match with a collaborator, run agent
research, review and refine the findings, and generate the presentation.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.Verbose = verbose
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.MarketCmd())
	rootCmd.AddCommand(cli.WorkflowCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.WatchCmd())

	err := rootCmd.Execute()

	// Let any dispatched collaborator run finish its writes before exit.
	wire.Drain()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
