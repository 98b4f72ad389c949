package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/exchange/internal/config"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var (
		actor        string
		databasePath string
		gatewayURL   string
		gatewayToken string
		pollInterval int
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the exchange configuration",
		Long: `Write ~/.exchange/config.json with the default actor and the agent
gateway connection. Without a gateway URL the built-in mock collaborator is
used, which is enough to exercise the full pipeline locally.

Examples:
  exchange init --actor USR-001
  exchange init --actor USR-001 --gateway-url http://localhost:8080 --gateway-token secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadOrDefault("")
			cfg.Version = "1"
			if actor != "" {
				cfg.DefaultActor = actor
			}
			if databasePath != "" {
				cfg.DatabasePath = databasePath
			}
			if gatewayURL != "" {
				cfg.Gateway.URL = gatewayURL
			}
			if gatewayToken != "" {
				cfg.Gateway.Token = gatewayToken
			}
			if pollInterval > 0 {
				cfg.PollIntervalSeconds = pollInterval
			}

			if err := config.Save("", cfg); err != nil {
				return err
			}

			dir, _ := config.Dir()
			fmt.Printf("✓ Configuration written to %s\n", dir)
			if cfg.Gateway.URL == "" {
				fmt.Println("  No gateway configured; runs will use the mock collaborator.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Default acting user (USR-XXX)")
	cmd.Flags().StringVar(&databasePath, "db", "", "Database file path")
	cmd.Flags().StringVar(&gatewayURL, "gateway-url", "", "Agent gateway base URL")
	cmd.Flags().StringVar(&gatewayToken, "gateway-token", "", "Agent gateway bearer token")
	cmd.Flags().IntVar(&pollInterval, "poll-interval", 0, "Watch refresh interval in seconds")

	return cmd
}
