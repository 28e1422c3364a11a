package cli

import (
	"github.com/spf13/cobra"

	"trackerdeploy/internal/logger"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trackerdeploy",
		Short: "Derive and render the service topology of tracker deployments",
		Long: `trackerdeploy turns an environment.toml describing a BitTorrent tracker deployment
into a docker compose project. It decides which services run (tracker, MySQL,
Prometheus, Grafana, Caddy, backup), which networks isolate them, which ports
they publish and the order they start in, and rejects combinations that cannot work.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("log-level") {
				level, _ := cmd.Flags().GetString("log-level")
				logger.SetLevel(level)
			}
			if cmd.Flags().Changed("json") {
				jsonLogs, _ := cmd.Flags().GetBool("json")
				logger.SetFormat(jsonLogs)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to showing help if no subcommand
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")

	return rootCmd
}
