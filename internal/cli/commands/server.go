package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackerdeploy/internal/client"
	"trackerdeploy/internal/config"
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/operations"
	"trackerdeploy/internal/server"
)

// ServerCommands creates server management commands
func ServerCommands(global *config.GlobalConfig, ops *operations.EnvironmentOperations, database *db.DB) []*cobra.Command {
	commands := []*cobra.Command{}

	defaultPort := global.Server.Port
	defaultHost := global.Server.Host

	// trackerdeploy server start
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the trackerdeploy API server",
		Long: `Start the HTTP API server in the foreground. It serves the environment registry,
stateless topology derivation, Prometheus metrics and the Swagger UI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.ConfigFromGlobal(global)
			cfg.Port, _ = cmd.Flags().GetInt("port")
			cfg.Host, _ = cmd.Flags().GetString("host")

			return server.New(cfg, ops, database).Start(cmd.Context())
		},
	}
	startCmd.Flags().IntP("port", "p", defaultPort, "Port to run the server on")
	startCmd.Flags().String("host", defaultHost, "Interface to bind")
	commands = append(commands, startCmd)

	// trackerdeploy server status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check server status",
		Long:  `Query the health endpoint of a running trackerdeploy server.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("url")

			c, err := client.New(serverURL)
			if err != nil {
				return err
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server at %s is not reachable: %w", serverURL, err)
			}

			w := newTabWriter(cmd.OutOrStdout())
			fmt.Fprintf(w, "Server:\t%s\n", serverURL)
			fmt.Fprintf(w, "Status:\t%s\n", health.Status)
			fmt.Fprintf(w, "Version:\t%s\n", health.Version)
			fmt.Fprintf(w, "Uptime:\t%s\n", health.Uptime)
			fmt.Fprintf(w, "Database:\t%s\n", health.Database)
			if err := w.Flush(); err != nil {
				return err
			}
			if health.Status != "healthy" {
				return fmt.Errorf("server reports %s", health.Status)
			}
			return nil
		},
	}
	statusCmd.Flags().String("url", fmt.Sprintf("http://%s:%d", defaultHost, defaultPort), "Server URL")
	commands = append(commands, statusCmd)

	return commands
}
