package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"trackerdeploy/internal/cli/commands"
	"trackerdeploy/internal/config"
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/operations"
)

// Manager handles CLI operations
type Manager struct {
	global     *config.GlobalConfig
	configPath string
	ops        *operations.EnvironmentOperations
	database   *db.DB
	rootCmd    *cobra.Command
}

// New creates a new CLI manager. configPath is where the global
// configuration was loaded from.
func New(global *config.GlobalConfig, configPath string) *Manager {
	if global == nil {
		global = config.DefaultGlobalConfig()
	}
	return &Manager{
		global:     global,
		configPath: configPath,
		rootCmd:    createRootCommand(),
	}
}

// SetManagers wires the environment operations and the registry database
// and installs every command
func (m *Manager) SetManagers(ops *operations.EnvironmentOperations, database *db.DB) {
	m.ops = ops
	m.database = database
	m.setupCommands()
}

// SetOutput redirects command output and error output
func (m *Manager) SetOutput(out, errOut io.Writer) {
	m.rootCmd.SetOut(out)
	m.rootCmd.SetErr(errOut)
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	// Add environment registration commands
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create resources",
	}
	for _, cmd := range commands.CreateCommands(m.ops) {
		createCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(createCmd)

	// Add environment management commands (top-level)
	for _, cmd := range commands.EnvironmentCommands(m.ops) {
		m.rootCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(commands.ValidateCommand())

	// Add configuration commands
	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Configuration management commands",
		Aliases: []string{"cfg"},
	}
	for _, cmd := range commands.ConfigCommands(m.global, m.configPath) {
		configCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(configCmd)

	// Add server management commands
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Server management commands",
		Long:  `Run the trackerdeploy HTTP API server.`,
	}
	for _, cmd := range commands.ServerCommands(m.global, m.ops, m.database) {
		serverCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(serverCmd)
}
