package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"trackerdeploy/internal/cli"
	"trackerdeploy/internal/config"
	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/logger"
	"trackerdeploy/internal/operations"
)

// App represents the main application
type App struct {
	Global     *config.GlobalConfig
	ConfigPath string
	DB         *db.DB
	Operations *operations.EnvironmentOperations
	CLI        *cli.Manager

	out    io.Writer
	errOut io.Writer
}

// New creates a new application instance
func New() *App {
	return &App{out: os.Stdout, errOut: os.Stderr}
}

// SetOutput redirects command output, mainly for tests
func (a *App) SetOutput(out, errOut io.Writer) {
	a.out = out
	a.errOut = errOut
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext loads the global configuration, opens the environment
// registry and executes the command line
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	logger.SetLevel(a.Global.Log.Level)
	logger.SetFormat(a.Global.Log.Format == "json")

	database, err := db.Open(a.Global.DatabasePath())
	if err != nil {
		return err
	}
	a.DB = database
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}()

	a.Operations = operations.NewEnvironmentOperations(db.NewEnvironmentRepository(database), a.Global)

	a.CLI = cli.New(a.Global, a.ConfigPath)
	a.CLI.SetOutput(a.out, a.errOut)
	a.CLI.SetManagers(a.Operations, database)

	// Show help if no arguments provided
	if len(args) == 0 {
		return a.CLI.ExecuteWithContext(ctx, []string{"--help"})
	}

	return a.CLI.ExecuteWithContext(ctx, args)
}

// loadConfig reads config.toml from $TRACKERDEPLOY_CONFIG or the XDG config
// directory. A missing file yields the defaults.
func (a *App) loadConfig() error {
	configPath := os.Getenv(constants.ConfigPathEnvVar)
	if configPath == "" {
		var err error
		configPath, err = config.GlobalConfigPath()
		if err != nil {
			return fmt.Errorf("failed to locate configuration: %w", err)
		}
	}

	global, err := config.LoadGlobalConfigFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a.Global = global
	a.ConfigPath = configPath
	return nil
}
