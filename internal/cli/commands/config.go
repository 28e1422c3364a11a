package commands

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"trackerdeploy/internal/config"
)

// environmentTemplate is printed by 'config template'. Optional sections are
// commented out; uncommenting one enables the matching service.
const environmentTemplate = `[environment]
name = "staging"
description = "Public tracker"

[tracker]
private = false
database_driver = "sqlite3"   # or "mysql" together with [database]

[[tracker.udp_trackers]]
bind_port = 6969

[[tracker.http_trackers]]
bind_port = 7070
# tls_domain = "tracker.example.com"

[tracker.http_api]
bind_port = 1212
admin_token = "change-me"

# [database]
# name = "torrust_tracker"
# user = "tracker_user"
# password = "change-me"
# root_password = "change-me"

# [metrics]
# scrape_interval_seconds = 15

# [dashboard]   # requires [metrics]
# admin_user = "admin"
# admin_password = "change-me"

# [tls]         # required when any tls_domain is set, and only then
# admin_email = "admin@example.com"

# [backup]
# schedule = "0 3 * * *"
# retention_days = 7
`

// ConfigCommands creates configuration management commands. configPath is
// the location of the global config.toml.
func ConfigCommands(global *config.GlobalConfig, configPath string) []*cobra.Command {
	commands := []*cobra.Command{}

	// trackerdeploy config init
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default global configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite it", configPath)
			}
			if err := config.DefaultGlobalConfig().Save(configPath); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
			return nil
		},
	}
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	commands = append(commands, initCmd)

	// trackerdeploy config show
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective global configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(global)
			if err != nil {
				return fmt.Errorf("failed to encode configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", configPath, data)
			return nil
		},
	}
	commands = append(commands, showCmd)

	// trackerdeploy config template
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Print an annotated environment.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), environmentTemplate)
			return err
		},
	}
	commands = append(commands, templateCmd)

	return commands
}
