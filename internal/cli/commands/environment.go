package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackerdeploy/internal/operations"
)

// CreateCommands creates the subcommands of 'trackerdeploy create'
func CreateCommands(envs EnvironmentManager) []*cobra.Command {
	commands := []*cobra.Command{}

	// trackerdeploy create environment
	envCmd := &cobra.Command{
		Use:     "environment",
		Aliases: []string{"env"},
		Short:   "Register a deployment environment",
		Long: `Validate an environment.toml file, derive its service topology and register it.
The file is copied into the data directory, later edits to the original have no effect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			configPath, _ := cmd.Flags().GetString("config")

			env, err := envs.CreateEnvironment(cmd.Context(), operations.CreateEnvironmentRequest{
				Name:       name,
				ConfigPath: configPath,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Environment %s created with services: %v\n", env.Name, env.Services)
			fmt.Fprintf(cmd.OutOrStdout(), "Run 'trackerdeploy render %s' to write the compose project.\n", env.Name)
			return nil
		},
	}
	envCmd.Flags().StringP("name", "n", "", "Environment name (defaults to [environment].name in the file)")
	envCmd.Flags().StringP("config", "c", "", "Path to environment.toml")
	_ = envCmd.MarkFlagRequired("config")
	commands = append(commands, envCmd)

	return commands
}

// EnvironmentCommands creates the top-level environment commands
func EnvironmentCommands(envs EnvironmentManager) []*cobra.Command {
	commands := []*cobra.Command{}

	// trackerdeploy list
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered environments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			list, err := envs.ListEnvironments(cmd.Context())
			if err != nil {
				return err
			}

			if format == "json" {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printEnvironments(cmd.OutOrStdout(), list)
		},
	}
	addOutputFormatFlag(listCmd)
	commands = append(commands, listCmd)

	// trackerdeploy show <name>
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an environment and its service topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			details, err := envs.ShowEnvironment(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return printJSON(out, details)
			}

			env := details.Environment
			fmt.Fprintf(out, "Name:    %s\n", env.Name)
			fmt.Fprintf(out, "State:   %s\n", env.State)
			fmt.Fprintf(out, "Config:  %s\n", env.ConfigPath)
			if env.ComposePath != "" {
				fmt.Fprintf(out, "Compose: %s\n", env.ComposePath)
			}
			if env.LastError != "" {
				fmt.Fprintf(out, "Error:   %s\n", env.LastError)
			}
			fmt.Fprintln(out)
			return printTopology(out, details.Topology)
		},
	}
	addOutputFormatFlag(showCmd)
	commands = append(commands, showCmd)

	// trackerdeploy render <name>
	renderCmd := &cobra.Command{
		Use:   "render <name>",
		Short: "Write the compose project of an environment",
		Long: `Render docker-compose.yml and .env for a registered environment.
By default the files are written next to the stored environment.toml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")

			result, err := envs.RenderEnvironment(cmd.Context(), args[0], outputDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d services to %s\n", len(result.Services), result.ComposePath)
			return nil
		},
	}
	renderCmd.Flags().String("output", "", "Directory to write the compose project to")
	commands = append(commands, renderCmd)

	// trackerdeploy delete <name>
	deleteCmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Remove an environment and its stored files",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := envs.DeleteEnvironment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Environment %s deleted\n", args[0])
			return nil
		},
	}
	commands = append(commands, deleteCmd)

	return commands
}

// ValidateCommand creates 'trackerdeploy validate'. It needs no registry.
func ValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an environment file and optionally a rendered compose file",
		Long: `Validate an environment.toml file by deriving its service topology.
With --compose the compose file is also checked against the derived topology.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			composePath, _ := cmd.Flags().GetString("compose")

			t, err := operations.ValidateEnvironment(configPath, composePath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", configPath)
			if composePath != "" {
				fmt.Fprintf(out, "%s matches the derived topology\n", composePath)
			}
			fmt.Fprintln(out)
			return printTopology(out, t)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to environment.toml")
	cmd.Flags().String("compose", "", "Path to a rendered docker-compose.yml")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
