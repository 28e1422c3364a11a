package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"trackerdeploy/internal/db"
	"trackerdeploy/internal/topology"
)

// newTabWriter returns the column writer used by every table
func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// printJSON writes v as indented JSON
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputFormat reads the --output-format flag of cmd
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output-format")
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q, use table or json", format)
	}
}

func addOutputFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output-format", "o", "table", "Output format (table, json)")
}

// printEnvironments writes one row per environment
func printEnvironments(out io.Writer, envs []*db.Environment) error {
	if len(envs) == 0 {
		fmt.Fprintln(out, "No environments registered. Use 'trackerdeploy create environment --config <file>' to add one.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "NAME\tSTATE\tSERVICES\tUPDATED")
	for _, env := range envs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			env.Name,
			env.State,
			strings.Join(env.Services, ","),
			env.UpdatedAt.Local().Format(time.DateTime),
		)
	}
	return w.Flush()
}

// printTopology writes one row per service followed by the network list
func printTopology(out io.Writer, t *topology.Topology) error {
	w := newTabWriter(out)
	fmt.Fprintln(w, "SERVICE\tNETWORKS\tPORTS\tDEPENDS ON")
	for _, st := range t.ServiceTopologies() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			st.Service,
			orDash(formatNetworks(st.Networks.Sorted())),
			orDash(formatPorts(st.Ports)),
			orDash(formatDependencies(st.Dependencies)),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nNetworks: %s\n", orDash(formatNetworks(t.Networks())))
	return nil
}

func formatNetworks(networks []topology.Network) string {
	names := make([]string, len(networks))
	for i, n := range networks {
		names[i] = n.Name()
	}
	return strings.Join(names, ",")
}

func formatPorts(ports []topology.PortBinding) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func formatDependencies(deps []topology.ServiceDependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
