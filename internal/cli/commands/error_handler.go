package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"trackerdeploy/internal/errors"
)

// tips maps error codes to the next step a user can take
var tips = map[errors.ErrorCode]string{
	errors.ErrEnvironmentNotFound: "Use 'trackerdeploy list' to see registered environments.",
	errors.ErrEnvironmentExists:   "Pick another --name or remove the old one with 'trackerdeploy delete <name>'.",
	errors.ErrConfigNotFound:      "Check that the --config path exists and is readable.",
	errors.ErrComposeMismatch:     "Re-render the project with 'trackerdeploy render <name>'.",
	errors.ErrDatabaseConnection:  "Check the storage.data_dir setting in config.toml.",
}

// WriteError prints err for a terminal user: the message, the context a
// DeployError carries and a tip when one applies
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}

	de, ok := errors.AsDeployError(err)
	if !ok {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Error: %s\n", de.Message)
	switch {
	case de.Details != "":
		fmt.Fprintf(w, "  %s\n", de.Details)
	case de.Cause != nil:
		fmt.Fprintf(w, "  %v\n", de.Cause)
	}

	keys := make([]string, 0, len(de.Context))
	for k := range de.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, formatContextValue(de.Context[k]))
	}

	if tip, ok := tips[de.Code]; ok {
		fmt.Fprintf(w, "\nTip: %s\n", tip)
	}
}

func formatContextValue(v interface{}) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}
