package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"trackerdeploy/internal/topology"
)

// Configuration Errors
func ConfigNotFound(path string) *DeployError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigInvalid(reason string) *DeployError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(cause error) *DeployError {
	return Wrap(ErrConfigParse, "Failed to parse configuration", cause)
}

func ConfigValidationError(field, reason string) *DeployError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// Environment Errors
func EnvironmentNotFound(name string) *DeployError {
	return NewWithDetails(ErrEnvironmentNotFound, "Environment not found", fmt.Sprintf("Environment: %s", name))
}

func EnvironmentExists(name string) *DeployError {
	return NewWithDetails(ErrEnvironmentExists, "Environment already exists", fmt.Sprintf("Environment: %s", name))
}

// Compose Errors
func ComposeRenderFailed(cause error) *DeployError {
	return Wrap(ErrComposeRender, "Failed to render compose file", cause)
}

func ComposeMismatch(problems []string) *DeployError {
	return NewWithDetails(ErrComposeMismatch, "Compose file does not match the derived topology",
		strings.Join(problems, "; "))
}

// Database Errors
func DatabaseConnectionError(cause error) *DeployError {
	return Wrap(ErrDatabaseConnection, "Database connection failed", cause)
}

func DatabaseQueryError(query string, cause error) *DeployError {
	return WrapWithDetails(ErrDatabaseQuery, "Database query failed",
		fmt.Sprintf("Query: %s", query), cause)
}

func DatabaseMigrationError(version string, cause error) *DeployError {
	return WrapWithDetails(ErrDatabaseMigration, "Database migration failed",
		fmt.Sprintf("Version: %s", version), cause)
}

// Validation Errors
func InvalidInput(input, expected string) *DeployError {
	return NewWithDetails(ErrInvalidInput, "Invalid input",
		fmt.Sprintf("Input: %s, Expected: %s", input, expected))
}

func InvalidPath(path, reason string) *DeployError {
	return NewWithDetails(ErrInvalidPath, "Invalid path",
		fmt.Sprintf("Path: %s, Reason: %s", path, reason))
}

// Internal Errors
func InternalError(details string, cause error) *DeployError {
	if cause != nil {
		return WrapWithDetails(ErrInternal, "Internal error", details, cause)
	}
	return NewWithDetails(ErrInternal, "Internal error", details)
}

// FromTopologyError translates an error returned by topology.Build.
// Rule violations become TOPOLOGY_INVALID with the remedy attached;
// post-condition failures become TOPOLOGY_DEFECT with the offending names
// in the context so they can be pasted into a bug report.
func FromTopologyError(err error) *DeployError {
	if err == nil {
		return nil
	}

	var cfgErr *topology.ConfigurationError
	if stderrors.As(err, &cfgErr) {
		names := make([]string, len(cfgErr.Services))
		for i, s := range cfgErr.Services {
			names[i] = s.Name()
		}
		return WrapWithDetails(ErrTopologyInvalid, "Deployment configuration is invalid", cfgErr.Detail, err).
			WithContext("rule", cfgErr.Rule).
			WithContext("services", names).
			WithContext("remedy", cfgErr.Remedy)
	}

	var intErr *topology.InternalError
	if stderrors.As(err, &intErr) {
		de := WrapWithDetails(ErrTopologyDefect, "Topology derivation produced an inconsistent result",
			intErr.Detail, err).
			WithContext("service", intErr.Service.Name()).
			WithContext("hint", "this is a bug in trackerdeploy, please report it with this output")
		if intErr.Target != nil {
			de.WithContext("target", intErr.Target.Name())
		}
		if intErr.Network != nil {
			de.WithContext("network", intErr.Network.Name())
		}
		return de
	}

	if de, ok := AsDeployError(err); ok {
		return de
	}
	return InternalError("topology build failed", err)
}
