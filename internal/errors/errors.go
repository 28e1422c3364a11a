// Package errors provides typed error definitions for trackerdeploy.
// Errors carry a stable code so the CLI can pick an exit status and the API
// can pick an HTTP status without inspecting messages.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Topology errors
	ErrTopologyInvalid ErrorCode = "TOPOLOGY_INVALID"
	ErrTopologyDefect  ErrorCode = "TOPOLOGY_DEFECT"

	// Environment errors
	ErrEnvironmentNotFound ErrorCode = "ENVIRONMENT_NOT_FOUND"
	ErrEnvironmentExists   ErrorCode = "ENVIRONMENT_EXISTS"

	// Compose errors
	ErrComposeRender   ErrorCode = "COMPOSE_RENDER"
	ErrComposeMismatch ErrorCode = "COMPOSE_MISMATCH"

	// Database errors
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrDatabaseQuery      ErrorCode = "DATABASE_QUERY"
	ErrDatabaseMigration  ErrorCode = "DATABASE_MIGRATION"

	// Validation errors
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidPath      ErrorCode = "INVALID_PATH"
	ErrInvalidState     ErrorCode = "INVALID_STATE"
	ErrNotFound         ErrorCode = "NOT_FOUND"

	// Internal errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
	ErrTimeout  ErrorCode = "TIMEOUT"

	// File/IO errors
	ErrFileWrite ErrorCode = "FILE_WRITE"
	ErrFileRead  ErrorCode = "FILE_READ"
)

// Process exit statuses used by the CLI
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitSoftware    = 70
)

// DeployError represents a structured error with additional context
type DeployError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *DeployError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *DeployError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DeployError) WithContext(key string, value interface{}) *DeployError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause error
func (e *DeployError) WithCause(cause error) *DeployError {
	e.Cause = cause
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *DeployError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	switch e.Code {
	case ErrConfigNotFound, ErrEnvironmentNotFound, ErrNotFound:
		return http.StatusNotFound
	case ErrConfigInvalid, ErrConfigParse, ErrConfigValidation, ErrTopologyInvalid,
		ErrValidationFailed, ErrInvalidInput, ErrInvalidPath, ErrComposeMismatch:
		return http.StatusBadRequest
	case ErrEnvironmentExists, ErrInvalidState:
		return http.StatusConflict
	case ErrTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode returns the process exit status for this error
func (e *DeployError) ExitCode() int {
	switch e.Code {
	case ErrConfigNotFound, ErrConfigInvalid, ErrConfigParse, ErrConfigValidation,
		ErrTopologyInvalid, ErrComposeMismatch:
		return ExitConfigError
	case ErrTopologyDefect:
		return ExitSoftware
	default:
		return ExitFailure
	}
}

// New creates a new DeployError
func New(code ErrorCode, message string) *DeployError {
	return &DeployError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new DeployError with details
func NewWithDetails(code ErrorCode, message, details string) *DeployError {
	return &DeployError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new DeployError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *DeployError {
	return &DeployError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new DeployError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *DeployError {
	return &DeployError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// AsDeployError finds the first DeployError in err's chain
func AsDeployError(err error) (*DeployError, bool) {
	var de *DeployError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsDeployError checks if an error is a DeployError
func IsDeployError(err error) bool {
	_, ok := AsDeployError(err)
	return ok
}

// GetCode extracts the error code from an error, if it's a DeployError
func GetCode(err error) ErrorCode {
	if de, ok := AsDeployError(err); ok {
		return de.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ExitCodeOf maps any error to a process exit status
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	if de, ok := AsDeployError(err); ok {
		return de.ExitCode()
	}
	return ExitFailure
}
