package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"trackerdeploy/internal/logger"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts a DeployError to an Echo HTTP error
func ToHTTPError(err error) error {
	if ve, ok := AsDeployError(err); ok {
		return echo.NewHTTPError(ve.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    ve.Code,
				Message: ve.Message,
				Details: ve.Details,
			},
			Context: ve.Context,
		})
	}

	// Anything else is reported as an internal error
	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}

// HandleError logs err on the request logger and converts it for echo
func HandleError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	entry := logger.GetLogger(c).WithError(err)
	if ve, ok := AsDeployError(err); ok && ve.GetHTTPStatus() < http.StatusInternalServerError {
		entry.Warn("Request rejected")
	} else {
		entry.Error("Request failed")
	}

	return ToHTTPError(err)
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message, details string) error {
	return echo.NewHTTPError(http.StatusBadRequest, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInvalidInput,
			Message: message,
			Details: details,
		},
	})
}
