package server

import (
	"context"
	"net/http"

	"trackerdeploy/internal/errors"

	"github.com/labstack/echo/v4"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ContextKeyRequestID is the key for request ID in context
const ContextKeyRequestID contextKey = "request_id"

// contextEnricher copies the request id set by the request logger into the
// request context so operations can log it
func contextEnricher() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID != "" {
				ctx := context.WithValue(c.Request().Context(), ContextKeyRequestID, reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// ErrorHandler writes every error as an HTTPErrorResponse body. The request
// logger has already recorded it.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := errors.HTTPErrorResponse{
		Error: errors.ErrorInfo{Code: errors.ErrInternal, Message: "Internal server error"},
	}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch msg := he.Message.(type) {
		case errors.HTTPErrorResponse:
			body = msg
		case string:
			body.Error.Code = codeForStatus(code)
			body.Error.Message = msg
		default:
			body.Error.Code = codeForStatus(code)
			body.Error.Message = http.StatusText(code)
		}
	} else if de, ok := errors.AsDeployError(err); ok {
		code = de.GetHTTPStatus()
		body = errors.HTTPErrorResponse{
			Error:   errors.ErrorInfo{Code: de.Code, Message: de.Message, Details: de.Details},
			Context: de.Context,
		}
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(code)
		return
	}
	c.JSON(code, body)
}

func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusRequestEntityTooLarge, http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusMethodNotAllowed:
		return errors.ErrInvalidInput
	default:
		if status < http.StatusInternalServerError {
			return errors.ErrValidationFailed
		}
		return errors.ErrInternal
	}
}
