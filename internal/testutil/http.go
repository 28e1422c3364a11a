package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// DoRequest runs a request against e and returns the recorded response
func DoRequest(t *testing.T, e *echo.Echo, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON decodes JSON from a reader
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// ErrorResponse mirrors the JSON body of an API error
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ParseErrorResponse parses an error response recorded from the server
func ParseErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var errResp ErrorResponse
	if err := DecodeJSON(rec.Body, &errResp); err != nil {
		t.Fatalf("response is not a JSON error (status %d): %v", rec.Code, err)
	}
	if rec.Code < http.StatusBadRequest {
		t.Fatalf("expected an error status, got %d", rec.Code)
	}
	return errResp
}
