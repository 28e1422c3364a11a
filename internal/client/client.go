// Package client talks to a running trackerdeploy API server
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trackerdeploy/internal/db"
	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/server"
)

// Client represents the HTTP client for the trackerdeploy server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client instance
func New(serverURL string) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: expected scheme and host, e.g. http://localhost:8080", serverURL)
	}

	return &Client{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Health queries GET /api/health. A degraded server answers 503 with a
// body, which is returned without an error.
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var health server.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", "", nil, &health, http.StatusOK, http.StatusServiceUnavailable)
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// DeriveTopology posts environment TOML and returns the derived topology
func (c *Client) DeriveTopology(ctx context.Context, environment []byte) (*server.TopologyResponse, error) {
	var topo server.TopologyResponse
	if err := c.do(ctx, http.MethodPost, "/api/topology", "application/toml", environment, &topo, http.StatusOK); err != nil {
		return nil, err
	}
	return &topo, nil
}

// ListEnvironments returns one page of registered environments
func (c *Client) ListEnvironments(ctx context.Context, opts db.PaginationOptions) (*server.EnvironmentsResponse, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.OrderBy != "" {
		q.Set("order_by", opts.OrderBy)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}

	path := "/api/environments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page server.EnvironmentsResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &page, http.StatusOK); err != nil {
		return nil, err
	}
	return &page, nil
}

// do sends one request and decodes the response into out. Statuses outside
// accept are decoded as the server's error body.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out interface{}, accept ...int) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	for _, status := range accept {
		if resp.StatusCode == status {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}
	}

	return decodeError(resp.StatusCode, data)
}

// decodeError rebuilds the DeployError the server reported
func decodeError(status int, data []byte) error {
	var body errors.HTTPErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return fmt.Errorf("server returned %d: %s", status, bytes.TrimSpace(data))
	}

	de := errors.NewWithDetails(body.Error.Code, body.Error.Message, body.Error.Details)
	for k, v := range body.Context {
		de.WithContext(k, v)
	}
	de.HTTPStatus = status
	return de
}
