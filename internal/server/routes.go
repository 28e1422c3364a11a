package server

import (
	"io"
	"net/http"
	"time"

	"trackerdeploy/internal/db"
	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/metrics"
	"trackerdeploy/internal/operations"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// version is reported by the health endpoint
const version = "1.0.0"

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Prometheus scrape endpoint
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)

	// Stateless derivation
	api.POST("/topology", s.handleDeriveTopology)

	// Registered environments
	envs := api.Group("/environments")
	envs.GET("", s.handleListEnvironments)
	envs.POST("", s.handleCreateEnvironment)
	envs.GET("/:name", s.handleGetEnvironment)
	envs.DELETE("/:name", s.handleDeleteEnvironment)
	envs.GET("/:name/topology", s.handleGetEnvironmentTopology)
	envs.POST("/:name/render", s.handleRenderEnvironment)
}

// handleHealth godoc
// @Summary Health check
// @Description Check if the API and the environment registry are healthy
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:   "healthy",
		Version:  version,
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Database: "healthy",
	}

	status := http.StatusOK
	if s.db == nil {
		resp.Database = "unavailable"
	} else if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		resp.Database = "unhealthy"
	}
	if resp.Database != "healthy" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, resp)
}

// handleDeriveTopology godoc
// @Summary Derive a topology
// @Description Validate an environment file and return its derived service topology. Nothing is stored.
// @Tags topology
// @Accept plain
// @Produce json
// @Param environment body string true "environment.toml content"
// @Success 200 {object} TopologyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /topology [post]
func (s *Server) handleDeriveTopology(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errors.HandleError(c, errors.Wrap(errors.ErrInvalidInput, "Failed to read request body", err))
	}
	if len(data) == 0 {
		return errors.BadRequest("Request body is empty", "send the content of an environment.toml file")
	}

	t, err := operations.DeriveTopology(data)
	if err != nil {
		return errors.HandleError(c, err)
	}

	return c.JSON(http.StatusOK, t)
}

// handleListEnvironments godoc
// @Summary List environments
// @Description Get a page of registered environments
// @Tags environments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param order_by query string false "name, created_at or updated_at" default(name)
// @Param order query string false "asc or desc" default(asc)
// @Success 200 {object} EnvironmentsResponse
// @Failure 400 {object} ErrorResponse
// @Router /environments [get]
func (s *Server) handleListEnvironments(c echo.Context) error {
	opts := db.DefaultPaginationOptions()
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &opts); err != nil {
		return errors.BadRequest("Invalid query parameters", err.Error())
	}

	page, err := s.ops.ListEnvironmentPage(c.Request().Context(), opts)
	if err != nil {
		return errors.HandleError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// handleCreateEnvironment godoc
// @Summary Register an environment
// @Description Validate an environment file on the server host and register it
// @Tags environments
// @Accept json
// @Produce json
// @Param environment body CreateEnvironmentRequest true "Environment to register"
// @Success 201 {object} db.Environment
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /environments [post]
func (s *Server) handleCreateEnvironment(c echo.Context) error {
	var req CreateEnvironmentRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return errors.BadRequest("Validation failed", err.Error())
	}

	env, err := s.ops.CreateEnvironment(c.Request().Context(), operations.CreateEnvironmentRequest{
		Name:       req.Name,
		ConfigPath: req.ConfigPath,
	})
	if err != nil {
		return errors.HandleError(c, err)
	}

	return c.JSON(http.StatusCreated, env)
}

// handleGetEnvironment godoc
// @Summary Get an environment
// @Description Get a registered environment with its derived topology
// @Tags environments
// @Produce json
// @Param name path string true "Environment name"
// @Success 200 {object} operations.EnvironmentDetails
// @Failure 404 {object} ErrorResponse
// @Router /environments/{name} [get]
func (s *Server) handleGetEnvironment(c echo.Context) error {
	details, err := s.ops.ShowEnvironment(c.Request().Context(), c.Param("name"))
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

// handleGetEnvironmentTopology godoc
// @Summary Get an environment topology
// @Description Derive the service topology of a registered environment
// @Tags environments
// @Produce json
// @Param name path string true "Environment name"
// @Success 200 {object} TopologyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /environments/{name}/topology [get]
func (s *Server) handleGetEnvironmentTopology(c echo.Context) error {
	details, err := s.ops.ShowEnvironment(c.Request().Context(), c.Param("name"))
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(http.StatusOK, details.Topology)
}

// handleRenderEnvironment godoc
// @Summary Render an environment
// @Description Write the compose project of a registered environment next to its configuration
// @Tags environments
// @Produce json
// @Param name path string true "Environment name"
// @Success 200 {object} operations.RenderResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /environments/{name}/render [post]
func (s *Server) handleRenderEnvironment(c echo.Context) error {
	result, err := s.ops.RenderEnvironment(c.Request().Context(), c.Param("name"), "")
	if err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleDeleteEnvironment godoc
// @Summary Delete an environment
// @Description Unregister an environment and remove its files
// @Tags environments
// @Produce json
// @Param name path string true "Environment name"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /environments/{name} [delete]
func (s *Server) handleDeleteEnvironment(c echo.Context) error {
	name := c.Param("name")
	if err := s.ops.DeleteEnvironment(c.Request().Context(), name); err != nil {
		return errors.HandleError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "environment " + name + " deleted"})
}
