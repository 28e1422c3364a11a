package server

import (
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/errors"
)

// ErrorResponse represents an error response
type ErrorResponse = errors.HTTPErrorResponse

// SuccessResponse represents a successful operation response
type SuccessResponse struct {
	Message string `json:"message" example:"environment production deleted"`
}

// HealthResponse reports API and registry health
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Version  string `json:"version" example:"1.0.0"`
	Uptime   string `json:"uptime" example:"2h30m15s"`
	Database string `json:"database" example:"healthy"`
}

// CreateEnvironmentRequest represents a request to register an environment
type CreateEnvironmentRequest struct {
	Name       string `json:"name" validate:"omitempty,max=63" example:"production"`
	ConfigPath string `json:"config_path" validate:"required" example:"/srv/tracker/environment.toml"`
}

// EnvironmentsResponse is one page of registered environments
type EnvironmentsResponse = db.PaginatedResponse[*db.Environment]

// TopologyResponse documents the JSON form of a derived topology
type TopologyResponse struct {
	Services []ServiceTopologyResponse `json:"services"`
	Networks []string                  `json:"networks" example:"database_network,metrics_network"`
}

// ServiceTopologyResponse documents one service of a derived topology
type ServiceTopologyResponse struct {
	Service   string               `json:"service" example:"tracker"`
	Networks  []string             `json:"networks" example:"database_network"`
	Ports     []PortResponse       `json:"ports"`
	DependsOn []DependencyResponse `json:"depends_on"`
}

// PortResponse documents one published port
type PortResponse struct {
	Protocol      string `json:"protocol" example:"udp"`
	HostPort      int    `json:"host_port" example:"6969"`
	ContainerPort int    `json:"container_port" example:"6969"`
	HostIP        string `json:"host_ip,omitempty" example:"127.0.0.1"`
	Description   string `json:"description" example:"BitTorrent UDP announce"`
}

// DependencyResponse documents one startup dependency
type DependencyResponse struct {
	Service   string `json:"service" example:"mysql"`
	Condition string `json:"condition" example:"service_healthy"`
}
