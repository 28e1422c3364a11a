package server

import "github.com/swaggo/swag"

// @title trackerdeploy API
// @version 1.0
// @description Derives and renders the service topology of tracker deployments

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/topology": {
            "post": {
                "consumes": ["text/plain"],
                "produces": ["application/json"],
                "tags": ["topology"],
                "summary": "Derive a topology",
                "parameters": [
                    {"description": "environment.toml content", "name": "environment", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TopologyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/environments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "List environments",
                "parameters": [
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "name": "page_size", "in": "query"},
                    {"type": "string", "default": "name", "name": "order_by", "in": "query"},
                    {"type": "string", "default": "asc", "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "Register an environment",
                "parameters": [
                    {"description": "Environment to register", "name": "environment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CreateEnvironmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/environments/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "Get an environment",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "Delete an environment",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/environments/{name}/topology": {
            "get": {
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "Get an environment topology",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.TopologyResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        },
        "/environments/{name}/render": {
            "post": {
                "produces": ["application/json"],
                "tags": ["environments"],
                "summary": "Render an environment",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.HTTPErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.HTTPErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "string"}
                    }
                },
                "context": {"type": "object", "additionalProperties": true}
            }
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "version": {"type": "string", "example": "1.0.0"},
                "uptime": {"type": "string", "example": "2h30m15s"},
                "database": {"type": "string", "example": "healthy"}
            }
        },
        "server.SuccessResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "server.CreateEnvironmentRequest": {
            "type": "object",
            "required": ["config_path"],
            "properties": {
                "name": {"type": "string", "example": "production"},
                "config_path": {"type": "string", "example": "/srv/tracker/environment.toml"}
            }
        },
        "server.TopologyResponse": {
            "type": "object",
            "properties": {
                "services": {"type": "array", "items": {"$ref": "#/definitions/server.ServiceTopologyResponse"}},
                "networks": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.ServiceTopologyResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "tracker"},
                "networks": {"type": "array", "items": {"type": "string"}},
                "ports": {"type": "array", "items": {"$ref": "#/definitions/server.PortResponse"}},
                "depends_on": {"type": "array", "items": {"$ref": "#/definitions/server.DependencyResponse"}}
            }
        },
        "server.PortResponse": {
            "type": "object",
            "properties": {
                "protocol": {"type": "string", "example": "udp"},
                "host_port": {"type": "integer", "example": 6969},
                "container_port": {"type": "integer", "example": 6969},
                "host_ip": {"type": "string", "example": "127.0.0.1"},
                "description": {"type": "string"}
            }
        },
        "server.DependencyResponse": {
            "type": "object",
            "properties": {
                "service": {"type": "string", "example": "mysql"},
                "condition": {"type": "string", "example": "service_healthy"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "trackerdeploy API",
	Description:      "Derives and renders the service topology of tracker deployments",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
