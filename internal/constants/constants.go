// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// API server defaults
const (
	// DefaultServerHost keeps the API on the loopback interface
	DefaultServerHost = "localhost"

	// DefaultServerPort is the default port for the trackerdeploy API server
	DefaultServerPort = 8080

	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout
	DefaultServerWriteTimeout = 10 * time.Second

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second

	// MaxRequestBodySize bounds environment files posted to the API
	MaxRequestBodySize = "1M"
)

// Tracker defaults applied to environment files
const (
	DefaultUDPTrackerPort  = 6969
	DefaultHTTPTrackerPort = 7070
	DefaultHTTPAPIPort     = 1212
	DefaultHealthCheckPort = 1313
	DefaultMySQLPort       = 3306

	DefaultScrapeIntervalSeconds = 15
	DefaultBackupSchedule        = "0 3 * * *"
	DefaultBackupRetentionDays   = 7
)

// File names
const (
	EnvironmentFileName = "environment.toml"
	ComposeFileName     = "docker-compose.yml"
	GlobalConfigName    = "config.toml"
)

// Derived topology cache held by the environment operations
const (
	TopologyCacheTTL  = 10 * time.Minute
	TopologyCacheSize = 128
)

// ConfigPathEnvVar overrides the location of the global config.toml
const ConfigPathEnvVar = "TRACKERDEPLOY_CONFIG"

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for trackerdeploy directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for rendered files
	FilePermissions = 0644

	// SecureFilePermissions is used for files containing credentials
	SecureFilePermissions = 0600
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 25

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 5

	// DefaultConnectionTimeout is the default database connection timeout
	DefaultConnectionTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the default database idle connection timeout
	DefaultIdleTimeout = 1 * time.Minute
)

// Network Port Validation
const (
	MinPortNumber = 1
	MaxPortNumber = 65535
)
