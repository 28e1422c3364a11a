package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/topology"
)

// EnvironmentConfig is the user-facing description of one deployment,
// stored as environment.toml
type EnvironmentConfig struct {
	Environment EnvironmentSection `toml:"environment"`
	Tracker     TrackerSection     `toml:"tracker"`
	Database    *DatabaseSection   `toml:"database,omitempty"`
	Metrics     *MetricsSection    `toml:"metrics,omitempty"`
	Dashboard   *DashboardSection  `toml:"dashboard,omitempty"`
	TLS         *TLSSection        `toml:"tls,omitempty"`
	Backup      *BackupSection     `toml:"backup,omitempty"`
}

type EnvironmentSection struct {
	Name        string `toml:"name" validate:"required,envname"`
	Description string `toml:"description,omitempty"`
}

type TrackerSection struct {
	Private         bool                 `toml:"private"`
	DatabaseDriver  string               `toml:"database_driver" validate:"oneof=sqlite3 mysql"`
	HealthCheckPort uint16               `toml:"health_check_port" validate:"min=1"`
	UDPTrackers     []UDPTrackerSection  `toml:"udp_trackers" validate:"dive"`
	HTTPTrackers    []HTTPTrackerSection `toml:"http_trackers" validate:"dive"`
	HTTPAPI         HTTPAPISection       `toml:"http_api"`
}

type UDPTrackerSection struct {
	BindPort uint16 `toml:"bind_port" validate:"min=1"`
}

type HTTPTrackerSection struct {
	BindPort  uint16 `toml:"bind_port" validate:"min=1"`
	TLSDomain string `toml:"tls_domain,omitempty" validate:"omitempty,fqdn"`
}

type HTTPAPISection struct {
	BindPort   uint16 `toml:"bind_port" validate:"min=1"`
	TLSDomain  string `toml:"tls_domain,omitempty" validate:"omitempty,fqdn"`
	AdminToken string `toml:"admin_token" validate:"required"`
}

type DatabaseSection struct {
	Name         string `toml:"name" validate:"required,max=64"`
	User         string `toml:"user" validate:"required,max=32"`
	Password     string `toml:"password" validate:"required"`
	RootPassword string `toml:"root_password" validate:"required"`
	Port         uint16 `toml:"port" validate:"min=1"`
}

type MetricsSection struct {
	ScrapeIntervalSeconds uint32 `toml:"scrape_interval_seconds" validate:"min=1,max=3600"`
}

type DashboardSection struct {
	AdminUser     string `toml:"admin_user" validate:"required"`
	AdminPassword string `toml:"admin_password" validate:"required"`
	TLSDomain     string `toml:"tls_domain,omitempty" validate:"omitempty,fqdn"`
}

type TLSSection struct {
	AdminEmail string `toml:"admin_email" validate:"required,email"`
	UseStaging bool   `toml:"use_staging"`
}

type BackupSection struct {
	Schedule      string `toml:"schedule" validate:"required,cron"`
	RetentionDays uint32 `toml:"retention_days" validate:"min=1"`
}

// LoadEnvironment reads and validates an environment file
func LoadEnvironment(path string) (*EnvironmentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.WrapWithDetails(errors.ErrFileRead, "Failed to read environment file", path, err)
	}

	cfg, err := ParseEnvironment(data)
	if err != nil {
		if de, ok := errors.AsDeployError(err); ok {
			de.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// ParseEnvironment decodes environment TOML, fills defaults and validates
// every field. Unknown keys are rejected so typos do not silently disable
// a service.
func ParseEnvironment(data []byte) (*EnvironmentConfig, error) {
	var cfg EnvironmentConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if stderrors.As(err, &strict) {
			return nil, errors.WrapWithDetails(errors.ErrConfigParse, "Unknown keys in environment file",
				strict.String(), err)
		}
		var decErr *toml.DecodeError
		if stderrors.As(err, &decErr) {
			row, col := decErr.Position()
			return nil, errors.ConfigParseError(err).
				WithContext("line", row).
				WithContext("column", col)
		}
		return nil, errors.ConfigParseError(err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every value the user may omit
func (c *EnvironmentConfig) ApplyDefaults() {
	t := &c.Tracker
	if t.DatabaseDriver == "" {
		t.DatabaseDriver = string(topology.DriverSQLite)
	}
	if t.HealthCheckPort == 0 {
		t.HealthCheckPort = constants.DefaultHealthCheckPort
	}
	if t.UDPTrackers == nil && t.HTTPTrackers == nil {
		t.UDPTrackers = []UDPTrackerSection{{BindPort: constants.DefaultUDPTrackerPort}}
		t.HTTPTrackers = []HTTPTrackerSection{{BindPort: constants.DefaultHTTPTrackerPort}}
	}
	if t.HTTPAPI.BindPort == 0 {
		t.HTTPAPI.BindPort = constants.DefaultHTTPAPIPort
	}
	if c.Database != nil && c.Database.Port == 0 {
		c.Database.Port = constants.DefaultMySQLPort
	}
	if c.Metrics != nil && c.Metrics.ScrapeIntervalSeconds == 0 {
		c.Metrics.ScrapeIntervalSeconds = constants.DefaultScrapeIntervalSeconds
	}
	if c.Backup != nil {
		if c.Backup.Schedule == "" {
			c.Backup.Schedule = constants.DefaultBackupSchedule
		}
		if c.Backup.RetentionDays == 0 {
			c.Backup.RetentionDays = constants.DefaultBackupRetentionDays
		}
	}
}

// Validate checks every field. Cross-service rules are left to topology.Build.
func (c *EnvironmentConfig) Validate() error {
	return validateStruct(c)
}

// Bundle maps the file onto the per-service values topology.Build consumes
func (c *EnvironmentConfig) Bundle() topology.Bundle {
	t := c.Tracker
	b := topology.Bundle{
		Tracker: topology.TrackerConfig{
			UDPTrackers:  make([]topology.UDPTracker, 0, len(t.UDPTrackers)),
			HTTPTrackers: make([]topology.HTTPTracker, 0, len(t.HTTPTrackers)),
			HTTPAPI: topology.HTTPAPI{
				Port:       t.HTTPAPI.BindPort,
				TLSDomain:  t.HTTPAPI.TLSDomain,
				AdminToken: t.HTTPAPI.AdminToken,
			},
			HealthCheckPort: t.HealthCheckPort,
			DatabaseDriver:  topology.DatabaseDriver(t.DatabaseDriver),
			Private:         t.Private,
		},
	}
	for _, u := range t.UDPTrackers {
		b.Tracker.UDPTrackers = append(b.Tracker.UDPTrackers, topology.UDPTracker{Port: u.BindPort})
	}
	for _, h := range t.HTTPTrackers {
		b.Tracker.HTTPTrackers = append(b.Tracker.HTTPTrackers, topology.HTTPTracker{Port: h.BindPort, TLSDomain: h.TLSDomain})
	}

	if c.Database != nil {
		b.Database = &topology.DatabaseConfig{
			Name:         c.Database.Name,
			User:         c.Database.User,
			Password:     c.Database.Password,
			RootPassword: c.Database.RootPassword,
			Port:         c.Database.Port,
		}
	}
	if c.Metrics != nil {
		b.Metrics = &topology.MetricsConfig{ScrapeIntervalSeconds: c.Metrics.ScrapeIntervalSeconds}
	}
	if c.Dashboard != nil {
		b.Dashboard = &topology.DashboardConfig{
			AdminUser:     c.Dashboard.AdminUser,
			AdminPassword: c.Dashboard.AdminPassword,
			TLSDomain:     c.Dashboard.TLSDomain,
		}
	}
	if c.TLS != nil {
		b.TLS = &topology.TLSConfig{AdminEmail: c.TLS.AdminEmail, UseStaging: c.TLS.UseStaging}
	}
	if c.Backup != nil {
		b.Backup = &topology.BackupConfig{Schedule: c.Backup.Schedule, RetentionDays: c.Backup.RetentionDays}
	}
	return b
}

// Digest identifies the effective configuration, defaults included. Two
// files that decode to the same values share a digest.
func (c *EnvironmentConfig) Digest() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Save writes the environment file, creating parent directories. The file
// holds credentials so it is only readable by the owner.
func (c *EnvironmentConfig) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrFileWrite, "Failed to encode environment file", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapWithDetails(errors.ErrFileWrite, "Failed to create environment directory", path, err)
	}
	if err := os.WriteFile(path, data, constants.SecureFilePermissions); err != nil {
		return errors.WrapWithDetails(errors.ErrFileWrite, "Failed to write environment file", path, err)
	}
	return nil
}
