package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/topology"
)

const fullEnvironment = `
[environment]
name = "production"
description = "Public tracker"

[tracker]
private = true
database_driver = "mysql"

[[tracker.udp_trackers]]
bind_port = 6969

[[tracker.udp_trackers]]
bind_port = 6868

[[tracker.http_trackers]]
bind_port = 7070
tls_domain = "tracker.example.com"

[tracker.http_api]
bind_port = 1212
tls_domain = "api.example.com"
admin_token = "MyAccessToken"

[database]
name = "torrust_tracker"
user = "tracker_user"
password = "tracker_password"
root_password = "root_password"

[metrics]

[dashboard]
admin_user = "admin"
admin_password = "admin"
tls_domain = "grafana.example.com"

[tls]
admin_email = "admin@example.com"
use_staging = true

[backup]
retention_days = 14
`

// TestParseFullEnvironment tests parsing an environment that enables every service
func TestParseFullEnvironment(t *testing.T) {
	cfg, err := ParseEnvironment([]byte(fullEnvironment))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment.Name)
	assert.True(t, cfg.Tracker.Private)
	assert.Len(t, cfg.Tracker.UDPTrackers, 2)
	assert.Equal(t, uint16(1313), cfg.Tracker.HealthCheckPort)

	require.NotNil(t, cfg.Database)
	assert.Equal(t, uint16(3306), cfg.Database.Port)
	require.NotNil(t, cfg.Metrics)
	assert.Equal(t, uint32(15), cfg.Metrics.ScrapeIntervalSeconds)
	require.NotNil(t, cfg.Backup)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.Equal(t, uint32(14), cfg.Backup.RetentionDays)

	b := cfg.Bundle()
	assert.Equal(t, topology.DriverMySQL, b.Tracker.DatabaseDriver)
	assert.Equal(t, []topology.UDPTracker{{Port: 6969}, {Port: 6868}}, b.Tracker.UDPTrackers)
	assert.Equal(t, "api.example.com", b.Tracker.HTTPAPI.TLSDomain)
	assert.True(t, b.TLS.UseStaging)

	topo, err := topology.Build(b)
	require.NoError(t, err)
	assert.Equal(t, topology.AllServices(), topo.Services())
}

// TestParseMinimalEnvironment tests that defaults produce a tracker-only stack
func TestParseMinimalEnvironment(t *testing.T) {
	cfg, err := ParseEnvironment([]byte(`
[environment]
name = "dev"

[tracker.http_api]
admin_token = "token"
`))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Tracker.DatabaseDriver)
	assert.Equal(t, []UDPTrackerSection{{BindPort: 6969}}, cfg.Tracker.UDPTrackers)
	assert.Equal(t, []HTTPTrackerSection{{BindPort: 7070}}, cfg.Tracker.HTTPTrackers)
	assert.Equal(t, uint16(1212), cfg.Tracker.HTTPAPI.BindPort)
	assert.Nil(t, cfg.Database)
	assert.Nil(t, cfg.Metrics)

	topo, err := topology.Build(cfg.Bundle())
	require.NoError(t, err)
	assert.Equal(t, []topology.Service{topology.Tracker}, topo.Services())
}

// TestParseEnvironmentErrors tests field validation and decoding failures
func TestParseEnvironmentErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
		detail  string
	}{
		{
			name:    "invalid toml",
			content: "[environment\nname = 1",
			code:    errors.ErrConfigParse,
		},
		{
			name:    "unknown key",
			content: "[environment]\nname = \"dev\"\n[tracker.http_api]\nadmin_token = \"t\"\n[grafana]\nadmin_user = \"x\"\n",
			code:    errors.ErrConfigParse,
		},
		{
			name:    "missing name",
			content: "[tracker.http_api]\nadmin_token = \"t\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "environment.name is required",
		},
		{
			name:    "bad name",
			content: "[environment]\nname = \"Prod_1\"\n[tracker.http_api]\nadmin_token = \"t\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "environment.name must contain lowercase letters, digits and hyphens",
		},
		{
			name:    "missing admin token",
			content: "[environment]\nname = \"dev\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "tracker.http_api.admin_token is required",
		},
		{
			name:    "unknown driver",
			content: "[environment]\nname = \"dev\"\n[tracker]\ndatabase_driver = \"postgres\"\n[tracker.http_api]\nadmin_token = \"t\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "tracker.database_driver must be one of [sqlite3 mysql]",
		},
		{
			name:    "bad email",
			content: "[environment]\nname = \"dev\"\n[tracker.http_api]\nadmin_token = \"t\"\n[tls]\nadmin_email = \"nope\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "tls.admin_email must be an email address",
		},
		{
			name:    "bad schedule",
			content: "[environment]\nname = \"dev\"\n[tracker.http_api]\nadmin_token = \"t\"\n[backup]\nschedule = \"every night\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "backup.schedule must be a cron expression",
		},
		{
			name:    "bad domain",
			content: "[environment]\nname = \"dev\"\n[[tracker.http_trackers]]\nbind_port = 7070\ntls_domain = \"not a domain\"\n[tracker.http_api]\nadmin_token = \"t\"\n",
			code:    errors.ErrConfigValidation,
			detail:  "tracker.http_trackers[0].tls_domain must be a fully qualified domain name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseEnvironment([]byte(tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			if tt.detail != "" {
				assert.Contains(t, err.Error(), tt.detail)
			}
		})
	}
}

// TestCrossServiceRulesAreLeftToTopology tests that a dashboard without
// metrics passes field validation and is rejected by the topology
func TestCrossServiceRulesAreLeftToTopology(t *testing.T) {
	cfg, err := ParseEnvironment([]byte(`
[environment]
name = "dev"

[tracker.http_api]
admin_token = "token"

[dashboard]
admin_user = "admin"
admin_password = "admin"
`))
	require.NoError(t, err)

	_, err = topology.Build(cfg.Bundle())
	require.Error(t, err)
	assert.ErrorIs(t, err, topology.ErrInvalidConfiguration)
}

// TestLoadAndSaveEnvironment tests the file round trip and permissions
func TestLoadAndSaveEnvironment(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadEnvironment(filepath.Join(tmpDir, "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrConfigNotFound))

	cfg, err := ParseEnvironment([]byte(fullEnvironment))
	require.NoError(t, err)

	path := filepath.Join(tmpDir, "environments", "production", "environment.toml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadEnvironment(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidEnvironmentName(t *testing.T) {
	assert.True(t, ValidEnvironmentName("staging"))
	assert.True(t, ValidEnvironmentName("e2e-1"))
	assert.False(t, ValidEnvironmentName(""))
	assert.False(t, ValidEnvironmentName("-lead"))
	assert.False(t, ValidEnvironmentName("Upper"))
	assert.False(t, ValidEnvironmentName("under_score"))
}
