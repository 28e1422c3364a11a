package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/errors"
)

// setupApp points the application at a config.toml whose data directory
// lives in a temp dir
func setupApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	configPath := filepath.Join(dir, constants.GlobalConfigName)
	content := fmt.Sprintf("[storage]\ndata_dir = %q\n\n[log]\nlevel = \"error\"\nformat = \"text\"\n", dataDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	t.Setenv(constants.ConfigPathEnvVar, configPath)

	out := new(bytes.Buffer)
	a := New()
	a.SetOutput(out, out)
	return a, out, dataDir
}

func TestRunCreatesRegistry(t *testing.T) {
	a, out, dataDir := setupApp(t)

	require.NoError(t, a.Run([]string{"list"}))
	assert.Contains(t, out.String(), "No environments registered")
	assert.FileExists(t, filepath.Join(dataDir, "trackerdeploy.db"))
	assert.Equal(t, dataDir, a.Global.Storage.DataDir)
}

func TestRunEndToEnd(t *testing.T) {
	a, out, dataDir := setupApp(t)

	envPath := filepath.Join(t.TempDir(), constants.EnvironmentFileName)
	require.NoError(t, os.WriteFile(envPath, []byte(`
[environment]
name = "edge"

[tracker]
database_driver = "mysql"

[tracker.http_api]
admin_token = "token"

[database]
name = "tracker"
user = "tracker"
password = "secret"
root_password = "root-secret"

[backup]
`), 0600))

	require.NoError(t, a.Run([]string{"create", "environment", "--config", envPath}))
	assert.Contains(t, out.String(), "Environment edge created with services: [tracker mysql backup]")
	assert.FileExists(t, filepath.Join(dataDir, "environments", "edge", constants.EnvironmentFileName))

	require.NoError(t, a.Run([]string{"render", "edge"}))
	assert.FileExists(t, filepath.Join(dataDir, "environments", "edge", constants.ComposeFileName))
	assert.FileExists(t, filepath.Join(dataDir, "environments", "edge", ".env"))
}

func TestRunExitCodes(t *testing.T) {
	a, _, _ := setupApp(t)

	envPath := filepath.Join(t.TempDir(), constants.EnvironmentFileName)
	require.NoError(t, os.WriteFile(envPath, []byte(`
[environment]
name = "broken"

[tracker]
database_driver = "mysql"

[tracker.http_api]
admin_token = "token"
`), 0600))

	tests := []struct {
		name     string
		args     []string
		wantExit int
	}{
		{"mysql without database section", []string{"validate", "--config", envPath}, errors.ExitConfigError},
		{"missing environment file", []string{"validate", "--config", "/nonexistent/environment.toml"}, errors.ExitConfigError},
		{"unknown environment", []string{"show", "ghost"}, errors.ExitFailure},
		{"unknown command", []string{"provision"}, errors.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Run(tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, errors.ExitCodeOf(err))
		})
	}
}

func TestRunRejectsInvalidGlobalConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), constants.GlobalConfigName)
	require.NoError(t, os.WriteFile(configPath, []byte("[server]\nport = 70000\n"), 0600))
	t.Setenv(constants.ConfigPathEnvVar, configPath)

	err := New().Run([]string{"list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}
