package operations

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackerdeploy/internal/config"
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/testutil"
)

const stagingEnvironment = `
[environment]
name = "staging"

[tracker]
database_driver = "mysql"

[tracker.http_api]
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

[backup]
`

const dashboardWithoutMetrics = `
[environment]
name = "broken"

[tracker.http_api]
admin_token = "MyAccessToken"

[dashboard]
admin_user = "admin"
admin_password = "admin"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "environment.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestOperations(t *testing.T) (*EnvironmentOperations, *config.GlobalConfig) {
	t.Helper()
	global := config.DefaultGlobalConfig()
	global.Storage.DataDir = t.TempDir()
	store := db.NewEnvironmentRepository(testutil.SetupTestDB(t))
	return NewEnvironmentOperations(store, global), global
}

func TestEnvironmentLifecycle(t *testing.T) {
	ctx := context.Background()
	ops, global := newTestOperations(t)

	env, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: writeConfig(t, stagingEnvironment)})
	require.NoError(t, err)
	assert.Equal(t, "staging", env.Name)
	assert.Equal(t, db.ServiceList{"tracker", "mysql", "prometheus", "grafana", "backup"}, env.Services)
	assert.Equal(t, filepath.Join(global.EnvironmentDir("staging"), "environment.toml"), env.ConfigPath)
	assert.FileExists(t, env.ConfigPath)

	details, err := ops.ShowEnvironment(ctx, "staging")
	require.NoError(t, err)
	assert.Len(t, details.Topology.Networks(), 3)

	result, err := ops.RenderEnvironment(ctx, "staging", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(global.EnvironmentDir("staging"), "docker-compose.yml"), result.ComposePath)
	assert.Equal(t, []string{"6969:6969/udp", "7070:7070", "1212:1212", "127.0.0.1:9090:9090", "3000:3000"}, result.Ports)

	stored, err := ops.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, db.StateRendered, stored[0].State)
	assert.Equal(t, result.ComposePath, stored[0].ComposePath)

	_, err = ValidateEnvironment(env.ConfigPath, result.ComposePath)
	assert.NoError(t, err)

	require.NoError(t, ops.DeleteEnvironment(ctx, "staging"))
	assert.NoDirExists(t, global.EnvironmentDir("staging"))
	_, err = ops.ShowEnvironment(ctx, "staging")
	assert.True(t, errors.HasCode(err, errors.ErrEnvironmentNotFound))
}

func TestCreateEnvironmentRejects(t *testing.T) {
	ctx := context.Background()
	ops, global := newTestOperations(t)

	_, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: writeConfig(t, dashboardWithoutMetrics)})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTopologyInvalid))
	assert.NoDirExists(t, global.EnvironmentDir("broken"))

	_, err = ops.CreateEnvironment(ctx, CreateEnvironmentRequest{Name: "Not_Valid", ConfigPath: writeConfig(t, stagingEnvironment)})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInput))

	_, err = ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	assert.True(t, errors.HasCode(err, errors.ErrConfigNotFound))

	path := writeConfig(t, stagingEnvironment)
	_, err = ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: path})
	require.NoError(t, err)
	_, err = ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: path})
	assert.True(t, errors.HasCode(err, errors.ErrEnvironmentExists))

	env, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{Name: "staging-2", ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "staging-2", env.Name)
}

func TestRenderEnvironmentRecordsFailure(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestOperations(t)

	env, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: writeConfig(t, stagingEnvironment)})
	require.NoError(t, err)

	// break the stored configuration behind the registry's back
	require.NoError(t, os.WriteFile(env.ConfigPath, []byte(dashboardWithoutMetrics), 0600))

	_, err = ops.RenderEnvironment(ctx, "staging", "")
	assert.True(t, errors.HasCode(err, errors.ErrTopologyInvalid))

	envs, err := ops.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, db.StateRenderFailed, envs[0].State)
	assert.Contains(t, envs[0].LastError, "Deployment configuration is invalid")
}

func TestValidateEnvironmentDetectsDrift(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestOperations(t)

	env, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: writeConfig(t, stagingEnvironment)})
	require.NoError(t, err)
	result, err := ops.RenderEnvironment(ctx, "staging", t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(result.ComposePath)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "service_healthy", "service_started", 1)
	require.NoError(t, os.WriteFile(result.ComposePath, []byte(tampered), 0644))

	_, err = ValidateEnvironment(env.ConfigPath, result.ComposePath)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrComposeMismatch))
}

func TestDeriveTopology(t *testing.T) {
	topo, err := DeriveTopology([]byte(stagingEnvironment))
	require.NoError(t, err)
	assert.Len(t, topo.Services(), 5)

	_, err = DeriveTopology([]byte("[tracker\n"))
	assert.True(t, errors.HasCode(err, errors.ErrConfigParse))

	_, err = DeriveTopology([]byte(dashboardWithoutMetrics))
	de, ok := errors.AsDeployError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTopologyInvalid, de.Code)
	assert.Equal(t, "dashboard-requires-metrics", de.Context["rule"])
}

func TestListEnvironmentPageUsesStore(t *testing.T) {
	store := new(testutil.MockEnvironmentStore)
	opts := db.DefaultPaginationOptions()
	store.On("ListPage", mock.Anything, opts).Return([]*db.Environment{{Name: "dev"}}, 21, nil)

	ops := NewEnvironmentOperations(store, nil)
	page, err := ops.ListEnvironmentPage(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 21, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	store.AssertExpectations(t)
}

func TestShowEnvironmentReusesTopology(t *testing.T) {
	ctx := context.Background()
	ops, _ := newTestOperations(t)

	env, err := ops.CreateEnvironment(ctx, CreateEnvironmentRequest{ConfigPath: writeConfig(t, stagingEnvironment)})
	require.NoError(t, err)

	first, err := ops.ShowEnvironment(ctx, env.Name)
	require.NoError(t, err)
	second, err := ops.ShowEnvironment(ctx, env.Name)
	require.NoError(t, err)
	assert.Same(t, first.Topology, second.Topology)

	// Editing the stored file changes the digest and forces a rebuild
	data, err := os.ReadFile(env.ConfigPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "retention_days = 7")
	edited := strings.Replace(string(data), "retention_days = 7", "retention_days = 30", 1)
	require.NoError(t, os.WriteFile(env.ConfigPath, []byte(edited), 0600))

	third, err := ops.ShowEnvironment(ctx, env.Name)
	require.NoError(t, err)
	assert.NotSame(t, first.Topology, third.Topology)
}
