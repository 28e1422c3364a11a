package compose

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/compose-spec/compose-go/v2/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackerdeploy/internal/topology"
)

func fullBundle() topology.Bundle {
	return topology.Bundle{
		Tracker: topology.TrackerConfig{
			UDPTrackers:     []topology.UDPTracker{{Port: 6969}},
			HTTPTrackers:    []topology.HTTPTracker{{Port: 7070}},
			HTTPAPI:         topology.HTTPAPI{Port: 1212, AdminToken: "MyAccessToken"},
			HealthCheckPort: 1313,
			DatabaseDriver:  topology.DriverMySQL,
		},
		Database:  &topology.DatabaseConfig{Name: "torrust_tracker", User: "tracker_user", Password: "pass word", RootPassword: "root", Port: 3306},
		Metrics:   &topology.MetricsConfig{ScrapeIntervalSeconds: 15},
		Dashboard: &topology.DashboardConfig{AdminUser: "admin", AdminPassword: "admin", TLSDomain: "grafana.example.com"},
		TLS:       &topology.TLSConfig{AdminEmail: "admin@example.com"},
		Backup:    &topology.BackupConfig{Schedule: "0 3 * * *", RetentionDays: 7},
	}
}

func renderBundle(t *testing.T, b topology.Bundle) (*topology.Topology, *ComposeFile) {
	t.Helper()
	topo, err := topology.Build(b)
	require.NoError(t, err)
	file, err := Render(topo, RenderOptions{ProjectName: "production", Bundle: b})
	require.NoError(t, err)
	return topo, file
}

func TestRenderFullStack(t *testing.T) {
	_, file := renderBundle(t, fullBundle())

	assert.Equal(t, "production", file.Name)
	assert.Equal(t, []string{"backup", "caddy", "grafana", "mysql", "prometheus", "tracker"}, file.GetServiceNames())
	assert.Equal(t, []string{"tracker", "mysql", "prometheus", "grafana", "caddy", "backup"}, ServiceOrder(file))

	tracker := file.Services["tracker"]
	assert.Equal(t, "torrust/tracker:develop", tracker.Image)
	assert.Equal(t, []string{"6969:6969/udp", "7070:7070", "1212:1212"}, tracker.Ports)
	assert.Equal(t, StringOrSlice{"database_network", "metrics_network", "proxy_network"}, tracker.Networks)
	assert.Equal(t, DependsOn{"mysql": {Condition: "service_healthy"}}, tracker.DependsOn)
	assert.Contains(t, tracker.Healthcheck.Test, "http://localhost:1313/health_check")

	prometheus := file.Services["prometheus"]
	assert.Equal(t, []string{"127.0.0.1:9090:9090"}, prometheus.Ports)
	assert.Equal(t, DependsOn{"tracker": {Condition: "service_started"}}, prometheus.DependsOn)

	grafana := file.Services["grafana"]
	assert.Equal(t, DependsOn{"prometheus": {Condition: "service_healthy"}}, grafana.DependsOn)
	assert.Equal(t, StringOrSlice{"proxy_network", "visualization_network"}, grafana.Networks)

	backup := file.Services["backup"]
	assert.Equal(t, StringOrSlice{"database_network"}, backup.Networks)
	assert.Equal(t, "mysql", backup.Environment["MYSQL_HOST"])
	assert.Empty(t, backup.Ports)

	assert.Equal(t, []string{"80:80", "443:443", "443:443/udp"}, file.Services["caddy"].Ports)

	require.Len(t, file.Networks, 4)
	for _, n := range file.Networks {
		assert.Equal(t, "bridge", n.Driver)
	}
	for _, v := range []string{"mysql_data", "prometheus_data", "grafana_data", "caddy_data", "caddy_config"} {
		assert.Contains(t, file.Volumes, v)
	}
}

func TestRenderMinimalStackOmitsEmptyKeys(t *testing.T) {
	b := topology.Bundle{Tracker: fullBundle().Tracker}
	b.Tracker.DatabaseDriver = topology.DriverSQLite
	_, file := renderBundle(t, b)

	data, err := Marshal(file)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "# Generated by trackerdeploy"))
	assert.NotContains(t, out, "networks:")
	assert.NotContains(t, out, "depends_on:")
	assert.NotContains(t, out, "\nvolumes:")
	assert.Contains(t, out, "6969:6969/udp")
}

func TestRenderBackupWithoutDatabase(t *testing.T) {
	b := topology.Bundle{Tracker: fullBundle().Tracker, Backup: fullBundle().Backup}
	b.Tracker.DatabaseDriver = topology.DriverSQLite
	_, file := renderBundle(t, b)

	backup := file.Services["backup"]
	assert.Empty(t, backup.Networks)
	assert.Empty(t, backup.DependsOn)
	assert.NotContains(t, backup.Environment, "MYSQL_HOST")
}

func TestRenderImageOverride(t *testing.T) {
	b := fullBundle()
	topo, err := topology.Build(b)
	require.NoError(t, err)

	file, err := Render(topo, RenderOptions{Bundle: b, Images: map[topology.Service]string{topology.Tracker: "torrust/tracker:v3.0.0"}})
	require.NoError(t, err)
	assert.Equal(t, "torrust/tracker:v3.0.0", file.Services["tracker"].Image)
	assert.Equal(t, "mysql:8.4", file.Services["mysql"].Image)

	_, err = Render(nil, RenderOptions{})
	assert.Error(t, err)
}

func TestMarshalParseVerifyRoundTrip(t *testing.T) {
	topo, file := renderBundle(t, fullBundle())

	data, err := Marshal(file)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Empty(t, Verify(parsed, topo))
	assert.Equal(t, "tracker", parsed.Services["tracker"].Name)
}

func TestVerifyReportsDrift(t *testing.T) {
	topo, file := renderBundle(t, fullBundle())

	file.Services["tracker"].Ports = []string{"6969:6969/udp", "7070:7070", "8080:8080"}
	file.Services["backup"].Networks = nil
	file.Services["grafana"].DependsOn = DependsOn{"prometheus": {Condition: "service_started"}}
	file.Services["redis"] = &ComposeService{Image: "redis"}
	delete(file.Networks, "proxy_network")
	file.Networks["metrics_network"].Driver = "overlay"

	problems := Verify(file, topo)
	assert.ElementsMatch(t, []string{
		"service redis is not part of the topology",
		"service tracker does not publish 1212:1212",
		"service tracker publishes unexpected port 8080:8080",
		"service grafana waits for prometheus with service_started, expected service_healthy",
		"service backup is not on network database_network",
		"network metrics_network uses driver overlay, expected bridge",
		"network proxy_network is not declared",
	}, problems)
}

func TestVerifyMissingService(t *testing.T) {
	topo, file := renderBundle(t, fullBundle())
	delete(file.Services, "caddy")

	assert.Equal(t, []string{"service caddy is missing"}, Verify(file, topo))
}

func TestParsePortString(t *testing.T) {
	tests := []struct {
		input    string
		expected PortMapping
		wantErr  bool
	}{
		{"8080:80", PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "tcp"}, false},
		{"6969:6969/udp", PortMapping{HostPort: 6969, ContainerPort: 6969, Protocol: "udp"}, false},
		{"127.0.0.1:9090:9090", PortMapping{HostIP: netip.MustParseAddr("127.0.0.1"), HostPort: 9090, ContainerPort: 9090, Protocol: "tcp"}, false},
		{"443:443/tcp", PortMapping{HostPort: 443, ContainerPort: 443, Protocol: "tcp"}, false},
		{"8080", PortMapping{}, true},
		{"abc:80", PortMapping{}, true},
		{"localhost:80:80", PortMapping{}, true},
		{"80:80/sctp", PortMapping{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mapping, err := parsePortString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mapping)
		})
	}
}

func TestParseShortFormDependsOnAndEnvironment(t *testing.T) {
	file, err := Parse([]byte(`
services:
  tracker:
    image: torrust/tracker:develop
    environment:
      - USER_ID=1000
      - EMPTY
    depends_on:
      - mysql
    networks: database_network
  mysql:
    image: mysql:8.4
`))
	require.NoError(t, err)

	tracker := file.Services["tracker"]
	assert.Equal(t, Environment{"USER_ID": "1000", "EMPTY": ""}, tracker.Environment)
	assert.Equal(t, DependsOn{"mysql": {Condition: "service_started"}}, tracker.DependsOn)
	assert.Equal(t, StringOrSlice{"database_network"}, tracker.Networks)

	_, err = Parse([]byte("services:\n  tracker:\n"))
	assert.Error(t, err)
}

// readEnv parses a rendered .env the way docker compose does, with an
// empty process environment
func readEnv(t *testing.T, env EnvFile) map[string]string {
	t.Helper()
	values, err := dotenv.UnmarshalWithLookup(env.String(), func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	return values
}

func TestRenderEnvAndWriteProject(t *testing.T) {
	b := fullBundle()
	_, file := renderBundle(t, b)
	env := RenderEnv(b)

	values := readEnv(t, env)
	assert.Equal(t, "mysql", values["TORRUST_TRACKER_CONFIG_OVERRIDE_CORE__DATABASE__DRIVER"])
	assert.Equal(t, "7", values["BACKUP_RETENTION_DAYS"])
	assert.Equal(t, "pass word", values["MYSQL_PASSWORD"])
	assert.Equal(t, "0 3 * * *", values["BACKUP_SCHEDULE"])
	assert.Contains(t, env.String(), "MYSQL_PASSWORD='pass word'\n")
	assert.Contains(t, env.String(), "MYSQL_USER=tracker_user\n")

	dir := filepath.Join(t.TempDir(), "production")
	composePath, err := WriteProject(dir, file, env)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), composePath)

	info, err := os.Stat(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	parsed, err := ParseComposeFile(composePath)
	require.NoError(t, err)
	assert.Len(t, parsed.Services, 6)
}

func TestEnvFileKeepsCredentialsLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value string
		line  string
	}{
		{"dollar", "p$ecret", "VALUE='p$ecret'"},
		{"braced variable", "${HOME}x", "VALUE='${HOME}x'"},
		{"comment marker", "abc#def", "VALUE='abc#def'"},
		{"double quote", `say "hi"`, `VALUE='say "hi"'`},
		{"backslash", `a\nb`, `VALUE='a\nb'`},
		{"non-ascii", "pässwörd ü", "VALUE='pässwörd ü'"},
		{"single quote", "it's", `VALUE="it's"`},
		{"single quote and dollar", "it's $5", `VALUE="it's $$5"`},
		{"plain", "s3cr3t", "VALUE=s3cr3t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := EnvFile{{Key: "VALUE", Value: tt.value}}
			assert.Equal(t, tt.line+"\n", env.String())
			assert.Equal(t, tt.value, readEnv(t, env)["VALUE"])
		})
	}
}

func TestRenderEnvPasswordWithDollar(t *testing.T) {
	b := fullBundle()
	b.Database.Password = "p$ecret"
	b.Dashboard.AdminPassword = "gr$fana'1"

	values := readEnv(t, RenderEnv(b))
	assert.Equal(t, "p$ecret", values["MYSQL_PASSWORD"])
	assert.Equal(t, "gr$fana'1", values["GF_SECURITY_ADMIN_PASSWORD"])
}

func TestVerifyListsUnknownServicesInCanonicalOrder(t *testing.T) {
	b := topology.Bundle{Tracker: fullBundle().Tracker}
	b.Tracker.DatabaseDriver = topology.DriverSQLite
	topo, file := renderBundle(t, b)

	file.Services["adminer"] = &ComposeService{Image: "adminer"}
	file.Services["backup"] = &ComposeService{Image: "backup"}
	file.Services["caddy"] = &ComposeService{Image: "caddy"}

	assert.Equal(t, []string{
		"service caddy is not part of the topology",
		"service backup is not part of the topology",
		"service adminer is not part of the topology",
	}, Verify(file, topo))
}
