package topology

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTracker() TrackerConfig {
	return TrackerConfig{
		UDPTrackers:     []UDPTracker{{Port: 6969}},
		HTTPTrackers:    []HTTPTracker{{Port: 7070}},
		HTTPAPI:         HTTPAPI{Port: 1212, AdminToken: "MyAccessToken"},
		HealthCheckPort: 1313,
		DatabaseDriver:  DriverSQLite,
	}
}

// bundleFor builds a bundle enabling exactly the given optional services
func bundleFor(optional ...Service) Bundle {
	b := Bundle{Tracker: defaultTracker()}
	for _, s := range optional {
		switch s {
		case Tracker:
		case Database:
			b.Database = &DatabaseConfig{Name: "torrust_tracker", User: "tracker_user", Password: "secret", RootPassword: "root", Port: 3306}
			b.Tracker.DatabaseDriver = DriverMySQL
		case Metrics:
			b.Metrics = &MetricsConfig{ScrapeIntervalSeconds: 15}
		case Dashboard:
			b.Dashboard = &DashboardConfig{AdminUser: "admin", AdminPassword: "admin"}
		case TLSTerminator:
			b.TLS = &TLSConfig{AdminEmail: "admin@example.com"}
			b.Tracker.HTTPAPI.TLSDomain = "api.example.com"
		case Backup:
			b.Backup = &BackupConfig{Schedule: "0 3 * * *", RetentionDays: 7}
		}
	}
	return b
}

var optionalServices = []Service{Database, Metrics, Dashboard, TLSTerminator, Backup}

// allCombinations yields every subset of the optional services
func allCombinations() [][]Service {
	var out [][]Service
	for mask := 0; mask < 1<<len(optionalServices); mask++ {
		var combo []Service
		for i, s := range optionalServices {
			if mask&(1<<i) != 0 {
				combo = append(combo, s)
			}
		}
		out = append(out, combo)
	}
	return out
}

func containsService(services []Service, s Service) bool {
	for _, x := range services {
		if x == s {
			return true
		}
	}
	return false
}

func TestBuildMinimalStack(t *testing.T) {
	topo, err := Build(bundleFor())
	require.NoError(t, err)

	assert.Equal(t, []Service{Tracker}, topo.Services())
	assert.Empty(t, topo.Networks())

	tracker, ok := topo.Service(Tracker)
	require.True(t, ok)
	assert.True(t, tracker.Networks.IsEmpty())
	assert.Empty(t, tracker.Dependencies)

	bindings := make([]string, 0, len(tracker.Ports))
	for _, p := range tracker.Ports {
		bindings = append(bindings, p.ComposeBinding())
	}
	assert.Equal(t, []string{"6969:6969/udp", "7070:7070", "1212:1212"}, bindings)
	assert.Equal(t, tracker.Ports, topo.Ports())

	for _, s := range optionalServices {
		_, ok := topo.Service(s)
		assert.False(t, ok, "%s should not be part of a minimal stack", s)
	}
}

func TestBuildFullStack(t *testing.T) {
	topo, err := Build(bundleFor(optionalServices...))
	require.NoError(t, err)

	assert.Equal(t, AllServices(), topo.Services())
	assert.Equal(t, []Network{NetworkDatabase, NetworkMetrics, NetworkProxy, NetworkVisualization}, topo.Networks())

	tests := []struct {
		service  Service
		networks NetworkSet
		deps     []ServiceDependency
	}{
		{Tracker, NewNetworkSet(NetworkMetrics, NetworkDatabase, NetworkProxy), []ServiceDependency{DependsOn(Database, ServiceHealthy)}},
		{Database, NewNetworkSet(NetworkDatabase), []ServiceDependency{}},
		{Metrics, NewNetworkSet(NetworkMetrics, NetworkVisualization), []ServiceDependency{DependsOn(Tracker, ServiceStarted)}},
		{Dashboard, NewNetworkSet(NetworkVisualization, NetworkProxy), []ServiceDependency{DependsOn(Metrics, ServiceHealthy)}},
		{TLSTerminator, NewNetworkSet(NetworkProxy), []ServiceDependency{DependsOn(Tracker, ServiceStarted)}},
		{Backup, NewNetworkSet(NetworkDatabase), []ServiceDependency{DependsOn(Database, ServiceHealthy)}},
	}
	for _, tt := range tests {
		t.Run(tt.service.Name(), func(t *testing.T) {
			st, ok := topo.Service(tt.service)
			require.True(t, ok)
			assert.True(t, tt.networks.Equal(st.Networks), "expected %s, got %s", tt.networks, st.Networks)
			assert.Equal(t, tt.deps, st.Dependencies)
			for _, dep := range tt.deps {
				assert.True(t, st.DependsOn(dep.Target))
			}
		})
	}

	tracker, _ := topo.Service(Tracker)
	assert.False(t, tracker.DependsOn(Metrics))

	var bindings []string
	for _, p := range topo.Ports() {
		bindings = append(bindings, p.ComposeBinding())
	}
	assert.Equal(t, []string{"6969:6969/udp", "7070:7070", "127.0.0.1:9090:9090", "3000:3000", "80:80", "443:443", "443:443/udp"}, bindings)
}

func TestBuildEveryCombination(t *testing.T) {
	for _, combo := range allCombinations() {
		b := bundleFor(combo...)
		topo, err := Build(b)

		if containsService(combo, Dashboard) && !containsService(combo, Metrics) {
			require.Error(t, err, "combo %v", combo)
			assert.Nil(t, topo)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, RuleDashboardRequiresMetrics, cfgErr.Rule)
			assert.Equal(t, []Service{Dashboard, Metrics}, cfgErr.Services)
			continue
		}
		require.NoError(t, err, "combo %v", combo)

		services := topo.Services()
		assert.Equal(t, Tracker, services[0], "tracker must always lead the service list")
		assert.Len(t, services, len(combo)+1)

		var union NetworkSet
		for _, st := range topo.ServiceTopologies() {
			union = union.Union(st.Networks)
			assert.False(t, st.DependsOn(st.Service), "combo %v: %s depends on itself", combo, st.Service)
			for _, dep := range st.Dependencies {
				assert.True(t, topo.Enabled().Contains(dep.Target),
					"combo %v: %s depends on disabled %s", combo, st.Service, dep.Target)
			}
		}
		assert.True(t, union.Equal(topo.NetworkSet()), "combo %v: networks %s != union %s", combo, topo.NetworkSet(), union)

		again, err := Build(b)
		require.NoError(t, err)
		assert.Equal(t, topo, again, "combo %v: build is not deterministic", combo)
	}
}

func TestBuildDeterministicJSON(t *testing.T) {
	b := bundleFor(optionalServices...)
	first, err := Build(b)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		topo, err := Build(b)
		require.NoError(t, err)
		got, err := json.Marshal(topo)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestBuildBackupConditional(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		topo, err := Build(bundleFor(Backup))
		require.NoError(t, err)

		backup, ok := topo.Service(Backup)
		require.True(t, ok)
		assert.True(t, backup.Networks.IsEmpty())
		assert.Empty(t, backup.Dependencies)
		assert.Empty(t, backup.Ports)
	})

	t.Run("with database", func(t *testing.T) {
		topo, err := Build(bundleFor(Database, Backup))
		require.NoError(t, err)

		backup, ok := topo.Service(Backup)
		require.True(t, ok)
		assert.True(t, backup.Networks.Equal(NewNetworkSet(NetworkDatabase)))
		assert.Equal(t, []ServiceDependency{DependsOn(Database, ServiceHealthy)}, backup.Dependencies)
	})
}

func TestBuildTLSRemovesDirectPorts(t *testing.T) {
	b := bundleFor(Metrics, Dashboard, TLSTerminator)
	b.Tracker.HTTPTrackers = []HTTPTracker{{Port: 7070, TLSDomain: "tracker.example.com"}, {Port: 7071}}
	b.Tracker.HTTPAPI.TLSDomain = "api.example.com"
	b.Dashboard.TLSDomain = "grafana.example.com"

	topo, err := Build(b)
	require.NoError(t, err)

	tracker, _ := topo.Service(Tracker)
	assert.Equal(t, []PortBinding{UDPPort(6969, "BitTorrent UDP announce"), TCPPort(7071, "HTTP tracker announce")}, tracker.Ports)

	grafana, _ := topo.Service(Dashboard)
	assert.Empty(t, grafana.Ports)

	caddy, _ := topo.Service(TLSTerminator)
	assert.Len(t, caddy.Ports, 3)
}

func TestTopologyAccessorsReturnCopies(t *testing.T) {
	topo, err := Build(bundleFor(Database, Backup))
	require.NoError(t, err)

	st, _ := topo.Service(Tracker)
	st.Ports[0].HostPort = 1
	st.Dependencies[0].Target = Backup

	again, _ := topo.Service(Tracker)
	assert.Equal(t, uint16(6969), again.Ports[0].HostPort)
	assert.Equal(t, Database, again.Dependencies[0].Target)

	services := topo.Services()
	services[0] = Backup
	assert.Equal(t, Tracker, topo.Services()[0])
}

type stubDeriver struct {
	ports    []PortBinding
	networks NetworkSet
	deps     []ServiceDependency
}

func (s stubDeriver) DerivePorts() []PortBinding                          { return s.ports }
func (s stubDeriver) DeriveNetworks(EnabledServices) NetworkSet             { return s.networks }
func (s stubDeriver) DeriveDependencies(EnabledServices) []ServiceDependency { return s.deps }

func TestAssembleReportsInternalErrors(t *testing.T) {
	tests := []struct {
		name     string
		enabled  EnabledServices
		derivers map[Service]Deriver
		check    func(t *testing.T, ie *InternalError)
	}{
		{
			name:    "dangling dependency",
			enabled: enabledOf(Tracker),
			derivers: map[Service]Deriver{
				Tracker: stubDeriver{deps: []ServiceDependency{DependsOn(Database, ServiceHealthy)}},
			},
			check: func(t *testing.T, ie *InternalError) {
				assert.Equal(t, Tracker, ie.Service)
				require.NotNil(t, ie.Target)
				assert.Equal(t, Database, *ie.Target)
			},
		},
		{
			name:    "self dependency",
			enabled: enabledOf(Tracker),
			derivers: map[Service]Deriver{
				Tracker: stubDeriver{deps: []ServiceDependency{DependsOn(Tracker, ServiceStarted)}},
			},
			check: func(t *testing.T, ie *InternalError) {
				assert.Contains(t, ie.Error(), "depends on itself")
			},
		},
		{
			name:    "cycle",
			enabled: enabledOf(Tracker, Metrics),
			derivers: map[Service]Deriver{
				Tracker: stubDeriver{deps: []ServiceDependency{DependsOn(Metrics, ServiceStarted)}},
				Metrics: stubDeriver{deps: []ServiceDependency{DependsOn(Tracker, ServiceStarted)}},
			},
			check: func(t *testing.T, ie *InternalError) {
				assert.Contains(t, ie.Error(), "dependency cycle")
			},
		},
		{
			name:     "missing configuration",
			enabled:  enabledOf(Tracker, Backup),
			derivers: map[Service]Deriver{Tracker: stubDeriver{}},
			check: func(t *testing.T, ie *InternalError) {
				assert.Equal(t, Backup, ie.Service)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := assemble(tt.enabled, func(s Service) (Deriver, bool) {
				d, ok := tt.derivers[s]
				return d, ok
			})
			require.Error(t, err)
			assert.Nil(t, topo)
			assert.True(t, errors.Is(err, ErrInternalConsistency))
			assert.False(t, errors.Is(err, ErrInvalidConfiguration))

			var ie *InternalError
			require.True(t, errors.As(err, &ie))
			tt.check(t, ie)
		})
	}
}

func TestCheckDetectsNetworkMismatch(t *testing.T) {
	topo := &Topology{
		enabled:  enabledOf(Tracker),
		services: []ServiceTopology{{Service: Tracker, Networks: NewNetworkSet(NetworkMetrics)}},
		networks: NewNetworkSet(NetworkDatabase),
	}
	err := topo.check()
	require.Error(t, err)

	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	require.NotNil(t, ie.Network)
	assert.Equal(t, NetworkMetrics, *ie.Network)

	topo.networks = NewNetworkSet(NetworkMetrics, NetworkProxy)
	err = topo.check()
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, NetworkProxy, *ie.Network)
}

func TestTopologyJSON(t *testing.T) {
	topo, err := Build(bundleFor(Metrics))
	require.NoError(t, err)

	data, err := json.Marshal(topo)
	require.NoError(t, err)

	var decoded struct {
		Services []struct {
			Service   string   `json:"service"`
			Networks  []string `json:"networks"`
			DependsOn []struct {
				Service   string `json:"service"`
				Condition string `json:"condition"`
			} `json:"depends_on"`
		} `json:"services"`
		Networks []string `json:"networks"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Services, 2)
	assert.Equal(t, "tracker", decoded.Services[0].Service)
	assert.Equal(t, []string{"metrics_network"}, decoded.Services[0].Networks)
	assert.Equal(t, "prometheus", decoded.Services[1].Service)
	require.Len(t, decoded.Services[1].DependsOn, 1)
	assert.Equal(t, "tracker", decoded.Services[1].DependsOn[0].Service)
	assert.Equal(t, "service_started", decoded.Services[1].DependsOn[0].Condition)
	assert.Equal(t, []string{"metrics_network"}, decoded.Networks)
}
