package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRejectsInvalidBundles(t *testing.T) {
	tests := []struct {
		name     string
		bundle   func() Bundle
		rule     string
		services []Service
	}{
		{
			name:     "dashboard without metrics",
			bundle:   func() Bundle { return bundleFor(Dashboard) },
			rule:     RuleDashboardRequiresMetrics,
			services: []Service{Dashboard, Metrics},
		},
		{
			name: "tracker tls without terminator",
			bundle: func() Bundle {
				b := bundleFor()
				b.Tracker.HTTPTrackers[0].TLSDomain = "tracker.example.com"
				return b
			},
			rule:     RuleTLSRequiresTerminator,
			services: []Service{Tracker, TLSTerminator},
		},
		{
			name: "dashboard tls without terminator",
			bundle: func() Bundle {
				b := bundleFor(Metrics, Dashboard)
				b.Dashboard.TLSDomain = "grafana.example.com"
				return b
			},
			rule:     RuleTLSRequiresTerminator,
			services: []Service{Dashboard, TLSTerminator},
		},
		{
			name: "tls section without any tls domain",
			bundle: func() Bundle {
				b := bundleFor(Metrics, TLSTerminator)
				b.Tracker.HTTPAPI.TLSDomain = ""
				return b
			},
			rule:     RuleTLSWithoutServices,
			services: []Service{TLSTerminator},
		},
		{
			name: "mysql driver without database",
			bundle: func() Bundle {
				b := bundleFor()
				b.Tracker.DatabaseDriver = DriverMySQL
				return b
			},
			rule:     RuleDatabaseDriverMismatch,
			services: []Service{Tracker, Database},
		},
		{
			name: "database with sqlite driver",
			bundle: func() Bundle {
				b := bundleFor(Database)
				b.Tracker.DatabaseDriver = DriverSQLite
				return b
			},
			rule:     RuleDatabaseDriverMismatch,
			services: []Service{Tracker, Database},
		},
		{
			name: "unknown driver",
			bundle: func() Bundle {
				b := bundleFor()
				b.Tracker.DatabaseDriver = "postgres"
				return b
			},
			rule:     RuleDatabaseDriverMismatch,
			services: []Service{Tracker},
		},
		{
			name: "tracker port clashes with itself",
			bundle: func() Bundle {
				b := bundleFor()
				b.Tracker.HTTPAPI.Port = 7070
				return b
			},
			rule:     RuleHostPortConflict,
			services: []Service{Tracker},
		},
		{
			name: "tracker http port clashes with caddy",
			bundle: func() Bundle {
				b := bundleFor(TLSTerminator)
				b.Tracker.HTTPTrackers[0].Port = 443
				return b
			},
			rule:     RuleHostPortConflict,
			services: []Service{Tracker, TLSTerminator},
		},
		{
			name: "tracker api clashes with grafana",
			bundle: func() Bundle {
				b := bundleFor(Metrics, Dashboard)
				b.Tracker.HTTPAPI.Port = 3000
				return b
			},
			rule:     RuleHostPortConflict,
			services: []Service{Tracker, Dashboard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := Build(tt.bundle())
			require.Error(t, err)
			assert.Nil(t, topo)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			assert.False(t, errors.Is(err, ErrInternalConsistency))

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.rule, cfgErr.Rule)
			assert.Equal(t, tt.services, cfgErr.Services)
			assert.NotEmpty(t, cfgErr.Remedy)
		})
	}
}

func TestPortConflictKeyIncludesProtocol(t *testing.T) {
	b := bundleFor(TLSTerminator)
	b.Tracker.UDPTrackers = []UDPTracker{{Port: 6969}, {Port: 7070}}

	_, err := Build(b)
	assert.NoError(t, err, "7070/udp and 7070/tcp do not conflict")
}

func TestConfigurationErrorMessage(t *testing.T) {
	_, err := Build(bundleFor(Dashboard))
	require.Error(t, err)
	assert.Equal(t,
		"dashboard-requires-metrics [grafana, prometheus]: grafana is enabled but prometheus is not, so the dashboard has no data source; remove the dashboard section or add a metrics section",
		err.Error())
}
