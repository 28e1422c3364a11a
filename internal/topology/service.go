// Package topology derives the container topology of a tracker deployment.
//
// A deployment is described by a Bundle of per-service configuration values.
// Build validates the cross-service rules, asks every enabled service for its
// ports, networks and startup dependencies, and assembles an immutable
// Topology. The package performs no I/O and keeps no state, so Build may be
// called concurrently.
package topology

import "fmt"

// Service identifies one deployable unit of the stack
type Service int

const (
	// Tracker is the BitTorrent tracker. It is always enabled.
	Tracker Service = iota
	// Database is the MySQL server backing the tracker
	Database
	// Metrics is the Prometheus server scraping the tracker
	Metrics
	// Dashboard is the Grafana instance reading from Prometheus
	Dashboard
	// TLSTerminator is the Caddy reverse proxy terminating TLS
	TLSTerminator
	// Backup is the scheduled backup job
	Backup
)

var allServices = []Service{Tracker, Database, Metrics, Dashboard, TLSTerminator, Backup}

// AllServices returns every service in canonical order
func AllServices() []Service {
	out := make([]Service, len(allServices))
	copy(out, allServices)
	return out
}

// Name returns the service name used in the compose file
func (s Service) Name() string {
	switch s {
	case Tracker:
		return "tracker"
	case Database:
		return "mysql"
	case Metrics:
		return "prometheus"
	case Dashboard:
		return "grafana"
	case TLSTerminator:
		return "caddy"
	case Backup:
		return "backup"
	default:
		panic(fmt.Sprintf("topology: unknown service %d", int(s)))
	}
}

// String implements fmt.Stringer
func (s Service) String() string {
	return s.Name()
}

// MarshalText renders the service as its compose name
func (s Service) MarshalText() ([]byte, error) {
	return []byte(s.Name()), nil
}

// ParseService resolves a compose service name back to a Service
func ParseService(name string) (Service, error) {
	for _, s := range allServices {
		if s.Name() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown service %q", name)
}
