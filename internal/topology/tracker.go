package topology

// DatabaseDriver selects the tracker's storage backend
type DatabaseDriver string

const (
	DriverSQLite DatabaseDriver = "sqlite3"
	DriverMySQL  DatabaseDriver = "mysql"
)

// UDPTracker is a UDP announce endpoint
type UDPTracker struct {
	Port uint16
}

// HTTPTracker is an HTTP announce endpoint. A non-empty TLSDomain means
// the endpoint is served through the TLS terminator.
type HTTPTracker struct {
	Port      uint16
	TLSDomain string
}

// HasTLS reports whether the endpoint is fronted by the TLS terminator
func (h HTTPTracker) HasTLS() bool {
	return h.TLSDomain != ""
}

// HTTPAPI is the tracker's management API
type HTTPAPI struct {
	Port       uint16
	TLSDomain  string
	AdminToken string
}

// HasTLS reports whether the API is fronted by the TLS terminator
func (a HTTPAPI) HasTLS() bool {
	return a.TLSDomain != ""
}

// TrackerConfig is the mandatory tracker section of a deployment
type TrackerConfig struct {
	UDPTrackers     []UDPTracker
	HTTPTrackers    []HTTPTracker
	HTTPAPI         HTTPAPI
	HealthCheckPort uint16
	DatabaseDriver  DatabaseDriver
	Private         bool
}

// UsesTLS reports whether any tracker endpoint needs the TLS terminator
func (c TrackerConfig) UsesTLS() bool {
	if c.HTTPAPI.HasTLS() {
		return true
	}
	for _, h := range c.HTTPTrackers {
		if h.HasTLS() {
			return true
		}
	}
	return false
}

// DerivePorts publishes every UDP endpoint, the HTTP endpoints without TLS
// and the API when it has no TLS. TLS endpoints are reached through Caddy.
// The health check API stays inside the container.
func (c TrackerConfig) DerivePorts() []PortBinding {
	ports := make([]PortBinding, 0, len(c.UDPTrackers)+len(c.HTTPTrackers)+1)
	for _, u := range c.UDPTrackers {
		ports = append(ports, UDPPort(u.Port, "BitTorrent UDP announce"))
	}
	for _, h := range c.HTTPTrackers {
		if h.HasTLS() {
			continue
		}
		ports = append(ports, TCPPort(h.Port, "HTTP tracker announce"))
	}
	if !c.HTTPAPI.HasTLS() {
		ports = append(ports, TCPPort(c.HTTPAPI.Port, "HTTP API (stats/whitelist)"))
	}
	return ports
}

// DeriveNetworks joins the network of every optional peer the tracker talks to
func (c TrackerConfig) DeriveNetworks(enabled EnabledServices) NetworkSet {
	var networks NetworkSet
	if enabled.Contains(Metrics) {
		networks = networks.Add(NetworkMetrics)
	}
	if enabled.Contains(Database) {
		networks = networks.Add(NetworkDatabase)
	}
	if enabled.Contains(TLSTerminator) {
		networks = networks.Add(NetworkProxy)
	}
	return networks
}

// DeriveDependencies waits for MySQL to be healthy when it is deployed
func (c TrackerConfig) DeriveDependencies(enabled EnabledServices) []ServiceDependency {
	if enabled.Contains(Database) {
		return []ServiceDependency{DependsOn(Database, ServiceHealthy)}
	}
	return []ServiceDependency{}
}
