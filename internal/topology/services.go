package topology

// DatabaseConfig configures the MySQL service
type DatabaseConfig struct {
	Name         string
	User         string
	Password     string
	RootPassword string
	Port         uint16
}

// DerivePorts returns nothing: MySQL is only reachable on its network
func (c DatabaseConfig) DerivePorts() []PortBinding {
	return []PortBinding{}
}

// DeriveNetworks always joins the database network
func (c DatabaseConfig) DeriveNetworks(EnabledServices) NetworkSet {
	return NewNetworkSet(NetworkDatabase)
}

// DeriveDependencies returns nothing: MySQL starts first
func (c DatabaseConfig) DeriveDependencies(EnabledServices) []ServiceDependency {
	return []ServiceDependency{}
}

// MetricsConfig configures Prometheus
type MetricsConfig struct {
	ScrapeIntervalSeconds uint32
}

// MetricsPort is the Prometheus web port
const MetricsPort uint16 = 9090

// DerivePorts publishes the Prometheus UI on localhost only
func (c MetricsConfig) DerivePorts() []PortBinding {
	return []PortBinding{LocalhostTCPPort(MetricsPort, "Prometheus metrics (localhost only)")}
}

// DeriveNetworks joins the metrics network and, when Grafana is deployed,
// the visualization network it queries through
func (c MetricsConfig) DeriveNetworks(enabled EnabledServices) NetworkSet {
	networks := NewNetworkSet(NetworkMetrics)
	if enabled.Contains(Dashboard) {
		networks = networks.Add(NetworkVisualization)
	}
	return networks
}

// DeriveDependencies waits for the tracker to start before scraping
func (c MetricsConfig) DeriveDependencies(EnabledServices) []ServiceDependency {
	return []ServiceDependency{DependsOn(Tracker, ServiceStarted)}
}

// DashboardConfig configures Grafana
type DashboardConfig struct {
	AdminUser     string
	AdminPassword string
	TLSDomain     string
}

// DashboardPort is the Grafana web port
const DashboardPort uint16 = 3000

// HasTLS reports whether Grafana is fronted by the TLS terminator
func (c DashboardConfig) HasTLS() bool {
	return c.TLSDomain != ""
}

// DerivePorts publishes Grafana directly only when Caddy is not fronting it
func (c DashboardConfig) DerivePorts() []PortBinding {
	if c.HasTLS() {
		return []PortBinding{}
	}
	return []PortBinding{TCPPort(DashboardPort, "Grafana dashboard")}
}

// DeriveNetworks joins the visualization network and the proxy network
// when Caddy is deployed
func (c DashboardConfig) DeriveNetworks(enabled EnabledServices) NetworkSet {
	networks := NewNetworkSet(NetworkVisualization)
	if enabled.Contains(TLSTerminator) {
		networks = networks.Add(NetworkProxy)
	}
	return networks
}

// DeriveDependencies waits for Prometheus. Validation guarantees Metrics is
// enabled whenever a dashboard is configured.
func (c DashboardConfig) DeriveDependencies(EnabledServices) []ServiceDependency {
	return []ServiceDependency{DependsOn(Metrics, ServiceHealthy)}
}

// TLSConfig configures the Caddy reverse proxy
type TLSConfig struct {
	AdminEmail string
	UseStaging bool
}

// DerivePorts publishes HTTP for ACME challenges, HTTPS and HTTP/3
func (c TLSConfig) DerivePorts() []PortBinding {
	return []PortBinding{
		TCPPort(80, "HTTP (ACME HTTP-01 challenge)"),
		TCPPort(443, "HTTPS"),
		UDPPort(443, "HTTP/3 (QUIC)"),
	}
}

// DeriveNetworks always joins the proxy network
func (c TLSConfig) DeriveNetworks(EnabledServices) NetworkSet {
	return NewNetworkSet(NetworkProxy)
}

// DeriveDependencies waits for the tracker it proxies to start
func (c TLSConfig) DeriveDependencies(EnabledServices) []ServiceDependency {
	return []ServiceDependency{DependsOn(Tracker, ServiceStarted)}
}

// BackupConfig configures the scheduled backup job
type BackupConfig struct {
	Schedule      string
	RetentionDays uint32
}

// DerivePorts returns nothing: the backup job is not reachable
func (c BackupConfig) DerivePorts() []PortBinding {
	return []PortBinding{}
}

// DeriveNetworks joins the database network when MySQL is deployed.
// SQLite backups read a file and need no network.
func (c BackupConfig) DeriveNetworks(enabled EnabledServices) NetworkSet {
	if enabled.Contains(Database) {
		return NewNetworkSet(NetworkDatabase)
	}
	return NetworkSet{}
}

// DeriveDependencies waits for MySQL to be healthy when it is deployed
func (c BackupConfig) DeriveDependencies(enabled EnabledServices) []ServiceDependency {
	if enabled.Contains(Database) {
		return []ServiceDependency{DependsOn(Database, ServiceHealthy)}
	}
	return []ServiceDependency{}
}
