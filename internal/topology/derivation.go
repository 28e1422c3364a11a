package topology

// PortDeriver computes the host ports a service publishes.
// Ports depend only on the service's own configuration.
type PortDeriver interface {
	DerivePorts() []PortBinding
}

// NetworkDeriver computes the networks a service joins. The result may
// depend on which other services are enabled, never on what they derive.
type NetworkDeriver interface {
	DeriveNetworks(enabled EnabledServices) NetworkSet
}

// DependencyDeriver computes what a service waits for before starting
type DependencyDeriver interface {
	DeriveDependencies(enabled EnabledServices) []ServiceDependency
}

// Deriver is implemented by every per-service configuration value
type Deriver interface {
	PortDeriver
	NetworkDeriver
	DependencyDeriver
}

var (
	_ Deriver = TrackerConfig{}
	_ Deriver = DatabaseConfig{}
	_ Deriver = MetricsConfig{}
	_ Deriver = DashboardConfig{}
	_ Deriver = TLSConfig{}
	_ Deriver = BackupConfig{}
)
