package topology

import "fmt"

// Bundle groups the per-service configuration values of one deployment.
// The tracker is mandatory; a nil optional section means the service is
// not deployed.
type Bundle struct {
	Tracker   TrackerConfig
	Database  *DatabaseConfig
	Metrics   *MetricsConfig
	Dashboard *DashboardConfig
	TLS       *TLSConfig
	Backup    *BackupConfig
}

// deriver returns the configuration value that derives s, or false when s
// is not present in the bundle
func (b Bundle) deriver(s Service) (Deriver, bool) {
	switch s {
	case Tracker:
		return b.Tracker, true
	case Database:
		if b.Database == nil {
			return nil, false
		}
		return *b.Database, true
	case Metrics:
		if b.Metrics == nil {
			return nil, false
		}
		return *b.Metrics, true
	case Dashboard:
		if b.Dashboard == nil {
			return nil, false
		}
		return *b.Dashboard, true
	case TLSTerminator:
		if b.TLS == nil {
			return nil, false
		}
		return *b.TLS, true
	case Backup:
		if b.Backup == nil {
			return nil, false
		}
		return *b.Backup, true
	default:
		panic(fmt.Sprintf("topology: unknown service %d", int(s)))
	}
}
