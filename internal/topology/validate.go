package topology

import "fmt"

// validate checks the cross-service rules of a bundle. It runs before any
// network or dependency derivation and stops at the first violation.
func validate(b Bundle) error {
	if b.Dashboard != nil && b.Metrics == nil {
		return &ConfigurationError{
			Rule:     RuleDashboardRequiresMetrics,
			Services: []Service{Dashboard, Metrics},
			Detail:   "grafana is enabled but prometheus is not, so the dashboard has no data source",
			Remedy:   "remove the dashboard section or add a metrics section",
		}
	}

	svc, usesTLS := tlsUser(b)
	if b.TLS == nil && usesTLS {
		return &ConfigurationError{
			Rule:     RuleTLSRequiresTerminator,
			Services: []Service{svc, TLSTerminator},
			Detail:   fmt.Sprintf("%s has a TLS domain but no TLS terminator is configured", svc),
			Remedy:   "add a tls section or remove the tls_domain settings",
		}
	}
	if b.TLS != nil && !usesTLS {
		return &ConfigurationError{
			Rule:     RuleTLSWithoutServices,
			Services: []Service{TLSTerminator},
			Detail:   "a tls section is configured but no service has a TLS domain",
			Remedy:   "set tls_domain on a tracker HTTP endpoint, the API or the dashboard, or remove the tls section",
		}
	}

	switch b.Tracker.DatabaseDriver {
	case DriverMySQL:
		if b.Database == nil {
			return &ConfigurationError{
				Rule:     RuleDatabaseDriverMismatch,
				Services: []Service{Tracker, Database},
				Detail:   "tracker uses the mysql driver but no database section is configured",
				Remedy:   "add a database section or switch the tracker to the sqlite3 driver",
			}
		}
	case DriverSQLite, "":
		if b.Database != nil {
			return &ConfigurationError{
				Rule:     RuleDatabaseDriverMismatch,
				Services: []Service{Tracker, Database},
				Detail:   "a database section is configured but the tracker uses the sqlite3 driver",
				Remedy:   "set the tracker database driver to mysql or remove the database section",
			}
		}
	default:
		return &ConfigurationError{
			Rule:     RuleDatabaseDriverMismatch,
			Services: []Service{Tracker},
			Detail:   fmt.Sprintf("unknown database driver %q", b.Tracker.DatabaseDriver),
			Remedy:   "use sqlite3 or mysql",
		}
	}

	return checkHostPorts(b)
}

// tlsUser returns the first service that asks for a TLS domain
func tlsUser(b Bundle) (Service, bool) {
	if b.Tracker.UsesTLS() {
		return Tracker, true
	}
	if b.Dashboard != nil && b.Dashboard.HasTLS() {
		return Dashboard, true
	}
	return 0, false
}

type hostPortKey struct {
	port     uint16
	protocol Protocol
}

// checkHostPorts rejects two bindings of the same host port and protocol.
// Ports depend only on each service's own configuration, so this is safe
// to run before the rest of the derivation.
func checkHostPorts(b Bundle) error {
	owners := make(map[hostPortKey]Service)
	for _, svc := range allServices {
		d, ok := b.deriver(svc)
		if !ok {
			continue
		}
		for _, p := range d.DerivePorts() {
			key := hostPortKey{port: p.HostPort, protocol: p.Protocol}
			if prev, taken := owners[key]; taken {
				services := []Service{prev}
				if prev != svc {
					services = append(services, svc)
				}
				return &ConfigurationError{
					Rule:     RuleHostPortConflict,
					Services: services,
					Detail:   fmt.Sprintf("host port %d/%s is bound more than once", p.HostPort, p.Protocol),
					Remedy:   "give each published endpoint its own port",
				}
			}
			owners[key] = svc
		}
	}
	return nil
}
