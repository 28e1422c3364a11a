package topology

// EnabledServices answers which services take part in a deployment.
// It is a projection of a Bundle and is never modified once built.
type EnabledServices struct {
	members uint8
}

// FromBundle projects the bundle onto the set of enabled services.
// The tracker is always part of the result.
func FromBundle(b Bundle) EnabledServices {
	services := []Service{Tracker}
	if b.Database != nil {
		services = append(services, Database)
	}
	if b.Metrics != nil {
		services = append(services, Metrics)
	}
	if b.Dashboard != nil {
		services = append(services, Dashboard)
	}
	if b.TLS != nil {
		services = append(services, TLSTerminator)
	}
	if b.Backup != nil {
		services = append(services, Backup)
	}
	return enabledOf(services...)
}

// enabledOf builds a view from an explicit list. Tests use it to drive
// derivations with combinations a Bundle would reject.
func enabledOf(services ...Service) EnabledServices {
	var e EnabledServices
	for _, s := range services {
		_ = s.Name()
		e.members |= 1 << uint(s)
	}
	return e
}

// Contains reports whether s is enabled
func (e EnabledServices) Contains(s Service) bool {
	return e.members&(1<<uint(s)) != 0
}

// Services lists the enabled services in canonical order
func (e EnabledServices) Services() []Service {
	out := make([]Service, 0, len(allServices))
	for _, s := range allServices {
		if e.Contains(s) {
			out = append(out, s)
		}
	}
	return out
}
