package topology

import (
	"encoding/json"
	"fmt"
)

// ServiceTopology is the derived placement of one enabled service
type ServiceTopology struct {
	Service      Service             `json:"service"`
	Networks     NetworkSet          `json:"networks"`
	Ports        []PortBinding       `json:"ports"`
	Dependencies []ServiceDependency `json:"depends_on"`
}

func (st ServiceTopology) clone() ServiceTopology {
	out := st
	out.Ports = append([]PortBinding(nil), st.Ports...)
	out.Dependencies = append([]ServiceDependency(nil), st.Dependencies...)
	if out.Ports == nil {
		out.Ports = []PortBinding{}
	}
	if out.Dependencies == nil {
		out.Dependencies = []ServiceDependency{}
	}
	return out
}

// DependsOn reports whether the service waits for target
func (st ServiceTopology) DependsOn(target Service) bool {
	for _, d := range st.Dependencies {
		if d.Target == target {
			return true
		}
	}
	return false
}

// Topology is the derived layout of a whole deployment. It is built once
// by Build and never changes afterwards.
type Topology struct {
	enabled  EnabledServices
	services []ServiceTopology
	networks NetworkSet
}

// Build validates the bundle and derives the topology of every enabled
// service. It returns a *ConfigurationError when the bundle breaks a
// cross-service rule and an *InternalError when a derivation produced an
// inconsistent result. No partial topology is ever returned.
func Build(b Bundle) (*Topology, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	return assemble(FromBundle(b), b.deriver)
}

// assemble derives every enabled service through lookup and checks the
// post-conditions of the result
func assemble(enabled EnabledServices, lookup func(Service) (Deriver, bool)) (*Topology, error) {
	t := &Topology{enabled: enabled}
	for _, svc := range enabled.Services() {
		d, ok := lookup(svc)
		if !ok {
			return nil, &InternalError{Service: svc, Detail: "service is enabled but has no configuration"}
		}
		st := ServiceTopology{
			Service:      svc,
			Ports:        d.DerivePorts(),
			Networks:     d.DeriveNetworks(enabled),
			Dependencies: d.DeriveDependencies(enabled),
		}
		t.services = append(t.services, st.clone())
		t.networks = t.networks.Union(st.Networks)
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// check asserts the derivation post-conditions: every dependency targets an
// enabled service, nothing depends on itself or forms a cycle, and the
// global network list is exactly the union of the per-service sets.
func (t *Topology) check() error {
	for _, st := range t.services {
		if st.DependsOn(st.Service) {
			self := st.Service
			return &InternalError{
				Service: st.Service,
				Target:  &self,
				Detail:  "depends on itself",
			}
		}
		for _, dep := range st.Dependencies {
			target := dep.Target
			if !t.enabled.Contains(target) {
				return &InternalError{
					Service: st.Service,
					Target:  &target,
					Detail:  "depends on a service that is not enabled",
				}
			}
		}
	}
	if err := t.checkAcyclic(); err != nil {
		return err
	}

	var union NetworkSet
	for _, st := range t.services {
		for _, n := range st.Networks.Sorted() {
			if !t.networks.Contains(n) {
				network := n
				return &InternalError{
					Service: st.Service,
					Network: &network,
					Detail:  "joins a network missing from the global network list",
				}
			}
		}
		union = union.Union(st.Networks)
	}
	for _, n := range t.networks.Sorted() {
		if !union.Contains(n) {
			network := n
			return &InternalError{
				Service: Tracker,
				Network: &network,
				Detail:  "global network list declares a network no service joins",
			}
		}
	}
	return nil
}

func (t *Topology) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Service]int, len(t.services))
	var visit func(s Service) error
	visit = func(s Service) error {
		switch state[s] {
		case visiting:
			target := s
			return &InternalError{Service: s, Target: &target, Detail: "dependency cycle"}
		case done:
			return nil
		}
		state[s] = visiting
		st, _ := t.Service(s)
		for _, dep := range st.Dependencies {
			if err := visit(dep.Target); err != nil {
				return err
			}
		}
		state[s] = done
		return nil
	}
	for _, st := range t.services {
		if err := visit(st.Service); err != nil {
			return err
		}
	}
	return nil
}

// Enabled returns the enabled-services view the topology was derived from
func (t *Topology) Enabled() EnabledServices {
	return t.enabled
}

// Services lists the enabled services in canonical order
func (t *Topology) Services() []Service {
	out := make([]Service, len(t.services))
	for i, st := range t.services {
		out[i] = st.Service
	}
	return out
}

// Service returns the derived placement of s, or false when s is not enabled
func (t *Topology) Service(s Service) (ServiceTopology, bool) {
	for _, st := range t.services {
		if st.Service == s {
			return st.clone(), true
		}
	}
	return ServiceTopology{}, false
}

// ServiceTopologies returns the placement of every enabled service in
// canonical order
func (t *Topology) ServiceTopologies() []ServiceTopology {
	out := make([]ServiceTopology, len(t.services))
	for i, st := range t.services {
		out[i] = st.clone()
	}
	return out
}

// Networks returns the global network declaration list sorted by name
func (t *Topology) Networks() []Network {
	return t.networks.Sorted()
}

// NetworkSet returns the global networks as a set
func (t *Topology) NetworkSet() NetworkSet {
	return t.networks
}

// Ports returns every published binding in canonical service order
func (t *Topology) Ports() []PortBinding {
	var out []PortBinding
	for _, st := range t.services {
		out = append(out, st.Ports...)
	}
	return out
}

// String summarises the topology for logs
func (t *Topology) String() string {
	return fmt.Sprintf("topology{services: %v, networks: %s}", t.Services(), t.networks)
}

type topologyJSON struct {
	Services []ServiceTopology `json:"services"`
	Networks NetworkSet        `json:"networks"`
}

// MarshalJSON renders the services and the global network list
func (t *Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(topologyJSON{Services: t.ServiceTopologies(), Networks: t.networks})
}
