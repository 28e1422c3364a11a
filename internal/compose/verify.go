package compose

import (
	"fmt"
	"sort"

	"trackerdeploy/internal/topology"
)

// Verify compares a compose file with the topology it should implement and
// returns one line per disagreement. An empty result means the file
// publishes the same ports, joins the same networks and waits on the same
// conditions as the topology describes.
func Verify(file *ComposeFile, t *topology.Topology) []string {
	var problems []string

	expected := make(map[string]topology.ServiceTopology)
	for _, st := range t.ServiceTopologies() {
		expected[st.Service.Name()] = st
	}

	for _, name := range ServiceOrder(file) {
		if _, ok := expected[name]; !ok {
			problems = append(problems, fmt.Sprintf("service %s is not part of the topology", name))
		}
	}

	for _, st := range t.ServiceTopologies() {
		name := st.Service.Name()
		svc, ok := file.Services[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("service %s is missing", name))
			continue
		}
		problems = append(problems, verifyPorts(name, svc, st)...)
		problems = append(problems, verifyNetworks(name, svc, st)...)
		problems = append(problems, verifyDependencies(name, svc, st)...)
	}

	declared := make(map[string]bool, len(file.Networks))
	for name, n := range file.Networks {
		declared[name] = true
		network, ok := networkByName(name)
		if !ok || !t.NetworkSet().Contains(network) {
			problems = append(problems, fmt.Sprintf("network %s is declared but not used by the topology", name))
			continue
		}
		if n != nil && n.Driver != "" && n.Driver != network.Driver() {
			problems = append(problems, fmt.Sprintf("network %s uses driver %s, expected %s", name, n.Driver, network.Driver()))
		}
	}
	for _, n := range t.Networks() {
		if !declared[n.Name()] {
			problems = append(problems, fmt.Sprintf("network %s is not declared", n.Name()))
		}
	}

	return problems
}

func verifyPorts(name string, svc *ComposeService, st topology.ServiceTopology) []string {
	var problems []string

	want := make(map[string]bool, len(st.Ports))
	for _, p := range st.Ports {
		want[p.ComposeBinding()] = true
	}
	got := make(map[string]bool, len(svc.Ports))
	for _, raw := range svc.Ports {
		mapping, err := parsePortString(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("service %s: %v", name, err))
			continue
		}
		got[mapping.String()] = true
	}

	for _, p := range sortedKeys(want) {
		if !got[p] {
			problems = append(problems, fmt.Sprintf("service %s does not publish %s", name, p))
		}
	}
	for _, p := range sortedKeys(got) {
		if !want[p] {
			problems = append(problems, fmt.Sprintf("service %s publishes unexpected port %s", name, p))
		}
	}
	return problems
}

func verifyNetworks(name string, svc *ComposeService, st topology.ServiceTopology) []string {
	var problems []string

	got := make(map[string]bool, len(svc.Networks))
	for _, n := range svc.Networks {
		got[n] = true
	}
	for _, n := range st.Networks.Sorted() {
		if !got[n.Name()] {
			problems = append(problems, fmt.Sprintf("service %s is not on network %s", name, n.Name()))
		}
		delete(got, n.Name())
	}
	for _, n := range sortedKeys(got) {
		problems = append(problems, fmt.Sprintf("service %s joins unexpected network %s", name, n))
	}
	return problems
}

func verifyDependencies(name string, svc *ComposeService, st topology.ServiceTopology) []string {
	var problems []string

	got := make(map[string]string, len(svc.DependsOn))
	for target, cond := range svc.DependsOn {
		got[target] = cond.Condition
	}
	for _, dep := range st.Dependencies {
		target := dep.Target.Name()
		cond, ok := got[target]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("service %s does not wait for %s", name, target))
		case cond != dep.Condition.ComposeName():
			problems = append(problems, fmt.Sprintf("service %s waits for %s with %s, expected %s",
				name, target, cond, dep.Condition.ComposeName()))
		}
		delete(got, target)
	}
	for _, target := range sortedKeys(got) {
		problems = append(problems, fmt.Sprintf("service %s has unexpected dependency on %s", name, target))
	}
	return problems
}

func networkByName(name string) (topology.Network, bool) {
	for _, n := range topology.AllNetworks() {
		if n.Name() == name {
			return n, true
		}
	}
	return 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
