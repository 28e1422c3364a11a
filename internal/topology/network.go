package topology

import (
	"fmt"
	"sort"
	"strings"
)

// Network is a logical compose network used to isolate services
type Network int

const (
	// NetworkDatabase connects the database to the services that read or dump it
	NetworkDatabase Network = iota
	// NetworkMetrics lets Prometheus scrape the tracker
	NetworkMetrics
	// NetworkVisualization lets Grafana query Prometheus
	NetworkVisualization
	// NetworkProxy lets Caddy reach the services it fronts
	NetworkProxy
)

var allNetworks = []Network{NetworkDatabase, NetworkMetrics, NetworkVisualization, NetworkProxy}

// AllNetworks returns every network in declaration order
func AllNetworks() []Network {
	out := make([]Network, len(allNetworks))
	copy(out, allNetworks)
	return out
}

// Name returns the network name used in the compose file
func (n Network) Name() string {
	switch n {
	case NetworkDatabase:
		return "database_network"
	case NetworkMetrics:
		return "metrics_network"
	case NetworkVisualization:
		return "visualization_network"
	case NetworkProxy:
		return "proxy_network"
	default:
		panic(fmt.Sprintf("topology: unknown network %d", int(n)))
	}
}

// Driver returns the compose network driver. Every network is a bridge.
func (n Network) Driver() string {
	switch n {
	case NetworkDatabase, NetworkMetrics, NetworkVisualization, NetworkProxy:
		return "bridge"
	default:
		panic(fmt.Sprintf("topology: unknown network %d", int(n)))
	}
}

// String implements fmt.Stringer
func (n Network) String() string {
	return n.Name()
}

// MarshalText renders the network as its compose name
func (n Network) MarshalText() ([]byte, error) {
	return []byte(n.Name()), nil
}

// NetworkSet is an unordered set of networks.
// The zero value is an empty set ready to use.
type NetworkSet struct {
	members uint8
}

// NewNetworkSet builds a set from the given networks, dropping duplicates
func NewNetworkSet(networks ...Network) NetworkSet {
	var s NetworkSet
	for _, n := range networks {
		s = s.Add(n)
	}
	return s
}

func bit(n Network) uint8 {
	// Name panics on values outside the catalog
	_ = n.Name()
	return 1 << uint(n)
}

// Add returns a set that also contains n
func (s NetworkSet) Add(n Network) NetworkSet {
	return NetworkSet{members: s.members | bit(n)}
}

// Contains reports whether n is in the set
func (s NetworkSet) Contains(n Network) bool {
	return s.members&bit(n) != 0
}

// Union returns the networks present in either set
func (s NetworkSet) Union(other NetworkSet) NetworkSet {
	return NetworkSet{members: s.members | other.members}
}

// Len returns the number of networks in the set
func (s NetworkSet) Len() int {
	count := 0
	for _, n := range allNetworks {
		if s.Contains(n) {
			count++
		}
	}
	return count
}

// IsEmpty reports whether the set has no members
func (s NetworkSet) IsEmpty() bool {
	return s.members == 0
}

// Equal reports whether both sets hold the same networks
func (s NetworkSet) Equal(other NetworkSet) bool {
	return s.members == other.members
}

// Sorted returns the members ordered by compose name
func (s NetworkSet) Sorted() []Network {
	out := make([]Network, 0, len(allNetworks))
	for _, n := range allNetworks {
		if s.Contains(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// String renders the set as {a, b}
func (s NetworkSet) String() string {
	names := make([]string, 0, len(allNetworks))
	for _, n := range s.Sorted() {
		names = append(names, n.Name())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// MarshalJSON renders the set as a sorted array of names
func (s NetworkSet) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range s.Sorted() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q", n.Name())
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}
