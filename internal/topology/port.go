package topology

import (
	"fmt"
	"net/netip"
)

// Protocol is the transport protocol of a port binding
type Protocol int

const (
	TCP Protocol = iota
	UDP
)

// String returns "tcp" or "udp"
func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	default:
		panic(fmt.Sprintf("topology: unknown protocol %d", int(p)))
	}
}

// MarshalText renders the protocol name
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PortBinding publishes a container port on the host
type PortBinding struct {
	Protocol      Protocol   `json:"protocol"`
	HostPort      uint16     `json:"host_port"`
	ContainerPort uint16     `json:"container_port"`
	HostIP        netip.Addr `json:"host_ip,omitzero"`
	Description   string     `json:"description,omitempty"`
}

// TCPPort binds the same TCP port on every host interface
func TCPPort(port uint16, description string) PortBinding {
	return PortBinding{Protocol: TCP, HostPort: port, ContainerPort: port, Description: description}
}

// UDPPort binds the same UDP port on every host interface
func UDPPort(port uint16, description string) PortBinding {
	return PortBinding{Protocol: UDP, HostPort: port, ContainerPort: port, Description: description}
}

// LocalhostTCPPort binds a TCP port on the loopback interface only
func LocalhostTCPPort(port uint16, description string) PortBinding {
	b := TCPPort(port, description)
	b.HostIP = netip.AddrFrom4([4]byte{127, 0, 0, 1})
	return b
}

// Equal reports whether two bindings publish the same container port on the
// same host port and protocol. Host IP and description do not take part.
func (b PortBinding) Equal(other PortBinding) bool {
	return b.Protocol == other.Protocol &&
		b.HostPort == other.HostPort &&
		b.ContainerPort == other.ContainerPort
}

// ComposeBinding formats the binding for a compose ports list,
// e.g. "7070:7070", "6969:6969/udp" or "127.0.0.1:9090:9090".
func (b PortBinding) ComposeBinding() string {
	suffix := ""
	if b.Protocol == UDP {
		suffix = "/udp"
	}
	if b.HostIP.IsValid() {
		return fmt.Sprintf("%s:%d:%d%s", b.HostIP, b.HostPort, b.ContainerPort, suffix)
	}
	return fmt.Sprintf("%d:%d%s", b.HostPort, b.ContainerPort, suffix)
}

// String implements fmt.Stringer
func (b PortBinding) String() string {
	return b.ComposeBinding()
}
