package compose

import (
	"fmt"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComposeFile represents a docker-compose.yml file
type ComposeFile struct {
	Name     string                     `yaml:"name,omitempty"`
	Services map[string]*ComposeService `yaml:"services"`
	Networks map[string]*ComposeNetwork `yaml:"networks,omitempty"`
	Volumes  map[string]*ComposeVolume  `yaml:"volumes,omitempty"`
}

// ComposeService represents a service in docker-compose.yml
type ComposeService struct {
	Name          string        `yaml:"-"`
	Image         string        `yaml:"image"`
	ContainerName string        `yaml:"container_name,omitempty"`
	Restart       string        `yaml:"restart,omitempty"`
	Command       StringOrSlice `yaml:"command,omitempty"`
	Environment   Environment   `yaml:"environment,omitempty"`
	Volumes       []string      `yaml:"volumes,omitempty"`
	Ports         []string      `yaml:"ports,omitempty"`
	Networks      StringOrSlice `yaml:"networks,omitempty"`
	DependsOn     DependsOn     `yaml:"depends_on,omitempty"`
	Healthcheck   *Healthcheck  `yaml:"healthcheck,omitempty"`
	Logging       *Logging      `yaml:"logging,omitempty"`
}

// Healthcheck represents a container health check
type Healthcheck struct {
	Test        []string `yaml:"test"`
	Interval    string   `yaml:"interval,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	Retries     int      `yaml:"retries,omitempty"`
	StartPeriod string   `yaml:"start_period,omitempty"`
}

// Logging represents the logging driver options
type Logging struct {
	Driver  string            `yaml:"driver"`
	Options map[string]string `yaml:"options,omitempty"`
}

// ComposeNetwork represents a network definition
type ComposeNetwork struct {
	Driver string `yaml:"driver"`
}

// ComposeVolume represents a volume definition
type ComposeVolume struct {
	Driver string `yaml:"driver,omitempty"`
}

// PortMapping represents a parsed port mapping
type PortMapping struct {
	HostIP        netip.Addr
	HostPort      int
	ContainerPort int
	Protocol      string // tcp/udp
}

// String formats the mapping the way the renderer writes it
func (p PortMapping) String() string {
	suffix := ""
	if p.Protocol == "udp" {
		suffix = "/udp"
	}
	if p.HostIP.IsValid() {
		return fmt.Sprintf("%s:%d:%d%s", p.HostIP, p.HostPort, p.ContainerPort, suffix)
	}
	return fmt.Sprintf("%d:%d%s", p.HostPort, p.ContainerPort, suffix)
}

// StringOrSlice can be either a string or a slice of strings
type StringOrSlice []string

func (s *StringOrSlice) UnmarshalYAML(value *yaml.Node) error {
	var multi []string
	err := value.Decode(&multi)
	if err != nil {
		var single string
		err := value.Decode(&single)
		if err != nil {
			return err
		}
		*s = []string{single}
	} else {
		*s = multi
	}
	return nil
}

// Environment can be either a map or a slice of KEY=VALUE strings
type Environment map[string]string

func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	*e = make(map[string]string)

	var envMap map[string]string
	if err := value.Decode(&envMap); err == nil {
		for k, v := range envMap {
			(*e)[k] = v
		}
		return nil
	}

	var envSlice []string
	if err := value.Decode(&envSlice); err == nil {
		for _, env := range envSlice {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				(*e)[parts[0]] = parts[1]
			} else {
				(*e)[parts[0]] = ""
			}
		}
		return nil
	}

	return fmt.Errorf("environment must be a map or slice of strings")
}

// DependsOnCondition is the long form of a depends_on entry
type DependsOnCondition struct {
	Condition string `yaml:"condition"`
}

// DependsOn can be either a list of service names or a map of service
// name to condition. The short form means service_started.
type DependsOn map[string]DependsOnCondition

func (d *DependsOn) UnmarshalYAML(value *yaml.Node) error {
	*d = make(map[string]DependsOnCondition)

	var long map[string]DependsOnCondition
	if err := value.Decode(&long); err == nil {
		for k, v := range long {
			if v.Condition == "" {
				v.Condition = "service_started"
			}
			(*d)[k] = v
		}
		return nil
	}

	var short []string
	if err := value.Decode(&short); err == nil {
		for _, name := range short {
			(*d)[name] = DependsOnCondition{Condition: "service_started"}
		}
		return nil
	}

	return fmt.Errorf("depends_on must be a list or a map of conditions")
}

// ParseComposeFile reads and parses a docker-compose.yml file
func ParseComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}
	return Parse(data)
}

// Parse decodes compose YAML
func Parse(data []byte) (*ComposeFile, error) {
	var compose ComposeFile
	if err := yaml.Unmarshal(data, &compose); err != nil {
		return nil, fmt.Errorf("parsing compose file: %w", err)
	}

	for name, service := range compose.Services {
		if service == nil {
			return nil, fmt.Errorf("service %s has no definition", name)
		}
		service.Name = name
	}

	return &compose, nil
}

// parsePortString parses a port string like "8080:80", "6969:6969/udp"
// or "127.0.0.1:9090:9090"
func parsePortString(port string) (PortMapping, error) {
	protocol := "tcp"
	if i := strings.LastIndexByte(port, '/'); i >= 0 {
		protocol = port[i+1:]
		port = port[:i]
		if protocol != "tcp" && protocol != "udp" {
			return PortMapping{}, fmt.Errorf("invalid protocol: %s", protocol)
		}
	}

	var mapping PortMapping
	parts := strings.Split(port, ":")
	switch len(parts) {
	case 2:
	case 3:
		ip, err := netip.ParseAddr(parts[0])
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid host ip: %s", parts[0])
		}
		mapping.HostIP = ip
		parts = parts[1:]
	default:
		return PortMapping{}, fmt.Errorf("invalid port format: %s", port)
	}

	hostPort, err := strconv.Atoi(parts[0])
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid host port: %s", parts[0])
	}

	containerPort, err := strconv.Atoi(parts[1])
	if err != nil {
		return PortMapping{}, fmt.Errorf("invalid container port: %s", parts[1])
	}

	mapping.HostPort = hostPort
	mapping.ContainerPort = containerPort
	mapping.Protocol = protocol
	return mapping, nil
}

// GetServiceNames returns all service names in the compose file, sorted
func (c *ComposeFile) GetServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
