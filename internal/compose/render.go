// Package compose renders a derived topology into a docker compose project
// and checks existing compose files against a topology.
package compose

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/topology"
)

// DefaultImages maps each service to the image used when no override is given
var DefaultImages = map[topology.Service]string{
	topology.Tracker:       "torrust/tracker:develop",
	topology.Database:      "mysql:8.4",
	topology.Metrics:       "prom/prometheus:v3.5.0",
	topology.Dashboard:     "grafana/grafana:12.1.0",
	topology.TLSTerminator: "caddy:2.10",
	topology.Backup:        "torrust/tracker-backup:latest",
}

// RenderOptions carries the values the topology does not hold
type RenderOptions struct {
	// ProjectName becomes the compose project name
	ProjectName string
	// Bundle supplies credentials and settings for the environment file
	Bundle topology.Bundle
	// Images overrides DefaultImages per service
	Images map[topology.Service]string
}

func (o RenderOptions) image(s topology.Service) string {
	if img, ok := o.Images[s]; ok && img != "" {
		return img
	}
	return DefaultImages[s]
}

// Render builds the compose document for t. Every port, network and
// depends_on entry comes from the topology; the renderer only adds images,
// volumes, health checks and environment references.
func Render(t *topology.Topology, opts RenderOptions) (*ComposeFile, error) {
	if t == nil {
		return nil, fmt.Errorf("render: nil topology")
	}

	file := &ComposeFile{
		Name:     opts.ProjectName,
		Services: make(map[string]*ComposeService),
	}

	for _, st := range t.ServiceTopologies() {
		svc := baseService(st.Service, opts)
		svc.Name = st.Service.Name()
		svc.Image = opts.image(st.Service)
		if st.Service == topology.Backup && t.Enabled().Contains(topology.Database) {
			svc.Environment["MYSQL_HOST"] = topology.Database.Name()
			svc.Environment["MYSQL_DATABASE"] = "${MYSQL_DATABASE}"
			svc.Environment["MYSQL_USER"] = "${MYSQL_USER}"
			svc.Environment["MYSQL_PASSWORD"] = "${MYSQL_PASSWORD}"
		}

		for _, p := range st.Ports {
			svc.Ports = append(svc.Ports, p.ComposeBinding())
		}
		for _, n := range st.Networks.Sorted() {
			svc.Networks = append(svc.Networks, n.Name())
		}
		if len(st.Dependencies) > 0 {
			svc.DependsOn = make(DependsOn, len(st.Dependencies))
			for _, dep := range st.Dependencies {
				svc.DependsOn[dep.Target.Name()] = DependsOnCondition{Condition: dep.Condition.ComposeName()}
			}
		}
		file.Services[svc.Name] = svc
	}

	// service_healthy only works against a service with a health check
	for _, st := range t.ServiceTopologies() {
		for _, dep := range st.Dependencies {
			if dep.Condition != topology.ServiceHealthy {
				continue
			}
			if file.Services[dep.Target.Name()].Healthcheck == nil {
				return nil, fmt.Errorf("render: %s waits for %s to be healthy but %s has no health check",
					st.Service, dep.Target, dep.Target)
			}
		}
	}

	if networks := t.Networks(); len(networks) > 0 {
		file.Networks = make(map[string]*ComposeNetwork, len(networks))
		for _, n := range networks {
			file.Networks[n.Name()] = &ComposeNetwork{Driver: n.Driver()}
		}
	}

	for _, svc := range file.Services {
		for _, v := range svc.Volumes {
			source := strings.SplitN(v, ":", 2)[0]
			if strings.HasPrefix(source, ".") || strings.HasPrefix(source, "/") {
				continue
			}
			if file.Volumes == nil {
				file.Volumes = make(map[string]*ComposeVolume)
			}
			file.Volumes[source] = &ComposeVolume{}
		}
	}

	return file, nil
}

func baseService(s topology.Service, opts RenderOptions) *ComposeService {
	logging := &Logging{Driver: "json-file", Options: map[string]string{"max-size": "10m", "max-file": "10"}}

	switch s {
	case topology.Tracker:
		health := opts.Bundle.Tracker.HealthCheckPort
		if health == 0 {
			health = constants.DefaultHealthCheckPort
		}
		return &ComposeService{
			ContainerName: "tracker",
			Restart:       "unless-stopped",
			Environment: Environment{
				"USER_ID":                                                        "1000",
				"TORRUST_TRACKER_CONFIG_TOML_PATH":                               "/etc/torrust/tracker/tracker.toml",
				"TORRUST_TRACKER_CONFIG_OVERRIDE_CORE__DATABASE__DRIVER":         "${TORRUST_TRACKER_CONFIG_OVERRIDE_CORE__DATABASE__DRIVER}",
				"TORRUST_TRACKER_CONFIG_OVERRIDE_HTTP_API__ACCESS_TOKENS__ADMIN": "${TORRUST_TRACKER_CONFIG_OVERRIDE_HTTP_API__ACCESS_TOKENS__ADMIN}",
			},
			Volumes: []string{
				"./storage/tracker/lib:/var/lib/torrust/tracker:Z",
				"./storage/tracker/log:/var/log/torrust/tracker:Z",
				"./storage/tracker/etc:/etc/torrust/tracker:Z",
			},
			Healthcheck: &Healthcheck{
				Test:        []string{"CMD", "/usr/bin/http_health_check", "http://localhost:" + strconv.Itoa(int(health)) + "/health_check"},
				Interval:    "10s",
				Timeout:     "5s",
				Retries:     5,
				StartPeriod: "10s",
			},
			Logging: logging,
		}
	case topology.Database:
		return &ComposeService{
			ContainerName: "mysql",
			Restart:       "unless-stopped",
			Environment: Environment{
				"MYSQL_ROOT_PASSWORD": "${MYSQL_ROOT_PASSWORD}",
				"MYSQL_DATABASE":      "${MYSQL_DATABASE}",
				"MYSQL_USER":          "${MYSQL_USER}",
				"MYSQL_PASSWORD":      "${MYSQL_PASSWORD}",
			},
			Volumes: []string{"mysql_data:/var/lib/mysql"},
			Healthcheck: &Healthcheck{
				Test:        []string{"CMD", "mysqladmin", "ping", "-h", "localhost"},
				Interval:    "10s",
				Timeout:     "5s",
				Retries:     5,
				StartPeriod: "30s",
			},
			Logging: logging,
		}
	case topology.Metrics:
		return &ComposeService{
			ContainerName: "prometheus",
			Restart:       "unless-stopped",
			Volumes: []string{
				"./storage/prometheus/etc:/etc/prometheus:Z",
				"prometheus_data:/prometheus",
			},
			Healthcheck: &Healthcheck{
				Test:        []string{"CMD", "wget", "--spider", "-q", "http://localhost:9090/-/healthy"},
				Interval:    "10s",
				Timeout:     "5s",
				Retries:     5,
				StartPeriod: "10s",
			},
			Logging: logging,
		}
	case topology.Dashboard:
		return &ComposeService{
			ContainerName: "grafana",
			Restart:       "unless-stopped",
			Environment: Environment{
				"GF_SECURITY_ADMIN_USER":     "${GF_SECURITY_ADMIN_USER}",
				"GF_SECURITY_ADMIN_PASSWORD": "${GF_SECURITY_ADMIN_PASSWORD}",
			},
			Volumes: []string{
				"grafana_data:/var/lib/grafana",
				"./storage/grafana/provisioning:/etc/grafana/provisioning:ro",
			},
			Healthcheck: &Healthcheck{
				Test:     []string{"CMD", "wget", "--spider", "-q", "http://localhost:3000/api/health"},
				Interval: "10s",
				Timeout:  "5s",
				Retries:  5,
			},
			Logging: logging,
		}
	case topology.TLSTerminator:
		return &ComposeService{
			ContainerName: "caddy",
			Restart:       "unless-stopped",
			Volumes: []string{
				"./storage/caddy/etc/Caddyfile:/etc/caddy/Caddyfile:ro",
				"caddy_data:/data",
				"caddy_config:/config",
			},
			Healthcheck: &Healthcheck{
				Test:     []string{"CMD", "wget", "--spider", "-q", "http://localhost:2019/config/"},
				Interval: "10s",
				Timeout:  "5s",
				Retries:  5,
			},
			Logging: logging,
		}
	case topology.Backup:
		return &ComposeService{
			ContainerName: "backup",
			Restart:       "unless-stopped",
			Environment: Environment{
				"BACKUP_SCHEDULE":        "${BACKUP_SCHEDULE}",
				"BACKUP_RETENTION_DAYS":  "${BACKUP_RETENTION_DAYS}",
				"BACKUP_DATABASE_DRIVER": "${TORRUST_TRACKER_CONFIG_OVERRIDE_CORE__DATABASE__DRIVER}",
			},
			Volumes: []string{
				"./storage/backup:/backups",
				"./storage/tracker/lib:/data/tracker:ro",
			},
			Logging: logging,
		}
	default:
		panic(fmt.Sprintf("compose: unknown service %d", int(s)))
	}
}

// EnvFile is the ordered content of the project's .env file
type EnvFile []EnvVar

// EnvVar is one KEY=VALUE line
type EnvVar struct {
	Key   string
	Value string
}

// RenderEnv collects the values the compose file references through ${VAR}
func RenderEnv(b topology.Bundle) EnvFile {
	env := EnvFile{
		{"TORRUST_TRACKER_CONFIG_OVERRIDE_CORE__DATABASE__DRIVER", string(b.Tracker.DatabaseDriver)},
		{"TORRUST_TRACKER_CONFIG_OVERRIDE_HTTP_API__ACCESS_TOKENS__ADMIN", b.Tracker.HTTPAPI.AdminToken},
	}
	if b.Database != nil {
		env = append(env,
			EnvVar{"MYSQL_ROOT_PASSWORD", b.Database.RootPassword},
			EnvVar{"MYSQL_DATABASE", b.Database.Name},
			EnvVar{"MYSQL_USER", b.Database.User},
			EnvVar{"MYSQL_PASSWORD", b.Database.Password},
		)
	}
	if b.Dashboard != nil {
		env = append(env,
			EnvVar{"GF_SECURITY_ADMIN_USER", b.Dashboard.AdminUser},
			EnvVar{"GF_SECURITY_ADMIN_PASSWORD", b.Dashboard.AdminPassword},
		)
	}
	if b.Backup != nil {
		env = append(env,
			EnvVar{"BACKUP_SCHEDULE", b.Backup.Schedule},
			EnvVar{"BACKUP_RETENTION_DAYS", strconv.FormatUint(uint64(b.Backup.RetentionDays), 10)},
		)
	}
	return env
}

// String renders the file in the dotenv syntax compose reads. Values compose
// would otherwise interpolate or truncate are single-quoted, which compose
// takes literally. A value holding a single quote is double-quoted with $
// doubled instead.
func (e EnvFile) String() string {
	var b strings.Builder
	for _, v := range e {
		fmt.Fprintf(&b, "%s=%s\n", v.Key, quoteEnvValue(v.Value))
	}
	return b.String()
}

func quoteEnvValue(value string) string {
	if !strings.ContainsAny(value, " \t#\"'$\\") {
		return value
	}
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	return `"` + envEscaper.Replace(value) + `"`
}

var envEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", "$$")

// Marshal encodes the compose file as YAML with a generated-file header.
// Map keys are sorted so the output is stable.
func Marshal(file *ComposeFile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Generated by trackerdeploy. Edit environment.toml and re-render instead.\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("encoding compose file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding compose file: %w", err)
	}
	return buf.Bytes(), nil
}

// ServiceOrder lists the services of a rendered file in canonical topology
// order, with unknown names last
func ServiceOrder(file *ComposeFile) []string {
	names := file.GetServiceNames()
	rank := func(name string) int {
		s, err := topology.ParseService(name)
		if err != nil {
			return len(topology.AllServices())
		}
		return int(s)
	}
	sort.SliceStable(names, func(i, j int) bool { return rank(names[i]) < rank(names[j]) })
	return names
}
