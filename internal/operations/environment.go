package operations

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"trackerdeploy/internal/cache"
	"trackerdeploy/internal/compose"
	"trackerdeploy/internal/config"
	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/db"
	"trackerdeploy/internal/errors"
	"trackerdeploy/internal/logger"
	"trackerdeploy/internal/metrics"
	"trackerdeploy/internal/topology"
)

// EnvironmentOperations provides shared backend functions for environment
// management. Both the CLI and the HTTP API go through it.
type EnvironmentOperations struct {
	store      db.EnvironmentStore
	global     *config.GlobalConfig
	topologies *cache.Cache[string, *topology.Topology]
}

// NewEnvironmentOperations creates a new EnvironmentOperations instance
func NewEnvironmentOperations(store db.EnvironmentStore, global *config.GlobalConfig) *EnvironmentOperations {
	if global == nil {
		global = config.DefaultGlobalConfig()
	}
	return &EnvironmentOperations{
		store:      store,
		global:     global,
		topologies: cache.New[string, *topology.Topology](constants.TopologyCacheTTL, constants.TopologyCacheSize),
	}
}

// CreateEnvironmentRequest contains parameters for registering an environment
type CreateEnvironmentRequest struct {
	Name       string // Optional, defaults to [environment].name from the file
	ConfigPath string
}

// EnvironmentDetails is a registered environment with its derived topology
type EnvironmentDetails struct {
	Environment *db.Environment    `json:"environment"`
	Topology    *topology.Topology `json:"topology"`
}

// RenderResult describes a written compose project
type RenderResult struct {
	ComposePath string   `json:"compose_path"`
	Services    []string `json:"services"`
	Ports       []string `json:"ports"`
}

// BuildTopology derives the topology of cfg and records the build metrics.
// Topology errors come back as DeployError values.
func BuildTopology(cfg *config.EnvironmentConfig) (*topology.Topology, error) {
	start := time.Now()
	t, err := topology.Build(cfg.Bundle())
	metrics.ObserveBuild(start, t, err)
	if err != nil {
		de := errors.FromTopologyError(err).WithContext("environment", cfg.Environment.Name)
		if de.Code == errors.ErrTopologyDefect {
			logger.WithError(err).WithField("environment", cfg.Environment.Name).Error("Topology post-condition failed")
		}
		return nil, de
	}
	return t, nil
}

// DeriveTopology parses environment TOML and derives its topology without
// registering anything
func DeriveTopology(data []byte) (*topology.Topology, error) {
	cfg, err := config.ParseEnvironment(data)
	if err != nil {
		return nil, err
	}
	return BuildTopology(cfg)
}

// CreateEnvironment validates a configuration file, copies it into the data
// directory and registers the environment
func (o *EnvironmentOperations) CreateEnvironment(ctx context.Context, req CreateEnvironmentRequest) (*db.Environment, error) {
	cfg, err := config.LoadEnvironment(req.ConfigPath)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = cfg.Environment.Name
	}
	if !config.ValidEnvironmentName(name) {
		return nil, errors.InvalidInput(name, "lowercase letters, digits and hyphens, at most 63 characters")
	}
	cfg.Environment.Name = name

	t, err := BuildTopology(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := o.store.GetByName(ctx, name); err == nil {
		return nil, errors.EnvironmentExists(name)
	} else if !errors.HasCode(err, errors.ErrEnvironmentNotFound) {
		return nil, err
	}

	dir := o.global.EnvironmentDir(name)
	configPath := filepath.Join(dir, constants.EnvironmentFileName)
	if err := cfg.Save(configPath); err != nil {
		return nil, err
	}

	env := &db.Environment{
		Name:       name,
		ConfigPath: configPath,
		Services:   serviceNames(t),
	}
	if err := o.store.Create(ctx, env); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.WithError(rmErr).WithField("dir", dir).Warn("Failed to clean up environment directory")
		}
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"environment": name,
		"services":    env.Services,
		"networks":    len(t.Networks()),
	}).Info("Environment created")

	return env, nil
}

// ListEnvironments returns every registered environment
func (o *EnvironmentOperations) ListEnvironments(ctx context.Context) ([]*db.Environment, error) {
	return o.store.List(ctx)
}

// ListEnvironmentPage returns one page of registered environments
func (o *EnvironmentOperations) ListEnvironmentPage(ctx context.Context, opts db.PaginationOptions) (*db.PaginatedResponse[*db.Environment], error) {
	envs, total, err := o.store.ListPage(ctx, opts)
	if err != nil {
		return nil, err
	}
	return db.NewPaginatedResponse(envs, opts, total), nil
}

// ShowEnvironment loads an environment and derives its topology from the
// stored configuration
func (o *EnvironmentOperations) ShowEnvironment(ctx context.Context, name string) (*EnvironmentDetails, error) {
	env, err := o.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadEnvironment(env.ConfigPath)
	if err != nil {
		return nil, err
	}

	t, err := o.topologyOf(cfg)
	if err != nil {
		return nil, err
	}

	return &EnvironmentDetails{Environment: env, Topology: t}, nil
}

// RenderEnvironment writes the compose project of an environment. The
// project goes next to the stored configuration unless outputDir is set.
// The outcome is recorded on the environment either way.
func (o *EnvironmentOperations) RenderEnvironment(ctx context.Context, name, outputDir string) (*RenderResult, error) {
	env, err := o.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if outputDir == "" {
		outputDir = filepath.Dir(env.ConfigPath)
	}

	result, renderErr := o.render(env, outputDir)
	metrics.ObserveRender(renderErr)

	update := db.StateUpdate{State: db.StateRendered, Services: env.Services}
	if renderErr != nil {
		update.State = db.StateRenderFailed
		update.LastError = renderErr.Error()
	} else {
		update.Services = result.Services
		update.ComposePath = result.ComposePath
	}
	if err := o.store.UpdateState(ctx, name, update); err != nil {
		return nil, err
	}
	if renderErr != nil {
		return nil, renderErr
	}

	logger.WithFields(logger.Fields{
		"environment": name,
		"compose":     result.ComposePath,
		"ports":       result.Ports,
	}).Info("Compose project rendered")

	return result, nil
}

func (o *EnvironmentOperations) render(env *db.Environment, outputDir string) (*RenderResult, error) {
	cfg, err := config.LoadEnvironment(env.ConfigPath)
	if err != nil {
		return nil, err
	}

	t, err := o.topologyOf(cfg)
	if err != nil {
		return nil, err
	}

	bundle := cfg.Bundle()
	file, err := compose.Render(t, compose.RenderOptions{ProjectName: env.Name, Bundle: bundle})
	if err != nil {
		return nil, errors.ComposeRenderFailed(err).WithContext("environment", env.Name)
	}

	composePath, err := compose.WriteProject(outputDir, file, compose.RenderEnv(bundle))
	if err != nil {
		return nil, errors.WrapWithDetails(errors.ErrFileWrite, "Failed to write compose project", outputDir, err)
	}

	return &RenderResult{ComposePath: composePath, Services: serviceNames(t), Ports: publishedPorts(t)}, nil
}

// topologyOf returns the topology of a stored configuration. Topologies are
// immutable, so one built value is shared by every caller until it expires.
func (o *EnvironmentOperations) topologyOf(cfg *config.EnvironmentConfig) (*topology.Topology, error) {
	key, err := cfg.Digest()
	if err != nil {
		return BuildTopology(cfg)
	}

	if t, ok := o.topologies.Get(key); ok {
		metrics.ObserveCacheLookup(true)
		return t, nil
	}
	metrics.ObserveCacheLookup(false)

	t, err := BuildTopology(cfg)
	if err != nil {
		return nil, err
	}
	o.topologies.Set(key, t)
	return t, nil
}

// ValidateEnvironment checks a configuration file and, when composePath is
// set, that the compose file agrees with the derived topology
func ValidateEnvironment(configPath, composePath string) (*topology.Topology, error) {
	cfg, err := config.LoadEnvironment(configPath)
	if err != nil {
		return nil, err
	}

	t, err := BuildTopology(cfg)
	if err != nil {
		return nil, err
	}

	if composePath == "" {
		return t, nil
	}

	file, err := compose.ParseComposeFile(composePath)
	if err != nil {
		return nil, errors.WrapWithDetails(errors.ErrFileRead, "Failed to read compose file", composePath, err)
	}
	if problems := compose.Verify(file, t); len(problems) > 0 {
		return t, errors.ComposeMismatch(problems).WithContext("path", composePath)
	}

	return t, nil
}

// DeleteEnvironment unregisters an environment and removes its directory
func (o *EnvironmentOperations) DeleteEnvironment(ctx context.Context, name string) error {
	if err := o.store.Delete(ctx, name); err != nil {
		return err
	}

	dir := o.global.EnvironmentDir(name)
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapWithDetails(errors.ErrFileWrite, "Failed to remove environment directory", dir, err)
	}

	logger.WithField("environment", name).Info("Environment deleted")
	return nil
}

func serviceNames(t *topology.Topology) db.ServiceList {
	services := t.Services()
	names := make(db.ServiceList, len(services))
	for i, s := range services {
		names[i] = s.Name()
	}
	return names
}

// publishedPorts lists the host bindings of the whole project
func publishedPorts(t *topology.Topology) []string {
	ports := t.Ports()
	bindings := make([]string, len(ports))
	for i, p := range ports {
		bindings[i] = p.ComposeBinding()
	}
	return bindings
}
