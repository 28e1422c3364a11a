package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"trackerdeploy/internal/constants"
	"trackerdeploy/internal/xdg"
)

// GlobalConfig represents the global trackerdeploy configuration
type GlobalConfig struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host" validate:"required"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir" validate:"required"` // Registry database and rendered environments
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	dataDir, err := xdg.DataDir()
	if err != nil {
		dataDir = "~/.local/share/trackerdeploy"
	}
	return &GlobalConfig{
		Server: ServerConfig{
			Host: constants.DefaultServerHost,
			Port: constants.DefaultServerPort,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetConfigDir returns the XDG config directory for trackerdeploy
func GetConfigDir() (string, error) {
	return xdg.ConfigDir()
}

// GlobalConfigPath returns the location of config.toml
func GlobalConfigPath() (string, error) {
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, constants.GlobalConfigName), nil
}

// LoadGlobalConfig loads the global configuration from XDG config directory.
// A missing file yields the defaults.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFrom(configPath)
}

// LoadGlobalConfigFrom loads the global configuration from path
func LoadGlobalConfigFrom(configPath string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		if err := expandPaths(config); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	// Decoding over the defaults keeps every value the file omits
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	if err := expandPaths(config); err != nil {
		return nil, err
	}
	if err := ValidateGlobalConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveGlobalConfig saves the global configuration to XDG config directory
func SaveGlobalConfig(config *GlobalConfig) error {
	configPath, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return config.Save(configPath)
}

// Save saves the global configuration to the specified path
func (g *GlobalConfig) Save(path string) error {
	data, err := toml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, constants.FilePermissions)
}

// DatabasePath returns the environment registry location inside the data dir
func (g *GlobalConfig) DatabasePath() string {
	return filepath.Join(g.Storage.DataDir, "trackerdeploy.db")
}

// EnvironmentDir returns the directory holding one environment's files
func (g *GlobalConfig) EnvironmentDir(name string) string {
	return filepath.Join(g.Storage.DataDir, "environments", name)
}

// ValidateGlobalConfig validates the global configuration
func ValidateGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return validateStruct(config)
}

// expandPaths expands tilde paths in the configuration
func expandPaths(config *GlobalConfig) error {
	if !strings.HasPrefix(config.Storage.DataDir, "~/") {
		return nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	config.Storage.DataDir = filepath.Join(homeDir, config.Storage.DataDir[2:])
	return nil
}
