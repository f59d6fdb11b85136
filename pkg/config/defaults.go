package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPort is the default HTTP listen port.
const DefaultPort = 8080

// GetDefaultConfig returns a fully populated default configuration.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with defaults. Zero values are replaced;
// explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStorageDefaults(&cfg.Storage)
	applyRepositoryDefaults(cfg)
	applyAuthDefaults(&cfg.Auth)

	if cfg.BootstrapCommand == "" {
		cfg.BootstrapCommand = "version"
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 1 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = getDataDir()
	}
}

// applyRepositoryDefaults declares the standard repository set when none is
// configured: public releases and snapshots plus a hidden private repository.
func applyRepositoryDefaults(cfg *Config) {
	if len(cfg.Repositories) == 0 {
		cfg.Repositories = []RepositoryConfig{
			{Name: "releases", Visibility: "public", Deploy: true},
			{Name: "snapshots", Visibility: "public", Deploy: true},
			{Name: "private", Visibility: "hidden", Deploy: true},
		}
	}
	for i := range cfg.Repositories {
		if cfg.Repositories[i].Visibility == "" {
			cfg.Repositories[i].Visibility = "public"
		}
	}
}

func applyAuthDefaults(cfg *AuthConfig) {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 1 * time.Hour
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/quarry or ~/.config/quarry.
func getConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "/etc/quarry"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "quarry")
}

// getDataDir returns $XDG_DATA_HOME/quarry or ~/.local/share/quarry.
func getDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "/var/lib/quarry"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "quarry")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether the default config file is present.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// Init writes a sample configuration to the default location.
// Returns the path written.
func Init(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitToPath(path, force)
}

// InitToPath writes a sample configuration to path.
func InitToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
	}
	return Save(GetDefaultConfig(), path)
}
