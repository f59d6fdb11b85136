// Package config loads and validates the Quarry configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (QUARRY_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the Quarry server configuration.
//
// Static aspects of the server live here: logging, the HTTP listener,
// storage paths, the declared repositories, auth, statistics, and metrics.
// Access tokens are dynamic and managed through the REST API instead.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server configures the HTTP listener.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Storage configures where artifact and state data live on disk.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Repositories declares the Maven repositories served by this instance.
	Repositories []RepositoryConfig `mapstructure:"repositories" yaml:"repositories"`

	// Auth configures access tokens and API sessions.
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Stats controls download statistics collection.
	Stats StatsConfig `mapstructure:"stats" yaml:"stats"`

	// Metrics controls the Prometheus metrics endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// BootstrapCommand is the console command executed synchronously right
	// after the server starts.
	BootstrapCommand string `mapstructure:"bootstrap_command" yaml:"bootstrap_command"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the bind address. Empty binds all interfaces.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the listen port.
	Port int `mapstructure:"port" validate:"required,gte=1,lte=65535" yaml:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StorageConfig configures on-disk layout.
type StorageConfig struct {
	// DataDir is the root directory for repositories and the state store.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`
}

// RepositoryConfig declares a single Maven repository.
type RepositoryConfig struct {
	// Name is the repository name used as the first URL path segment.
	Name string `mapstructure:"name" validate:"required,alphanum" yaml:"name"`

	// Visibility is public or hidden. Hidden repositories require a token
	// even for downloads.
	Visibility string `mapstructure:"visibility" validate:"oneof=public hidden" yaml:"visibility"`

	// Deploy enables artifact uploads to this repository.
	Deploy bool `mapstructure:"deploy" yaml:"deploy"`
}

// AuthConfig configures tokens and API sessions.
type AuthConfig struct {
	// JWTSecret signs API session tokens. Must be at least 32 characters.
	// Prefer setting it through QUARRY_AUTH_JWT_SECRET.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// SessionDuration is the API session token lifetime.
	SessionDuration time.Duration `mapstructure:"session_duration" yaml:"session_duration"`
}

// StatsConfig controls download statistics.
type StatsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath uses the default location.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with user-friendly errors when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if DefaultConfigExists() {
			configPath = GetDefaultConfigPath()
		}
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  quarry init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		name := strings.ToLower(repo.Name)
		if seen[name] {
			return fmt.Errorf("duplicate repository name: %s", repo.Name)
		}
		seen[name] = true
	}

	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}

	return nil
}

// Save writes the configuration to path in YAML.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may carry the JWT secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Watch reloads the config file on change and invokes onChange with the
// freshly loaded configuration. Reload errors are delivered to onError.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := viper.New()
	setupViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot watch config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(e.Name)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()

	return nil
}

// setupViper configures environment variables and config file lookup.
// Example override: QUARRY_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the decode hooks for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
