package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/config"
	"github.com/quarryhq/quarry/pkg/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Quarry server",
	Long: `Start the Quarry server in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/quarry/config.yaml. All configuration
options can be overridden with QUARRY_* environment variables, for example
QUARRY_LOGGING_LEVEL=DEBUG.

Examples:
  # Start with the default config location
  quarry start

  # Start with a custom config file
  quarry start --config /etc/quarry/config.yaml`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Hot-reload the log level and format when the config file changes. The
	// rest of the configuration requires a restart.
	if cfgFile != "" || config.DefaultConfigExists() {
		err := config.Watch(configSource(), func(updated *config.Config) {
			logger.SetLevel(updated.Logging.Level)
			logger.SetFormat(updated.Logging.Format)
			logger.Info("Configuration reloaded", "level", updated.Logging.Level)
		}, func(err error) {
			logger.Warn("Configuration reload failed", "error", err)
		})
		if err != nil {
			logger.Warn("Configuration watch unavailable", "error", err)
		}
	}

	logger.Info("Configuration loaded", "source", configSource())

	return server.New(cfg, Version).Run(context.Background())
}

// configSource names where the configuration came from.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
