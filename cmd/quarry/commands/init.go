package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a sample configuration file with the default repository set.

Examples:
  # Write the config to the default location
  quarry init

  # Write to a custom path
  quarry init --config /etc/quarry/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.Init(initForce); err != nil {
			return err
		}
	} else if err := config.InitToPath(path, initForce); err != nil {
		return err
	}

	fmt.Printf("Configuration file created at: %s\n\n", path)
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the configuration to declare your repositories")
	fmt.Println("  2. Start the server with: quarry start")
	return nil
}
