package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console <command> [args...]",
	Short: "Run a console command on a running server",
	Long: `Schedule a console command on a running server. The command executes
asynchronously on the server; its output goes to the server log.

Examples:
  quarry console status --token admin:SECRET
  quarry console failures
  quarry console stop`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsole,
}

func init() {
	registerClientFlags(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	line := strings.Join(args, " ")
	if err := client.ExecuteCommand(cmd.Context(), line); err != nil {
		return err
	}

	fmt.Printf("Command %q scheduled; check the server log for output.\n", line)
	return nil
}
