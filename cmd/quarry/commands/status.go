package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/cli/output"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of a running Quarry server.

Examples:
  # Check the local server
  quarry status --token admin:SECRET

  # Check a remote server, JSON output
  quarry status --url https://repo.example.com --output json`,
	RunE: runStatus,
}

func init() {
	registerClientFlags(statusCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	status, err := client.Status(cmd.Context())
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, status)
	}

	state := "stopped"
	if status.Alive {
		state = "running"
	}

	fmt.Println()
	output.PrintKeyValues(os.Stdout, [][2]string{
		{"Status", state},
		{"Version", status.Version},
		{"Uptime", status.Uptime},
		{"Repositories", strings.Join(status.Repositories, ", ")},
		{"Resolved artifacts", strconv.FormatUint(status.TotalResolved, 10)},
		{"Failures", strconv.Itoa(status.Failures)},
	})
	fmt.Println()
	return nil
}
