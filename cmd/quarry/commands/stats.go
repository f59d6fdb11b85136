package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quarryhq/quarry/internal/cli/output"
)

var (
	statsOutput string
	statsLimit  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Long: `Display the most-downloaded artifact paths of a running server.

Examples:
  quarry stats --token admin:SECRET
  quarry stats --limit 50 --output json`,
	RunE: runStats,
}

func init() {
	registerClientFlags(statsCmd)
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "table", "Output format (table|json)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "Number of entries to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statsOutput)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	stats, err := client.Stats(cmd.Context(), statsLimit)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, stats)
	}

	if len(stats.Records) == 0 {
		fmt.Println("No downloads recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(stats.Records))
	for _, record := range stats.Records {
		rows = append(rows, []string{record.Path, strconv.FormatUint(record.Count, 10)})
	}

	fmt.Println()
	output.PrintTable(os.Stdout, []string{"Path", "Downloads"}, rows)
	fmt.Printf("\nTotal resolved: %d\n", stats.Total)
	return nil
}
