package cli

import (
	"fmt"

	"github.com/raphaelgruber/datacopilot/internal/schema"
	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset <file.csv>",
	Short: "Print the schema summary derived from a CSV file",
	Long: `Print the structural description the pipeline would derive from a
CSV dataset: row count and, per column, type, distinct count, non-null ratio
and sample values. Useful for checking what the model will actually see.`,
	Args: cobra.ExactArgs(1),
	RunE: runDataset,
}

func runDataset(cmd *cobra.Command, args []string) error {
	table, err := schema.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	summary := schema.Summarize(table)
	fmt.Print(summary.Render())
	return nil
}
