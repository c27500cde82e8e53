// Package batch handles batch categorization of transaction exports
package batch

import (
	"fmt"
	"sort"

	"fjacquet/cascade-categorizer/cmd/root"
	"fjacquet/cascade-categorizer/internal/batch"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"

	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputFile string
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch categorize a CSV export",
	Long: `Batch categorize every transaction of a CSV export and write the enriched rows.

The input needs date, description and amount columns; hint_category, third_party,
account_number and bsb are optional. Own-account transfers are detected across
the whole file before categorization starts. Rows that cannot be parsed are
logged and skipped.

Example:
  cascade batch -i transactions.csv -o categorized.csv`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file")
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("output")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	summary, err := c.NewBatchRunner().Run(cmd.Context(), inputFile, outputFile)
	if err != nil {
		return fmt.Errorf("error during batch categorization: %w", err)
	}

	root.Log.Info("Batch processing completed",
		logging.F(logging.FieldRunID, summary.RunID),
		logging.F(logging.FieldCount, summary.Written))
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary batch.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:        %s\n", summary.RunID)
	fmt.Fprintf(out, "Rows:       %d (written %d, skipped %d, duplicates %d)\n",
		summary.Rows, summary.Written, summary.Skipped, summary.Duplicates)
	if period := summary.DateRange.String(); period != "" {
		fmt.Fprintf(out, "Period:     %s\n", period)
	}

	sources := make([]string, 0, len(summary.BySource))
	for s := range summary.BySource {
		sources = append(sources, s.String())
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Fprintf(out, "  %-18s %d\n", s, summary.BySource[models.Source(s)])
	}
}
