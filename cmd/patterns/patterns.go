// Package patterns handles maintenance of the learned pattern cache
package patterns

import (
	"fmt"
	"sort"

	"fjacquet/cascade-categorizer/cmd/root"
	"fjacquet/cascade-categorizer/internal/patterns"

	"github.com/spf13/cobra"
)

var (
	minConfidence float64
	exportFile    string
)

// Cmd represents the patterns command
var Cmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and maintain learned patterns",
	Long: `Inspect and maintain the learned pattern cache.

Patterns are learned from confident external answers and consulted before
bank hints and the external service on later runs.`,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learned pattern statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.RequireContainer()
		if err != nil {
			return err
		}
		printStatistics(cmd, c.GetCache().Statistics())
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove low-confidence patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.RequireContainer()
		if err != nil {
			return err
		}
		threshold := minConfidence
		if !cmd.Flags().Changed("min-confidence") {
			threshold = c.GetConfig().Categorization.PruneMinConfidence
		}
		removed, err := c.GetCache().Prune(threshold)
		if err != nil {
			return fmt.Errorf("error pruning patterns: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d patterns below %.2f\n", removed, threshold)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export learned patterns to CSV for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.RequireContainer()
		if err != nil {
			return err
		}
		n, err := c.GetCache().ExportForReview(exportFile, c.GetConfig().Delimiter())
		if err != nil {
			return fmt.Errorf("error exporting patterns: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d patterns to %s\n", n, exportFile)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.85, "Remove patterns below this confidence")
	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Output CSV file")
	_ = exportCmd.MarkFlagRequired("output")

	Cmd.AddCommand(statsCmd, pruneCmd, exportCmd)
}

func printStatistics(cmd *cobra.Command, stats patterns.Statistics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Patterns:   %d\n", stats.TotalPatterns)
	fmt.Fprintf(out, "Usage:      %d\n", stats.TotalUsage)
	fmt.Fprintf(out, "Calls saved: %d\n", stats.CallsSaved)
	fmt.Fprintf(out, "Hit rate:   %.1f%% (%d/%d)\n", stats.HitRate, stats.TotalHits, stats.TotalLookups)

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(out, "By category:")
		codes := make([]string, 0, len(stats.ByCategory))
		for code := range stats.ByCategory {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(out, "  %-10s %d\n", code, stats.ByCategory[code])
		}
	}

	if len(stats.Top) > 0 {
		fmt.Fprintln(out, "Most used:")
		for _, p := range stats.Top {
			fmt.Fprintf(out, "  %-30s %-10s %d\n", p.Key, p.Category, p.UsageCount)
		}
	}
}
