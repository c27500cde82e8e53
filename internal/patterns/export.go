package patterns

import (
	"fmt"
	"sort"

	"fjacquet/cascade-categorizer/internal/common"
	"fjacquet/cascade-categorizer/internal/dateutils"
)

// reviewRow is the CSV layout used for manual review of learned patterns.
type reviewRow struct {
	Pattern    string `csv:"Normalized Pattern"`
	Category   string `csv:"Category"`
	Confidence string `csv:"Confidence"`
	UsageCount int    `csv:"Usage Count"`
	Source     string `csv:"Source"`
	LearnedAt  string `csv:"Learned At"`
	Example    string `csv:"Example"`
}

// ExportForReview writes every pattern to a CSV file, most used first.
func (c *Cache) ExportForReview(path string, delimiter rune) (int, error) {
	c.mu.RLock()
	rows := make([]reviewRow, 0, len(c.patterns))
	for key, p := range c.patterns {
		example := ""
		if len(p.ExampleDescriptions) > 0 {
			example = p.ExampleDescriptions[0]
		}
		rows = append(rows, reviewRow{
			Pattern:    key,
			Category:   p.Category,
			Confidence: fmt.Sprintf("%.2f", p.Confidence),
			UsageCount: p.UsageCount,
			Source:     p.Source,
			LearnedAt:  dateutils.ToISODate(p.LearnedAt),
			Example:    example,
		})
	}
	c.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UsageCount != rows[j].UsageCount {
			return rows[i].UsageCount > rows[j].UsageCount
		}
		return rows[i].Pattern < rows[j].Pattern
	})

	if err := common.WriteCSVFile(rows, path, delimiter, c.logger); err != nil {
		return 0, fmt.Errorf("error exporting learned patterns: %w", err)
	}
	return len(rows), nil
}
