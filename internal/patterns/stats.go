package patterns

import "sort"

const topPatternCount = 10

// TopPattern is one row of the most-used list.
type TopPattern struct {
	Key        string
	Category   string
	UsageCount int
}

// Statistics summarizes the cache for reporting.
type Statistics struct {
	TotalPatterns int
	TotalUsage    int
	CallsSaved    int
	TotalLookups  int
	TotalHits     int
	// HitRate is a percentage of lookups that found a pattern.
	HitRate    float64
	ByCategory map[string]int
	BySource   map[string]int
	Top        []TopPattern
}

// Statistics computes distributions and the most-used patterns.
func (c *Cache) Statistics() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Statistics{
		TotalPatterns: len(c.patterns),
		CallsSaved:    c.meta.CallsSaved,
		TotalLookups:  c.meta.TotalLookups,
		TotalHits:     c.meta.TotalHits,
		ByCategory:    make(map[string]int),
		BySource:      make(map[string]int),
	}
	if stats.TotalLookups > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(stats.TotalLookups) * 100
	}

	top := make([]TopPattern, 0, len(c.patterns))
	for key, p := range c.patterns {
		stats.TotalUsage += p.UsageCount
		stats.ByCategory[p.Category]++
		stats.BySource[p.Source]++
		top = append(top, TopPattern{Key: key, Category: p.Category, UsageCount: p.UsageCount})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].UsageCount != top[j].UsageCount {
			return top[i].UsageCount > top[j].UsageCount
		}
		return top[i].Key < top[j].Key
	})
	if len(top) > topPatternCount {
		top = top[:topPatternCount]
	}
	stats.Top = top
	return stats
}
