package models

import (
	"sort"
	"sync"

	"fjacquet/cascade-categorizer/internal/logging"
)

// Stat counter names beyond the per-source counters.
const (
	StatRuleHigh            = "rule_high"
	StatRuleMedium          = "rule_medium"
	StatExternalValidation  = "external_validation"
	StatDirectionViolations = "direction_violations"
	StatErrors              = "errors"
)

// CategorizationStats tracks how transactions were resolved. It is safe for
// concurrent use by batch workers.
type CategorizationStats struct {
	mu       sync.Mutex
	total    int
	bySource map[Source]int
	counters map[string]int
}

// NewCategorizationStats creates an empty stats tracker.
func NewCategorizationStats() *CategorizationStats {
	return &CategorizationStats{
		bySource: make(map[Source]int),
		counters: make(map[string]int),
	}
}

// Record counts one final prediction.
func (cs *CategorizationStats) Record(p CategoryPrediction) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.total++
	cs.bySource[p.Source]++
}

// Increment bumps a named counter such as StatRuleMedium.
func (cs *CategorizationStats) Increment(name string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.counters[name]++
}

// Total returns the number of recorded predictions.
func (cs *CategorizationStats) Total() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.total
}

// BySource returns the count of predictions produced by s.
func (cs *CategorizationStats) BySource(s Source) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.bySource[s]
}

// Counter returns a named counter value.
func (cs *CategorizationStats) Counter(name string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.counters[name]
}

// GetSuccessRate is the percentage of predictions that did not end
// uncategorized.
func (cs *CategorizationStats) GetSuccessRate() float64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.total == 0 {
		return 0.0
	}
	return float64(cs.total-cs.bySource[SourceUncategorized]) / float64(cs.total) * 100.0
}

// Snapshot returns all counters keyed by name, sources included.
func (cs *CategorizationStats) Snapshot() map[string]int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make(map[string]int, len(cs.bySource)+len(cs.counters)+1)
	out["total"] = cs.total
	for s, n := range cs.bySource {
		out[string(s)] = n
	}
	for k, n := range cs.counters {
		out[k] = n
	}
	return out
}

// LogSummary logs the counters as a single structured entry.
func (cs *CategorizationStats) LogSummary(logger logging.Logger) {
	if logger == nil {
		return
	}
	snap := cs.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logging.Field, 0, len(keys)+1)
	for _, k := range keys {
		fields = append(fields, logging.Field{Key: k, Value: snap[k]})
	}
	fields = append(fields, logging.Field{Key: "success_rate", Value: cs.GetSuccessRate()})
	logger.Info("Categorization summary", fields...)
}
