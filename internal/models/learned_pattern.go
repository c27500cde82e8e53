package models

import "time"

// MaxExampleDescriptions caps the raw descriptions kept per learned pattern.
const MaxExampleDescriptions = 5

// LearnedPattern is a cache entry keyed by normalized merchant key.
type LearnedPattern struct {
	Category            string     `json:"category"`
	Confidence          float64    `json:"confidence"`
	Source              string     `json:"source"`
	LearnedAt           time.Time  `json:"learned_at"`
	UsageCount          int        `json:"usage_count"`
	LastUsed            *time.Time `json:"last_used,omitempty"`
	ExampleDescriptions []string   `json:"example_descriptions"`
}

// Clone returns a deep copy safe to hand out of a locked cache.
func (p LearnedPattern) Clone() LearnedPattern {
	out := p
	if p.LastUsed != nil {
		t := *p.LastUsed
		out.LastUsed = &t
	}
	out.ExampleDescriptions = append([]string(nil), p.ExampleDescriptions...)
	return out
}

// SimilarPattern is a learned pattern ranked against a query key.
type SimilarPattern struct {
	Key        string
	Pattern    LearnedPattern
	Similarity float64
}
