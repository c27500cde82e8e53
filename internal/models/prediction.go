package models

// Source identifies which tier of the cascade produced a prediction.
type Source string

const (
	SourceInternalTransfer Source = "internal_transfer"
	SourceRuleDB           Source = "rule_db"
	SourceLearned          Source = "learned"
	SourceHintFallback     Source = "hint_fallback"
	SourceExternal         Source = "external"
	SourceOverride         Source = "override"
	SourceUncategorized    Source = "uncategorized"
)

// String returns the wire name of the source.
func (s Source) String() string {
	return string(s)
}

// CategoryPrediction is the outcome of categorizing one transaction.
type CategoryPrediction struct {
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	Reason     string  `json:"reason,omitempty"`
}
