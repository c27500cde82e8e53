package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/cascade-categorizer/internal/models"
)

// Outcome is what a tier did with a transaction.
type Outcome string

const (
	OutcomeMatch   Outcome = "match"
	OutcomeNoMatch Outcome = "no_match"
	OutcomeInvalid Outcome = "invalid"
	OutcomeSkipped Outcome = "skipped"
)

// TierResult records one tier attempt.
type TierResult struct {
	Tier       string
	Outcome    Outcome
	Prediction models.CategoryPrediction
}

// Trace aggregates the tier attempts for one decision.
type Trace struct {
	Results []TierResult
}

func (t *Trace) add(tier string, outcome Outcome, p models.CategoryPrediction) {
	t.Results = append(t.Results, TierResult{Tier: tier, Outcome: outcome, Prediction: p})
}

// Winner returns the matching tier result, if any.
func (t Trace) Winner() (TierResult, bool) {
	for _, r := range t.Results {
		if r.Outcome == OutcomeMatch {
			return r, true
		}
	}
	return TierResult{}, false
}

// Rejected returns the candidates discarded for taxonomy or direction.
func (t Trace) Rejected() []TierResult {
	var out []TierResult
	for _, r := range t.Results {
		if r.Outcome == OutcomeInvalid {
			out = append(out, r)
		}
	}
	return out
}

// Summary returns a one-line description of the attempts.
func (t Trace) Summary() string {
	parts := make([]string, 0, len(t.Results))
	for _, r := range t.Results {
		switch r.Outcome {
		case OutcomeMatch, OutcomeInvalid:
			parts = append(parts, fmt.Sprintf("%s:%s(%s)", r.Tier, r.Outcome, r.Prediction.Code))
		default:
			parts = append(parts, fmt.Sprintf("%s:%s", r.Tier, r.Outcome))
		}
	}
	return strings.Join(parts, ", ")
}
