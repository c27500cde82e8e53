package categorizer

import (
	"context"

	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/rules"

	"github.com/shopspring/decimal"
)

// TransferDetector decides whether a transaction moves money between the
// user's own accounts.
type TransferDetector interface {
	Analyze(batch []models.Transaction, extra ...string) error
	IsInternal(description string, amount decimal.Decimal, hint, thirdParty string) bool
}

// RuleMatcher looks up a merchant key in the rule table.
type RuleMatcher interface {
	Match(key string) (rules.Match, bool)
}

// PatternCache is the learned pattern store.
type PatternCache interface {
	Lookup(raw string) (models.LearnedPattern, bool)
	Add(raw, category string, confidence float64, source string) (bool, error)
	Similar(raw string, limit int) []models.SimilarPattern
	Save() error
}

// Predictor asks the external classification service. It never fails; an
// inconclusive answer carries a sentinel code.
type Predictor interface {
	Predict(ctx context.Context, req external.Request) external.Prediction
}
