package categorizer

import (
	"context"
	"fmt"

	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/normalizer"
	"fjacquet/cascade-categorizer/internal/rules"
)

// Tier names used in traces and logs.
const (
	TierTransfer   = "transfer"
	TierRuleHigh   = "rule_high"
	TierRuleMedium = "rule_medium"
	TierLearned    = "learned"
	TierHint       = "hint"
	TierExternal   = "external"
	TierFallback   = "fallback"
)

// Decision is the per-transaction input shared by every tier. The merchant
// key and the rule lookup are computed once.
type Decision struct {
	Transaction models.Transaction
	Sign        int
	Key         string
	Rule        rules.Match
	HasRule     bool

	detector TransferDetector
}

// TierStrategy is one step of the cascade.
type TierStrategy interface {
	// Evaluate returns a candidate and whether the tier produced one. The
	// caller still checks the candidate against the taxonomy and direction.
	Evaluate(ctx context.Context, d *Decision) (models.CategoryPrediction, bool)

	// Name returns the tier name for traces and logging.
	Name() string
}

type transferTier struct{ c *Categorizer }

func (t transferTier) Name() string { return TierTransfer }

func (t transferTier) Evaluate(_ context.Context, d *Decision) (models.CategoryPrediction, bool) {
	c := t.c
	if !c.cfg.TransfersEnabled || d.detector == nil {
		return models.CategoryPrediction{}, false
	}
	tx := d.Transaction
	if !d.detector.IsInternal(tx.Description, tx.Amount, tx.HintCategory, tx.ThirdParty) {
		return models.CategoryPrediction{}, false
	}
	code := c.cfg.TransferDebitCode
	if d.Sign > 0 {
		code = c.cfg.TransferCreditCode
	}
	return models.CategoryPrediction{
		Code:       code,
		Confidence: c.cfg.TransferConfidence,
		Source:     models.SourceInternalTransfer,
		Reason:     "transfer between own accounts",
	}, true
}

type ruleHighTier struct{ c *Categorizer }

func (t ruleHighTier) Name() string { return TierRuleHigh }

func (t ruleHighTier) Evaluate(_ context.Context, d *Decision) (models.CategoryPrediction, bool) {
	c := t.c
	if d.Sign > 0 {
		if m, ok := rules.MatchIncome(d.Transaction.Description); ok && m.Confidence >= c.cfg.HighThreshold {
			if c.acceptable(m.Code, d.Sign) {
				return ruleCandidate(m), true
			}
			c.logger.Debug("Income keyword code rejected",
				logging.F(logging.FieldCategory, m.Code),
				logging.F(logging.FieldDescription, d.Transaction.Description))
		}
	}
	if !d.HasRule || d.Rule.Confidence < c.cfg.HighThreshold {
		return models.CategoryPrediction{}, false
	}
	return ruleCandidate(d.Rule), true
}

type ruleMediumTier struct{ c *Categorizer }

func (t ruleMediumTier) Name() string { return TierRuleMedium }

func (t ruleMediumTier) Evaluate(ctx context.Context, d *Decision) (models.CategoryPrediction, bool) {
	c := t.c
	if !d.HasRule || d.Rule.Confidence < c.cfg.MediumThreshold || d.Rule.Confidence >= c.cfg.HighThreshold {
		return models.CategoryPrediction{}, false
	}

	suggestion := ruleCandidate(d.Rule)
	tx := d.Transaction
	if c.external == nil || c.hints.IsIgnored(tx.HintCategory) || !c.acceptable(suggestion.Code, d.Sign) {
		return suggestion, true
	}

	c.stats.Increment(models.StatExternalValidation)
	req := external.BuildRequest(tx, c.similar(tx.Description), &external.Suggestion{
		Code:       d.Rule.Code,
		Confidence: d.Rule.Confidence,
		Reason:     d.Rule.Reason,
	})
	pred := c.external.Predict(ctx, req)
	if !c.conclusive(pred, d.Sign) {
		c.logger.Debug("External validation inconclusive, keeping rule suggestion",
			logging.F(logging.FieldCategory, suggestion.Code),
			logging.F(logging.FieldReason, pred.Reasoning))
		return suggestion, true
	}
	c.learn(tx.Description, pred)
	return models.CategoryPrediction{
		Code:       pred.Code,
		Confidence: pred.Confidence,
		Source:     models.SourceExternal,
		Reason:     pred.Reasoning,
	}, true
}

type learnedTier struct{ c *Categorizer }

func (t learnedTier) Name() string { return TierLearned }

func (t learnedTier) Evaluate(_ context.Context, d *Decision) (models.CategoryPrediction, bool) {
	if t.c.cache == nil {
		return models.CategoryPrediction{}, false
	}
	p, ok := t.c.cache.Lookup(d.Transaction.Description)
	if !ok {
		return models.CategoryPrediction{}, false
	}
	return models.CategoryPrediction{
		Code:       p.Category,
		Confidence: p.Confidence,
		Source:     models.SourceLearned,
		Reason:     fmt.Sprintf("learned pattern for %q", d.Key),
	}, true
}

type hintTier struct{ c *Categorizer }

func (t hintTier) Name() string { return TierHint }

func (t hintTier) Evaluate(_ context.Context, d *Decision) (models.CategoryPrediction, bool) {
	m, ok := t.c.hints.Trusted(d.Transaction.HintCategory)
	if !ok {
		return models.CategoryPrediction{}, false
	}
	return models.CategoryPrediction{
		Code:       m.Code,
		Confidence: m.Confidence,
		Source:     models.SourceHintFallback,
		Reason:     fmt.Sprintf("bank hint %q", m.Hint),
	}, true
}

type externalTier struct{ c *Categorizer }

func (t externalTier) Name() string { return TierExternal }

func (t externalTier) Evaluate(ctx context.Context, d *Decision) (models.CategoryPrediction, bool) {
	c := t.c
	if c.external == nil {
		return models.CategoryPrediction{}, false
	}
	tx := d.Transaction
	pred := c.external.Predict(ctx, external.BuildRequest(tx, c.similar(tx.Description), nil))
	if !c.conclusive(pred, d.Sign) {
		c.logger.Debug("External service inconclusive",
			logging.F(logging.FieldDescription, tx.Description),
			logging.F(logging.FieldReason, pred.Reasoning))
		return models.CategoryPrediction{}, false
	}
	c.learn(tx.Description, pred)
	return models.CategoryPrediction{
		Code:       pred.Code,
		Confidence: pred.Confidence,
		Source:     models.SourceExternal,
		Reason:     pred.Reasoning,
	}, true
}

func ruleCandidate(m rules.Match) models.CategoryPrediction {
	return models.CategoryPrediction{
		Code:       m.Code,
		Confidence: m.Confidence,
		Source:     models.SourceRuleDB,
		Reason:     m.Reason,
	}
}

func newDecision(tx models.Transaction, matcher RuleMatcher, detector TransferDetector) *Decision {
	d := &Decision{
		Transaction: tx,
		Sign:        tx.Amount.Sign(),
		Key:         normalizer.Key(tx.Description),
		detector:    detector,
	}
	if matcher != nil {
		d.Rule, d.HasRule = matcher.Match(d.Key)
	}
	return d
}
