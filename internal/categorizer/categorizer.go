// Package categorizer assigns a taxonomy code to each transaction through a
// cascade of tiers, from free local checks to the paid external service:
//  1. Internal transfer detection
//  2. High-confidence rule match, with the income prioritizer for credits
//  3. Medium-confidence rule match, optionally validated externally
//  4. Learned pattern cache
//  5. Bank hint mapping
//  6. External service
//  7. Direction-appropriate sentinel
package categorizer

import (
	"context"
	"runtime"

	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"
	"fjacquet/cascade-categorizer/internal/patterns"
)

// Config holds the cascade thresholds and switches.
type Config struct {
	HighThreshold      float64
	MediumThreshold    float64
	LearningEnabled    bool
	StrictDirection    bool
	SentinelConfidence float64

	TransfersEnabled   bool
	TransferConfidence float64
	TransferDebitCode  string
	TransferCreditCode string
	OwnAccounts        []string

	SimilarLimit      int
	Workers           int
	ParallelThreshold int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HighThreshold:      0.90,
		MediumThreshold:    0.80,
		LearningEnabled:    true,
		SentinelConfidence: 0.3,
		TransfersEnabled:   true,
		TransferConfidence: 0.95,
		TransferDebitCode:  models.CodeInternalTransfer,
		TransferCreditCode: models.CodeUncategorizedIncome,
		SimilarLimit:       patterns.DefaultSimilarLimit,
		ParallelThreshold:  100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HighThreshold <= 0 {
		c.HighThreshold = d.HighThreshold
	}
	if c.MediumThreshold <= 0 {
		c.MediumThreshold = d.MediumThreshold
	}
	if c.SentinelConfidence <= 0 {
		c.SentinelConfidence = d.SentinelConfidence
	}
	if c.TransferConfidence <= 0 {
		c.TransferConfidence = d.TransferConfidence
	}
	if c.TransferDebitCode == "" {
		c.TransferDebitCode = d.TransferDebitCode
	}
	if c.TransferCreditCode == "" {
		c.TransferCreditCode = d.TransferCreditCode
	}
	if c.SimilarLimit <= 0 {
		c.SimilarLimit = d.SimilarLimit
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ParallelThreshold <= 0 {
		c.ParallelThreshold = d.ParallelThreshold
	}
	return c
}

// Dependencies are the collaborators of a Categorizer. Detector, Rules,
// Cache and External may be nil, which disables the corresponding tiers.
//
// Detector serves single Categorize calls. NewDetector, when set, supplies a
// fresh detector to every CategorizeBatch so each batch builds its own
// account set; without it batches share Detector.
type Dependencies struct {
	Taxonomy    *models.Taxonomy
	Detector    TransferDetector
	NewDetector func() TransferDetector
	Rules       RuleMatcher
	Cache       PatternCache
	External    Predictor
	Hints       *HintMapper
}

// Categorizer runs the cascade. It is safe for concurrent use once the
// transfer detector has analyzed the batch.
type Categorizer struct {
	cfg         Config
	taxonomy    *models.Taxonomy
	detector    TransferDetector
	newDetector func() TransferDetector
	rules       RuleMatcher
	cache       PatternCache
	external    Predictor
	hints       *HintMapper
	stats       *models.CategorizationStats
	logger      logging.Logger
	tiers       []TierStrategy
}

// New creates a Categorizer.
func New(deps Dependencies, cfg Config, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	taxonomy := deps.Taxonomy
	if taxonomy == nil {
		taxonomy = models.NewTaxonomy(nil)
	}
	hints := deps.Hints
	if hints == nil {
		hints = NewHintMapper(DefaultHintTable(), DefaultHintConfidence)
	}

	c := &Categorizer{
		cfg:         cfg.withDefaults(),
		taxonomy:    taxonomy,
		detector:    deps.Detector,
		newDetector: deps.NewDetector,
		rules:       deps.Rules,
		cache:       deps.Cache,
		external:    deps.External,
		hints:       hints,
		stats:       models.NewCategorizationStats(),
		logger:      logger,
	}
	c.tiers = []TierStrategy{
		transferTier{c},
		ruleHighTier{c},
		ruleMediumTier{c},
		learnedTier{c},
		hintTier{c},
		externalTier{c},
	}
	return c
}

// Stats returns the running decision counters.
func (c *Categorizer) Stats() *models.CategorizationStats {
	return c.stats
}

// Categorize decides one transaction. An error is returned only in strict
// mode when the final code contradicts the amount direction.
func (c *Categorizer) Categorize(ctx context.Context, tx models.Transaction) (models.CategoryPrediction, error) {
	return c.categorize(ctx, tx, c.detector)
}

func (c *Categorizer) categorize(ctx context.Context, tx models.Transaction, detector TransferDetector) (models.CategoryPrediction, error) {
	d := newDecision(tx, c.rules, detector)
	trace := &Trace{}

	pred, tier := c.cascade(ctx, d, trace)
	if tier != TierTransfer {
		pred = c.override(d, pred, trace)
	}

	final, err := c.enforceDirection(d, pred)
	if err != nil {
		c.stats.Increment(models.StatErrors)
		return pred, err
	}
	c.stats.Record(final)

	c.logger.Debug("Categorized transaction",
		logging.F(logging.FieldDescription, tx.Description),
		logging.F(logging.FieldMerchantKey, d.Key),
		logging.F(logging.FieldCategory, final.Code),
		logging.F(logging.FieldConfidence, final.Confidence),
		logging.F(logging.FieldSource, final.Source),
		logging.F(logging.FieldTier, trace.Summary()))
	return final, nil
}

func (c *Categorizer) cascade(ctx context.Context, d *Decision, trace *Trace) (models.CategoryPrediction, string) {
	for _, tier := range c.tiers {
		pred, ok := tier.Evaluate(ctx, d)
		if !ok {
			trace.add(tier.Name(), OutcomeNoMatch, pred)
			continue
		}
		if !c.acceptable(pred.Code, d.Sign) {
			trace.add(tier.Name(), OutcomeInvalid, pred)
			c.logger.Debug("Tier candidate rejected",
				logging.F(logging.FieldTier, tier.Name()),
				logging.F(logging.FieldCategory, pred.Code),
				logging.F(logging.FieldDescription, d.Transaction.Description))
			continue
		}
		trace.add(tier.Name(), OutcomeMatch, pred)
		switch tier.Name() {
		case TierRuleHigh:
			c.stats.Increment(models.StatRuleHigh)
		case TierRuleMedium:
			c.stats.Increment(models.StatRuleMedium)
		}
		return pred, tier.Name()
	}

	pred := c.sentinel(d.Sign, "no tier produced a category")
	trace.add(TierFallback, OutcomeMatch, pred)
	return pred, TierFallback
}

// override replaces a sentinel with the code of a trusted hint.
func (c *Categorizer) override(d *Decision, pred models.CategoryPrediction, trace *Trace) models.CategoryPrediction {
	if !models.IsSentinel(pred.Code) {
		return pred
	}
	m, ok := c.hints.Trusted(d.Transaction.HintCategory)
	if !ok || !c.acceptable(m.Code, d.Sign) {
		return pred
	}
	out := models.CategoryPrediction{
		Code:       m.Code,
		Confidence: m.Confidence,
		Source:     models.SourceOverride,
		Reason:     "bank hint " + m.Hint + " overrides " + pred.Code,
	}
	trace.add(string(models.SourceOverride), OutcomeMatch, out)
	return out
}

func (c *Categorizer) enforceDirection(d *Decision, pred models.CategoryPrediction) (models.CategoryPrediction, error) {
	if c.taxonomy.IsValidForAmount(pred.Code, d.Transaction.Amount) {
		return pred, nil
	}
	if c.cfg.StrictDirection {
		return pred, &parsererror.CategorizationError{
			Transaction: d.Transaction.Description,
			Code:        pred.Code,
			Source:      string(pred.Source),
			Err:         parsererror.ErrDirectionViolation,
		}
	}

	c.stats.Increment(models.StatDirectionViolations)
	c.logger.Error("Category contradicts amount direction",
		logging.F(logging.FieldDescription, d.Transaction.Description),
		logging.F(logging.FieldAmount, d.Transaction.Amount.String()),
		logging.F(logging.FieldCategory, pred.Code),
		logging.F(logging.FieldSource, pred.Source))
	return c.sentinel(d.Sign, "direction violation by "+string(pred.Source)), nil
}

func (c *Categorizer) sentinel(sign int, reason string) models.CategoryPrediction {
	return models.CategoryPrediction{
		Code:       models.SentinelFor(sign),
		Confidence: c.cfg.SentinelConfidence,
		Source:     models.SourceUncategorized,
		Reason:     reason,
	}
}

func (c *Categorizer) acceptable(code string, sign int) bool {
	return c.taxonomy.Contains(code) && models.IsValidForDirection(code, sign)
}

func (c *Categorizer) conclusive(p external.Prediction, sign int) bool {
	return p.Code != "" && !models.IsSentinel(p.Code) && c.acceptable(p.Code, sign)
}

func (c *Categorizer) similar(raw string) []models.SimilarPattern {
	if c.cache == nil {
		return nil
	}
	return c.cache.Similar(raw, c.cfg.SimilarLimit)
}

func (c *Categorizer) learn(raw string, p external.Prediction) {
	if !c.cfg.LearningEnabled || c.cache == nil {
		return
	}
	if _, err := c.cache.Add(raw, p.Code, p.Confidence, string(models.SourceExternal)); err != nil {
		c.logger.WithError(err).Warn("Failed to persist learned pattern",
			logging.F(logging.FieldDescription, raw))
	}
}
