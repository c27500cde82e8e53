// Package container provides dependency injection for the cascade application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/cascade-categorizer/internal/batch"
	"fjacquet/cascade-categorizer/internal/categorizer"
	"fjacquet/cascade-categorizer/internal/config"
	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/patterns"
	"fjacquet/cascade-categorizer/internal/rules"
	"fjacquet/cascade-categorizer/internal/store"
	"fjacquet/cascade-categorizer/internal/transfer"
)

// Option overrides a dependency the container would otherwise build.
type Option func(*options)

type options struct {
	logger  logging.Logger
	loader  store.Loader
	backend external.Backend
}

// WithLogger uses logger instead of one built from the log section.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLoader uses loader instead of reading the data directory.
func WithLoader(loader store.Loader) Option {
	return func(o *options) { o.loader = loader }
}

// WithBackend uses backend for the external service regardless of the
// simulate switch. It only takes effect when the service is enabled.
func WithBackend(backend external.Backend) Option {
	return func(o *options) { o.backend = backend }
}

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	taxonomy    *models.Taxonomy
	detector    *transfer.Detector
	cache       *patterns.Cache
	adapter     *external.Adapter
	categorizer *categorizer.Categorizer
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	loader := o.loader
	if loader == nil {
		loader = store.NewDataStore(cfg.Data.Directory, cfg.Data.TaxonomyFile, cfg.Data.RulesFile, cfg.Data.HintsFile, logger)
	}

	taxonomy, err := loader.LoadTaxonomy()
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy: %w", err)
	}

	ruleTable, err := loader.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	matcher, err := rules.NewMatcher(ruleTable)
	if err != nil {
		return nil, fmt.Errorf("compiling rules: %w", err)
	}

	hintTable, err := loader.LoadHintMappings()
	if err != nil {
		return nil, fmt.Errorf("loading hint mappings: %w", err)
	}
	if hintTable.IsEmpty() {
		logger.Debug("Using built-in hint mappings")
		hintTable = categorizer.DefaultHintTable()
	}
	hints := categorizer.NewHintMapper(hintTable, cfg.Categorization.HintDefaultConfidence)

	cache := patterns.NewCache(cfg.Data.PatternsPath(), cfg.Categorization.LearnThreshold, logger)
	detector := transfer.NewDetector(logger)

	adapter, err := newAdapter(ctx, cfg, o.backend, taxonomy, logger)
	if err != nil {
		return nil, err
	}

	deps := categorizer.Dependencies{
		Taxonomy: taxonomy,
		Detector: detector,
		NewDetector: func() categorizer.TransferDetector {
			return transfer.NewDetector(logger)
		},
		Rules: matcher,
		Cache: cache,
		Hints: hints,
	}
	if adapter != nil {
		deps.External = adapter
	}
	cat := categorizer.New(deps, categorizerConfig(cfg), logger)

	logger.Info("Container initialized successfully",
		logging.F("taxonomy_size", taxonomy.Len()),
		logging.F("rules", matcher.Len()),
		logging.F("hint_mappings", hints.Len()),
		logging.F("learned_patterns", cache.Len()),
		logging.F("external_enabled", adapter != nil))

	return &Container{
		logger:      logger,
		config:      cfg,
		taxonomy:    taxonomy,
		detector:    detector,
		cache:       cache,
		adapter:     adapter,
		categorizer: cat,
	}, nil
}

func newAdapter(ctx context.Context, cfg *config.Config, backend external.Backend, taxonomy *models.Taxonomy, logger logging.Logger) (*external.Adapter, error) {
	if !cfg.External.Enabled {
		logger.Info("External categorization disabled")
		return nil, nil
	}

	if backend == nil {
		if cfg.External.Simulate {
			backend = external.NewSimulatedBackend()
		} else {
			gemini, err := external.NewGeminiBackend(ctx, cfg.External.APIKey, cfg.External.Model)
			if err != nil {
				return nil, fmt.Errorf("creating external backend: %w", err)
			}
			backend = gemini
		}
	}

	logger.Info("External categorization enabled", logging.F(logging.FieldBackend, backend.Name()))
	return external.NewAdapter(backend, taxonomy, external.Config{
		Timeout:              cfg.External.Timeout(),
		RequestsPerMinute:    cfg.External.RequestsPerMinute,
		InputCostPerMillion:  cfg.External.InputCostPerMillion,
		OutputCostPerMillion: cfg.External.OutputCostPerMillion,
	}, logger), nil
}

func categorizerConfig(cfg *config.Config) categorizer.Config {
	c := cfg.Categorization
	return categorizer.Config{
		HighThreshold:      c.HighThreshold,
		MediumThreshold:    c.MediumThreshold,
		LearningEnabled:    c.LearningEnabled,
		StrictDirection:    c.StrictDirection,
		SentinelConfidence: c.SentinelConfidence,
		TransfersEnabled:   cfg.Transfers.Enabled,
		TransferConfidence: cfg.Transfers.Confidence,
		TransferDebitCode:  cfg.Transfers.DebitCode,
		TransferCreditCode: cfg.Transfers.CreditCode,
		OwnAccounts:        cfg.Transfers.Accounts,
		SimilarLimit:       patterns.DefaultSimilarLimit,
		Workers:            c.Workers,
		ParallelThreshold:  c.ParallelThreshold,
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetTaxonomy returns the loaded taxonomy.
func (c *Container) GetTaxonomy() *models.Taxonomy {
	return c.taxonomy
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetDetector returns the detector used by single-transaction calls. Each
// batch analyzes with its own detector.
func (c *Container) GetDetector() *transfer.Detector {
	return c.detector
}

// GetCache returns the learned pattern cache.
func (c *Container) GetCache() *patterns.Cache {
	return c.cache
}

// GetAdapter returns the external adapter, or nil when the service is disabled.
func (c *Container) GetAdapter() *external.Adapter {
	return c.adapter
}

// NewBatchRunner returns a runner over the container's categorizer.
func (c *Container) NewBatchRunner() *batch.Runner {
	return batch.NewRunner(c.categorizer, c.taxonomy, batch.Options{
		Delimiter:  c.config.Delimiter(),
		DateLayout: c.config.CSV.DateFormat,
	}, c.logger)
}

// Close saves the learned patterns and releases the external client.
func (c *Container) Close() error {
	var firstErr error
	if err := c.cache.Save(); err != nil {
		firstErr = fmt.Errorf("saving learned patterns: %w", err)
	}
	if c.adapter != nil {
		c.adapter.LogStats()
		if err := c.adapter.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing external adapter: %w", err)
		}
	}
	c.logger.Debug("Container closed")
	return firstErr
}
