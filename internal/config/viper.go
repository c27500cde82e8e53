// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"
	"fjacquet/cascade-categorizer/internal/patterns"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LogConfig controls the logrus adapter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CSVConfig controls batch input and output files.
type CSVConfig struct {
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
}

// ExternalConfig controls the paid classification service.
type ExternalConfig struct {
	Enabled              bool    `mapstructure:"enabled" yaml:"enabled"`
	Simulate             bool    `mapstructure:"simulate" yaml:"simulate"`
	Model                string  `mapstructure:"model" yaml:"model"`
	RequestsPerMinute    int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	InputCostPerMillion  float64 `mapstructure:"input_cost_per_million" yaml:"input_cost_per_million"`
	OutputCostPerMillion float64 `mapstructure:"output_cost_per_million" yaml:"output_cost_per_million"`
	APIKey               string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
}

// Timeout returns the per-call timeout.
func (e ExternalConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CategorizationConfig holds the cascade thresholds.
type CategorizationConfig struct {
	HighThreshold         float64 `mapstructure:"high_threshold" yaml:"high_threshold"`
	MediumThreshold       float64 `mapstructure:"medium_threshold" yaml:"medium_threshold"`
	LearnThreshold        float64 `mapstructure:"learn_threshold" yaml:"learn_threshold"`
	PruneMinConfidence    float64 `mapstructure:"prune_min_confidence" yaml:"prune_min_confidence"`
	LearningEnabled       bool    `mapstructure:"learning_enabled" yaml:"learning_enabled"`
	StrictDirection       bool    `mapstructure:"strict_direction" yaml:"strict_direction"`
	HintDefaultConfidence float64 `mapstructure:"hint_default_confidence" yaml:"hint_default_confidence"`
	SentinelConfidence    float64 `mapstructure:"sentinel_confidence" yaml:"sentinel_confidence"`
	Workers               int     `mapstructure:"workers" yaml:"workers"`
	ParallelThreshold     int     `mapstructure:"parallel_threshold" yaml:"parallel_threshold"`
}

// TransfersConfig controls own-account transfer detection.
type TransfersConfig struct {
	Enabled    bool     `mapstructure:"enabled" yaml:"enabled"`
	Confidence float64  `mapstructure:"confidence" yaml:"confidence"`
	DebitCode  string   `mapstructure:"debit_code" yaml:"debit_code"`
	CreditCode string   `mapstructure:"credit_code" yaml:"credit_code"`
	Accounts   []string `mapstructure:"accounts" yaml:"accounts"`
}

// DataConfig locates the collaborator files and the learned pattern cache.
type DataConfig struct {
	Directory    string `mapstructure:"directory" yaml:"directory"`
	TaxonomyFile string `mapstructure:"taxonomy_file" yaml:"taxonomy_file"`
	RulesFile    string `mapstructure:"rules_file" yaml:"rules_file"`
	HintsFile    string `mapstructure:"hints_file" yaml:"hints_file"`
	PatternsFile string `mapstructure:"patterns_file" yaml:"patterns_file"`
}

// PatternsPath returns the cache file path, relative to the data directory
// unless absolute.
func (d DataConfig) PatternsPath() string {
	if d.PatternsFile == "" || filepath.IsAbs(d.PatternsFile) || d.Directory == "" {
		return d.PatternsFile
	}
	return filepath.Join(d.Directory, d.PatternsFile)
}

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	CSV            CSVConfig            `mapstructure:"csv" yaml:"csv"`
	External       ExternalConfig       `mapstructure:"external" yaml:"external"`
	Categorization CategorizationConfig `mapstructure:"categorization" yaml:"categorization"`
	Transfers      TransfersConfig      `mapstructure:"transfers" yaml:"transfers"`
	Data           DataConfig           `mapstructure:"data" yaml:"data"`
}

// Delimiter returns the CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	if c.CSV.Delimiter == "" {
		return ','
	}
	return []rune(c.CSV.Delimiter)[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.cascade")
	v.AddConfigPath(".cascade")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("CASCADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Unprefixed variables
	if err := v.BindEnv("external.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}
	if err := v.BindEnv("external.simulate", "CASCADE_EXTERNAL_SIMULATE", "TEST_MODE"); err != nil {
		return nil, fmt.Errorf("failed to bind TEST_MODE: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		source := v.ConfigFileUsed()
		if source == "" {
			source = "configuration"
		}
		return nil, &parsererror.ValidationError{FilePath: source, Reason: err.Error()}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.date_format", "")

	// External service defaults
	v.SetDefault("external.enabled", false)
	v.SetDefault("external.simulate", false)
	v.SetDefault("external.model", "gemini-2.0-flash")
	v.SetDefault("external.requests_per_minute", 10)
	v.SetDefault("external.timeout_seconds", 30)
	v.SetDefault("external.input_cost_per_million", 0.10)
	v.SetDefault("external.output_cost_per_million", 0.40)

	// Categorization defaults
	v.SetDefault("categorization.high_threshold", 0.90)
	v.SetDefault("categorization.medium_threshold", 0.80)
	v.SetDefault("categorization.learn_threshold", 0.90)
	v.SetDefault("categorization.prune_min_confidence", 0.85)
	v.SetDefault("categorization.learning_enabled", true)
	v.SetDefault("categorization.strict_direction", false)
	v.SetDefault("categorization.hint_default_confidence", 0.85)
	v.SetDefault("categorization.sentinel_confidence", 0.3)
	v.SetDefault("categorization.workers", 0)
	v.SetDefault("categorization.parallel_threshold", 100)

	// Transfer defaults
	v.SetDefault("transfers.enabled", true)
	v.SetDefault("transfers.confidence", 0.95)
	v.SetDefault("transfers.debit_code", models.CodeInternalTransfer)
	v.SetDefault("transfers.credit_code", models.CodeUncategorizedIncome)
	v.SetDefault("transfers.accounts", []string{})

	// Data defaults
	v.SetDefault("data.directory", "database")
	v.SetDefault("data.taxonomy_file", "taxonomy.yaml")
	v.SetDefault("data.rules_file", "rules.yaml")
	v.SetDefault("data.hints_file", "hint_mappings.yaml")
	v.SetDefault("data.patterns_file", "learned_patterns.json")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV delimiter
	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	// Validate external service configuration
	if config.External.Enabled {
		if !config.External.Simulate && config.External.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when the external service is enabled")
		}

		if config.External.RequestsPerMinute < 1 || config.External.RequestsPerMinute > 1000 {
			return fmt.Errorf("external.requests_per_minute must be between 1 and 1000, got: %d", config.External.RequestsPerMinute)
		}

		if config.External.TimeoutSeconds < 1 || config.External.TimeoutSeconds > 300 {
			return fmt.Errorf("external.timeout_seconds must be between 1 and 300, got: %d", config.External.TimeoutSeconds)
		}
	}

	// Validate thresholds
	cat := config.Categorization
	thresholds := []struct {
		name  string
		value float64
	}{
		{"categorization.high_threshold", cat.HighThreshold},
		{"categorization.medium_threshold", cat.MediumThreshold},
		{"categorization.learn_threshold", cat.LearnThreshold},
		{"categorization.prune_min_confidence", cat.PruneMinConfidence},
		{"categorization.hint_default_confidence", cat.HintDefaultConfidence},
		{"categorization.sentinel_confidence", cat.SentinelConfidence},
		{"transfers.confidence", config.Transfers.Confidence},
	}
	for _, th := range thresholds {
		if th.value < 0.0 || th.value > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got: %f", th.name, th.value)
		}
	}
	if cat.LearnThreshold < patterns.DefaultLearnThreshold {
		return fmt.Errorf("categorization.learn_threshold must be at least %.2f, got: %f", patterns.DefaultLearnThreshold, cat.LearnThreshold)
	}
	if cat.MediumThreshold > cat.HighThreshold {
		return fmt.Errorf("categorization.medium_threshold (%.2f) must not exceed high_threshold (%.2f)", cat.MediumThreshold, cat.HighThreshold)
	}
	if cat.Workers < 0 {
		return fmt.Errorf("categorization.workers must not be negative, got: %d", cat.Workers)
	}

	// Validate transfer codes
	if config.Transfers.DebitCode != "" && !models.IsExpenseCode(config.Transfers.DebitCode) {
		return fmt.Errorf("transfers.debit_code must be an expense code, got: %s", config.Transfers.DebitCode)
	}
	if config.Transfers.CreditCode != "" && !models.IsValidForDirection(config.Transfers.CreditCode, 1) {
		return fmt.Errorf("transfers.credit_code must be valid for credits, got: %s", config.Transfers.CreditCode)
	}

	return nil
}
