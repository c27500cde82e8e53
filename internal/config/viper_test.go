package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/cascade-categorizer/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, ",", config.CSV.Delimiter)
	assert.False(t, config.External.Enabled)
	assert.False(t, config.External.Simulate)
	assert.Equal(t, "gemini-2.0-flash", config.External.Model)
	assert.Equal(t, 10, config.External.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, config.External.Timeout())
	assert.Equal(t, 0.90, config.Categorization.HighThreshold)
	assert.Equal(t, 0.80, config.Categorization.MediumThreshold)
	assert.Equal(t, 0.90, config.Categorization.LearnThreshold)
	assert.Equal(t, 0.85, config.Categorization.PruneMinConfidence)
	assert.True(t, config.Categorization.LearningEnabled)
	assert.False(t, config.Categorization.StrictDirection)
	assert.Equal(t, 0.85, config.Categorization.HintDefaultConfidence)
	assert.Equal(t, 0.3, config.Categorization.SentinelConfidence)
	assert.Equal(t, 0, config.Categorization.Workers)
	assert.Equal(t, 100, config.Categorization.ParallelThreshold)
	assert.True(t, config.Transfers.Enabled)
	assert.Equal(t, 0.95, config.Transfers.Confidence)
	assert.Equal(t, "EXP-013", config.Transfers.DebitCode)
	assert.Equal(t, "INC-007", config.Transfers.CreditCode)
	assert.Equal(t, "database", config.Data.Directory)
	assert.Equal(t, "taxonomy.yaml", config.Data.TaxonomyFile)
	assert.Equal(t, filepath.Join("database", "learned_patterns.json"), config.Data.PatternsPath())
	assert.Equal(t, ',', config.Delimiter())
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	testEnvVars := map[string]string{
		"CASCADE_LOG_LEVEL":                       "debug",
		"CASCADE_LOG_FORMAT":                      "json",
		"CASCADE_CSV_DELIMITER":                   ";",
		"CASCADE_EXTERNAL_ENABLED":                "true",
		"CASCADE_EXTERNAL_MODEL":                  "gemini-1.5-pro",
		"CASCADE_EXTERNAL_REQUESTS_PER_MINUTE":    "15",
		"CASCADE_CATEGORIZATION_LEARNING_ENABLED": "false",
		"CASCADE_CATEGORIZATION_WORKERS":          "3",
		"CASCADE_TRANSFERS_CREDIT_CODE":           "INC-013",
		"GEMINI_API_KEY":                          "test-api-key",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ";", config.CSV.Delimiter)
	assert.Equal(t, ';', config.Delimiter())
	assert.True(t, config.External.Enabled)
	assert.Equal(t, "gemini-1.5-pro", config.External.Model)
	assert.Equal(t, 15, config.External.RequestsPerMinute)
	assert.False(t, config.Categorization.LearningEnabled)
	assert.Equal(t, 3, config.Categorization.Workers)
	assert.Equal(t, "INC-013", config.Transfers.CreditCode)
	assert.Equal(t, "test-api-key", config.External.APIKey)
}

func TestInitializeConfig_TestModeWithoutKey(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	t.Setenv("CASCADE_EXTERNAL_ENABLED", "true")
	t.Setenv("TEST_MODE", "true")

	config, err := InitializeConfig()
	require.NoError(t, err)
	assert.True(t, config.External.Simulate)
	assert.Empty(t, config.External.APIKey)
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := chdirTemp(t)

	configContent := `
log:
  level: "warn"
  format: "json"
csv:
  delimiter: "|"
external:
  enabled: false
  model: "gemini-1.0-pro"
  requests_per_minute: 20
categorization:
  learning_enabled: false
  high_threshold: 0.95
data:
  directory: "/srv/cascade"
  patterns_file: "cache.json"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0600))

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Equal(t, "gemini-1.0-pro", config.External.Model)
	assert.Equal(t, 20, config.External.RequestsPerMinute)
	assert.False(t, config.Categorization.LearningEnabled)
	assert.Equal(t, 0.95, config.Categorization.HighThreshold)
	assert.Equal(t, 0.80, config.Categorization.MediumThreshold)
	assert.Equal(t, filepath.Join("/srv/cascade", "cache.json"), config.Data.PatternsPath())
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := chdirTemp(t)

	configContent := `
log:
  level: "warn"
csv:
  delimiter: "|"
external:
  requests_per_minute: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0600))

	t.Setenv("CASCADE_LOG_LEVEL", "error")
	t.Setenv("CASCADE_EXTERNAL_REQUESTS_PER_MINUTE", "25")
	t.Setenv("GEMINI_API_KEY", "env-api-key")

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, "|", config.CSV.Delimiter)
	assert.Equal(t, 25, config.External.RequestsPerMinute)
	assert.Equal(t, "env-api-key", config.External.APIKey)
}

func TestInitializeConfig_InvalidIsValidationError(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	t.Setenv("CASCADE_EXTERNAL_ENABLED", "true")

	_, err := InitializeConfig()
	require.Error(t, err)
	var vErr *parsererror.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Reason, "GEMINI_API_KEY required")
}

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		CSV: CSVConfig{Delimiter: ","},
		External: ExternalConfig{
			RequestsPerMinute: 10,
			TimeoutSeconds:    30,
		},
		Categorization: CategorizationConfig{
			HighThreshold:         0.9,
			MediumThreshold:       0.8,
			LearnThreshold:        0.9,
			PruneMinConfidence:    0.85,
			HintDefaultConfidence: 0.85,
			SentinelConfidence:    0.3,
		},
		Transfers: TransfersConfig{Confidence: 0.95, DebitCode: "EXP-013", CreditCode: "INC-007"},
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	assert.NoError(t, validateConfig(validConfig()))
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{
			name:         "invalid log level",
			modifyConfig: func(c *Config) { c.Log.Level = "invalid" },
			expectError:  "invalid log level",
		},
		{
			name:         "invalid log format",
			modifyConfig: func(c *Config) { c.Log.Format = "invalid" },
			expectError:  "invalid log format",
		},
		{
			name:         "invalid CSV delimiter",
			modifyConfig: func(c *Config) { c.CSV.Delimiter = "abc" },
			expectError:  "CSV delimiter must be a single character",
		},
		{
			name: "external enabled without API key",
			modifyConfig: func(c *Config) {
				c.External.Enabled = true
				c.External.APIKey = ""
			},
			expectError: "GEMINI_API_KEY required",
		},
		{
			name: "invalid requests per minute",
			modifyConfig: func(c *Config) {
				c.External.Enabled = true
				c.External.APIKey = "test-key"
				c.External.RequestsPerMinute = 0
			},
			expectError: "external.requests_per_minute must be between 1 and 1000",
		},
		{
			name: "invalid timeout seconds",
			modifyConfig: func(c *Config) {
				c.External.Enabled = true
				c.External.Simulate = true
				c.External.TimeoutSeconds = 0
			},
			expectError: "external.timeout_seconds must be between 1 and 300",
		},
		{
			name:         "threshold out of range",
			modifyConfig: func(c *Config) { c.Categorization.HighThreshold = 1.5 },
			expectError:  "categorization.high_threshold must be between 0.0 and 1.0",
		},
		{
			name:         "learn threshold below floor",
			modifyConfig: func(c *Config) { c.Categorization.LearnThreshold = 0.85 },
			expectError:  "categorization.learn_threshold must be at least 0.90",
		},
		{
			name:         "medium above high",
			modifyConfig: func(c *Config) { c.Categorization.MediumThreshold = 0.95 },
			expectError:  "must not exceed high_threshold",
		},
		{
			name:         "negative workers",
			modifyConfig: func(c *Config) { c.Categorization.Workers = -1 },
			expectError:  "categorization.workers must not be negative",
		},
		{
			name:         "income debit code",
			modifyConfig: func(c *Config) { c.Transfers.DebitCode = "INC-007" },
			expectError:  "transfers.debit_code must be an expense code",
		},
		{
			name:         "expense credit code",
			modifyConfig: func(c *Config) { c.Transfers.CreditCode = "EXP-013" },
			expectError:  "transfers.credit_code must be valid for credits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modifyConfig(config)
			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
	assert.NotNil(t, NewLogger(&Config{Log: LogConfig{Level: "debug", Format: "json"}}))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CASCADE_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("CASCADE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("CASCADE_TEST_MISSING_VALUE", "fallback"))
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() {
		_ = os.Chdir(originalDir)
	})
	return tempDir
}

// clearTestEnvVars unsets variables that would leak into the defaults. t.Setenv
// with an empty value restores the original on cleanup; Unsetenv then removes it.
func clearTestEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"CASCADE_LOG_LEVEL",
		"CASCADE_LOG_FORMAT",
		"CASCADE_CSV_DELIMITER",
		"CASCADE_EXTERNAL_ENABLED",
		"CASCADE_EXTERNAL_SIMULATE",
		"CASCADE_EXTERNAL_MODEL",
		"CASCADE_EXTERNAL_REQUESTS_PER_MINUTE",
		"CASCADE_EXTERNAL_TIMEOUT_SECONDS",
		"CASCADE_CATEGORIZATION_LEARNING_ENABLED",
		"CASCADE_CATEGORIZATION_WORKERS",
		"CASCADE_CATEGORIZATION_HIGH_THRESHOLD",
		"CASCADE_TRANSFERS_CREDIT_CODE",
		"CASCADE_DATA_DIRECTORY",
		"GEMINI_API_KEY",
		"TEST_MODE",
	}
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
		require.NoError(t, os.Unsetenv(envVar))
	}
}
