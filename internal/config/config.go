package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/cascade-categorizer/internal/logging"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads environment variables from a .env file in the working
// directory or its parent, once per process. Variables already set win.
func LoadEnv(logger logging.Logger) {
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				if logger != nil {
					logger.Debug("No .env file found, using environment variables")
				}
				return
			}
		}

		if err := godotenv.Load(envFile); err != nil {
			if logger != nil {
				logger.WithError(err).Warn("Error loading .env file")
			}
			return
		}
		if logger != nil {
			logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
		}
	})
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *Config) logging.Logger {
	if cfg == nil {
		return logging.NewLogrusAdapter("info", "text")
	}
	return logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
