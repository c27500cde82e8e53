// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"fjacquet/cascade-categorizer/internal/config"
	"fjacquet/cascade-categorizer/internal/container"
	"fjacquet/cascade-categorizer/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	LogLevel string
}

var (
	// Log is the shared logger instance for commands. It is replaced by the
	// configured logger once PersistentPreRunE has run.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the configuration loaded for the current invocation.
	AppConfig *config.Config

	// AppContainer holds the wired application dependencies.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "cascade",
		Short: "A CLI tool to categorize bank transactions through a cascade of strategies.",
		Long: `cascade categorizes bank transactions into a fixed taxonomy of expense and
income codes. Each transaction passes through internal transfer detection,
a keyword rule table, learned patterns, bank hints and an optional external
model until one of them produces a direction-valid answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			Log.Info("Welcome to cascade!")
			Log.Info("Use --help to see available commands")
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initialize(cmd.Context())
		},
		SilenceUsage: true,
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Override the configured log level (trace, debug, info, warn, error)")
}

func init() {
	cobra.OnFinalize(Finalize)
}

// Finalize closes the application container, persisting learned patterns and
// usage counters. Cobra runs it after every command, including failed ones.
func Finalize() {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close application container")
	}
	AppContainer = nil
}

func initialize(ctx context.Context) error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	AppConfig = cfg
	Log = config.NewLogger(cfg)

	if ctx == nil {
		ctx = context.Background()
	}
	c, err := container.NewContainer(ctx, cfg, container.WithLogger(Log))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	AppContainer = c
	return nil
}

// GetLogger returns the shared command logger.
func GetLogger() logging.Logger {
	return Log
}

// GetContainer returns the application container, or nil before initialization.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration, or nil before initialization.
func GetConfig() *config.Config {
	return AppConfig
}

// RequireContainer returns the container or an error when a command runs
// without initialization.
func RequireContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return AppContainer, nil
}
