package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	logrusLogger := logrus.New()
	var buf bytes.Buffer
	logrusLogger.SetOutput(&buf)
	logrusLogger.SetLevel(level)
	logrusLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(logrusLogger), &buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{"debug text", "debug", "text", logrus.DebugLevel, false},
		{"info json", "info", "json", logrus.InfoLevel, true},
		{"upper case level", "WARN", "text", logrus.WarnLevel, false},
		{"upper case json", "error", "JSON", logrus.ErrorLevel, true},
		{"invalid level defaults to info", "chatty", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(nil)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_LevelsAndFields(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger, string, ...Field)
	}{
		{"debug", func(l Logger, m string, f ...Field) { l.Debug(m, f...) }},
		{"info", func(l Logger, m string, f ...Field) { l.Info(m, f...) }},
		{"warn", func(l Logger, m string, f ...Field) { l.Warn(m, f...) }},
		{"error", func(l Logger, m string, f ...Field) { l.Error(m, f...) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedAdapter(logrus.DebugLevel)
			tt.logFunc(logger, "tier decided", F(FieldSource, "rule_db"))

			out := buf.String()
			assert.Contains(t, out, "tier decided")
			assert.Contains(t, out, "source=rule_db")
		})
	}
}

func TestLogrusAdapter_ChainedContext(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.InfoLevel)

	logger.
		WithField(FieldMerchantKey, "woolworths").
		WithFields(F(FieldCategory, "EXP-016"), F(FieldConfidence, 0.98)).
		WithError(errors.New("cache write failed")).
		Error("learning skipped")

	out := buf.String()
	assert.Contains(t, out, "learning skipped")
	assert.Contains(t, out, "merchant_key=woolworths")
	assert.Contains(t, out, "category=EXP-016")
	assert.Contains(t, out, "cache write failed")
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.WarnLevel)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusAdapter_SetOutput(t *testing.T) {
	logger := NewLogrusAdapter("info", "json")
	var buf bytes.Buffer
	logger.(*LogrusAdapter).SetOutput(&buf)
	logger.Info("to buffer", F(FieldCount, 3))
	assert.Contains(t, buf.String(), `"count":3`)
}

func TestConvertFields(t *testing.T) {
	converted := convertFields([]Field{F("a", "x"), F("b", 42), F("c", true)})
	assert.Len(t, converted, 3)
	assert.Equal(t, 42, converted["b"])
	assert.Empty(t, convertFields(nil))
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
}
