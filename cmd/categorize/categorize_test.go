package categorize

import (
	"bytes"
	"context"
	"testing"
	"time"

	"fjacquet/cascade-categorizer/cmd/root"
	"fjacquet/cascade-categorizer/internal/config"
	"fjacquet/cascade-categorizer/internal/container"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/rules"
	"fjacquet/cascade-categorizer/internal/store"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T, accounts ...string) *container.Container {
	t.Helper()
	cfg := &config.Config{
		Log: config.LogConfig{Level: "info", Format: "text"},
		CSV: config.CSVConfig{Delimiter: ","},
		Categorization: config.CategorizationConfig{
			HighThreshold:      0.90,
			MediumThreshold:    0.80,
			LearnThreshold:     0.90,
			SentinelConfidence: 0.3,
			ParallelThreshold:  100,
		},
		Transfers: config.TransfersConfig{
			Enabled:    true,
			Confidence: 0.95,
			DebitCode:  "EXP-013",
			CreditCode: "INC-007",
			Accounts:   accounts,
		},
		Data:      config.DataConfig{Directory: t.TempDir(), PatternsFile: "learned_patterns.json"},
	}
	loader := &store.MockDataStore{
		Taxonomy: []models.Category{
			{Code: "EXP-013", Name: "Internal Transfer"},
			{Code: "EXP-016", Name: "Groceries"},
			{Code: "EXP-039", Name: "Uncategorised"},
			{Code: "INC-007", Name: "Other Income"},
		},
		Rules: []rules.Rule{
			{Keywords: []string{"woolworths"}, Code: "EXP-016", Confidence: 0.98, Reason: "supermarket"},
		},
	}
	c, err := container.NewContainer(context.Background(), cfg,
		container.WithLoader(loader), container.WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)
	return c
}

func withFlags(t *testing.T, desc, amt, h string) {
	t.Helper()
	origDesc, origAmount, origHint := description, amount, hint
	t.Cleanup(func() {
		description, amount, hint = origDesc, origAmount, origHint
	})
	description, amount, hint = desc, amt, h
}

func withContainer(t *testing.T, c *container.Container) {
	t.Helper()
	orig := root.AppContainer
	t.Cleanup(func() { root.AppContainer = orig })
	root.AppContainer = c
}

func TestCategorizeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "categorize", Cmd.Use)
	assert.Contains(t, Cmd.Short, "Categorize")
	assert.Contains(t, Cmd.Long, "Example")
	assert.NotNil(t, Cmd.RunE)
}

func TestCategorizeCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"description", "d"},
		{"amount", "a"},
		{"hint", ""},
		{"third-party", ""},
		{"date", "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := Cmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.NotEmpty(t, flag.Usage)
		})
	}
}

func TestBuildTransaction(t *testing.T) {
	tx, err := buildTransaction(" KFC PARRAMATTA ", "-12.50", "Dining Out", "PayPal", "14/03/2025")
	require.NoError(t, err)
	assert.Equal(t, "KFC PARRAMATTA", tx.Description)
	assert.Equal(t, "-12.5", tx.Amount.String())
	assert.Equal(t, "Dining Out", tx.HintCategory)
	assert.Equal(t, "PayPal", tx.ThirdParty)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), tx.Date)

	_, err = buildTransaction("", "-1", "", "", "")
	assert.Error(t, err)
	_, err = buildTransaction("X", "ten", "", "", "")
	assert.Error(t, err)
	_, err = buildTransaction("X", "-1", "", "", "not a date")
	assert.Error(t, err)
}

func TestCategorizeFunc(t *testing.T) {
	withContainer(t, newTestContainer(t))
	withFlags(t, "WOOLWORTHS 1234 MELBOURNE VIC", "-45.50", "Groceries")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, categorizeFunc(cmd, nil))
	assert.Contains(t, out.String(), "EXP-016")
	assert.Contains(t, out.String(), "Groceries")
	assert.Contains(t, out.String(), "0.98")
	assert.Contains(t, out.String(), "rule_db")
}

func TestCategorizeFunc_ConfiguredAccounts(t *testing.T) {
	tests := []struct {
		name       string
		accounts   []string
		wantCode   string
		wantSource string
	}{
		{"own account configured", []string{"000-999888"}, "EXP-013", "internal_transfer"},
		{"no accounts configured", nil, "EXP-039", "uncategorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withContainer(t, newTestContainer(t, tt.accounts...))
			withFlags(t, "TRANSFER TO 000999888", "-200.00", "")

			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			cmd.SetContext(context.Background())

			require.NoError(t, categorizeFunc(cmd, nil))
			assert.Contains(t, out.String(), "Code:       "+tt.wantCode)
			assert.Contains(t, out.String(), "Source:     "+tt.wantSource)
		})
	}
}

func TestCategorizeFunc_NoContainer(t *testing.T) {
	withContainer(t, nil)
	withFlags(t, "WOOLWORTHS", "-1", "")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := categorizeFunc(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container not initialized")
}
