package categorizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"fjacquet/cascade-categorizer/internal/external"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/patterns"
	"fjacquet/cascade-categorizer/internal/rules"
	"fjacquet/cascade-categorizer/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeBatch_Sequential(t *testing.T) {
	detector := &mockDetector{}
	cache := &mockCache{}
	c, logger := newTestCategorizer(Dependencies{
		Detector: detector,
		Cache:    cache,
		Rules: &mockRules{matchFunc: func(key string) (rules.Match, bool) {
			if key == "woolworths" {
				return rules.Match{Code: "EXP-016", Confidence: 0.98}, true
			}
			return rules.Match{}, false
		}},
	}, DefaultConfig())

	txs := []models.Transaction{
		newTx("WOOLWORTHS", "-10", ""),
		newTx("UNKNOWN SHOP", "-5", ""),
		newTx("SALARY ACME", "1000", ""),
	}

	got, err := c.CategorizeBatch(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "EXP-016", got[0].Code)
	assert.Equal(t, models.CodeUncategorizedExpense, got[1].Code)
	assert.Equal(t, "INC-009", got[2].Code)

	assert.Equal(t, 1, detector.analyzeCalls)
	assert.Equal(t, 1, cache.saveCalls)
	assert.Equal(t, 3, c.Stats().Total())
	assert.True(t, logger.HasEntry("INFO", "Batch categorized"))
	assert.True(t, logger.HasEntry("INFO", "Categorization summary"))
}

func TestCategorizeBatch_AnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"shared detector already analyzed", transfer.ErrAlreadyAnalyzed},
		{"other failure", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := &mockDetector{analyzeErr: tt.err}
			c, _ := newTestCategorizer(Dependencies{Detector: detector}, DefaultConfig())

			_, err := c.CategorizeBatch(context.Background(), []models.Transaction{newTx("SHOP", "-1", "")})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "transfer analysis")
		})
	}
}

func TestCategorizeBatch_DetectorPerBatch(t *testing.T) {
	shared := &mockDetector{}
	var created []*mockDetector
	c, _ := newTestCategorizer(Dependencies{
		Detector: shared,
		NewDetector: func() TransferDetector {
			d := &mockDetector{}
			created = append(created, d)
			return d
		},
	}, DefaultConfig())

	for i := 0; i < 2; i++ {
		_, err := c.CategorizeBatch(context.Background(), []models.Transaction{newTx("SHOP", "-1", "")})
		require.NoError(t, err)
	}

	require.Len(t, created, 2)
	assert.Equal(t, 1, created[0].analyzeCalls)
	assert.Equal(t, 1, created[1].analyzeCalls)
	assert.Equal(t, 0, shared.analyzeCalls)
}

// A later batch must find transfers from its own evidence even when an
// earlier batch on the same Categorizer had none.
func TestCategorizeBatch_AccountSetPerBatch(t *testing.T) {
	logger := logging.NewMockLogger()
	c := New(Dependencies{
		Taxonomy:    testTaxonomy(),
		Detector:    transfer.NewDetector(logger),
		NewDetector: func() TransferDetector { return transfer.NewDetector(logger) },
	}, DefaultConfig(), logger)

	first, err := c.CategorizeBatch(context.Background(), []models.Transaction{newTx("COFFEE", "-4", "")})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, models.CodeUncategorizedExpense, first[0].Code)

	second, err := c.CategorizeBatch(context.Background(), []models.Transaction{
		newTx("TRANSFER FROM 000123456", "500", ""),
		newTx("TRANSFER TO 000123456", "-500", ""),
	})
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, models.CategoryPrediction{
		Code: models.CodeUncategorizedIncome, Confidence: 0.95,
		Source: models.SourceInternalTransfer, Reason: "transfer between own accounts",
	}, second[0])
	assert.Equal(t, models.CategoryPrediction{
		Code: models.CodeInternalTransfer, Confidence: 0.95,
		Source: models.SourceInternalTransfer, Reason: "transfer between own accounts",
	}, second[1])
}

func TestCategorizeBatch_CancelledContext(t *testing.T) {
	c, _ := newTestCategorizer(Dependencies{}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CategorizeBatch(ctx, []models.Transaction{newTx("SHOP", "-1", "")})
	assert.ErrorIs(t, err, context.Canceled)
}

type batchCase struct {
	desc, amount, hint string
	want               string
}

var batchCases = []batchCase{
	{"WOOLWORTHS 1234 SYDNEY", "-45.10", "", "EXP-016"},
	{"SALARY ACME PTY LTD", "2500.00", "", "INC-009"},
	{"KFC PARRAMATTA NSW", "-12.00", "", "EXP-008"},
	{"SALARY SACRIFICE ADJ", "-50.00", "", models.CodeUncategorizedExpense},
	{"MYSTERY DEPOSIT", "75.00", "Groceries", models.CodeUncategorizedIncome},
	{"AGL ENERGY", "-120.00", "", "EXP-040"},
	{"REFUND COLES", "15.00", "", models.CodeRefund},
	{"ZERO FEE", "0", "", models.CodeUncategorizedExpense},
}

// Every final code must agree with the amount sign, whatever tier produced it.
func TestCategorizeBatch_DirectionalInvariant(t *testing.T) {
	logger := logging.NewMockLogger()
	taxonomy := testTaxonomy()

	matcher, err := rules.NewMatcher([]rules.Rule{
		{Keywords: []string{"woolworths"}, Code: "EXP-016", Confidence: 0.98, Reason: "supermarket"},
		{Keywords: []string{"agl"}, Code: "EXP-040", Confidence: 0.85, Reason: "utility"},
	})
	require.NoError(t, err)

	cache := patterns.NewCache(filepath.Join(t.TempDir(), "learned_patterns.json"), patterns.DefaultLearnThreshold, logger)
	adapter := external.NewAdapter(external.NewSimulatedBackend(), taxonomy, external.Config{}, logger)

	cfg := DefaultConfig()
	cfg.Workers = 4
	c := New(Dependencies{
		Taxonomy: taxonomy,
		Detector: transfer.NewDetector(logger),
		Rules:    matcher,
		Cache:    cache,
		External: adapter,
	}, cfg, logger)

	var txs []models.Transaction
	for i := 0; i < 40; i++ {
		for _, bc := range batchCases {
			txs = append(txs, newTx(bc.desc, bc.amount, bc.hint))
		}
	}
	require.GreaterOrEqual(t, len(txs), 100)

	got, err := c.CategorizeBatch(context.Background(), txs)
	require.NoError(t, err)
	require.Len(t, got, len(txs))

	for i, p := range got {
		tx := txs[i]
		assert.True(t, models.IsValidForDirection(p.Code, tx.Amount.Sign()),
			fmt.Sprintf("%s (%s) got %s", tx.Description, tx.Amount, p.Code))
		assert.Equal(t, batchCases[i%len(batchCases)].want, p.Code, tx.Description)
	}

	assert.Equal(t, 0, c.Stats().Counter(models.StatDirectionViolations))
	pattern, ok := cache.Get("kfc")
	require.True(t, ok)
	assert.Equal(t, "EXP-008", pattern.Category)
}
