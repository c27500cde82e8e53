package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/cascade-categorizer/internal/common"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCategorizer struct {
	calls int
	seen  []models.Transaction
	err   error
}

func (m *mockCategorizer) CategorizeBatch(_ context.Context, txs []models.Transaction) ([]models.CategoryPrediction, error) {
	m.calls++
	m.seen = txs
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.CategoryPrediction, len(txs))
	for i, tx := range txs {
		if tx.Amount.Sign() > 0 {
			out[i] = models.CategoryPrediction{Code: "INC-009", Confidence: 0.99, Source: models.SourceRuleDB, Reason: "salary keyword"}
		} else {
			out[i] = models.CategoryPrediction{Code: "EXP-016", Confidence: 0.9123, Source: models.SourceHintFallback, Reason: "bank hint"}
		}
	}
	return out, nil
}

const sampleCSV = `date,description,amount,hint_category,third_party,account_number,bsb
14/03/2025,WOOLWORTHS 1234 SYDNEY,-45.10,Groceries,,12345678,062-000
15/03/2025,SALARY ACME PTY LTD,"2,500.00",Wages,,12345678,062-000
16/03/2025,BROKEN AMOUNT,abc,,,,
not a date,BROKEN DATE,-1.00,,,,
17/03/2025,,-3.00,,,,
`

func writeInput(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte(content), 0600))
	return input, filepath.Join(dir, "out", "result.csv")
}

func testTaxonomy() *models.Taxonomy {
	return models.NewTaxonomy([]models.Category{
		{Code: "EXP-016", Name: "Groceries"},
		{Code: "INC-009", Name: "Salary"},
	})
}

func TestRunner_Run(t *testing.T) {
	input, output := writeInput(t, sampleCSV)
	logger := logging.NewMockLogger()
	cat := &mockCategorizer{}

	r := NewRunner(cat, testTaxonomy(), Options{Delimiter: ','}, logger)
	r.newID = func() string { return "run-1" }

	summary, err := r.Run(context.Background(), input, output)
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, "2025-03-14_2025-03-15", summary.DateRange.String())
	assert.Equal(t, 1, summary.BySource[models.SourceRuleDB])
	assert.Equal(t, 1, summary.BySource[models.SourceHintFallback])
	assert.Equal(t, 1, cat.calls)
	require.Len(t, cat.seen, 2)
	assert.Equal(t, "Groceries", cat.seen[0].HintCategory)
	assert.Equal(t, "12345678", cat.seen[0].AccountNumber)
	assert.Len(t, logger.GetEntriesByLevel("WARN"), 3)

	rows, err := common.ReadCSVFile[OutputRow](output, ',', logger)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, OutputRow{
		Date:          "2025-03-14",
		Description:   "WOOLWORTHS 1234 SYDNEY",
		Amount:        "-45.10",
		HintCategory:  "Groceries",
		AccountNumber: "12345678",
		BSB:           "062-000",
		CategoryCode:  "EXP-016",
		CategoryName:  "Groceries",
		Confidence:    "0.91",
		Source:        "hint_fallback",
		Reason:        "bank hint",
	}, rows[0])
	assert.Equal(t, "2500.00", rows[1].Amount)
	assert.Equal(t, "INC-009", rows[1].CategoryCode)
	assert.Equal(t, "Salary", rows[1].CategoryName)
}

func TestRunner_DateLayoutAndDelimiter(t *testing.T) {
	input, output := writeInput(t, "date;description;amount\n2025-01-02;KFC;-12.00\n")
	logger := logging.NewMockLogger()

	r := NewRunner(&mockCategorizer{}, testTaxonomy(), Options{Delimiter: ';', DateLayout: "02/01/2006"}, logger)
	_, err := r.Run(context.Background(), input, output)
	require.NoError(t, err)

	rows, err := common.ReadCSVFile[OutputRow](output, ';', logger)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "02/01/2025", rows[0].Date)
}

func TestRunner_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		r := NewRunner(&mockCategorizer{}, nil, Options{}, logging.NewMockLogger())
		_, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "out.csv")
		require.Error(t, err)
		var formatErr *parsererror.InvalidFormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("categorizer failure leaves no output", func(t *testing.T) {
		input, output := writeInput(t, sampleCSV)
		boom := errors.New("strict mode violation")
		r := NewRunner(&mockCategorizer{err: boom}, nil, Options{}, logging.NewMockLogger())

		_, err := r.Run(context.Background(), input, output)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		_, statErr := os.Stat(output)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestInputRow_ToTransaction(t *testing.T) {
	tests := []struct {
		name      string
		row       InputRow
		wantField string
	}{
		{"empty description", InputRow{Description: "  ", Amount: "1"}, "description"},
		{"bad amount", InputRow{Description: "X", Amount: "ten"}, "amount"},
		{"bad date", InputRow{Description: "X", Amount: "1", Date: "32/13/2025"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.row.toTransaction("in.csv:2")
			var parseErr *parsererror.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.wantField, parseErr.Field)
			assert.Equal(t, "in.csv:2", parseErr.Source)
		})
	}

	tx, err := InputRow{Description: " NETFLIX ", Amount: "-15.99"}.toTransaction("in.csv:3")
	require.NoError(t, err)
	assert.Equal(t, "NETFLIX", tx.Description)
	assert.True(t, tx.Date.IsZero())
	assert.Equal(t, "-15.99", tx.Amount.String())
}
