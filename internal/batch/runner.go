// Package batch runs the categorizer over transaction export files.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/cascade-categorizer/internal/common"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"

	"github.com/google/uuid"
)

// Categorizer is the part of the orchestrator a Runner needs.
type Categorizer interface {
	CategorizeBatch(ctx context.Context, txs []models.Transaction) ([]models.CategoryPrediction, error)
}

// Options configure file handling.
type Options struct {
	Delimiter  rune
	DateLayout string
}

// Summary describes one run.
type Summary struct {
	RunID      string
	Rows       int
	Skipped    int
	Written    int
	Duplicates int
	DateRange  DateRange
	BySource   map[models.Source]int
	Duration   time.Duration
}

// Runner reads an export, categorizes it and writes the enriched rows.
type Runner struct {
	categorizer Categorizer
	taxonomy    *models.Taxonomy
	opts        Options
	logger      logging.Logger
	newID       func() string
}

// NewRunner creates a Runner.
func NewRunner(categorizer Categorizer, taxonomy *models.Taxonomy, opts Options, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if taxonomy == nil {
		taxonomy = models.NewTaxonomy(nil)
	}
	return &Runner{
		categorizer: categorizer,
		taxonomy:    taxonomy,
		opts:        opts,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// Run processes input into output. Rows that cannot be parsed are logged
// and skipped; any other failure aborts the run before output is written.
func (r *Runner) Run(ctx context.Context, input, output string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: r.newID(), BySource: make(map[models.Source]int)}
	logger := r.logger.WithFields(logging.F(logging.FieldRunID, summary.RunID))

	logger.Info("Starting batch run",
		logging.F(logging.FieldInputFile, input),
		logging.F(logging.FieldOutputFile, output))

	rows, err := common.ReadCSVFile[InputRow](input, r.opts.Delimiter, logger)
	if err != nil {
		return summary, &parsererror.InvalidFormatError{
			FilePath:       input,
			ExpectedFormat: "CSV with date, description, amount, hint_category, third_party, account_number, bsb",
			Msg:            err.Error(),
		}
	}
	summary.Rows = len(rows)

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		// header is line 1
		tx, err := row.toTransaction(fmt.Sprintf("%s:%d", input, i+2))
		if err != nil {
			var parseErr *parsererror.ParseError
			if !errors.As(err, &parseErr) {
				return summary, err
			}
			summary.Skipped++
			logger.WithError(err).Warn("Skipping invalid row")
			continue
		}
		txs = append(txs, tx)
	}

	summary.Duplicates = detectAndLogDuplicates(txs, logger)
	summary.DateRange = DateRangeOf(txs)

	predictions, err := r.categorizer.CategorizeBatch(ctx, txs)
	if err != nil {
		return summary, fmt.Errorf("categorizing %s: %w", input, err)
	}
	if len(predictions) != len(txs) {
		return summary, fmt.Errorf("categorizer returned %d results for %d transactions", len(predictions), len(txs))
	}

	out := make([]OutputRow, len(txs))
	for i, tx := range txs {
		out[i] = newOutputRow(tx, predictions[i], r.taxonomy, r.opts.DateLayout)
		summary.BySource[predictions[i].Source]++
	}

	if err := common.WriteCSVFile(out, output, r.opts.Delimiter, logger); err != nil {
		return summary, fmt.Errorf("writing %s: %w", output, err)
	}
	summary.Written = len(out)
	summary.Duration = time.Since(start)

	logger.Info("Batch run complete",
		logging.F(logging.FieldCount, summary.Written),
		logging.F("skipped", summary.Skipped),
		logging.F("duplicates", summary.Duplicates),
		logging.F("date_range", summary.DateRange.String()),
		logging.F(logging.FieldDuration, summary.Duration.Milliseconds()))
	return summary, nil
}
