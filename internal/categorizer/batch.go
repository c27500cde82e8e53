package categorizer

import (
	"context"
	"fmt"
	"time"

	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"

	"golang.org/x/sync/errgroup"
)

// CategorizeBatch analyzes the batch for own-account transfers, then
// categorizes every transaction. Small batches run sequentially; larger ones
// fan out to the configured number of workers. Results keep input order.
func (c *Categorizer) CategorizeBatch(ctx context.Context, txs []models.Transaction) ([]models.CategoryPrediction, error) {
	start := time.Now()

	detector := c.batchDetector()
	if detector != nil && c.cfg.TransfersEnabled {
		if err := detector.Analyze(txs, c.cfg.OwnAccounts...); err != nil {
			return nil, fmt.Errorf("transfer analysis: %w", err)
		}
	}

	var (
		results []models.CategoryPrediction
		err     error
	)
	if len(txs) < c.cfg.ParallelThreshold {
		results, err = c.categorizeSequential(ctx, txs, detector)
	} else {
		results, err = c.categorizeConcurrent(ctx, txs, detector)
	}
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Save(); err != nil {
			c.logger.WithError(err).Warn("Failed to save learned patterns")
		}
	}

	c.logger.Info("Batch categorized",
		logging.F(logging.FieldCount, len(results)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	c.stats.LogSummary(c.logger)
	return results, nil
}

// batchDetector returns the detector whose account set covers one batch.
func (c *Categorizer) batchDetector() TransferDetector {
	if c.newDetector != nil {
		return c.newDetector()
	}
	return c.detector
}

func (c *Categorizer) categorizeSequential(ctx context.Context, txs []models.Transaction, detector TransferDetector) ([]models.CategoryPrediction, error) {
	results := make([]models.CategoryPrediction, len(txs))
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pred, err := c.categorize(ctx, tx, detector)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		results[i] = pred
	}
	return results, nil
}

func (c *Categorizer) categorizeConcurrent(ctx context.Context, txs []models.Transaction, detector TransferDetector) ([]models.CategoryPrediction, error) {
	c.logger.Debug("Using concurrent categorization",
		logging.F(logging.FieldCount, len(txs)),
		logging.F("workers", c.cfg.Workers))

	results := make([]models.CategoryPrediction, len(txs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i := range txs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pred, err := c.categorize(gctx, txs[i], detector)
			if err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
			results[i] = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
