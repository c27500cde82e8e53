package batch

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"
)

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// DateRangeOf returns the overall range of dated transactions.
func DateRangeOf(transactions []models.Transaction) DateRange {
	var dr DateRange
	for _, tx := range transactions {
		if tx.Date.IsZero() {
			continue
		}
		dr = dr.Merge(DateRange{Start: tx.Date, End: tx.Date})
	}
	return dr
}

// duplicateKey identifies potential duplicates: same date, amount and
// description, case-insensitive.
func duplicateKey(tx models.Transaction) string {
	return tx.Date.Format("2006-01-02") + "|" + tx.Amount.String() + "|" +
		strings.ToLower(strings.Join(strings.Fields(tx.Description), " "))
}

// detectAndLogDuplicates logs potential duplicate transactions and returns
// how many rows repeat an earlier one. Duplicates are kept.
func detectAndLogDuplicates(transactions []models.Transaction, logger logging.Logger) int {
	seen := make(map[string]struct{}, len(transactions))
	duplicates := 0
	for _, tx := range transactions {
		key := duplicateKey(tx)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			continue
		}
		duplicates++
		logger.Warn("Potential duplicate transaction",
			logging.F("date", tx.Date.Format("2006-01-02")),
			logging.F(logging.FieldAmount, tx.Amount.String()),
			logging.F(logging.FieldDescription, tx.Description))
	}

	if duplicates > 0 {
		logger.Warn("Found potential duplicate transactions", logging.F(logging.FieldCount, duplicates))
	}
	return duplicates
}
