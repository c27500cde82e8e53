// Package external wraps the paid classification service behind a
// fail-soft adapter with interchangeable network and simulated backends.
package external

import (
	"strings"

	"fjacquet/cascade-categorizer/internal/models"

	"github.com/shopspring/decimal"
)

// Suggestion is a medium-confidence rule result sent along for validation.
type Suggestion struct {
	Code       string
	Confidence float64
	Reason     string
}

// Request is everything the external service sees about one transaction.
// Description is already sanitized.
type Request struct {
	Description    string
	Amount         decimal.Decimal
	HintCategory   string
	Similar        []models.SimilarPattern
	RuleSuggestion *Suggestion
}

// Prediction is the adapter's answer. It is always populated; failures carry
// a low-confidence sentinel and the cause in Reasoning.
type Prediction struct {
	Code       string
	Confidence float64
	Reasoning  string
}

// BuildRequest assembles a request from a transaction and the cascade's
// context.
func BuildRequest(tx models.Transaction, similar []models.SimilarPattern, suggestion *Suggestion) Request {
	return Request{
		Description:    Sanitize(tx.Description),
		Amount:         tx.Amount,
		HintCategory:   Sanitize(strings.TrimSpace(tx.HintCategory)),
		Similar:        similar,
		RuleSuggestion: suggestion,
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Sanitize escapes backslashes and double quotes and drops control
// characters other than newline, carriage return and tab.
func Sanitize(s string) string {
	s = escaper.Replace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
