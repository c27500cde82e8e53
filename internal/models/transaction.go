// Package models holds the data model shared by every stage of the cascade:
// transactions, predictions, the taxonomy and learned patterns.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection is the money-flow direction derived from the sign of
// the amount.
type TransactionDirection string

const (
	DirectionDebit   TransactionDirection = "debit"
	DirectionCredit  TransactionDirection = "credit"
	DirectionUnknown TransactionDirection = "unknown"
)

// String returns the upper-case direction label.
func (d TransactionDirection) String() string {
	return strings.ToUpper(string(d))
}

// DirectionOf returns the direction of a signed amount. Zero has no direction.
func DirectionOf(amount decimal.Decimal) TransactionDirection {
	switch amount.Sign() {
	case -1:
		return DirectionDebit
	case 1:
		return DirectionCredit
	default:
		return DirectionUnknown
	}
}

// Transaction is one input record. It is treated as immutable once built.
type Transaction struct {
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	HintCategory  string
	ThirdParty    string
	AccountNumber string
	BSB           string
}

// Direction returns the direction of the transaction amount.
func (t Transaction) Direction() TransactionDirection {
	return DirectionOf(t.Amount)
}

// OwnAccount returns the caller-supplied account key (BSB followed by the
// account number), or "" when no account number was given.
func (t Transaction) OwnAccount() string {
	account := digitsOnly(t.AccountNumber)
	if account == "" {
		return ""
	}
	return digitsOnly(t.BSB) + account
}

// ParseAmount parses a bank amount such as "-45.50", "$1,234.00" or "(12.00)".
// A trailing "CR" marks a credit and "DR" a debit.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "DR"):
		negative = true
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "CR"):
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	replacer := strings.NewReplacer("$", "", "AUD", "", ",", "", "'", "", " ", "")
	s = replacer.Replace(s)

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative && amount.IsPositive() {
		amount = amount.Neg()
	}
	return amount, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
