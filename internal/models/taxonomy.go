package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Taxonomy code conventions.
const (
	ExpensePrefix = "EXP-"
	IncomePrefix  = "INC-"

	// CodeRefund is the one expense code allowed on positive amounts.
	CodeRefund = "EXP-032"

	// CodeUncategorizedExpense and CodeUncategorizedIncome are the generic
	// sentinels returned when no tier is confident.
	CodeUncategorizedExpense = "EXP-039"
	CodeUncategorizedIncome  = "INC-007"

	CodeInternalTransfer = "EXP-013"
)

// Category is one entry of the closed taxonomy.
type Category struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Taxonomy is the ordered, read-only set of category codes.
type Taxonomy struct {
	categories []Category
	index      map[string]int
}

// NewTaxonomy builds a Taxonomy preserving the given order. Codes are
// upper-cased; duplicates keep their first position.
func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{index: make(map[string]int, len(categories))}
	for _, c := range categories {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			continue
		}
		if _, dup := t.index[code]; dup {
			continue
		}
		t.index[code] = len(t.categories)
		t.categories = append(t.categories, Category{Code: code, Name: strings.TrimSpace(c.Name)})
	}
	return t
}

// Categories returns a copy of the ordered category list.
func (t *Taxonomy) Categories() []Category {
	if t == nil {
		return nil
	}
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.categories)
}

// Contains reports whether code belongs to the taxonomy. An empty taxonomy
// accepts any code in the expense or income namespace.
func (t *Taxonomy) Contains(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if t.Len() == 0 {
		return IsExpenseCode(code) || IsIncomeCode(code)
	}
	_, ok := t.index[code]
	return ok
}

// Name returns the display name of code, or "" if unknown.
func (t *Taxonomy) Name(code string) string {
	if t == nil {
		return ""
	}
	if i, ok := t.index[strings.ToUpper(code)]; ok {
		return t.categories[i].Name
	}
	return ""
}

// IsValidForAmount applies the directional rule: negative amounts take
// expense codes, positive amounts take income codes or the refund code, and
// zero accepts either namespace.
func (t *Taxonomy) IsValidForAmount(code string, amount decimal.Decimal) bool {
	return IsValidForDirection(code, amount.Sign())
}

// IsValidForDirection is the taxonomy-independent form of IsValidForAmount.
func IsValidForDirection(code string, amountSign int) bool {
	code = strings.ToUpper(code)
	switch {
	case amountSign < 0:
		return IsExpenseCode(code)
	case amountSign > 0:
		return IsIncomeCode(code) || code == CodeRefund
	default:
		return IsExpenseCode(code) || IsIncomeCode(code)
	}
}

// IsExpenseCode reports whether code is in the expense namespace.
func IsExpenseCode(code string) bool {
	return strings.HasPrefix(strings.ToUpper(code), ExpensePrefix)
}

// IsIncomeCode reports whether code is in the income namespace.
func IsIncomeCode(code string) bool {
	return strings.HasPrefix(strings.ToUpper(code), IncomePrefix)
}

// IsSentinel reports whether code is one of the generic uncategorized codes.
func IsSentinel(code string) bool {
	code = strings.ToUpper(code)
	return code == CodeUncategorizedExpense || code == CodeUncategorizedIncome
}

// SentinelFor returns the uncategorized code matching the amount sign.
// Zero amounts are treated as expenses.
func SentinelFor(amountSign int) string {
	if amountSign > 0 {
		return CodeUncategorizedIncome
	}
	return CodeUncategorizedExpense
}
