package categorizer

import (
	"strings"

	"fjacquet/cascade-categorizer/internal/models"
)

// DefaultHintConfidence applies to mappings that carry no confidence.
const DefaultHintConfidence = 0.85

var defaultVagueHints = []string{
	"Third Party Payment Providers",
	"Uncategorised",
	"Department Stores",
	"Financial Services",
	"Overdrawn",
}

var defaultIgnoredHints = []string{
	"Uncategorised",
	"Uncategorized",
	"Other",
	"Unknown",
	"All Other Credits",
	"All Other Debits",
}

// DefaultHintTable returns the built-in bank hint mappings.
func DefaultHintTable() models.HintTable {
	return models.HintTable{
		Mappings: []models.HintMapping{
			{Hint: "Groceries", Code: "EXP-016", Confidence: 0.91},
			{Hint: "Utilities", Code: "EXP-040", Confidence: 0.92},
			{Hint: "Wages", Code: "INC-009", Confidence: 0.93},
			{Hint: "Salary", Code: "INC-009"},
			{Hint: "Insurance", Code: "EXP-021", Confidence: 0.92},
			{Hint: "Tax", Code: "EXP-015", Confidence: 0.92},
			{Hint: "Health", Code: "EXP-018", Confidence: 0.90},
			{Hint: "Medicare", Code: "INC-015", Confidence: 0.93},
			{Hint: "Credit Card Repayments", Code: "EXP-061", Confidence: 0.92},
			{Hint: "Dining Out", Code: "EXP-008"},
			{Hint: "Restaurants", Code: "EXP-008"},
			{Hint: "Transport", Code: "EXP-041"},
			{Hint: "Fuel", Code: "EXP-041"},
			{Hint: "Rent", Code: "EXP-030"},
			{Hint: "Phone", Code: "EXP-036"},
			{Hint: "Internet", Code: "EXP-036"},
			{Hint: "Alcohol", Code: "EXP-051"},
			{Hint: "Entertainment", Code: "EXP-012"},
			{Hint: "Shopping", Code: "EXP-031"},
			{Hint: "Travel", Code: "EXP-038"},
			{Hint: "Education", Code: "EXP-011"},
			{Hint: "Fitness", Code: "EXP-017"},
			{Hint: "Gambling", Code: "EXP-014"},
			{Hint: "Pets", Code: "EXP-028"},
			{Hint: "Interest", Code: "INC-004"},
			{Hint: "Centrelink", Code: "INC-014"},
			{Hint: "Pension", Code: "INC-018"},
			{Hint: "Internal Transfer", Code: models.CodeInternalTransfer},
		},
		Vague:   append([]string(nil), defaultVagueHints...),
		Ignored: append([]string(nil), defaultIgnoredHints...),
	}
}

// HintMapper resolves upstream hint labels. Lookups are case-insensitive and
// the mapper is read-only after construction.
type HintMapper struct {
	mappings map[string]models.HintMapping
	vague    map[string]struct{}
	ignored  map[string]struct{}
}

// NewHintMapper builds a mapper over table. Empty vague and ignored lists
// fall back to the built-in ones.
func NewHintMapper(table models.HintTable, defaultConfidence float64) *HintMapper {
	if defaultConfidence <= 0 {
		defaultConfidence = DefaultHintConfidence
	}
	h := &HintMapper{
		mappings: make(map[string]models.HintMapping, len(table.Mappings)),
		vague:    toSet(table.Vague, defaultVagueHints),
		ignored:  toSet(table.Ignored, defaultIgnoredHints),
	}
	for _, m := range table.Mappings {
		key := hintKey(m.Hint)
		if key == "" || m.Code == "" {
			continue
		}
		if m.Confidence <= 0 {
			m.Confidence = defaultConfidence
		}
		h.mappings[key] = m
	}
	return h
}

func toSet(values, fallback []string) map[string]struct{} {
	if len(values) == 0 {
		values = fallback
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[hintKey(v)] = struct{}{}
	}
	return set
}

func hintKey(hint string) string {
	return strings.ToLower(strings.TrimSpace(hint))
}

// IsVague reports whether hint is known but too broad to map directly.
func (h *HintMapper) IsVague(hint string) bool {
	_, ok := h.vague[hintKey(hint)]
	return ok
}

// IsIgnored reports whether hint carries no information.
func (h *HintMapper) IsIgnored(hint string) bool {
	key := hintKey(hint)
	if key == "" {
		return true
	}
	_, ok := h.ignored[key]
	return ok
}

// Trusted returns the mapping for hint when it is neither vague nor ignored
// and maps to a non-sentinel code.
func (h *HintMapper) Trusted(hint string) (models.HintMapping, bool) {
	if h.IsIgnored(hint) || h.IsVague(hint) {
		return models.HintMapping{}, false
	}
	m, ok := h.mappings[hintKey(hint)]
	if !ok || models.IsSentinel(m.Code) {
		return models.HintMapping{}, false
	}
	return m, true
}

// Len returns the number of mappings.
func (h *HintMapper) Len() int {
	return len(h.mappings)
}
