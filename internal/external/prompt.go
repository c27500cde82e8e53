package external

import (
	"fmt"
	"strings"

	"fjacquet/cascade-categorizer/internal/models"
)

// maxPromptExamples is how many similar patterns are shown for consistency.
const maxPromptExamples = 3

const brandKnowledge = `Australian Brand Knowledge (use this to improve accuracy):
- Supermarkets: Woolworths, Coles, ALDI, IGA -> EXP-016 (Groceries)
- Alcohol Retailers: Dan Murphy's, BWS, Liquorland, First Choice -> EXP-051 (Alcohol and Tobacco)
- Fuel Stations: Caltex, Shell, BP, 7-Eleven, Ampol, United, Liberty -> EXP-041 (Vehicle and Transport)
- Public Transport: MYKI (VIC), Opal (NSW), Go Card (QLD) -> EXP-041 (Vehicle and Transport)
- Telecommunications: Telstra, Optus, Vodafone, TPG -> EXP-036 (Telecommunication)
- Energy/Utilities: AGL, Origin, Momentum Energy, Red Energy -> EXP-040 (Utilities)
- Health Insurance: Bupa, Medibank, HCF, NIB -> EXP-021 (Insurance)
`

const replyFormat = `
Return your categorization as valid JSON (no markdown, just JSON):
{
  "category": "EXP-XXX or INC-XXX",
  "confidence": 0.XX,
  "reasoning": "Brief explanation"
}

Important:
- Use only codes from the taxonomy above
- Expense codes (EXP-) are for debits, income codes (INC-) for credits
- Be consistent with previous decisions for the same merchant
- Use high confidence (0.95+) only when certain
- Ignore location names in descriptions (suburbs, states)`

// RenderPrompt builds the text sent to a language-model backend. Only the
// taxonomy codes valid for the amount's direction are listed.
func RenderPrompt(req Request, taxonomy *models.Taxonomy) string {
	var b strings.Builder

	b.WriteString("Analyze this Australian bank transaction and categorize it into the most appropriate taxonomy code.\n\n")
	b.WriteString("Category Taxonomy:\n")
	if taxonomy.Len() == 0 {
		b.WriteString("- Expense codes use the form EXP-###, income codes INC-###\n")
	}
	sign := req.Amount.Sign()
	for _, c := range taxonomy.Categories() {
		if !models.IsValidForDirection(c.Code, sign) {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Code, c.Name)
	}
	b.WriteString("\n")
	b.WriteString(brandKnowledge)

	direction := "income/credit"
	if sign < 0 {
		direction = "expense/debit"
	}
	b.WriteString("\nTransaction Details:\n")
	fmt.Fprintf(&b, "- Description: %s\n", req.Description)
	fmt.Fprintf(&b, "- Amount: $%s (%s)\n", req.Amount.StringFixed(2), direction)
	if req.HintCategory != "" {
		fmt.Fprintf(&b, "- Bank Statement Category Hint: %s\n", req.HintCategory)
	}
	if s := req.RuleSuggestion; s != nil {
		fmt.Fprintf(&b, "- Rule Suggestion: %s (confidence %.2f, %s). Confirm or correct it.\n",
			s.Code, s.Confidence, s.Reason)
	}

	examples := 0
	for _, sp := range req.Similar {
		if examples == maxPromptExamples {
			break
		}
		if len(sp.Pattern.ExampleDescriptions) == 0 {
			continue
		}
		if examples == 0 {
			b.WriteString("\nPrevious similar categorizations (be consistent):\n")
		}
		fmt.Fprintf(&b, "- \"%s\" -> %s\n", Sanitize(sp.Pattern.ExampleDescriptions[0]), sp.Pattern.Category)
		examples++
	}

	b.WriteString(replyFormat)
	return b.String()
}
