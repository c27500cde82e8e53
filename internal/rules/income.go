package rules

import "strings"

type incomeGroup struct {
	code       string
	confidence float64
	reason     string
	keywords   []string
}

// incomeGroups are checked in order for credits before the rule table.
// Refund keywords map to the refund expense code.
var incomeGroups = []incomeGroup{
	{"INC-009", 0.99, "salary keyword", []string{
		"wage", "wages", "salary", "salaries", "pay from", "payment from", "payroll",
		"fortnightly pay", "weekly pay", "monthly pay", "net pay", "gross pay",
		"employer payment", "employment income",
	}},
	{"INC-012", 0.99, "student benefit keyword", []string{"youth allowance", "austudy", "abstudy"}},
	{"INC-014", 0.99, "government benefit keyword", []string{
		"centrelink", "services australia", "family tax benefit", "ftb",
		"parenting payment", "carer payment",
	}},
	{"INC-016", 0.99, "jobseeker keyword", []string{"jobseeker", "newstart", "job seeker"}},
	{"INC-017", 0.99, "age pension keyword", []string{"age pension", "aged pension"}},
	{"INC-018", 0.99, "disability support keyword", []string{"disability support", "dsp", "disability pension"}},
	{"EXP-032", 0.98, "refund keyword", []string{
		"refund", "return", "reversal", "reversed", "credit adjustment",
		"chargeback", "reimbursement", "rebate",
	}},
	{"INC-001", 0.98, "business income keyword", []string{
		"invoice payment", "client payment", "payment received", "stripe transfer",
		"paypal transfer", "square deposit", "eftpos settlement",
	}},
	{"INC-002", 0.98, "child support keyword", []string{"child support", "child maintenance"}},
	{"INC-005", 0.98, "dividend keyword", []string{"dividend", "div payment", "stock dividend", "share dividend", "distribution"}},
	{"INC-008", 0.98, "rental income keyword", []string{"rental income", "rent received", "property income"}},
	{"INC-010", 0.98, "retirement income keyword", []string{"super payment", "superannuation payment", "pension payment", "annuity"}},
	{"INC-013", 0.98, "investment income keyword", []string{"interest credit", "interest received", "investment return", "bond payment"}},
	{"INC-015", 0.98, "medicare keyword", []string{"medicare benefit", "mcare benefit", "health insurance rebate"}},
	{"INC-019", 0.98, "windfall keyword", []string{"inheritance", "estate payment", "insurance payout", "settlement"}},
	{"INC-020", 0.98, "commission keyword", []string{"commission payment", "sales commission", "referral fee", "affiliate payment"}},
	{"INC-021", 0.98, "bonus keyword", []string{"bonus payment", "performance bonus", "annual bonus", "incentive payment"}},
}

var incomeMatcher = mustIncomeMatcher()

func mustIncomeMatcher() *Matcher {
	table := make([]Rule, 0, len(incomeGroups))
	for _, g := range incomeGroups {
		table = append(table, Rule{Keywords: g.keywords, Code: g.code, Confidence: g.confidence, Reason: g.reason})
	}
	m, err := NewMatcher(table)
	if err != nil {
		panic(err)
	}
	return m
}

// MatchIncome checks a credit's description against the built-in income
// keyword groups. The text is matched whole-word after lower-casing and
// collapsing whitespace.
func MatchIncome(text string) (Match, bool) {
	return incomeMatcher.Match(strings.Join(strings.Fields(text), " "))
}
