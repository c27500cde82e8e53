// Package rules implements the ordered keyword rule table and the income
// prioritizer consulted for credits.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one row of the rule table. Rules are evaluated in slice order and
// the first rule with a matching keyword wins.
type Rule struct {
	Keywords   []string `yaml:"keywords" json:"keywords"`
	Code       string   `yaml:"code" json:"code"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
	Reason     string   `yaml:"reason" json:"reason"`
}

// Match is the result of a successful lookup.
type Match struct {
	Code       string
	Confidence float64
	Reason     string
	Keyword    string
}

type compiledRule struct {
	rule     Rule
	keywords []string
	patterns []*regexp.Regexp
}

// Matcher performs whole-word first-match lookups over a rule table.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles the rule table. Keywords are matched case-insensitively
// on word boundaries.
func NewMatcher(table []Rule) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(table))}
	for i, r := range table {
		if strings.TrimSpace(r.Code) == "" {
			return nil, fmt.Errorf("rule %d: empty code", i)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("rule %d (%s): confidence %.2f outside [0,1]", i, r.Code, r.Confidence)
		}

		cr := compiledRule{rule: r}
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			cr.keywords = append(cr.keywords, kw)
			cr.patterns = append(cr.patterns, wordPattern(kw))
		}
		if len(cr.patterns) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, r.Code)
		}
		m.rules = append(m.rules, cr)
	}
	return m, nil
}

// Match returns the first rule whose keyword appears as a whole word in key.
func (m *Matcher) Match(key string) (Match, bool) {
	if m == nil {
		return Match{}, false
	}
	key = strings.ToLower(key)
	for _, cr := range m.rules {
		for i, re := range cr.patterns {
			if re.MatchString(key) {
				return Match{
					Code:       strings.ToUpper(cr.rule.Code),
					Confidence: cr.rule.Confidence,
					Reason:     cr.rule.Reason,
					Keyword:    cr.keywords[i],
				}, true
			}
		}
	}
	return Match{}, false
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func wordPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
}
