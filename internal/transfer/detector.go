// Package transfer detects movements between accounts owned by the same
// customer using weak signals found in a batch of transactions.
package transfer

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"

	"fjacquet/cascade-categorizer/internal/dateutils"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"

	"github.com/shopspring/decimal"
)

// State is the lifecycle of a Detector's analysis pass.
type State int

const (
	StateUninitialized State = iota
	StateAnalyzing
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateAnalyzing:
		return "ANALYZING"
	case StateInitialized:
		return "INITIALIZED"
	default:
		return "UNINITIALIZED"
	}
}

// ErrAlreadyAnalyzed is returned when Analyze runs a second time.
var ErrAlreadyAnalyzed = errors.New("transfer analysis already performed")

const internalMarker = "internal transfer"

// minPartialMatch is the shortest account fragment accepted for a
// contains/contained-by comparison.
const minPartialMatch = 6

var (
	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{3})[- ]?(\d{6,9})\b`),
		regexp.MustCompile(`(?i)(?:TO|FROM)\s+(\d{6,9})\b`),
		regexp.MustCompile(`(?i)TRANSFER\s+\d+\s+(?:TO|FROM)\s+(\d{6,9})`),
	}

	transferKeywords = regexp.MustCompile(`(?i)\b(?:TFER|TRANSFER|FUNDS\s+TFER|M-BANKING\s+FUNDS|INTERNET\s+BANKING\s+PAYMENT|MOBILE\s+BANKING\s+PAYMENT)\b`)

	pairTolerance = decimal.New(1, -2)
)

type accountSighting struct {
	credit bool
	debit  bool
}

// Detector classifies transactions as internal transfers. The zero value is
// not usable; call NewDetector.
type Detector struct {
	mu       sync.RWMutex
	state    State
	accounts map[string]struct{}
	logger   logging.Logger
}

// NewDetector creates a Detector in the uninitialized state.
func NewDetector(logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Detector{
		accounts: make(map[string]struct{}),
		logger:   logger,
	}
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Analyze builds the confirmed account set from batch. Extra accounts are
// added unconditionally. It may only run once per Detector.
func (d *Detector) Analyze(batch []models.Transaction, extra ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUninitialized {
		return ErrAlreadyAnalyzed
	}
	d.state = StateAnalyzing

	sightings := make(map[string]*accountSighting)
	extracted := make([][]string, len(batch))

	for i, tx := range batch {
		if own := tx.OwnAccount(); own != "" {
			d.confirm(own, "explicit")
		}

		accts := ExtractAccounts(tx.Description)
		extracted[i] = accts
		for _, a := range accts {
			s, ok := sightings[a]
			if !ok {
				s = &accountSighting{}
				sightings[a] = s
			}
			switch tx.Direction() {
			case models.DirectionCredit:
				s.credit = true
			case models.DirectionDebit:
				s.debit = true
			}
		}

		if IsInternalMarker(tx.HintCategory) || IsInternalMarker(tx.ThirdParty) {
			for _, a := range accts {
				d.confirm(a, "hint")
			}
		}
	}

	for _, a := range extra {
		if a = digitsOnly(a); a != "" {
			d.confirm(a, "explicit")
		}
	}

	for account, s := range sightings {
		if s.credit && s.debit {
			d.confirm(account, "bidirectional")
		}
	}

	d.confirmPairs(batch, extracted)

	d.state = StateInitialized
	d.logger.Info("Transfer analysis complete",
		logging.F(logging.FieldCount, len(batch)),
		logging.F(logging.FieldAccount, len(d.accounts)))
	return nil
}

// confirmPairs adds accounts from same-day transfer transactions whose
// amounts offset each other within one cent.
func (d *Detector) confirmPairs(batch []models.Transaction, extracted [][]string) {
	var candidates []int
	for i, tx := range batch {
		if tx.Amount.IsZero() || !HasTransferKeyword(tx.Description) {
			continue
		}
		candidates = append(candidates, i)
	}

	for x := 0; x < len(candidates); x++ {
		a := batch[candidates[x]]
		for y := x + 1; y < len(candidates); y++ {
			b := batch[candidates[y]]
			if a.Amount.Sign() == b.Amount.Sign() {
				continue
			}
			if !dateutils.SameDay(a.Date, b.Date) {
				continue
			}
			if a.Amount.Abs().Sub(b.Amount.Abs()).Abs().GreaterThanOrEqual(pairTolerance) {
				continue
			}
			for _, acct := range extracted[candidates[x]] {
				d.confirm(acct, "paired")
			}
			for _, acct := range extracted[candidates[y]] {
				d.confirm(acct, "paired")
			}
		}
	}
}

func (d *Detector) confirm(account, reason string) {
	if _, ok := d.accounts[account]; ok {
		return
	}
	d.accounts[account] = struct{}{}
	d.logger.Debug("Confirmed user account",
		logging.F(logging.FieldAccount, account),
		logging.F(logging.FieldReason, reason))
}

// IsInternal reports whether a transaction moves money between the
// customer's own accounts. Before Analyze only the hint markers are used.
func (d *Detector) IsInternal(description string, amount decimal.Decimal, hint, thirdParty string) bool {
	if IsInternalMarker(hint) || IsInternalMarker(thirdParty) {
		return true
	}
	if !HasTransferKeyword(description) {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.state != StateInitialized || len(d.accounts) == 0 {
		return false
	}

	for _, candidate := range ExtractAccounts(description) {
		if _, ok := d.accounts[candidate]; ok {
			return true
		}
		for known := range d.accounts {
			if partialMatch(candidate, known) {
				return true
			}
		}
	}
	return false
}

// UserAccounts returns the confirmed accounts in sorted order.
func (d *Detector) UserAccounts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.accounts))
	for a := range d.accounts {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ExtractAccounts returns the distinct account identifiers referenced in a
// description, in pattern order.
func ExtractAccounts(description string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range accountPatterns {
		for _, m := range re.FindAllStringSubmatch(description, -1) {
			account := strings.Join(m[1:], "")
			if account == "" || seen[account] {
				continue
			}
			seen[account] = true
			out = append(out, account)
		}
	}
	return out
}

// HasTransferKeyword reports whether description reads like a transfer.
func HasTransferKeyword(description string) bool {
	return transferKeywords.MatchString(description)
}

// IsInternalMarker reports whether an upstream label such as "Internal
// Transfer Credit" marks a transaction as an internal transfer.
func IsInternalMarker(label string) bool {
	return strings.Contains(strings.ToLower(label), internalMarker)
}

func partialMatch(a, b string) bool {
	if len(a) < minPartialMatch || len(b) < minPartialMatch {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
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
