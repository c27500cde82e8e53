package normalizer

import "regexp"

// TransactionType is the payment-method tag recovered from a description
// prefix.
type TransactionType string

const (
	TypePending       TransactionType = "PENDING"
	TypePOS           TransactionType = "POS"
	TypeCard          TransactionType = "CARD"
	TypeEFTPOS        TransactionType = "EFTPOS"
	TypeATM           TransactionType = "ATM"
	TypeDirectDebit   TransactionType = "DIRECT_DEBIT"
	TypeOnlineBanking TransactionType = "ONLINE_BANKING"
	TypeBPAY          TransactionType = "BPAY"
	TypeSalary        TransactionType = "SALARY"
	TypeInterest      TransactionType = "INTEREST"
	TypeTransfer      TransactionType = "TRANSFER"
	TypeOther         TransactionType = "OTHER"
	TypeUnknown       TransactionType = "UNKNOWN"
)

func (t TransactionType) String() string {
	return string(t)
}

type prefixRule struct {
	re  *regexp.Regexp
	typ TransactionType
}

func prefix(pattern string, typ TransactionType) prefixRule {
	return prefixRule{
		re:  regexp.MustCompile(`^(?:` + pattern + `)(?:\s+|\b|$)`),
		typ: typ,
	}
}

// typePrefixes is ordered most specific first; only the first match is
// stripped and it decides the tag.
var typePrefixes = []prefixRule{
	prefix(`pending\s*-\s*pos\s+authorisation`, TypePending),
	prefix(`pending\s*-\s*pos\s+purchase`, TypePending),
	prefix(`pending\s*-\s*pos`, TypePending),
	prefix(`pending\s*-\s*visa`, TypePending),
	prefix(`pending\s*-`, TypePending),

	prefix(`pos\s+authorisation`, TypePOS),
	prefix(`pos\s+purchase`, TypePOS),
	prefix(`pos`, TypePOS),

	prefix(`visa\s+debit\s+purchase\s+card\s+\d+`, TypeCard),
	prefix(`visa\s+debit\s+purchase`, TypeCard),
	prefix(`visa\s+purchase`, TypeCard),
	prefix(`mastercard\s+purchase`, TypeCard),
	prefix(`card\s+purchase`, TypeCard),

	prefix(`eftpos\s+\d+pin\*`, TypeEFTPOS),
	prefix(`eftpos`, TypeEFTPOS),

	prefix(`atm\s+withdrawal`, TypeATM),
	prefix(`atm`, TypeATM),

	prefix(`direct\s+debit`, TypeDirectDebit),
	prefix(`dd`, TypeDirectDebit),

	prefix(`anz\s+internet\s+banking\s+bpay`, TypeBPAY),
	prefix(`anz\s+mobile\s+banking\s+payment\s+\d+\s+to`, TypeOnlineBanking),
	prefix(`anz\s+m-banking\s+funds\s+tfer\s+transfer\s+\d+\s+to`, TypeTransfer),
	prefix(`anz\s+internet\s+banking`, TypeOnlineBanking),
	prefix(`anz\s+mobile\s+banking`, TypeOnlineBanking),
	prefix(`anz\s+m-banking`, TypeOnlineBanking),

	prefix(`bpay`, TypeBPAY),

	prefix(`pay/salary\s+from`, TypeSalary),
	prefix(`salary`, TypeSalary),

	prefix(`credit\s+interest\s+paid`, TypeInterest),
	prefix(`debit\s+interest`, TypeInterest),

	prefix(`transfer\s+from`, TypeTransfer),
	prefix(`transfer\s+to`, TypeTransfer),
	prefix(`transfer`, TypeTransfer),
}

// leadIns are generic lead-in phrases stripped repeatedly after the typed
// prefix. They only set the tag when no typed prefix matched.
var leadIns = []prefixRule{
	prefix(`payment\s+to`, TypeTransfer),
	prefix(`transfer\s+to`, TypeTransfer),
	prefix(`transfer\s+from`, TypeTransfer),
	prefix(`funds\s+tfer\s+transfer`, TypeTransfer),
	prefix(`funds\s+tfer`, TypeTransfer),
	prefix(`internet\s+banking\s+payment`, TypeOnlineBanking),
	prefix(`mobile\s+banking\s+payment`, TypeOnlineBanking),
	prefix(`internet\s+banking`, TypeOnlineBanking),
	prefix(`mobile\s+banking`, TypeOnlineBanking),
	prefix(`m-banking`, TypeOnlineBanking),
	prefix(`direct\s+credit`, TypeOther),
	prefix(`recurring\s+payment`, TypeOther),
	prefix(`paypal`, TypeOther),
}

var (
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bcard\s+used\s+\d+`),
		regexp.MustCompile(`\s+card\s+\d+$`),
	}

	referencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\breference\s*\d+`),
		regexp.MustCompile(`\bref\s*\d+`),
		regexp.MustCompile(`\{\d+\}`),
		regexp.MustCompile(`\b\d{5,}\b`),
	}

	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// locationPhrases are multi-word place names removed before single tokens.
var locationPhrases = compileWords(
	"australian capital territory", "northern territory", "new south wales",
	"western australia", "south australia", "gold coast",
)

// locationTokens are Australian states, territories and major cities.
var locationTokens = map[string]bool{
	"nsw": true, "vic": true, "qld": true, "wa": true, "sa": true, "tas": true,
	"act": true, "nt": true, "victoria": true, "queensland": true, "tasmania": true,
	"sydney": true, "melbourne": true, "brisbane": true, "perth": true,
	"adelaide": true, "hobart": true, "darwin": true, "canberra": true,
	"newcastle": true, "wollongong": true, "geelong": true, "townsville": true,
	"cairns": true, "toowoomba": true, "ballarat": true, "bendigo": true,
	"albury": true, "launceston": true, "mackay": true, "rockhampton": true,
	"parramatta": true, "blacktown": true, "penrith": true, "bondi": true,
	"manly": true,
}

// corporateSuffixes are stripped from the end, longest first.
var corporateSuffixes = [][]string{
	{"pty", "ltd"},
	{"australia"},
	{"ltd"},
	{"pty"},
	{"au"},
}

// multiWordBrands are merchant names kept whole when they lead the text.
var multiWordBrands = []string{
	"momentum energy", "origin energy", "agl energy", "red energy",
	"uber eats", "menu log", "uber taxi",
	"tax office", "services australia", "medicare australia",
	"woolworths", "coles", "aldi", "iga",
}

func compileWords(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(p)+`\b`))
	}
	return out
}
