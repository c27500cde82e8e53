// Package normalizer reduces raw bank descriptions to short canonical
// merchant keys used by the rule table and the learned pattern cache.
package normalizer

import (
	"strings"
)

// minKeyLength is the shortest merchant key accepted before falling back
// to the trimmed raw description.
const minKeyLength = 3

// Result is the outcome of normalizing one description.
type Result struct {
	Key  string
	Type TransactionType
}

// Normalize returns the canonical merchant key and transaction type for raw.
// It never returns an empty key for a non-empty description.
func Normalize(raw string) Result {
	cleaned, typ := clean(raw)
	key := extractMerchant(cleaned)
	if len(key) < minKeyLength {
		key = fallbackKey(raw)
	}
	return Result{Key: key, Type: typ}
}

// Key is shorthand for Normalize(raw).Key.
func Key(raw string) string {
	return Normalize(raw).Key
}

// Clean returns the description with prefixes, references, locations and
// punctuation removed but before the merchant is extracted.
func Clean(raw string) string {
	cleaned, _ := clean(raw)
	if cleaned == "" {
		return fallbackKey(raw)
	}
	return cleaned
}

// Variants returns the lookup keys for raw in priority order: the full key,
// its first word when at least three characters long, and its first two
// words. Duplicates are dropped.
func Variants(raw string) []string {
	key := Key(raw)
	words := strings.Fields(key)

	candidates := []string{key}
	if len(words) > 0 && len(words[0]) >= minKeyLength {
		candidates = append(candidates, words[0])
	}
	if len(words) >= 2 {
		candidates = append(candidates, words[0]+" "+words[1])
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func clean(raw string) (string, TransactionType) {
	text := collapse(strings.ToLower(raw))
	typ := TypeUnknown

	for _, p := range typePrefixes {
		if loc := p.re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
			typ = p.typ
			break
		}
	}

	for stripped := true; stripped; {
		stripped = false
		for _, p := range leadIns {
			if loc := p.re.FindStringIndex(text); loc != nil && loc[1] > 0 {
				text = strings.TrimSpace(text[loc[1]:])
				if typ == TypeUnknown {
					typ = p.typ
				}
				stripped = true
				break
			}
		}
	}

	for _, re := range noisePatterns {
		text = re.ReplaceAllString(text, " ")
	}
	for _, re := range referencePatterns {
		text = re.ReplaceAllString(text, " ")
	}

	text = nonAlphanumeric.ReplaceAllString(text, " ")
	for _, re := range locationPhrases {
		text = re.ReplaceAllString(text, " ")
	}
	text = removeLocationTokens(text)

	return collapse(text), typ
}

func extractMerchant(text string) string {
	if text == "" {
		return ""
	}
	if brand, ok := matchBrand(text); ok {
		return brand
	}

	words := stripSuffixes(strings.Fields(text))
	if brand, ok := matchBrand(strings.Join(words, " ")); ok {
		return brand
	}
	if len(words) <= 2 {
		return strings.Join(words, " ")
	}
	return words[0] + " " + words[1]
}

func matchBrand(text string) (string, bool) {
	for _, brand := range multiWordBrands {
		if text == brand || strings.HasPrefix(text, brand+" ") {
			return brand, true
		}
	}
	return "", false
}

func stripSuffixes(words []string) []string {
	for {
		trimmed := false
		for _, suffix := range corporateSuffixes {
			if len(words) <= len(suffix) {
				continue
			}
			if equalWords(words[len(words)-len(suffix):], suffix) {
				words = words[:len(words)-len(suffix)]
				trimmed = true
				break
			}
		}
		if !trimmed {
			return words
		}
	}
}

func equalWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func removeLocationTokens(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !locationTokens[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func fallbackKey(raw string) string {
	return collapse(strings.ToLower(raw))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
