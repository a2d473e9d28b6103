// Package answer canonicalizes raw interview answers.
//
// Two layers of normalization: Normalize folds whitespace, case, and the
// textual null forms into an explicit empty value; Canonical additionally
// resolves a fixed bilingual (pt/en) synonym set into the two tokens the
// question graph branches on. Both functions are pure and total.
package answer

import "strings"

// Canonical tokens produced by the synonym mapping. Question graphs
// should key their branch tables on these.
const (
	Affirmative = "sim"
	Negative    = "nao"
)

// nullForms are textual spellings of "no answer". They fold to the
// empty string so the engine treats them the same as an absent field.
var nullForms = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
}

// affirmatives and negatives are the fixed synonym sets. No token may
// appear in both; if a graph author ever introduces an overlap, the
// affirmative set wins (checked first in Canonical).
var affirmatives = map[string]bool{
	"sim":        true,
	"s":          true,
	"yes":        true,
	"y":          true,
	"true":       true,
	"verdadeiro": true,
}

var negatives = map[string]bool{
	"nao":   true,
	"não":   true,
	"n":     true,
	"no":    true,
	"false": true,
	"falso": true,
}

// Normalize trims surrounding whitespace, lowercases, and folds the
// literal forms "", "null" and "none" (any case) to the empty string.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if nullForms[s] {
		return ""
	}
	return s
}

// Canonical normalizes raw and resolves affirmative/negative synonyms
// to the canonical "sim"/"nao" tokens. Unrecognized answers pass
// through unchanged.
func Canonical(raw string) string {
	s := Normalize(raw)
	if affirmatives[s] {
		return Affirmative
	}
	if negatives[s] {
		return Negative
	}
	return s
}
