// Package textnorm folds free text into the form the keyword and period
// heuristics match against: compatibility-decomposed, accent-free,
// lower-case, single-spaced.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the normalized form of s.
// "Preço Máximo  ao Consumidor" folds to "preco maximo ao consumidor".
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// transform chains carry state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return Collapse(strings.ToLower(result))
}

// Collapse trims s and replaces every run of whitespace with one space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Contains reports whether the folded form of s contains the folded form of substr.
func Contains(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// Title upper-cases the first letter of each word using Portuguese casing rules.
func Title(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}
