// Package docfilter decides whether an anchor points at a genuine period
// document. Rules are pure predicates evaluated in order; every rule must
// pass and the first failing rule is reported.
package docfilter

import (
	"strings"
)

// Rule is one necessary condition of the filter.
type Rule struct {
	Name  string
	Check func(url, text string) bool
}

// Rule names.
const (
	RuleNotResolution = "not-resolution"
	RuleSpreadsheet   = "spreadsheet"
	RuleConformance   = "conformance"
)

// ResolutionMarkers flag legal and resolution documents in a URL.
var ResolutionMarkers = []string{"_reso_", "resolucao"}

// ConformanceTokens distinguish monthly price lists from other spreadsheets.
var ConformanceTokens = []string{
	"xls_conformidade_site",
	"xls_conformidade_gov",
	"xls_conformidade_portal",
	"lista_conformidade",
}

// NotResolution rejects URLs carrying a resolution marker.
func NotResolution(url, _ string) bool {
	lower := strings.ToLower(url)
	for _, m := range ResolutionMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// Spreadsheet requires XLS in the anchor text or .xls in the URL.
func Spreadsheet(url, text string) bool {
	return strings.Contains(strings.ToUpper(text), "XLS") ||
		strings.Contains(strings.ToLower(url), ".xls")
}

// Conformance requires a conformance token in the URL.
func Conformance(url, _ string) bool {
	lower := strings.ToLower(url)
	for _, tok := range ConformanceTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// DefaultRules returns the strict rule list used for the live listing page.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleNotResolution, Check: NotResolution},
		{Name: RuleSpreadsheet, Check: Spreadsheet},
		{Name: RuleConformance, Check: Conformance},
	}
}

// RelaxedRules drops the conformance rule; static captures are already
// curated per category.
func RelaxedRules() []Rule {
	return DefaultRules()[:2]
}

// Filter is an ordered list of rules.
type Filter struct {
	rules []Rule
}

// New creates a Filter with the given rules, or DefaultRules when none.
func New(rules ...Rule) *Filter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Filter{rules: rules}
}

// NewRelaxed creates a Filter with RelaxedRules.
func NewRelaxed() *Filter {
	return New(RelaxedRules()...)
}

// Check evaluates the rules in order and returns the name of the first one
// that fails.
func (f *Filter) Check(url, text string) (bool, string) {
	for _, r := range f.rules {
		if !r.Check(url, text) {
			return false, r.Name
		}
	}
	return true, ""
}

// IsDocument reports whether url and text pass every rule.
func (f *Filter) IsDocument(url, text string) bool {
	ok, _ := f.Check(url, text)
	return ok
}
