package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/periodmap/internal/textnorm"
)

// Strategy names the rule that produced a resolved period.
type Strategy string

// String returns the string representation of a strategy.
func (s Strategy) String() string {
	return string(s)
}

// Resolution strategies in priority order.
const (
	StrategyFullDate            Strategy = "yyyymmdd"
	StrategyYearUnderscoreMonth Strategy = "yyyy_mm_"
	StrategyYearMonth           Strategy = "yyyymm_"
	StrategyUnderscoreYearMonth Strategy = "_yyyy_mm"
	StrategyHint                Strategy = "hint"
)

// URLPattern extracts a year and month from a URL. The first capture group
// is the year and the second the month.
type URLPattern struct {
	Strategy Strategy
	Regexp   *regexp.Regexp
}

// DefaultURLPatterns returns the URL pattern table in priority order.
func DefaultURLPatterns() []URLPattern {
	return []URLPattern{
		{Strategy: StrategyFullDate, Regexp: regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)},
		{Strategy: StrategyYearUnderscoreMonth, Regexp: regexp.MustCompile(`(\d{4})_(\d{2})_`)},
		{Strategy: StrategyYearMonth, Regexp: regexp.MustCompile(`(\d{4})(\d{2})_`)},
		{Strategy: StrategyUnderscoreYearMonth, Regexp: regexp.MustCompile(`_(\d{4})_(\d{2})`)},
	}
}

// monthYearPattern matches "<month-name>/<yy|yyyy>" in folded text.
var monthYearPattern = func() *regexp.Regexp {
	names := make([]string, 0, len(monthNames))
	for _, name := range monthNames {
		names = append(names, regexp.QuoteMeta(textnorm.Fold(name)))
	}
	return regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\s*/\s*(\d{2,4})\b`)
}()

// Extractor resolves periods from URLs with a free-text hint as fallback.
type Extractor struct {
	patterns []URLPattern
	bounds   Bounds
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithBounds sets the sanity window.
func WithBounds(b Bounds) ExtractorOption {
	return func(e *Extractor) {
		e.bounds = b
	}
}

// WithURLPatterns replaces the URL pattern table.
func WithURLPatterns(patterns ...URLPattern) ExtractorOption {
	return func(e *Extractor) {
		e.patterns = patterns
	}
}

// NewExtractor creates an Extractor with the default pattern table and bounds.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		patterns: DefaultURLPatterns(),
		bounds:   DefaultBounds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bounds returns the sanity window in use.
func (e *Extractor) Bounds() Bounds {
	return e.bounds
}

// FromURL tries each URL pattern in order. Only the first match of a pattern
// is considered; an out-of-window match moves on to the next pattern.
func (e *Extractor) FromURL(url string) (Period, Strategy, bool) {
	for _, pat := range e.patterns {
		m := pat.Regexp.FindStringSubmatch(url)
		if len(m) < 3 {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		month, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		p := New(year, time.Month(month))
		if e.bounds.Contains(p) {
			return p, pat.Strategy, true
		}
	}
	return Period{}, "", false
}

// Resolve returns the period a document URL refers to. A URL-derived period
// always wins; hint is used only when no URL pattern matches. ok is false when
// neither yields a period inside the window.
func (e *Extractor) Resolve(url string, hint *Period) (Period, Strategy, bool) {
	if p, strategy, ok := e.FromURL(url); ok {
		return p, strategy, true
	}
	if hint != nil && e.bounds.Contains(*hint) {
		return *hint, StrategyHint, true
	}
	return Period{}, "", false
}

// ParseMonthYear finds the first "<month-name>/<year>" reference in text
// that falls inside the window. Two-digit years are read as 20yy.
func (e *Extractor) ParseMonthYear(text string) (Period, bool) {
	return ParseMonthYear(text, e.bounds)
}

// ParseMonthYear finds the first "<month-name>/<year>" reference in text
// that falls inside b. Two-digit years are read as 20yy.
func ParseMonthYear(text string, b Bounds) (Period, bool) {
	folded := textnorm.Fold(text)
	for _, m := range monthYearPattern.FindAllStringSubmatch(folded, -1) {
		month, ok := monthIndex[m[1]]
		if !ok {
			continue
		}
		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if year < 100 {
			year += 2000
		}
		p := New(year, month)
		if b.Contains(p) {
			return p, true
		}
	}
	return Period{}, false
}
