package catalogs

import (
	"slices"
	"strings"

	"github.com/agentstation/periodmap/internal/textnorm"
	"github.com/agentstation/periodmap/pkg/errors"
)

// Category is the discrete content type of a period document.
type Category string

// String returns the string representation of a Category.
func (c Category) String() string {
	return string(c)
}

// Lower returns the lower-case tag, as used in capture paths.
func (c Category) Lower() string {
	return strings.ToLower(string(c))
}

// IsKnown reports whether c is a resolved tag that may be persisted.
func (c Category) IsKnown() bool {
	return c != "" && c != CategoryUnknown
}

// Category tags of the CMED price lists.
const (
	// CategoryPMC is the maximum consumer price list.
	CategoryPMC Category = "PMC"
	// CategoryPMVG is the maximum government sale price list.
	CategoryPMVG Category = "PMVG"
	// CategoryPF is the factory price list.
	CategoryPF Category = "PF"
	// CategoryUnknown marks a link whose category could not be resolved.
	CategoryUnknown Category = "UNKNOWN"
)

// ParseCategory normalizes a user supplied tag such as "pmc" or " PMVG ".
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsKnown() {
		return "", errors.NewValidationError("category", s, "must be a known category tag")
	}
	return c, nil
}

// CategoryKeywords is one row of the keyword table.
type CategoryKeywords struct {
	Category Category `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// CategoryTable maps heading text to categories. Rows are checked in order
// and the first row with a matching keyword wins.
type CategoryTable []CategoryKeywords

// DefaultCategoryTable returns the table for the CMED listing page.
func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		{Category: CategoryPMC, Keywords: []string{"preço máximo ao consumidor", "pmc", "xls_conformidade_site"}},
		{Category: CategoryPMVG, Keywords: []string{"preço máximo de venda ao governo", "compras públicas", "pmvg", "governo", "xls_conformidade_gov"}},
		{Category: CategoryPF, Keywords: []string{"preço fábrica", "pf"}},
	}
}

// Detect returns the category of the first row with a keyword contained in
// text, ignoring case and accents.
func (t CategoryTable) Detect(text string) (Category, bool) {
	folded := textnorm.Fold(text)
	if folded == "" {
		return "", false
	}
	for _, row := range t {
		for _, kw := range row.Keywords {
			if k := textnorm.Fold(kw); k != "" && strings.Contains(folded, k) {
				return row.Category, true
			}
		}
	}
	return "", false
}

// Categories returns the tags in table order.
func (t CategoryTable) Categories() []Category {
	out := make([]Category, 0, len(t))
	for _, row := range t {
		if !slices.Contains(out, row.Category) {
			out = append(out, row.Category)
		}
	}
	return out
}

// Validate checks every row has a known tag and at least one keyword.
func (t CategoryTable) Validate() error {
	if len(t) == 0 {
		return errors.NewValidationError("categories", nil, "keyword table is empty")
	}
	for _, row := range t {
		if !row.Category.IsKnown() {
			return errors.NewValidationError("categories", row.Category, "unknown category tag")
		}
		if len(row.Keywords) == 0 {
			return errors.NewValidationError("categories", row.Category, "no keywords")
		}
	}
	return nil
}
