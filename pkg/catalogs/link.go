package catalogs

import (
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/periodmap/pkg/period"
)

// Source is the provenance of a discovered link.
type Source string

// String returns the string representation of a Source.
func (s Source) String() string {
	return string(s)
}

// Link provenances.
const (
	// SourceStatic is a pre-captured snapshot of the listing page.
	SourceStatic Source = "STATIC"
	// SourceLive is a crawl of the listing page at request time.
	SourceLive Source = "LIVE"
)

// Sources returns every provenance in default precedence order.
func Sources() []Source {
	return []Source{SourceStatic, SourceLive}
}

// IsValid returns true if the Source is one of the defined constants.
func (s Source) IsValid() bool {
	return slices.Contains(Sources(), s)
}

// Rank is the default precedence of s; lower ranks win on conflict.
func (s Source) Rank() int {
	if i := slices.Index(Sources(), s); i >= 0 {
		return i
	}
	return len(Sources())
}

// Key identifies a period document within a catalog.
type Key struct {
	Category Category
	Period   period.Period
}

// String returns the key as CATEGORY/YYYY-MM.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Category, k.Period)
}

// DiscoveredLink is one candidate period document.
type DiscoveredLink struct {
	Category     Category      `json:"category" yaml:"category"`
	Period       period.Period `json:"period" yaml:"period"`
	URL          string        `json:"url" yaml:"url"`
	Source       Source        `json:"source" yaml:"source"`
	DiscoveredAt utc.Time      `json:"discovered_at" yaml:"discovered_at"`
}

// Key returns the identity of the link.
func (l DiscoveredLink) Key() Key {
	return Key{Category: l.Category, Period: l.Period}
}

// Year returns the vigency year.
func (l DiscoveredLink) Year() int {
	return l.Period.Year
}

// Month returns the vigency month.
func (l DiscoveredLink) Month() time.Month {
	return l.Period.Month
}

// Compare orders links by category, then period.
func Compare(a, b DiscoveredLink) int {
	switch {
	case a.Category < b.Category:
		return -1
	case a.Category > b.Category:
		return 1
	}
	return a.Period.Compare(b.Period)
}
