// Package catalogs provides the record types shared by every stage of period
// discovery: categories, provenance, discovered links and the catalog that
// holds them.
//
// A Catalog is an ordered collection of DiscoveredLink values, unique by
// (category, period) and sorted by category then period. Catalogs are
// immutable once built and are owned by the caller of the operation that
// produced them.
//
// Example usage:
//
//	b := catalogs.NewBuilder()
//	b.Add(link)
//	catalog := b.Build()
//
//	for _, p := range catalog.Periods(catalogs.CategoryPMC) {
//	    fmt.Println(p)
//	}
package catalogs

import (
	"slices"

	"github.com/agentstation/periodmap/pkg/period"
)

// Catalog is an immutable, ordered set of discovered links.
// The zero value and a nil *Catalog are both empty catalogs.
type Catalog struct {
	links []DiscoveredLink
	index map[Key]int
}

// New builds a catalog from links with first-seen-wins deduplication.
func New(links ...DiscoveredLink) *Catalog {
	b := NewBuilder()
	for _, l := range links {
		b.Add(l)
	}
	return b.Build()
}

// newSorted wraps links that are already unique and sorted.
func newSorted(links []DiscoveredLink) *Catalog {
	c := &Catalog{
		links: links,
		index: make(map[Key]int, len(links)),
	}
	for i, l := range links {
		c.index[l.Key()] = i
	}
	return c
}

// Len returns the number of links.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.links)
}

// IsEmpty reports whether the catalog holds no links.
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// Links returns a copy of the links in catalog order.
func (c *Catalog) Links() []DiscoveredLink {
	if c == nil {
		return []DiscoveredLink{}
	}
	return slices.Clone(c.links)
}

// Get returns the link stored under key.
func (c *Catalog) Get(key Key) (DiscoveredLink, bool) {
	if c == nil {
		return DiscoveredLink{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return DiscoveredLink{}, false
	}
	return c.links[i], true
}

// Has reports whether a link is stored under key.
func (c *Catalog) Has(key Key) bool {
	_, ok := c.Get(key)
	return ok
}

// FilterFunc returns the links for which keep returns true.
func (c *Catalog) FilterFunc(keep func(DiscoveredLink) bool) *Catalog {
	out := make([]DiscoveredLink, 0, c.Len())
	for _, l := range c.Links() {
		if keep(l) {
			out = append(out, l)
		}
	}
	return newSorted(out)
}

// Filter returns the links of one category.
func (c *Catalog) Filter(category Category) *Catalog {
	return c.FilterFunc(func(l DiscoveredLink) bool {
		return l.Category == category
	})
}

// Between returns the links whose period lies in [start, end].
func (c *Catalog) Between(start, end period.Period) *Catalog {
	return c.FilterFunc(func(l DiscoveredLink) bool {
		return !l.Period.Before(start) && !l.Period.After(end)
	})
}

// Periods returns the periods known for category in ascending order.
func (c *Catalog) Periods(category Category) []period.Period {
	out := []period.Period{}
	if c == nil {
		return out
	}
	for _, l := range c.links {
		if l.Category == category {
			out = append(out, l.Period)
		}
	}
	return out
}

// Categories returns the distinct categories present, in catalog order.
func (c *Catalog) Categories() []Category {
	out := []Category{}
	if c == nil {
		return out
	}
	for _, l := range c.links {
		if len(out) == 0 || out[len(out)-1] != l.Category {
			out = append(out, l.Category)
		}
	}
	return out
}

// CountBySource returns how many links each provenance contributed.
func (c *Catalog) CountBySource() map[Source]int {
	counts := make(map[Source]int)
	if c == nil {
		return counts
	}
	for _, l := range c.links {
		counts[l.Source]++
	}
	return counts
}

// Keys returns the set of keys in the catalog.
func (c *Catalog) Keys() map[Key]struct{} {
	out := make(map[Key]struct{}, c.Len())
	if c == nil {
		return out
	}
	for k := range c.index {
		out[k] = struct{}{}
	}
	return out
}
