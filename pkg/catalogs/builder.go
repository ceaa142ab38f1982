package catalogs

import (
	"slices"
)

// Builder assembles the links of one discovery pass into a Catalog.
// The first link added for a key wins; later duplicates are rejected.
// A Builder is not safe for concurrent use.
type Builder struct {
	links []DiscoveredLink
	seen  map[Key]struct{}
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		seen: make(map[Key]struct{}),
	}
}

// Add appends link unless its key was already added. It reports whether the
// link was kept.
func (b *Builder) Add(link DiscoveredLink) bool {
	key := link.Key()
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.links = append(b.links, link)
	return true
}

// Len returns the number of links kept so far.
func (b *Builder) Len() int {
	return len(b.links)
}

// Build returns the catalog sorted by category then period. The Builder can
// keep accepting links afterwards; the returned catalog does not change.
func (b *Builder) Build() *Catalog {
	links := slices.Clone(b.links)
	if links == nil {
		links = []DiscoveredLink{}
	}
	slices.SortFunc(links, Compare)
	return newSorted(links)
}

// Merge combines catalogs into one. Links are considered in the precedence
// given by order (earlier sources win) and, within one source, in argument
// order; the first link for each key survives. Sources missing from order
// rank after every listed source.
func Merge(order []Source, catalogs ...*Catalog) *Catalog {
	rank := func(s Source) int {
		if i := slices.Index(order, s); i >= 0 {
			return i
		}
		return len(order)
	}

	var all []DiscoveredLink
	for _, c := range catalogs {
		all = append(all, c.Links()...)
	}
	slices.SortStableFunc(all, func(a, b DiscoveredLink) int {
		return rank(a.Source) - rank(b.Source)
	})

	b := NewBuilder()
	for _, l := range all {
		b.Add(l)
	}
	return b.Build()
}
