// Package knownperiods persists the periods already seen per category, so a
// later discovery pass can report only what is new.
//
// A Store is the only shared mutable state of the system. It serializes
// writers behind a sync.RWMutex and persists every mutation synchronously
// through an atomic file replace.
package knownperiods

import (
	"maps"
	"slices"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/period"
)

// Known maps each category to its known periods, ascending and unique.
type Known map[catalogs.Category][]period.Period

// Has reports whether p is known for category.
func (k Known) Has(category catalogs.Category, p period.Period) bool {
	_, found := slices.BinarySearchFunc(k[category], p, period.Period.Compare)
	return found
}

// Len returns the number of known periods across all categories.
func (k Known) Len() int {
	n := 0
	for _, ps := range k {
		n += len(ps)
	}
	return n
}

// Categories returns the categories present, sorted.
func (k Known) Categories() []catalogs.Category {
	return slices.Sorted(maps.Keys(k))
}

// Clone returns a deep copy of k.
func (k Known) Clone() Known {
	out := make(Known, len(k))
	for c, ps := range k {
		out[c] = slices.Clone(ps)
	}
	return out
}

// add inserts periods into category and returns how many were new.
func (k Known) add(category catalogs.Category, periods ...period.Period) int {
	added := 0
	current := k[category]
	for _, p := range periods {
		i, found := slices.BinarySearchFunc(current, p, period.Period.Compare)
		if found {
			continue
		}
		current = slices.Insert(current, i, p)
		added++
	}
	if len(current) > 0 {
		k[category] = current
	}
	return added
}

// normalized returns a sorted, deduplicated copy of k with empty categories
// removed.
func (k Known) normalized() Known {
	out := make(Known, len(k))
	for c, ps := range k {
		if len(ps) == 0 {
			continue
		}
		sorted := slices.Clone(ps)
		slices.SortFunc(sorted, period.Period.Compare)
		out[c] = slices.Compact(sorted)
	}
	return out
}
