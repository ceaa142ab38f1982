package periodmap

import (
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/knownperiods"
)

// Compile-time interface check to ensure proper implementation.
var _ Persistence = (*client)(nil)

// Persistence gives access to the known periods cache.
type Persistence interface {
	// KnownPeriods returns a snapshot of the cache
	KnownPeriods() knownperiods.Known

	// MarkKnown records the periods of catalog as known in one cache write.
// Links whose category was never resolved are skipped.
func (c *client) MarkKnown(catalog *catalogs.Catalog) (int, error) {
	k := make(knownperiods.Known)
	for _, category := range catalog.Categories() {
		if !category.IsKnown() {
			continue
		}
		k[category] = catalog.Periods(category)
	}
	return c.store.MarkKnownAll(k)
}
