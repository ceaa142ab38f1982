// Package sources holds what the static and live sources share.
package sources

import (
	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/catalogs"
	pkgsources "github.com/agentstation/periodmap/pkg/sources"
)

// Observe records the accepted and dropped counts of one fetch.
func Observe(m *metrics.Metrics, res *pkgsources.Result) {
	if m == nil || res == nil {
		return
	}
	src := res.Source.String()
	counts := make(map[catalogs.Category]int)
	for _, l := range res.Catalog.Links() {
		counts[l.Category]++
	}
	for c, n := range counts {
		m.AddAccepted(c.String(), src, n)
	}
	for reason, n := range res.Diagnostics.Dropped {
		m.AddDropped(reason, src, n)
	}
}
