package reconciler_test

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/period"
	"github.com/agentstation/periodmap/pkg/sources"
)

// mockSource is a test implementation of sources.Source. Static mocks serve
// one catalog per year; live mocks serve one catalog or an error.
type mockSource struct {
	id      catalogs.Source
	years   map[int]*catalogs.Catalog
	catalog *catalogs.Catalog
	err     error

	mu      sync.Mutex
	fetches []sources.Options
}

func newStatic(years map[int]*catalogs.Catalog) *mockSource {
	return &mockSource{id: catalogs.SourceStatic, years: years}
}

func newLive(catalog *catalogs.Catalog, err error) *mockSource {
	return &mockSource{id: catalogs.SourceLive, catalog: catalog, err: err}
}

func (m *mockSource) ID() catalogs.Source {
	return m.id
}

func (m *mockSource) Fetch(_ context.Context, opts ...sources.Option) (*sources.Result, error) {
	o := sources.NewOptions(opts...)
	m.mu.Lock()
	m.fetches = append(m.fetches, *o)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	catalog := m.catalog
	if m.id == catalogs.SourceStatic {
		c, ok := m.years[o.Year]
		if !ok {
			return nil, errors.NewNotFoundError("capture", o.Category.Lower())
		}
		catalog = c
	}
	return &sources.Result{
		PassID:      "pass",
		Source:      m.id,
		Catalog:     catalog,
		Diagnostics: discovery.NewDiagnostics(),
	}, nil
}

func (m *mockSource) Cleanup() error {
	return nil
}

func (m *mockSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetches)
}

func link(c catalogs.Category, year int, month time.Month, src catalogs.Source) catalogs.DiscoveredLink {
	p := period.New(year, month)
	return catalogs.DiscoveredLink{
		Category: c,
		Period:   p,
		URL:      "https://example.gov/" + src.String() + "/" + c.Lower() + "_" + p.String() + ".xls",
		Source:   src,
	}
}

// months returns links for every month of year from src.
func months(c catalogs.Category, year int, src catalogs.Source, ms ...time.Month) []catalogs.DiscoveredLink {
	out := make([]catalogs.DiscoveredLink, 0, len(ms))
	for _, m := range ms {
		out = append(out, link(c, year, m, src))
	}
	return out
}

func fullYear() []time.Month {
	out := make([]time.Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, m)
	}
	return out
}
