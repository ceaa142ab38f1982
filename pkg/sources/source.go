// Package sources defines the interface shared by the providers of
// discovered links. A source turns one listing page, live or pre-captured,
// into a catalog through the discovery pipeline.
//
// Sources hold no per-fetch state: every Fetch returns its own Result, so one
// source may serve concurrent fetches for different categories and years.
//
// Example usage:
//
//	set := sources.NewSources()
//	set.Set(live.New(fetcher.New()))
//
//	src, _ := set.Get(catalogs.SourceLive)
//	result, err := src.Fetch(ctx, sources.WithCategory(catalogs.CategoryPMC))
//	if err != nil {
//	    log.Fatal(err)
//	}
package sources

import (
	"context"
	"slices"
	"sync"

	"github.com/agentstation/utc"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
)

// Source represents a provider of discovered links.
type Source interface {
	// ID returns the provenance stamped on the links of this source
	ID() catalogs.Source

	// Fetch runs one discovery pass and returns its catalog
	Fetch(ctx context.Context, opts ...Option) (*Result, error)

	// Cleanup releases any resources held by the source
	Cleanup() error
}

// Result is the outcome of one Fetch.
type Result struct {
	PassID      string                `json:"pass_id" yaml:"pass_id"`
	Source      catalogs.Source       `json:"source" yaml:"source"`
	Location    string                `json:"location" yaml:"location"`
	Catalog     *catalogs.Catalog     `json:"-" yaml:"-"`
	Diagnostics discovery.Diagnostics `json:"diagnostics" yaml:"diagnostics"`
	FetchedAt   utc.Time              `json:"fetched_at" yaml:"fetched_at"`
}

// NewResult wraps a discovery pass.
func NewResult(src catalogs.Source, location string, pass *discovery.Pass) *Result {
	return &Result{
		PassID:      pass.ID,
		Source:      src,
		Location:    location,
		Catalog:     pass.Catalog,
		Diagnostics: pass.Diagnostics,
		FetchedAt:   utc.Now(),
	}
}

// Sources is a thread-safe container for managing multiple data sources.
type Sources struct {
	mu      sync.RWMutex
	sources map[catalogs.Source]Source
}

// NewSources creates a new Sources instance.
func NewSources(srcs ...Source) *Sources {
	s := &Sources{
		sources: make(map[catalogs.Source]Source),
	}
	for _, src := range srcs {
		s.Set(src)
	}
	return s
}

// Get returns a source by ID.
func (s *Sources) Get(id catalogs.Source) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set registers src under its ID, replacing any previous source.
func (s *Sources) Set(src Source) {
	if src == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID()] = src
}

// Delete deletes a source by ID.
func (s *Sources) Delete(id catalogs.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// IDs returns the registered IDs in precedence order.
func (s *Sources) IDs() []catalogs.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]catalogs.Source, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b catalogs.Source) int {
		return a.Rank() - b.Rank()
	})
	return ids
}

// Cleanup releases every registered source and returns the first error.
func (s *Sources) Cleanup() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first error
	for _, src := range s.sources {
		if err := src.Cleanup(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
