// Package live crawls the listing page at request time.
package live

import (
	"bytes"
	"context"

	"github.com/agentstation/periodmap/internal/fetcher"
	"github.com/agentstation/periodmap/internal/markup"
	"github.com/agentstation/periodmap/internal/metrics"
	internalsources "github.com/agentstation/periodmap/internal/sources"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/sources"
)

// Source fetches and parses the listing page once per Fetch.
type Source struct {
	url           string
	selector      string
	fetcher       *fetcher.Client
	discoveryOpts []discovery.Option
	metrics       *metrics.Metrics
}

// Option configures a live source.
type Option func(*Source)

// WithURL sets the listing page location.
func WithURL(url string) Option {
	return func(s *Source) {
		if url != "" {
			s.url = url
		}
	}
}

// WithSelector sets the primary content region of the page.
func WithSelector(selector string) Option {
	return func(s *Source) {
		s.selector = selector
	}
}

// WithDiscoveryOptions adds options to the pipeline of every fetch.
func WithDiscoveryOptions(opts ...discovery.Option) Option {
	return func(s *Source) {
		s.discoveryOpts = append(s.discoveryOpts, opts...)
	}
}

// WithMetrics records accepted and dropped counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Source) {
		s.metrics = m
	}
}

// New creates a live source that fetches through f.
func New(f *fetcher.Client, opts ...Option) *Source {
	if f == nil {
		f = fetcher.New()
	}
	s := &Source{
		url:      constants.DefaultListingURL,
		selector: constants.DefaultContentSelector,
		fetcher:  f,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the provenance of crawled links.
func (s *Source) ID() catalogs.Source {
	return catalogs.SourceLive
}

// URL returns the listing page location.
func (s *Source) URL() string {
	return s.url
}

// Fetch retrieves the listing page and runs one discovery pass over it.
// Fetch failures are returned unchanged and stay transient.
func (s *Source) Fetch(ctx context.Context, opts ...sources.Option) (*sources.Result, error) {
	o := sources.NewOptions(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}

	ctx = logging.WithSource(ctx, catalogs.SourceLive.String())
	page, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}

	pipeline := discovery.New(append([]discovery.Option{
		discovery.WithSource(catalogs.SourceLive),
		discovery.WithCategory(o.Category),
	}, s.discoveryOpts...)...)

	pass, err := pipeline.Parse(ctx, bytes.NewReader(page.Body),
		markup.WithBaseURL(page.URL),
		markup.WithSelector(s.selector),
	)
	if err != nil {
		return nil, errors.WrapResource("parse", "listing page", s.url, err)
	}

	result := sources.NewResult(catalogs.SourceLive, page.URL.String(), pass)
	result.FetchedAt = page.FetchedAt
	internalsources.Observe(s.metrics, result)

	logging.FromContext(ctx).Info().
		Str("pass_id", result.PassID).
		Str("url", result.Location).
		Str("category", o.Category.String()).
		Int("links", result.Catalog.Len()).
		Int("anchors", result.Diagnostics.Anchors).
		Int("dropped", result.Diagnostics.TotalDropped()).
		Msg("Live discovery pass complete")
	return result, nil
}

// Cleanup releases any resources.
func (s *Source) Cleanup() error {
	return nil
}
