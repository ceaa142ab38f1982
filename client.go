// Package periodmap provides the main entry point for discovering and
// tracking monthly period documents published on a listing page.
//
// A Client wires the live crawl of the listing page, the pre-captured static
// snapshots, the hybrid reconciler and the known periods cache behind one
// interface:
//   - Discover runs a single live discovery pass
//   - NewSince returns only periods not seen before and marks them known
//   - Links, Coverage and Gaps reconcile static and live links for a range
//   - Export writes a reconciled catalog for spreadsheet tools
//
// Example usage:
//
//	pm, err := periodmap.New(periodmap.WithCacheFile("data/known.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pm.Close()
//
//	pm.OnNewPeriods(func(category catalogs.Category, links []catalogs.DiscoveredLink) {
//	    log.Printf("%d new %s periods", len(links), category)
//	})
//
//	fresh, err := pm.NewSince(ctx, catalogs.CategoryPMC)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, l := range fresh.Links() {
//	    fmt.Println(l.Period, l.URL)
//	}
package periodmap

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/periodmap/internal/classifier"
	"github.com/agentstation/periodmap/internal/fetcher"
	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/internal/sources/live"
	"github.com/agentstation/periodmap/internal/sources/static"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
	pkgerrors "github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/knownperiods"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
	"github.com/agentstation/periodmap/pkg/reconciler"
	"github.com/agentstation/periodmap/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client discovers, reconciles and tracks period documents.
type Client interface {

	// Discoverer runs live discovery passes
	Discoverer

	// Analyzer reconciles static and live links over a range
	Analyzer

	// Exporter writes reconciled catalogs
	Exporter

	// Persistence gives access to the known periods cache
	Persistence

	// Hooks provides access to event callback registration
	Hooks

	// Categories returns the category tags of the keyword table
	Categories() []catalogs.Category

	// Metrics returns the Prometheus metrics of the client
	Metrics() *metrics.Metrics

	// Close flushes the cache and releases the sources
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// sources holds the live and, when configured, static source
	sources    *sources.Sources
	live       *live.Source
	reconciler reconciler.Reconciler

	// store is the known periods cache
	store *knownperiods.Store

	metrics *metrics.Metrics
	hooks   *hooks

	// newMu serializes the diff and mark steps of NewSince
	newMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	options, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	m := metrics.New(options.registerer)

	// the classifier and extractor share the configured keyword table and bounds
	discoveryOpts := []discovery.Option{
		discovery.WithClassifier(classifier.New(
			classifier.WithCategoryTable(options.categories),
			classifier.WithBounds(options.bounds),
		)),
		discovery.WithExtractor(period.NewExtractor(period.WithBounds(options.bounds))),
	}

	fetcherOpts := []fetcher.Option{
		fetcher.WithTimeout(options.httpTimeout),
		fetcher.WithMetrics(m),
	}
	if options.httpClient != nil {
		fetcherOpts = append(fetcherOpts, fetcher.WithHTTPClient(options.httpClient))
	}
	if options.userAgent != "" {
		fetcherOpts = append(fetcherOpts, fetcher.WithUserAgent(options.userAgent))
	}

	liveSrc := live.New(fetcher.New(fetcherOpts...),
		live.WithURL(options.listingURL),
		live.WithSelector(options.selector),
		live.WithDiscoveryOptions(discoveryOpts...),
		live.WithMetrics(m),
	)
	srcs := sources.NewSources(liveSrc)
	if options.staticFS != nil {
		staticOpts := []static.Option{
			static.WithDiscoveryOptions(discoveryOpts...),
			static.WithMetrics(m),
		}
		// relative hrefs in captures point at the listing site
		if base, err := url.Parse(options.listingURL); err == nil {
			staticOpts = append(staticOpts, static.WithBaseURL(base))
		}
		srcs.Set(static.New(options.staticFS, staticOpts...))
	}

	rec, err := reconciler.New(srcs,
		reconciler.WithCutoffYear(options.cutoffYear),
		reconciler.WithStartYear(options.startYear),
		reconciler.WithWorkers(options.workers),
		reconciler.WithMetrics(m),
		reconciler.WithClock(options.now),
	)
	if err != nil {
		return nil, pkgerrors.WrapResource("create", "reconciler", "", err)
	}

	store, err := knownperiods.Open(options.cacheFile,
		knownperiods.WithLogger(logging.Default()),
		knownperiods.WithMetrics(m),
	)
	if err != nil {
		return nil, pkgerrors.WrapResource("open", "known periods cache", options.cacheFile, err)
	}

	logging.Debug().
		Str("listing_url", options.listingURL).
		Str("cache_file", options.cacheFile).
		Bool("static", options.staticFS != nil).
		Int("known_periods", store.Snapshot().Len()).
		Msg("Client created")

	return &client{
		options:    options,
		sources:    srcs,
		live:       liveSrc,
		reconciler: rec,
		store:      store,
		metrics:    m,
		hooks:      newHooks(),
	}, nil
}

// Categories returns the category tags of the keyword table.
func (c *client) Categories() []catalogs.Category {
	return c.options.categories.Categories()
}

// Metrics returns the Prometheus metrics of the client.
func (c *client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Close flushes the cache and releases the sources. Later calls return the
// result of the first.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(
			c.store.Close(),
			c.sources.Cleanup(),
		)
	})
	return c.closeErr
}

// withRequest tags ctx with a fresh request ID unless the caller already set
// one, and names the operation in the logger.
func withRequest(ctx context.Context, operation string) context.Context {
	if logging.RequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	return logging.WithOperation(ctx, operation)
}
