package periodmap

import (
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/period"
)

// options holds the configuration of a client.
type options struct {
	// live listing page
	listingURL  string
	selector    string
	httpClient  *http.Client
	httpTimeout time.Duration
	userAgent   string

	// static captures, nil disables the static source
	staticFS fs.FS

	// known periods cache
	cacheFile string

	// heuristics
	categories catalogs.CategoryTable
	bounds     period.Bounds

	// reconciliation
	cutoffYear int
	startYear  int
	workers    int

	// observability
	registerer prometheus.Registerer

	now func() time.Time
}

// Option is a function that configures a Client.
type Option func(*options) error

// defaults returns client options with default values.
func defaults() *options {
	return &options{
		listingURL:  constants.DefaultListingURL,
		selector:    constants.DefaultContentSelector,
		httpTimeout: constants.DefaultHTTPTimeout,
		userAgent:   constants.DefaultUserAgent,
		staticFS:    os.DirFS(constants.DefaultStaticDir),
		cacheFile:   constants.DefaultCacheFile,
		categories:  catalogs.DefaultCategoryTable(),
		bounds:      period.DefaultBounds(),
		cutoffYear:  constants.DefaultCutoffYear,
		startYear:   constants.DefaultStartYear,
		workers:     constants.DefaultWorkers,
		now:         func() time.Time { return utc.Now().Time },
	}
}

// apply applies the given options to the options.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.startYear > o.cutoffYear {
		return nil, errors.NewValidationError("start_year", o.startYear,
			"must not be after the cutoff year")
	}
	return o, nil
}

// WithListingURL sets the listing page crawled by the live source.
func WithListingURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return errors.NewValidationError("listing_url", url, "cannot be empty")
		}
		o.listingURL = url
		return nil
	}
}

// WithContentSelector sets the CSS selector of the primary content region.
// An empty selector parses the whole document.
func WithContentSelector(selector string) Option {
	return func(o *options) error {
		o.selector = selector
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for the live crawl. The
// WithHTTPTimeout bound still applies to every fetch made with it.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.NewValidationError("http_client", nil, "cannot be nil")
		}
		o.httpClient = hc
		return nil
	}
}

// WithHTTPTimeout bounds every live fetch.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("http_timeout", d, "must be positive")
		}
		o.httpTimeout = d
		return nil
	}
}

// WithUserAgent overrides the browser-like User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithStaticDir reads static captures from a directory laid out as
// <category>/<year>.html.
func WithStaticDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			o.staticFS = nil
			return nil
		}
		o.staticFS = os.DirFS(dir)
		return nil
	}
}

// WithStaticFS reads static captures from fsys, for example an embed.FS.
// A nil fsys disables the static source.
func WithStaticFS(fsys fs.FS) Option {
	return func(o *options) error {
		o.staticFS = fsys
		return nil
	}
}

// WithCacheFile sets the known periods cache file. A .json extension selects
// the JSON encoding.
func WithCacheFile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.NewValidationError("cache_file", path, "cannot be empty")
		}
		o.cacheFile = path
		return nil
	}
}

// WithCategoryTable replaces the heading keyword table.
func WithCategoryTable(table catalogs.CategoryTable) Option {
	return func(o *options) error {
		if err := table.Validate(); err != nil {
			return err
		}
		o.categories = table
		return nil
	}
}

// WithYearBounds sets the sanity window for extracted periods.
func WithYearBounds(minYear, maxYear int) Option {
	return func(o *options) error {
		b := period.Bounds{MinYear: minYear, MaxYear: maxYear}
		if err := b.Validate(); err != nil {
			return err
		}
		o.bounds = b
		return nil
	}
}

// WithCutoffYear sets the first year served by the live crawl.
func WithCutoffYear(year int) Option {
	return func(o *options) error {
		if year <= 0 {
			return errors.NewValidationError("cutoff_year", year, "must be positive")
		}
		o.cutoffYear = year
		return nil
	}
}

// WithStartYear sets the first year of open-ended requests.
func WithStartYear(year int) Option {
	return func(o *options) error {
		if year <= 0 {
			return errors.NewValidationError("start_year", year, "must be positive")
		}
		o.startYear = year
		return nil
	}
}

// WithWorkers bounds concurrent static loads and per-category runs.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxWorkers {
			return errors.NewValidationError("workers", n, "must be between 1 and the worker limit")
		}
		o.workers = n
		return nil
	}
}

// WithMetricsRegisterer registers the client metrics with reg. Without it the
// client keeps its metrics on a private registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithClock overrides the clock used for open-ended requests.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		o.now = now
		return nil
	}
}
