// Package static reads pre-captured snapshots of the listing page, one per
// category and year, laid out as <category lowercase>/<year>.html on an
// fs.FS (a directory or an embedded tree).
package static

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/periodmap/internal/docfilter"
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

// Source loads captures from a file system.
type Source struct {
	fsys          fs.FS
	base          *url.URL
	discoveryOpts []discovery.Option
	metrics       *metrics.Metrics
}

// Option configures a static source.
type Option func(*Source)

// WithBaseURL resolves relative hrefs in captures against base.
func WithBaseURL(base *url.URL) Option {
	return func(s *Source) {
		s.base = base
	}
}

// WithDiscoveryOptions adds options to the pipeline of every fetch, such as
// a custom classifier or extractor.
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

// New creates a static source over fsys.
func New(fsys fs.FS, opts ...Option) *Source {
	s := &Source{fsys: fsys}
	if base, err := url.Parse(constants.DefaultListingURL); err == nil {
		s.base = base
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the provenance of captured links.
func (s *Source) ID() catalogs.Source {
	return catalogs.SourceStatic
}

// CapturePath returns the location of the capture for category and year.
func CapturePath(category catalogs.Category, year int) string {
	return path.Join(category.Lower(), fmt.Sprintf("%d.html", year))
}

// Fetch parses the capture selected by the category and year options. A
// missing capture is reported as a not-found error so the caller can fall
// back to the live crawl.
func (s *Source) Fetch(ctx context.Context, opts ...sources.Option) (*sources.Result, error) {
	o := sources.NewOptions(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if !o.Category.IsKnown() {
		return nil, errors.NewValidationError("category", o.Category.String(), "static fetch needs a category")
	}
	if o.Year <= 0 {
		return nil, errors.NewValidationError("year", o.Year, "static fetch needs a year")
	}
	if s.fsys == nil {
		return nil, errors.NewNotFoundError("capture", CapturePath(o.Category, o.Year))
	}

	name := CapturePath(o.Category, o.Year)
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFoundError("capture", name)
		}
		return nil, errors.WrapIO("read", name, err)
	}

	ctx = logging.WithSource(ctx, catalogs.SourceStatic.String())
	logger := logging.FromContext(ctx)
	pipeline := discovery.New(append([]discovery.Option{
		discovery.WithSource(catalogs.SourceStatic),
		discovery.WithFilter(docfilter.NewRelaxed()),
		discovery.WithFixedCategory(o.Category),
		discovery.WithAnchorContext(true),
	}, s.discoveryOpts...)...)

	pass, err := pipeline.Parse(ctx, bytes.NewReader(data),
		markup.WithBaseURL(s.base),
		markup.WithAncestorContext(constants.ContextAncestorLevels, constants.ContextMinChars),
	)
	if err != nil {
		return nil, errors.WrapResource("parse", "capture", name, err)
	}

	result := sources.NewResult(catalogs.SourceStatic, name, pass)
	internalsources.Observe(s.metrics, result)
	logger.Debug().
		Str("capture", name).
		Int("links", result.Catalog.Len()).
		Int("dropped", result.Diagnostics.TotalDropped()).
		Msg("Parsed static capture")
	return result, nil
}

// Years returns the capture years available for category, ascending.
func (s *Source) Years(category catalogs.Category) ([]int, error) {
	if s.fsys == nil {
		return []int{}, nil
	}
	entries, err := fs.ReadDir(s.fsys, category.Lower())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int{}, nil
		}
		return nil, errors.WrapIO("list", category.Lower(), err)
	}

	years := []int{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".html" {
			continue
		}
		if y, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ".html")); err == nil {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years, nil
}

// Cleanup releases any resources.
func (s *Source) Cleanup() error {
	return nil
}
