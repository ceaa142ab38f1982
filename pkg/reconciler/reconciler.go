// Package reconciler combines pre-captured static snapshots with a live crawl
// of the listing page into one catalog per category, plus a coverage report.
//
// Years before the cutoff are read from static captures. A missing capture is
// a warning, not an error: that year is added to the live window instead.
// Links from both sources are merged by source precedence, static first by
// default, and the first link per key survives.
package reconciler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/gaps"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
	"github.com/agentstation/periodmap/pkg/sources"
)

// Reconciler is the main interface for reconciling static and live links.
type Reconciler interface {
	// Links returns the reconciled catalog of one category over a period range
	Links(ctx context.Context, req Request) (*Result, error)

	// Coverage returns only the coverage report of Links
	Coverage(ctx context.Context, req Request) (gaps.CoverageReport, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	sources    *sources.Sources
	strategy   Strategy
	cutoffYear int
	startYear  int
	workers    int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// New creates a new Reconciler over the static and live sources registered in
// srcs. Either may be absent; its years are then served by the other.
func New(srcs *sources.Sources, opts ...Option) (Reconciler, error) {
	if srcs == nil {
		return nil, &errors.ValidationError{
			Field:   "sources",
			Message: "cannot be nil",
		}
	}

	// Create options with defaults
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	// Create reconciler from options
	r := &reconciler{
		sources:    srcs,
		strategy:   options.strategy,
		cutoffYear: options.cutoffYear,
		startYear:  options.startYear,
		workers:    options.workers,
		metrics:    options.metrics,
		now:        options.now,
	}
	return r, nil
}

// staticOutcome is the result of loading one capture year.
type staticOutcome struct {
	year   int
	result *sources.Result
	err    error
}

// Links reconciles one request.
func (r *reconciler) Links(ctx context.Context, req Request) (*Result, error) {
	req, err := req.normalize(r.now(), r.startYear)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Request = req
	result.Metadata.Strategy = r.strategy
	result.Metadata.RequestID = logging.RequestID(ctx)

	ctx = logging.WithFields(ctx, map[string]any{
		"category": req.Category,
		"start":    req.Start,
		"end":      req.End,
	})
	logger := logging.FromContext(ctx)

	var cats []*catalogs.Catalog

	// Step 1: Load static captures for the years before the cutoff
	staticCat, err := r.loadStatic(ctx, req, result)
	if err != nil {
		return nil, err
	}
	if staticCat != nil {
		cats = append(cats, staticCat)
		result.Metadata.Stats.StaticLinks = staticCat.Len()
		result.Metadata.Sources = append(result.Metadata.Sources, catalogs.SourceStatic)
	}

	// Step 2: Crawl the live page for the remaining window and fallbacks
	liveCat, err := r.loadLive(ctx, req, result)
	if err != nil {
		return nil, err
	}
	if liveCat != nil {
		cats = append(cats, liveCat)
		result.Metadata.Stats.LiveLinks = liveCat.Len()
		result.Metadata.Sources = append(result.Metadata.Sources, catalogs.SourceLive)
	}

	// Step 3: Merge by precedence and report coverage
	result.Catalog = r.strategy.Merge(cats...)
	result.Metadata.Stats.ConflictsResolved = result.Metadata.Stats.StaticLinks +
		result.Metadata.Stats.LiveLinks - result.Catalog.Len()
	if err := r.strategy.ValidateResult(result); err != nil {
		return nil, err
	}
	result.Coverage = gaps.Coverage(result.Catalog, req.Category, req.Start, req.End)
	result.Finalize()

	logger.Info().
		Int("links", result.Catalog.Len()).
		Int("static_links", result.Metadata.Stats.StaticLinks).
		Int("live_links", result.Metadata.Stats.LiveLinks).
		Int("conflicts", result.Metadata.Stats.ConflictsResolved).
		Int("gaps", len(result.Coverage.Gaps)).
		Float64("coverage_percent", result.Coverage.CoveragePercent).
		Int("warnings", len(result.Warnings)).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation complete")
	return result, nil
}

// Coverage returns the coverage report of Links.
func (r *reconciler) Coverage(ctx context.Context, req Request) (gaps.CoverageReport, error) {
	result, err := r.Links(ctx, req)
	if err != nil {
		return gaps.CoverageReport{}, err
	}
	return result.Coverage, nil
}

// staticYears returns the years of req served by static captures.
func (r *reconciler) staticYears(req Request) []int {
	years := []int{}
	if req.PreferLive || req.Start.After(req.End) {
		return years
	}
	last := min(req.End.Year, r.cutoffYear-1)
	for y := req.Start.Year; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// loadStatic reads the capture of every static year under a bounded pool.
// Years whose capture cannot be read are recorded as fallbacks.
func (r *reconciler) loadStatic(ctx context.Context, req Request, result *Result) (*catalogs.Catalog, error) {
	logger := logging.FromContext(ctx)
	years := r.staticYears(req)
	if len(years) == 0 {
		return nil, nil
	}

	src, ok := r.sources.Get(catalogs.SourceStatic)
	if !ok {
		for _, y := range years {
			r.fallback(logger, result, y, "no static source configured")
		}
		return nil, nil
	}

	p := pool.NewWithResults[staticOutcome]().
		WithContext(ctx).
		WithMaxGoroutines(r.workers)
	for _, year := range years {
		p.Go(func(ctx context.Context) (staticOutcome, error) {
			res, err := src.Fetch(ctx, sources.WithCategory(req.Category), sources.WithYear(year))
			return staticOutcome{year: year, result: res, err: err}, nil
		})
	}
	outcomes, err := p.Wait()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(outcomes, func(a, b staticOutcome) int { return a.year - b.year })

	var kept []*catalogs.Catalog
	for _, o := range outcomes {
		if o.err != nil {
			reason := "capture unreadable"
			if errors.IsNotFound(o.err) {
				reason = "no static capture"
			}
			r.fallback(logger, result, o.year, reason)
			logger.Debug().Err(o.err).Int("year", o.year).Msg("Static capture skipped")
			continue
		}

		result.StaticYears = append(result.StaticYears, o.year)
		result.Diagnostics.Add(o.result.Diagnostics)
		year := o.year
		kept = append(kept, o.result.Catalog.FilterFunc(func(l catalogs.DiscoveredLink) bool {
			return l.Category == req.Category && l.Year() == year && inRange(l.Period, req.Start, req.End)
		}))
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return catalogs.Merge([]catalogs.Source{catalogs.SourceStatic}, kept...), nil
}

// loadLive crawls the listing page when any part of req is not served by a
// static capture. Once the page is fetched its links cover the whole range,
// so a month missing from a capture can still be found live. Fetch failures
// are returned as is.
func (r *reconciler) loadLive(ctx context.Context, req Request, result *Result) (*catalogs.Catalog, error) {
	if req.Start.After(req.End) {
		return nil, nil
	}

	liveStart := req.Start
	if !req.PreferLive {
		if cut := period.New(r.cutoffYear, time.January); cut.After(liveStart) {
			liveStart = cut
		}
	}
	fallback := result.FallbackYears
	if liveStart.After(req.End) && len(fallback) == 0 {
		return nil, nil
	}

	src, ok := r.sources.Get(catalogs.SourceLive)
	if !ok {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no live source configured for %s %s..%s", req.Category, liveStart, req.End))
		return nil, nil
	}

	res, err := src.Fetch(ctx, sources.WithCategory(req.Category))
	if err != nil {
		return nil, err
	}
	result.Diagnostics.Add(res.Diagnostics)

	// every in-range link is kept; static links win their keys in the merge
	return res.Catalog.FilterFunc(func(l catalogs.DiscoveredLink) bool {
		return l.Category == req.Category && inRange(l.Period, req.Start, req.End)
	}), nil
}

func (r *reconciler) fallback(logger *zerolog.Logger, result *Result, year int, reason string) {
	category := result.Request.Category
	result.FallbackYears = append(result.FallbackYears, year)
	result.Warnings = append(result.Warnings,
		fmt.Sprintf("%s for %s %d, using live crawl", reason, category, year))
	r.metrics.IncStaticFallback(category.String())
	logger.Warn().
		Int("year", year).
		Str("reason", reason).
		Msg("Static capture missing, falling back to live crawl")
}

func inRange(p, start, end period.Period) bool {
	return !p.Before(start) && !p.After(end)
}
