package periodmap

import (
	"context"
	"slices"

	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/gaps"
	"github.com/agentstation/periodmap/pkg/period"
	"github.com/agentstation/periodmap/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Analyzer = (*client)(nil)

// Analyzer reconciles static captures with the live crawl.
type Analyzer interface {
	// Links returns the reconciled catalog of one category over a range
	Links(ctx context.Context, req reconciler.Request) (*reconciler.Result, error)

	// LinksAll runs Links for every category of the keyword table,
	// ignoring req.Category. Results follow table order.
	LinksAll(ctx context.Context, req reconciler.Request) ([]*reconciler.Result, error)

	// Coverage returns the coverage report of Links
	Coverage(ctx context.Context, req reconciler.Request) (gaps.CoverageReport, error)

	// Gaps returns the expected periods missing from Links
	Gaps(ctx context.Context, req reconciler.Request) ([]period.Period, error)
}

// Links returns the reconciled catalog of one category over a range.
func (c *client) Links(ctx context.Context, req reconciler.Request) (*reconciler.Result, error) {
	ctx = withRequest(ctx, "links")
	return c.reconciler.Links(ctx, req)
}

// LinksAll reconciles every category concurrently under the worker bound.
func (c *client) LinksAll(ctx context.Context, req reconciler.Request) ([]*reconciler.Result, error) {
	ctx = withRequest(ctx, "links")
	categories := c.Categories()

	p := pool.NewWithResults[*reconciler.Result]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(c.options.workers)
	for _, category := range categories {
		r := req
		r.Category = category
		p.Go(func(ctx context.Context) (*reconciler.Result, error) {
			return c.reconciler.Links(ctx, r)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	// the pool returns results in completion order
	slices.SortFunc(results, func(a, b *reconciler.Result) int {
		return slices.Index(categories, a.Request.Category) - slices.Index(categories, b.Request.Category)
	})
	return results, nil
}

// Coverage returns the coverage report of Links.
func (c *client) Coverage(ctx context.Context, req reconciler.Request) (gaps.CoverageReport, error) {
	result, err := c.Links(ctx, req)
	if err != nil {
		return gaps.CoverageReport{}, err
	}
	return result.Coverage, nil
}

// Gaps returns the expected periods missing from Links.
func (c *client) Gaps(ctx context.Context, req reconciler.Request) ([]period.Period, error) {
	report, err := c.Coverage(ctx, req)
	if err != nil {
		return nil, err
	}
	return report.Gaps, nil
}

// mergeResults combines the catalogs of per-category results. Categories
// never share keys so the merge keeps every link.
func mergeResults(results []*reconciler.Result) *catalogs.Catalog {
	cats := make([]*catalogs.Catalog, 0, len(results))
	for _, r := range results {
		cats = append(cats, r.Catalog)
	}
	return catalogs.Merge(catalogs.Sources(), cats...)
}
