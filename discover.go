package periodmap

import (
	"context"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Discoverer = (*client)(nil)

// Discoverer runs live discovery passes over the listing page.
type Discoverer interface {
	// Discover crawls the listing page once and returns every document
	// link found. The cache is not touched.
	Discover(ctx context.Context, opts ...sources.Option) (*sources.Result, error)

	// NewSince crawls the listing page and returns only links whose period
	// is not yet known, marking them known. An empty category considers
	// every category.
	NewSince(ctx context.Context, category catalogs.Category) (*catalogs.Catalog, error)
}

// Discover crawls the listing page once.
func (c *client) Discover(ctx context.Context, opts ...sources.Option) (*sources.Result, error) {
	ctx = withRequest(ctx, "discover")
	return c.live.Fetch(ctx, opts...)
}

// NewSince crawls the listing page, diffs the result against the cache and
// marks the new periods known. Hooks fire after the cache write succeeds.
func (c *client) NewSince(ctx context.Context, category catalogs.Category) (*catalogs.Catalog, error) {
	if category != "" && !category.IsKnown() {
		return nil, errors.NewValidationError("category", category.String(), "must be a known category tag")
	}

	ctx = withRequest(ctx, "new_since")
	if category != "" {
		ctx = logging.WithCategory(ctx, category.String())
	}
	logger := logging.FromContext(ctx)

	result, err := c.live.Fetch(ctx, sources.WithCategory(category))
	if err != nil {
		return nil, err
	}

	// diff and mark under one lock so concurrent calls never report the
	// same period twice
	c.newMu.Lock()
	fresh := c.store.DiffNew(category, result.Catalog)
	if !fresh.IsEmpty() {
		if _, err := c.MarkKnown(fresh); err != nil {
			c.newMu.Unlock()
			return nil, err
		}
	}
	c.newMu.Unlock()

	for _, cat := range fresh.Categories() {
		c.metrics.AddNewPeriods(cat.String(), fresh.Filter(cat).Len())
	}
	c.hooks.triggerNewPeriods(fresh)

	logger.Info().
		Str("pass_id", result.PassID).
		Int("links", result.Catalog.Len()).
		Int("new", fresh.Len()).
		Msg("New periods check complete")

	return fresh, nil
}
