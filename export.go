package periodmap

import (
	"context"
	"io"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/export"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Exporter = (*client)(nil)

// Exporter writes reconciled catalogs.
type Exporter interface {
	// Export reconciles req and writes the catalog to w. An empty
	// req.Category exports every category.
	Export(ctx context.Context, w io.Writer, req reconciler.Request, opts ...export.Option) (*catalogs.Catalog, error)

	// ExportFile is Export to a file replaced atomically
	ExportFile(ctx context.Context, path string, req reconciler.Request, opts ...export.Option) (*catalogs.Catalog, error)
}

// Export reconciles req and writes the catalog to w.
func (c *client) Export(ctx context.Context, w io.Writer, req reconciler.Request, opts ...export.Option) (*catalogs.Catalog, error) {
	catalog, err := c.exportCatalog(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := export.Write(w, catalog, opts...); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Int("links", catalog.Len()).
		Msg("Catalog exported")
	return catalog, nil
}

// ExportFile reconciles req and writes the catalog to path. A failed write
// leaves any previous file in place.
func (c *client) ExportFile(ctx context.Context, path string, req reconciler.Request, opts ...export.Option) (*catalogs.Catalog, error) {
	catalog, err := c.exportCatalog(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := export.WriteFile(path, catalog, opts...); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Str("path", path).
		Int("links", catalog.Len()).
		Msg("Catalog exported")
	return catalog, nil
}

func (c *client) exportCatalog(ctx context.Context, req reconciler.Request) (*catalogs.Catalog, error) {
	ctx = withRequest(ctx, "export")
	if req.Category != "" {
		result, err := c.Links(ctx, req)
		if err != nil {
			return nil, err
		}
		return result.Catalog, nil
	}
	results, err := c.LinksAll(ctx, req)
	if err != nil {
		return nil, err
	}
	return mergeResults(results), nil
}
