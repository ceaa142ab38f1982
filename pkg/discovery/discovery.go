// Package discovery runs one discovery pass over a flattened listing page:
// the context classifier folds over the nodes, and each anchor is filtered,
// categorized and dated before it enters the catalog builder.
//
// Heuristic failures never surface as errors. An anchor that is not a
// document, has no resolvable category or period, or repeats a key already
// seen is dropped and counted in Diagnostics.
package discovery

import (
	"context"
	"io"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/periodmap/internal/classifier"
	"github.com/agentstation/periodmap/internal/docfilter"
	"github.com/agentstation/periodmap/internal/markup"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
)

// Pass is the outcome of one discovery pass.
type Pass struct {
	ID          string
	Catalog     *catalogs.Catalog
	Diagnostics Diagnostics
}

// Pipeline turns markup nodes into a catalog. It holds no per-pass state and
// is safe for concurrent use.
type Pipeline struct {
	classifier    *classifier.Classifier
	extractor     *period.Extractor
	filter        *docfilter.Filter
	source        catalogs.Source
	only          catalogs.Category
	fixed         catalogs.Category
	anchorContext bool
	now           func() utc.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClassifier sets the context classifier.
func WithClassifier(c *classifier.Classifier) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.classifier = c
		}
	}
}

// WithExtractor sets the period extractor.
func WithExtractor(e *period.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithFilter sets the document filter.
func WithFilter(f *docfilter.Filter) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.filter = f
		}
	}
}

// WithSource sets the provenance stamped on every link.
func WithSource(s catalogs.Source) Option {
	return func(p *Pipeline) {
		p.source = s
	}
}

// WithCategory keeps only links of category; others are dropped as
// other_category. An empty category keeps everything.
func WithCategory(c catalogs.Category) Option {
	return func(p *Pipeline) {
		p.only = c
	}
}

// WithFixedCategory assigns category to every link regardless of headings,
// for captures that hold a single category.
func WithFixedCategory(c catalogs.Category) Option {
	return func(p *Pipeline) {
		p.fixed = c
	}
}

// WithAnchorContext makes the text around an anchor the first period hint,
// ahead of the running hint from earlier text nodes.
func WithAnchorContext(enabled bool) Option {
	return func(p *Pipeline) {
		p.anchorContext = enabled
	}
}

// WithClock sets the time source for DiscoveredAt.
func WithClock(now func() utc.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline for the live listing page by default.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier.New(),
		extractor:  period.NewExtractor(),
		filter:     docfilter.New(),
		source:     catalogs.SourceLive,
		now:        utc.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse flattens r with markupOpts and runs the pipeline over it.
func (p *Pipeline) Parse(ctx context.Context, r io.Reader, markupOpts ...markup.Option) (*Pass, error) {
	nodes, err := markup.Parse(r, markupOpts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, nodes), nil
}

// Run folds over nodes and builds the catalog of one pass.
func (p *Pipeline) Run(ctx context.Context, nodes []markup.Node) *Pass {
	pass := &Pass{
		ID:          uuid.NewString(),
		Diagnostics: NewDiagnostics(),
	}
	logger := logging.FromContext(ctx).With().
		Str("pass_id", pass.ID).
		Logger()

	discoveredAt := p.now()
	builder := catalogs.NewBuilder()
	diag := &pass.Diagnostics

	p.classifier.Walk(nodes, func(a markup.Node, state classifier.State) {
		diag.Anchors++

		if ok, rule := p.filter.Check(a.Href, a.Text); !ok {
			diag.drop(rule)
			logger.Debug().Str("url", a.Href).Str("rule", rule).Msg("Anchor is not a period document")
			return
		}

		category, ok := p.category(state, a)
		if !ok {
			diag.drop(ReasonNoCategory)
			logger.Debug().Str("url", a.Href).Msg("No category for anchor")
			return
		}
		if p.only != "" && category != p.only {
			diag.drop(ReasonOtherCategory)
			return
		}

		per, strategy, ok := p.extractor.Resolve(a.Href, p.hint(state, a))
		if !ok {
			diag.drop(ReasonNoPeriod)
			logger.Debug().Str("url", a.Href).Msg("No period for anchor")
			return
		}

		link := catalogs.DiscoveredLink{
			Category:     category,
			Period:       per,
			URL:          a.Href,
			Source:       p.source,
			DiscoveredAt: discoveredAt,
		}
		if !builder.Add(link) {
			diag.drop(ReasonDuplicate)
			logger.Debug().Str("key", link.Key().String()).Str("url", a.Href).Msg("Duplicate period ignored")
			return
		}
		diag.accept(strategy)
	})

	pass.Catalog = builder.Build()
	logger.Debug().
		Int("anchors", diag.Anchors).
		Int("accepted", diag.Accepted).
		Int("dropped", diag.TotalDropped()).
		Msg("Discovery pass complete")
	return pass
}

// category resolves the category of an anchor: a fixed category first, then
// the heading context, then the anchor's own text.
func (p *Pipeline) category(state classifier.State, a markup.Node) (catalogs.Category, bool) {
	if p.fixed != "" {
		return p.fixed, true
	}
	if state.HasCategory() {
		return state.Category, true
	}
	return p.classifier.Table().Detect(a.Text)
}

func (p *Pipeline) hint(state classifier.State, a markup.Node) *period.Period {
	if p.anchorContext {
		if hp, ok := p.extractor.ParseMonthYear(a.Context); ok {
			return &hp
		}
	}
	return state.Hint
}
