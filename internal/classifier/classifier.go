// Package classifier attaches the running category and period hint to each
// anchor of a flattened listing page. It is a pure fold over markup nodes:
// State is the accumulator and Step the transition function.
package classifier

import (
	"github.com/agentstation/periodmap/internal/markup"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/period"
)

// State is the context accumulated from the nodes seen so far.
// A zero State has no category and no hint.
type State struct {
	Category catalogs.Category
	Hint     *period.Period
}

// HasCategory reports whether a heading has set the category.
func (s State) HasCategory() bool {
	return s.Category != ""
}

// Classifier holds the keyword table and period bounds used by Step.
type Classifier struct {
	table  catalogs.CategoryTable
	bounds period.Bounds
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCategoryTable replaces the keyword table.
func WithCategoryTable(table catalogs.CategoryTable) Option {
	return func(c *Classifier) {
		c.table = table
	}
}

// WithBounds sets the window free-text hints must fall in.
func WithBounds(b period.Bounds) Option {
	return func(c *Classifier) {
		c.bounds = b
	}
}

// New creates a Classifier with the default keyword table and bounds.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		table:  catalogs.DefaultCategoryTable(),
		bounds: period.DefaultBounds(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the keyword table in use.
func (c *Classifier) Table() catalogs.CategoryTable {
	return c.table
}

// Step returns the state after observing node. Headings whose text matches
// the keyword table replace the category; text nodes with a month/year
// reference replace the hint. Everything else leaves state unchanged.
func (c *Classifier) Step(state State, node markup.Node) State {
	switch node.Kind {
	case markup.KindHeading:
		if cat, ok := c.table.Detect(node.Text); ok {
			state.Category = cat
		}
	case markup.KindText:
		if p, ok := period.ParseMonthYear(node.Text, c.bounds); ok {
			state.Hint = &p
		}
	}
	return state
}

// Walk folds nodes from the zero state and calls visit for every anchor with
// the state accumulated before it. It returns the final state.
func (c *Classifier) Walk(nodes []markup.Node, visit func(anchor markup.Node, state State)) State {
	var state State
	for _, n := range nodes {
		if n.Kind == markup.KindAnchor {
			visit(n, state)
		}
		state = c.Step(state, n)
	}
	return state
}
