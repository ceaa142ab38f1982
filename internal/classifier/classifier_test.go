package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/periodmap/internal/markup"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/period"
)

func heading(text string) markup.Node {
	return markup.Node{Kind: markup.KindHeading, Tag: "h2", Text: text}
}

func text(s string) markup.Node {
	return markup.Node{Kind: markup.KindText, Text: s}
}

func anchor(href string) markup.Node {
	return markup.Node{Kind: markup.KindAnchor, Tag: "a", Href: href, Text: "XLS"}
}

func TestStepIsPure(t *testing.T) {
	c := New()
	start := State{}

	next := c.Step(start, heading("Preço Fábrica"))
	assert.Equal(t, catalogs.CategoryPF, next.Category)
	assert.Equal(t, State{}, start)
}

func TestStepIgnoresUnrelatedNodes(t *testing.T) {
	c := New()
	hint := period.New(2023, time.May)
	state := State{Category: catalogs.CategoryPMC, Hint: &hint}

	assert.Equal(t, state, c.Step(state, heading("Resoluções")))
	assert.Equal(t, state, c.Step(state, text("sem data")))
	assert.Equal(t, state, c.Step(state, anchor("https://x/março/24")))
	assert.Equal(t, state, c.Step(state, text("janeiro/2010")))
}

func TestWalkCarriesStateAcrossAnchors(t *testing.T) {
	c := New()
	nodes := []markup.Node{
		anchor("https://x/before.xls"),
		heading("Preço Máximo ao Consumidor"),
		text("março/24"),
		anchor("https://x/a.xls"),
		anchor("https://x/b.xls"),
		heading("Preço Máximo de Venda ao Governo"),
		anchor("https://x/c.xls"),
		text("abril/2024"),
		anchor("https://x/d.xls"),
	}

	got := map[string]State{}
	final := c.Walk(nodes, func(a markup.Node, s State) {
		got[a.Href] = s
	})

	march := period.New(2024, time.March)
	april := period.New(2024, time.April)

	assert.Equal(t, State{}, got["https://x/before.xls"])
	assert.Equal(t, State{Category: catalogs.CategoryPMC, Hint: &march}, got["https://x/a.xls"])
	assert.Equal(t, State{Category: catalogs.CategoryPMC, Hint: &march}, got["https://x/b.xls"])
	assert.Equal(t, State{Category: catalogs.CategoryPMVG, Hint: &march}, got["https://x/c.xls"])
	assert.Equal(t, State{Category: catalogs.CategoryPMVG, Hint: &april}, got["https://x/d.xls"])
	assert.Equal(t, catalogs.CategoryPMVG, final.Category)
}

func TestWalkIsDeterministic(t *testing.T) {
	c := New()
	nodes := []markup.Node{heading("PMC"), text("maio/2023"), anchor("u1"), heading("PF"), anchor("u2")}

	run := func() []State {
		var out []State
		c.Walk(nodes, func(_ markup.Node, s State) { out = append(out, s) })
		return out
	}
	first := run()
	require.Len(t, first, 2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, run())
	}
}

func TestCustomTableAndBounds(t *testing.T) {
	c := New(
		WithCategoryTable(catalogs.CategoryTable{{Category: "CAP", Keywords: []string{"coeficiente"}}}),
		WithBounds(period.Bounds{MinYear: 2010, MaxYear: 2012}),
	)

	s := c.Step(State{}, heading("Coeficiente de Adequação"))
	assert.Equal(t, catalogs.Category("CAP"), s.Category)

	s = c.Step(s, text("junho/11"))
	require.NotNil(t, s.Hint)
	assert.Equal(t, period.New(2011, time.June), *s.Hint)
	assert.True(t, s.HasCategory())
}
