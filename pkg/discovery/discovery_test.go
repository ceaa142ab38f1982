package discovery_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/periodmap/internal/docfilter"
	"github.com/agentstation/periodmap/internal/markup"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
)

var fixedNow = utc.New(time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC))

func clock() utc.Time { return fixedNow }

func parse(t *testing.T, p *discovery.Pipeline, page string) *discovery.Pass {
	t.Helper()
	pass, err := p.Parse(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	return pass
}

func TestScenarioHeadingAndDatedURL(t *testing.T) {
	page := `<div id="content-core">
		<h2>PMC</h2>
		<a href="https://example.gov/xls_conformidade_site_20230415_093000.xls">XLS_CONFORMIDADE_SITE_ABRIL.xls</a>
	</div>`

	pass := parse(t, discovery.New(discovery.WithClock(clock)), page)

	require.Equal(t, 1, pass.Catalog.Len())
	l := pass.Catalog.Links()[0]
	assert.Equal(t, catalogs.CategoryPMC, l.Category)
	assert.Equal(t, period.New(2023, time.April), l.Period)
	assert.Equal(t, catalogs.SourceLive, l.Source)
	assert.Equal(t, fixedNow, l.DiscoveredAt)
	assert.Equal(t, 1, pass.Diagnostics.Strategies[period.StrategyFullDate])
	assert.NotEmpty(t, pass.ID)
}

func TestScenarioTextHintFallback(t *testing.T) {
	page := `<div id="content-core">
		<h3>Preço Máximo ao Consumidor</h3>
		<p>Vigência março/24</p>
		<a href="https://example.gov/arquivos/xls_conformidade_site.xls">XLS</a>
	</div>`

	pass := parse(t, discovery.New(), page)

	require.Equal(t, 1, pass.Catalog.Len())
	l := pass.Catalog.Links()[0]
	assert.Equal(t, period.New(2024, time.March), l.Period)
	assert.Equal(t, 1, pass.Diagnostics.Strategies[period.StrategyHint])
}

func TestScenarioResolutionRejected(t *testing.T) {
	page := `<div id="content-core">
		<h2>PMC</h2>
		<a href="https://example.gov/xls_conformidade_site_reso_2023_05.xls">XLS</a>
	</div>`

	pass := parse(t, discovery.New(), page)

	assert.Equal(t, 0, pass.Catalog.Len())
	assert.Equal(t, 1, pass.Diagnostics.Dropped[discovery.ReasonResolution])
}

func TestDropReasons(t *testing.T) {
	page := `<div id="content-core">
		<a href="https://example.gov/sem_categoria_20230101.pdf">Documento</a>
		<a href="https://example.gov/lista_conformidade_20230101.xls">XLS</a>
		<h2>Preço Fábrica</h2>
		<a href="https://example.gov/relatorio_20230101.xls">XLS</a>
		<a href="https://example.gov/lista_conformidade.xls">XLS sem data</a>
		<a href="https://example.gov/lista_conformidade_20230201.xls">XLS</a>
		<a href="https://example.gov/lista_conformidade_20230215.xls">XLS repetido</a>
	</div>`

	pass := parse(t, discovery.New(), page)

	d := pass.Diagnostics
	assert.Equal(t, 6, d.Anchors)
	assert.Equal(t, 1, d.Accepted)
	assert.Equal(t, map[string]int{
		discovery.ReasonNotSheet:      1,
		discovery.ReasonNoCategory:    1,
		discovery.ReasonNoConformance: 1,
		discovery.ReasonNoPeriod:      1,
		discovery.ReasonDuplicate:     1,
	}, d.Dropped)
	assert.Equal(t, 5, d.TotalDropped())

	l := pass.Catalog.Links()[0]
	assert.Equal(t, catalogs.CategoryPF, l.Category)
	assert.Equal(t, "https://example.gov/lista_conformidade_20230201.xls", l.URL)
}

func TestAnchorTextCategoryFallback(t *testing.T) {
	page := `<div id="content-core">
		<a href="https://example.gov/xls_conformidade_gov_20240301.xls">XLS_CONFORMIDADE_GOV</a>
	</div>`

	pass := parse(t, discovery.New(), page)

	require.Equal(t, 1, pass.Catalog.Len())
	assert.Equal(t, catalogs.CategoryPMVG, pass.Catalog.Links()[0].Category)
}

func TestCategoryFilter(t *testing.T) {
	page := `<div id="content-core">
		<h2>PMC</h2>
		<a href="https://example.gov/xls_conformidade_site_20240101.xls">XLS</a>
		<h2>PMVG</h2>
		<a href="https://example.gov/xls_conformidade_gov_20240101.xls">XLS</a>
	</div>`

	pass := parse(t, discovery.New(discovery.WithCategory(catalogs.CategoryPMVG)), page)

	require.Equal(t, 1, pass.Catalog.Len())
	assert.Equal(t, catalogs.CategoryPMVG, pass.Catalog.Links()[0].Category)
	assert.Equal(t, 1, pass.Diagnostics.Dropped[discovery.ReasonOtherCategory])
}

func TestStaticCaptureMode(t *testing.T) {
	filler := strings.Repeat("texto ", 40)
	page := `<div>
		<p>Lista vigente em janeiro/2022. ` + filler + `<a href="https://example.gov/pmc_jan.xls">Baixar</a></p>
		<p><a href="https://example.gov/pmc_mar.xls">Baixar</a> publicada em março/2022. ` + filler + `</p>
		<p><a href="https://example.gov/pmc_reso_2022_04.xls">Resolução</a></p>
	</div>`

	static := discovery.New(
		discovery.WithSource(catalogs.SourceStatic),
		discovery.WithFilter(docfilter.NewRelaxed()),
		discovery.WithFixedCategory(catalogs.CategoryPMC),
		discovery.WithAnchorContext(true),
	)
	pass := parse(t, static, page)

	require.Equal(t, 2, pass.Catalog.Len())
	links := pass.Catalog.Links()
	assert.Equal(t, period.New(2022, time.January), links[0].Period)
	assert.Equal(t, period.New(2022, time.March), links[1].Period)
	assert.Equal(t, catalogs.SourceStatic, links[1].Source)
	assert.Equal(t, 1, pass.Diagnostics.Dropped[discovery.ReasonResolution])

	t.Run("running hint only", func(t *testing.T) {
		noContext := discovery.New(
			discovery.WithFilter(docfilter.NewRelaxed()),
			discovery.WithFixedCategory(catalogs.CategoryPMC),
		)
		pass := parse(t, noContext, page)
		// Both anchors inherit janeiro/2022; the second is a duplicate.
		assert.Equal(t, 1, pass.Catalog.Len())
		assert.Equal(t, 1, pass.Diagnostics.Dropped[discovery.ReasonDuplicate])
	})

	t.Run("strict filter rejects uncurated urls", func(t *testing.T) {
		pass := parse(t, discovery.New(discovery.WithFixedCategory(catalogs.CategoryPMC)), page)
		assert.Equal(t, 0, pass.Catalog.Len())
	})
}

func TestDeterminism(t *testing.T) {
	page := `<div id="content-core">
		<h2>PMC</h2>
		<p>abril/2023</p>
		<a href="https://example.gov/xls_conformidade_site_a.xls">XLS</a>
		<a href="https://example.gov/xls_conformidade_site_20230501.xls">XLS</a>
		<h2>PMVG</h2>
		<a href="https://example.gov/xls_conformidade_gov_2023_06_x.xls">XLS</a>
	</div>`

	nodes, err := markup.Parse(strings.NewReader(page))
	require.NoError(t, err)

	p := discovery.New(discovery.WithClock(clock))
	first := p.Run(context.Background(), nodes)
	require.Equal(t, 3, first.Catalog.Len())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Catalog.Links(), p.Run(context.Background(), nodes).Catalog.Links())
	}
}

func TestDebugLogging(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	page := `<div id="content-core"><h2>PMC</h2><a href="https://example.gov/x_reso_2023_05.xls">XLS</a></div>`
	_, err := discovery.New().Parse(ctx, strings.NewReader(page))
	require.NoError(t, err)

	assert.True(t, tl.Contains("Anchor is not a period document"))
	assert.True(t, tl.Contains("Discovery pass complete"))
}

func TestDiagnosticsAdd(t *testing.T) {
	a := discovery.NewDiagnostics()
	a.Anchors = 3
	a.Dropped[discovery.ReasonNoPeriod] = 2

	var b discovery.Diagnostics
	b.Add(a)
	b.Add(a)

	assert.Equal(t, 6, b.Anchors)
	assert.Equal(t, 4, b.Dropped[discovery.ReasonNoPeriod])
	assert.Equal(t, []string{discovery.ReasonNoPeriod}, b.Reasons())
}
