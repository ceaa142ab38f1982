package catalogs_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/period"
)

func link(cat catalogs.Category, year int, month time.Month, src catalogs.Source, url string) catalogs.DiscoveredLink {
	return catalogs.DiscoveredLink{
		Category:     cat,
		Period:       period.New(year, month),
		URL:          url,
		Source:       src,
		DiscoveredAt: utc.New(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestBuilderFirstSeenWins(t *testing.T) {
	b := catalogs.NewBuilder()

	assert.True(t, b.Add(link(catalogs.CategoryPMC, 2023, time.April, catalogs.SourceLive, "https://a/first.xls")))
	assert.False(t, b.Add(link(catalogs.CategoryPMC, 2023, time.April, catalogs.SourceLive, "https://a/second.xls")))
	assert.True(t, b.Add(link(catalogs.CategoryPF, 2023, time.April, catalogs.SourceLive, "https://a/pf.xls")))
	assert.Equal(t, 2, b.Len())

	c := b.Build()
	got, ok := c.Get(catalogs.Key{Category: catalogs.CategoryPMC, Period: period.New(2023, time.April)})
	require.True(t, ok)
	assert.Equal(t, "https://a/first.xls", got.URL)
}

func TestBuilderSortsByCategoryThenPeriod(t *testing.T) {
	c := catalogs.New(
		link(catalogs.CategoryPMVG, 2023, time.January, catalogs.SourceLive, "u1"),
		link(catalogs.CategoryPMC, 2024, time.January, catalogs.SourceLive, "u2"),
		link(catalogs.CategoryPMC, 2023, time.December, catalogs.SourceLive, "u3"),
		link(catalogs.CategoryPF, 2023, time.June, catalogs.SourceLive, "u4"),
	)

	var keys []string
	for _, l := range c.Links() {
		keys = append(keys, l.Key().String())
	}
	assert.Equal(t, []string{"PF/2023-06", "PMC/2023-12", "PMC/2024-01", "PMVG/2023-01"}, keys)
	assert.Equal(t, []catalogs.Category{catalogs.CategoryPF, catalogs.CategoryPMC, catalogs.CategoryPMVG}, c.Categories())
}

func TestCatalogNoDuplicateKeys(t *testing.T) {
	var links []catalogs.DiscoveredLink
	for i := 0; i < 200; i++ {
		cat := []catalogs.Category{catalogs.CategoryPMC, catalogs.CategoryPMVG, catalogs.CategoryPF}[i%3]
		links = append(links, link(cat, 2020+i%5, time.Month(i%12+1), catalogs.SourceLive, fmt.Sprintf("u%d", i)))
	}

	c := catalogs.New(links...)
	seen := map[catalogs.Key]bool{}
	for _, l := range c.Links() {
		require.False(t, seen[l.Key()], "duplicate key %s", l.Key())
		seen[l.Key()] = true
	}
	assert.Equal(t, len(seen), c.Len())
}

func TestCatalogQueries(t *testing.T) {
	c := catalogs.New(
		link(catalogs.CategoryPMC, 2023, time.January, catalogs.SourceStatic, "u1"),
		link(catalogs.CategoryPMC, 2023, time.March, catalogs.SourceLive, "u2"),
		link(catalogs.CategoryPMC, 2024, time.February, catalogs.SourceLive, "u3"),
		link(catalogs.CategoryPF, 2023, time.February, catalogs.SourceStatic, "u4"),
	)

	pmc := c.Filter(catalogs.CategoryPMC)
	assert.Equal(t, 3, pmc.Len())

	between := pmc.Between(period.New(2023, time.February), period.New(2023, time.December))
	assert.Equal(t, 1, between.Len())

	assert.Equal(t, []period.Period{
		period.New(2023, time.January),
		period.New(2023, time.March),
		period.New(2024, time.February),
	}, c.Periods(catalogs.CategoryPMC))

	assert.Equal(t, map[catalogs.Source]int{catalogs.SourceStatic: 2, catalogs.SourceLive: 2}, c.CountBySource())
	assert.True(t, c.Has(catalogs.Key{Category: catalogs.CategoryPF, Period: period.New(2023, time.February)}))
	assert.False(t, c.Has(catalogs.Key{Category: catalogs.CategoryPF, Period: period.New(2023, time.March)}))
	assert.Len(t, c.Keys(), 4)
}

func TestCatalogIsImmutable(t *testing.T) {
	c := catalogs.New(link(catalogs.CategoryPMC, 2023, time.January, catalogs.SourceLive, "u1"))
	links := c.Links()
	links[0].URL = "changed"

	got, _ := c.Get(links[0].Key())
	assert.Equal(t, "u1", got.URL)
}

func TestNilCatalog(t *testing.T) {
	var c *catalogs.Catalog
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Links())
	assert.Empty(t, c.Periods(catalogs.CategoryPMC))
	assert.Empty(t, c.Categories())
	assert.Empty(t, c.CountBySource())
	assert.Equal(t, 0, c.Filter(catalogs.CategoryPMC).Len())
}

func TestMergeStaticWins(t *testing.T) {
	static := catalogs.New(link(catalogs.CategoryPMC, 2023, time.May, catalogs.SourceStatic, "https://static/2023_05.xls"))
	live := catalogs.New(
		link(catalogs.CategoryPMC, 2023, time.May, catalogs.SourceLive, "https://live/2023_05.xls"),
		link(catalogs.CategoryPMC, 2023, time.June, catalogs.SourceLive, "https://live/2023_06.xls"),
	)

	// Argument order must not matter; precedence comes from the order slice.
	merged := catalogs.Merge(catalogs.Sources(), live, static)
	require.Equal(t, 2, merged.Len())

	got, ok := merged.Get(catalogs.Key{Category: catalogs.CategoryPMC, Period: period.New(2023, time.May)})
	require.True(t, ok)
	assert.Equal(t, catalogs.SourceStatic, got.Source)
	assert.Equal(t, "https://static/2023_05.xls", got.URL)

	reversed := catalogs.Merge([]catalogs.Source{catalogs.SourceLive, catalogs.SourceStatic}, static, live)
	got, _ = reversed.Get(catalogs.Key{Category: catalogs.CategoryPMC, Period: period.New(2023, time.May)})
	assert.Equal(t, catalogs.SourceLive, got.Source)
}

func TestSourceRank(t *testing.T) {
	assert.Less(t, catalogs.SourceStatic.Rank(), catalogs.SourceLive.Rank())
	assert.Equal(t, 2, catalogs.Source("OTHER").Rank())
	assert.True(t, catalogs.SourceLive.IsValid())
	assert.False(t, catalogs.Source("OTHER").IsValid())
}
