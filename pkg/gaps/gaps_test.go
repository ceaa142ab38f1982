package gaps_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/gaps"
	"github.com/agentstation/periodmap/pkg/period"
)

func p(year int, month time.Month) period.Period {
	return period.New(year, month)
}

func link(c catalogs.Category, per period.Period, src catalogs.Source) catalogs.DiscoveredLink {
	return catalogs.DiscoveredLink{
		Category: c,
		Period:   per,
		URL:      "https://example.gov/" + c.Lower() + "_" + per.String() + ".xls",
		Source:   src,
	}
}

func TestExpected(t *testing.T) {
	tests := []struct {
		name       string
		start, end period.Period
		want       int
		first      period.Period
		last       period.Period
	}{
		{"single month", p(2024, time.May), p(2024, time.May), 1, p(2024, time.May), p(2024, time.May)},
		{"year rollover", p(2023, time.November), p(2024, time.February), 4, p(2023, time.November), p(2024, time.February)},
		{"full years", p(2020, time.January), p(2024, time.December), 60, p(2020, time.January), p(2024, time.December)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gaps.Expected(tt.start, tt.end)
			require.Len(t, got, tt.want)
			assert.Equal(t, tt.first, got[0])
			assert.Equal(t, tt.last, got[len(got)-1])
		})
	}

	assert.Empty(t, gaps.Expected(p(2024, time.February), p(2024, time.January)))
}

func TestScenarioGapsAndCoverage(t *testing.T) {
	catalog := catalogs.New(
		link(catalogs.CategoryPMC, p(2024, time.January), catalogs.SourceLive),
		link(catalogs.CategoryPMC, p(2024, time.February), catalogs.SourceLive),
		link(catalogs.CategoryPMC, p(2024, time.April), catalogs.SourceLive),
	)

	start, end := p(2024, time.January), p(2024, time.April)
	assert.Equal(t, []period.Period{p(2024, time.March)}, gaps.Find(catalog, catalogs.CategoryPMC, start, end))

	report := gaps.Coverage(catalog, catalogs.CategoryPMC, start, end)
	assert.Equal(t, 4, report.ExpectedCount)
	assert.Equal(t, 3, report.FoundCount)
	assert.Equal(t, 75.0, report.CoveragePercent)
	assert.Equal(t, map[catalogs.Source]int{catalogs.SourceLive: 3}, report.SourceBreakdown)
	assert.False(t, report.Complete())
}

func TestGapCompleteness(t *testing.T) {
	catalog := catalogs.New(
		link(catalogs.CategoryPF, p(2023, time.February), catalogs.SourceStatic),
		link(catalogs.CategoryPF, p(2023, time.July), catalogs.SourceStatic),
		link(catalogs.CategoryPF, p(2024, time.January), catalogs.SourceLive),
		link(catalogs.CategoryPF, p(2025, time.March), catalogs.SourceLive), // outside range
		link(catalogs.CategoryPMC, p(2023, time.March), catalogs.SourceLive), // other category
	)
	start, end := p(2023, time.January), p(2024, time.June)

	missing := gaps.Find(catalog, catalogs.CategoryPF, start, end)
	found := catalog.Filter(catalogs.CategoryPF).Between(start, end).Periods(catalogs.CategoryPF)

	seen := make(map[period.Period]int)
	for _, m := range missing {
		seen[m]++
	}
	for _, f := range found {
		seen[f]++
	}

	expected := gaps.Expected(start, end)
	assert.Len(t, seen, len(expected))
	for _, e := range expected {
		assert.Equal(t, 1, seen[e], "period %s must be either found or missing, exactly once", e)
	}

	report := gaps.Coverage(catalog, catalogs.CategoryPF, start, end)
	assert.Equal(t, 3, report.FoundCount)
	assert.Equal(t, 18, report.ExpectedCount)
	assert.Equal(t, 16.67, report.CoveragePercent)
	assert.Equal(t, map[catalogs.Source]int{catalogs.SourceStatic: 2, catalogs.SourceLive: 1}, report.SourceBreakdown)
}

func TestFindUntil(t *testing.T) {
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	got := gaps.FindUntil(catalogs.New(), catalogs.CategoryPMVG, p(2024, time.January), now)
	assert.Equal(t, []period.Period{p(2024, time.January), p(2024, time.February), p(2024, time.March)}, got)
}

func TestCoverageEmpty(t *testing.T) {
	report := gaps.Coverage(nil, catalogs.CategoryPMC, p(2024, time.May), p(2024, time.April))
	assert.Equal(t, 0, report.ExpectedCount)
	assert.Equal(t, 0.0, report.CoveragePercent)
	assert.True(t, report.Complete())

	full := gaps.Coverage(catalogs.New(link(catalogs.CategoryPMC, p(2024, time.May), catalogs.SourceLive)),
		catalogs.CategoryPMC, p(2024, time.May), p(2024, time.May))
	assert.Equal(t, 100.0, full.CoveragePercent)
	assert.True(t, full.Complete())
}

func TestScenarioSingleGap(t *testing.T) {
	catalog := catalogs.New(
		link(catalogs.CategoryPMC, p(2023, time.January), catalogs.SourceLive),
		link(catalogs.CategoryPMC, p(2023, time.March), catalogs.SourceLive),
	)
	got := gaps.Find(catalog, catalogs.CategoryPMC, p(2023, time.January), p(2023, time.March))
	assert.Equal(t, []period.Period{p(2023, time.February)}, got)
}
