// Package gaps computes which expected periods are missing from a catalog
// and summarizes coverage. Everything here is derived from a catalog and is
// never stored.
package gaps

import (
	"math"
	"time"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/period"
)

// Expected returns every month from start to end inclusive. It is empty
// when start is after end.
func Expected(start, end period.Period) []period.Period {
	return period.Range(start, end)
}

// Find returns the expected periods of category in [start, end] that the
// catalog does not hold, ascending.
func Find(catalog *catalogs.Catalog, category catalogs.Category, start, end period.Period) []period.Period {
	missing := []period.Period{}
	for _, p := range Expected(start, end) {
		if !catalog.Has(catalogs.Key{Category: category, Period: p}) {
			missing = append(missing, p)
		}
	}
	return missing
}

// FindUntil is Find with the month of now as the end.
func FindUntil(catalog *catalogs.Catalog, category catalogs.Category, start period.Period, now time.Time) []period.Period {
	return Find(catalog, category, start, period.FromTime(now))
}

// CoverageReport summarizes how much of an expected range a catalog covers.
type CoverageReport struct {
	Category        catalogs.Category       `json:"category" yaml:"category"`
	Start           period.Period           `json:"start" yaml:"start"`
	End             period.Period           `json:"end" yaml:"end"`
	ExpectedCount   int                     `json:"expected_count" yaml:"expected_count"`
	FoundCount      int                     `json:"found_count" yaml:"found_count"`
	CoveragePercent float64                 `json:"coverage_percent" yaml:"coverage_percent"`
	Gaps            []period.Period         `json:"gaps" yaml:"gaps"`
	SourceBreakdown map[catalogs.Source]int `json:"source_breakdown" yaml:"source_breakdown"`
}

// Complete reports whether no expected period is missing.
func (r CoverageReport) Complete() bool {
	return len(r.Gaps) == 0
}

// Coverage builds the report for category over [start, end]. Only links
// inside the range count as found.
func Coverage(catalog *catalogs.Catalog, category catalogs.Category, start, end period.Period) CoverageReport {
	inRange := catalog.Filter(category).Between(start, end)
	expected := len(Expected(start, end))

	report := CoverageReport{
		Category:        category,
		Start:           start,
		End:             end,
		ExpectedCount:   expected,
		FoundCount:      inRange.Len(),
		Gaps:            Find(catalog, category, start, end),
		SourceBreakdown: inRange.CountBySource(),
	}
	if expected > 0 {
		report.CoveragePercent = round2(float64(report.FoundCount) / float64(expected) * 100)
	}
	return report
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
