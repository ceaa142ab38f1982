package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/gaps"
	"github.com/agentstation/periodmap/pkg/knownperiods"
	"github.com/agentstation/periodmap/pkg/period"
)

func headers(keys ...string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Title(k)
	}
	return out
}

// LinksToTableData converts links to table rows. Wide output adds the
// discovery timestamp.
func LinksToTableData(links []catalogs.DiscoveredLink, wide bool) Data {
	keys := []string{"category", "period", "month_name", "source", "url"}
	if wide {
		keys = append(keys, "discovered_at")
	}

	rows := make([][]string, 0, len(links))
	for _, l := range links {
		row := []string{
			l.Category.String(),
			l.Period.String(),
			period.MonthName(l.Month()),
			l.Source.String(),
			l.URL,
		}
		if wide {
			at := ""
			if !l.DiscoveredAt.IsZero() {
				at = l.DiscoveredAt.UTC().Format(constants.TimeFormatExport)
			}
			row = append(row, at)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers(keys...), Rows: rows}
}

// CoverageToTableData converts coverage reports to one row per category.
func CoverageToTableData(reports []gaps.CoverageReport) Data {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Category.String(),
			fmt.Sprintf("%s..%s", r.Start, r.End),
			strconv.Itoa(r.ExpectedCount),
			strconv.Itoa(r.FoundCount),
			strconv.FormatFloat(r.CoveragePercent, 'f', 2, 64),
			strconv.Itoa(len(r.Gaps)),
			strconv.Itoa(r.SourceBreakdown[catalogs.SourceStatic]),
			strconv.Itoa(r.SourceBreakdown[catalogs.SourceLive]),
		})
	}
	return Data{
		Headers:         headers("category", "range", "expected", "found", "coverage_percent", "gaps", "static", "live"),
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

// GapsToTableData lists the missing periods of each report.
func GapsToTableData(reports []gaps.CoverageReport) Data {
	var rows [][]string
	for _, r := range reports {
		for _, p := range r.Gaps {
			rows = append(rows, []string{r.Category.String(), p.String(), period.MonthName(p.Month)})
		}
	}
	return Data{Headers: headers("category", "period", "month_name"), Rows: rows}
}

// KnownToTableData summarizes the known periods cache per category.
func KnownToTableData(k knownperiods.Known) Data {
	var rows [][]string
	for _, c := range k.Categories() {
		ps := k[c]
		first, last := "", ""
		if len(ps) > 0 {
			first, last = ps[0].String(), ps[len(ps)-1].String()
		}
		rows = append(rows, []string{c.String(), strconv.Itoa(len(ps)), first, last})
	}
	return Data{
		Headers:         headers("category", "periods", "first", "last"),
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}

// DiagnosticsToTableData lists anchor counts and drop reasons.
func DiagnosticsToTableData(d discovery.Diagnostics) Data {
	rows := [][]string{
		{"anchors", strconv.Itoa(d.Anchors)},
		{"accepted", strconv.Itoa(d.Accepted)},
	}
	for _, reason := range d.Reasons() {
		rows = append(rows, []string{"dropped: " + reason, strconv.Itoa(d.Dropped[reason])})
	}
	return Data{
		Headers:         headers("counter", "count"),
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// Print formats data to w. Table formats use table, every other format
// encodes raw.
func Print(w io.Writer, format Format, table Data, raw any) error {
	formatter := NewFormatter(format)
	switch format {
	case FormatTable, FormatWide, "":
		return formatter.Format(w, table)
	default:
		return formatter.Format(w, raw)
	}
}
