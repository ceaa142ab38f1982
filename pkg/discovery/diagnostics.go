package discovery

import (
	"maps"
	"slices"

	"github.com/agentstation/periodmap/internal/docfilter"
	"github.com/agentstation/periodmap/pkg/period"
)

// Drop reasons. Document filter failures use the name of the failing rule.
const (
	ReasonResolution    = docfilter.RuleNotResolution
	ReasonNotSheet      = docfilter.RuleSpreadsheet
	ReasonNoConformance = docfilter.RuleConformance
	ReasonNoCategory    = "no_category"
	ReasonOtherCategory = "other_category"
	ReasonNoPeriod      = "no_period"
	ReasonDuplicate     = "duplicate"
)

// Diagnostics counts what happened to the anchors of one or more passes.
type Diagnostics struct {
	Anchors    int                     `json:"anchors" yaml:"anchors"`
	Accepted   int                     `json:"accepted" yaml:"accepted"`
	Dropped    map[string]int          `json:"dropped" yaml:"dropped"`
	Strategies map[period.Strategy]int `json:"strategies" yaml:"strategies"`
}

// NewDiagnostics returns empty diagnostics.
func NewDiagnostics() Diagnostics {
	return Diagnostics{
		Dropped:    make(map[string]int),
		Strategies: make(map[period.Strategy]int),
	}
}

func (d *Diagnostics) drop(reason string) {
	if d.Dropped == nil {
		d.Dropped = make(map[string]int)
	}
	d.Dropped[reason]++
}

func (d *Diagnostics) accept(s period.Strategy) {
	if d.Strategies == nil {
		d.Strategies = make(map[period.Strategy]int)
	}
	d.Accepted++
	d.Strategies[s]++
}

// TotalDropped returns the number of anchors dropped for any reason.
func (d Diagnostics) TotalDropped() int {
	total := 0
	for _, n := range d.Dropped {
		total += n
	}
	return total
}

// Reasons returns the drop reasons seen, sorted.
func (d Diagnostics) Reasons() []string {
	return slices.Sorted(maps.Keys(d.Dropped))
}

// Add folds other into d.
func (d *Diagnostics) Add(other Diagnostics) {
	d.Anchors += other.Anchors
	d.Accepted += other.Accepted
	for reason, n := range other.Dropped {
		if d.Dropped == nil {
			d.Dropped = make(map[string]int)
		}
		d.Dropped[reason] += n
	}
	for s, n := range other.Strategies {
		if d.Strategies == nil {
			d.Strategies = make(map[period.Strategy]int)
		}
		d.Strategies[s] += n
	}
}
