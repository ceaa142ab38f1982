package reconciler

import (
	"time"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/period"
)

// Request selects the category and period range to reconcile.
type Request struct {
	Category catalogs.Category `json:"category" yaml:"category"`

	// Start is the first expected period. A zero Start uses the configured
	// start year; a year without a month means January.
	Start period.Period `json:"start" yaml:"start"`

	// End is the last expected period. A zero End means the current month;
	// a year without a month means December.
	End period.Period `json:"end" yaml:"end"`

	// PreferLive crawls the whole range instead of reading static captures.
	PreferLive bool `json:"prefer_live" yaml:"prefer_live"`
}

// normalize resolves the open ends of r.
func (r Request) normalize(now time.Time, startYear int) (Request, error) {
	if !r.Category.IsKnown() {
		return r, errors.NewValidationError("category", r.Category.String(), "must be a known category tag")
	}

	switch {
	case r.Start.IsZero():
		r.Start = period.New(startYear, time.January)
	case r.Start.Month == 0:
		r.Start.Month = time.January
	}
	switch {
	case r.End.IsZero():
		r.End = period.FromTime(now)
	case r.End.Month == 0:
		r.End.Month = time.December
	}

	if !r.Start.Valid() {
		return r, errors.NewValidationError("start", r.Start.String(), "invalid period")
	}
	if !r.End.Valid() {
		return r, errors.NewValidationError("end", r.End.String(), "invalid period")
	}
	return r, nil
}
