// Package period models the calendar month a period document is valid for
// and the heuristics that recover it from URLs and free text.
package period

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
)

// Period is one calendar month.
type Period struct {
	Year  int        `json:"year" yaml:"year"`
	Month time.Month `json:"month" yaml:"month"`
}

// New returns the period for year and month.
func New(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// FromTime returns the period containing t in UTC.
func FromTime(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// Current returns the period containing the current UTC time.
func Current() Period {
	return FromTime(utc.Now().Time)
}

// Parse reads a period written as YYYY-MM or YYYY/MM.
func Parse(s string) (Period, error) {
	var p Period
	var month int
	for _, layout := range []string{"%d-%d", "%d/%d"} {
		if n, err := fmt.Sscanf(s, layout, &p.Year, &month); err == nil && n == 2 {
			p.Month = time.Month(month)
			if !p.Valid() {
				break
			}
			return p, nil
		}
	}
	return Period{}, errors.NewValidationError("period", s, "expected YYYY-MM")
}

// IsZero reports whether p is the zero period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Valid reports whether p names a real month. It does not apply year bounds.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// Compare returns -1, 0 or +1 when p is before, equal to or after o.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

// Before reports whether p is strictly before o.
func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// After reports whether p is strictly after o.
func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// Next returns the following month, rolling over into January.
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// Prev returns the preceding month.
func (p Period) Prev() Period {
	return p.AddMonths(-1)
}

// AddMonths moves p by n months in either direction.
func (p Period) AddMonths(n int) Period {
	idx := p.Year*12 + int(p.Month-1) + n
	return Period{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Time returns the first instant of the period in UTC.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String returns the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Range returns every month from start to end inclusive in ascending order.
// It is empty when start is after end.
func Range(start, end Period) []Period {
	if start.After(end) {
		return []Period{}
	}
	n := MonthsBetween(start, end)
	out := make([]Period, 0, n)
	for p := start; !p.After(end); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// MonthsBetween counts the months from start to end inclusive, or 0 when start is after end.
func MonthsBetween(start, end Period) int {
	n := (end.Year-start.Year)*12 + int(end.Month-start.Month) + 1
	if n < 0 {
		return 0
	}
	return n
}

// Bounds is the sanity window extracted periods must fall in.
type Bounds struct {
	MinYear int `json:"min_year" yaml:"min_year"`
	MaxYear int `json:"max_year" yaml:"max_year"`
}

// DefaultBounds returns the default 2020-2030 window.
func DefaultBounds() Bounds {
	return Bounds{MinYear: constants.DefaultMinYear, MaxYear: constants.DefaultMaxYear}
}

// Contains reports whether p is a real month inside the window.
func (b Bounds) Contains(p Period) bool {
	return p.Valid() && b.ContainsYear(p.Year)
}

// ContainsYear reports whether year is inside the window.
func (b Bounds) ContainsYear(year int) bool {
	return year >= b.MinYear && year <= b.MaxYear
}

// Validate checks the window is well formed.
func (b Bounds) Validate() error {
	if b.MinYear <= 0 || b.MaxYear <= 0 {
		return errors.NewValidationError("bounds", b, "years must be positive")
	}
	if b.MinYear > b.MaxYear {
		return errors.NewValidationError("bounds", b, fmt.Sprintf("min year %d is after max year %d", b.MinYear, b.MaxYear))
	}
	return nil
}
