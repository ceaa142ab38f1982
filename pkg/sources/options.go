package sources

import (
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
)

// Options configures a single Fetch.
type Options struct {
	// Category keeps only links of this category. Empty keeps all.
	Category catalogs.Category

	// Year selects the capture to read. Static sources require it; the live
	// source ignores it.
	Year int
}

// Option is a function that configures fetch options.
type Option func(*Options)

// WithCategory restricts the fetch to one category.
func WithCategory(c catalogs.Category) Option {
	return func(o *Options) {
		o.Category = c
	}
}

// WithYear selects the capture year of a static fetch.
func WithYear(year int) Option {
	return func(o *Options) {
		o.Year = year
	}
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the fetch options are valid.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if o.Category != "" && !o.Category.IsKnown() {
		return errors.NewValidationError("category", o.Category.String(), "must be a known category tag")
	}
	if o.Year < 0 {
		return errors.NewValidationError("year", o.Year, "cannot be negative")
	}
	return nil
}
