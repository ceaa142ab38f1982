package reconciler

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
)

// Options configures a reconciler.
type options struct {
	strategy   Strategy
	cutoffYear int
	startYear  int
	workers    int
	metrics    *metrics.Metrics
	now        func() time.Time
}

func defaultOptions() *options {
	return &options{
		strategy:   DefaultStrategy(),
		cutoffYear: constants.DefaultCutoffYear,
		startYear:  constants.DefaultStartYear,
		workers:    constants.DefaultWorkers,
		now:        func() time.Time { return utc.Now().Time },
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (options *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the merge strategy.
func WithStrategy(strategy Strategy) Option {
	return func(r *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		r.strategy = strategy
		return nil
	}
}

// WithCutoffYear sets the first year served by the live crawl.
func WithCutoffYear(year int) Option {
	return func(r *options) error {
		if year <= 0 {
			return errors.NewValidationError("cutoff_year", year, "must be positive")
		}
		r.cutoffYear = year
		return nil
	}
}

// WithStartYear sets the year used when a request has no start.
func WithStartYear(year int) Option {
	return func(r *options) error {
		if year <= 0 {
			return errors.NewValidationError("start_year", year, "must be positive")
		}
		r.startYear = year
		return nil
	}
}

// WithWorkers bounds how many static captures load at once.
func WithWorkers(n int) Option {
	return func(r *options) error {
		if n < 1 || n > constants.MaxWorkers {
			return errors.NewValidationError("workers", n, "must be between 1 and the worker cap")
		}
		r.workers = n
		return nil
	}
}

// WithMetrics records static capture fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *options) error {
		r.metrics = m
		return nil
	}
}

// WithClock sets the time source used to resolve an open-ended request.
func WithClock(now func() time.Time) Option {
	return func(r *options) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		r.now = now
		return nil
	}
}
