package knownperiods

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
)

// Store is a file-backed known-periods cache.
type Store struct {
	mu      sync.RWMutex
	path    string
	format  Format
	known   Known
	closed  bool
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for corruption and persistence warnings.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records cache writes and known-period gauges.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithFormat overrides the format implied by the file extension.
func WithFormat(f Format) Option {
	return func(s *Store) {
		if f == FormatYAML || f == FormatJSON {
			s.format = f
		}
	}
}

// Open loads the cache at path. A missing file is an empty cache. A corrupt
// or unreadable file is logged as a warning and also yields an empty cache;
// it is rewritten on the next save.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidationError("path", path, "cache path is required")
	}

	s := &Store{
		path:   path,
		format: FormatFor(path),
		known:  make(Known),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.Load(); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Known periods cache unreadable, starting empty")
		s.known = make(Known)
	}
	return s, nil
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the durable state and replaces the in-memory copy. A corrupt
// file resets the cache to empty with a warning.
func (s *Store) Load() (Known, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.ErrClosed
	}

	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		s.known = make(Known)
	case err != nil:
		return nil, errors.WrapIO("read", s.path, err)
	default:
		k, err := decode(data, s.path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Known periods cache is corrupt, starting empty")
			k = make(Known)
		}
		s.known = k
	}
	s.updateGauges()
	return s.known.Clone(), nil
}

// Snapshot returns a copy of the in-memory state.
func (s *Store) Snapshot() Known {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known.Clone()
}

// Periods returns the known periods of one category, ascending.
func (s *Store) Periods(category catalogs.Category) []period.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]period.Period, len(s.known[category]))
	copy(out, s.known[category])
	return out
}

// Save replaces the whole cache with k and persists it. The in-memory state
// changes only once the write succeeds.
func (s *Store) Save(k Known) error {
	for c, ps := range k {
		if !c.IsKnown() {
			return errors.NewValidationError("category", c.String(), "unresolved categories cannot be persisted")
		}
		if err := validatePeriods(ps); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrClosed
	}
	return s.persist(k.normalized())
}

// MarkKnown adds periods to category and persists the cache when anything
// changed. It returns how many periods were new.
func (s *Store) MarkKnown(category catalogs.Category, periods ...period.Period) (int, error) {
	if !category.IsKnown() {
		return 0, errors.NewValidationError("category", category.String(), "unresolved categories cannot be persisted")
	}
	if err := validatePeriods(periods); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.ErrClosed
	}
	next := s.known.Clone()
	added := next.add(category, periods...)
	if added == 0 {
		return 0, nil
	}
	if err := s.persist(next); err != nil {
		return 0, err
	}
	return added, nil
}

// MarkKnownAll adds the periods of every category in k with a single write,
// so either all of them become known or none do. It returns how many periods
// were new.
func (s *Store) MarkKnownAll(k Known) (int, error) {
	for c, ps := range k {
		if !c.IsKnown() {
			return 0, errors.NewValidationError("category", c.String(), "unresolved categories cannot be persisted")
		}
		if err := validatePeriods(ps); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errors.ErrClosed
	}
	next := s.known.Clone()
	added := 0
	for c, ps := range k {
		added += next.add(c, ps...)
	}
	if added == 0 {
		return 0, nil
	}
	if err := s.persist(next); err != nil {
		return 0, err
	}
	return added, nil
}

func validatePeriods(periods []period.Period) error {
	for _, p := range periods {
		if !p.Valid() {
			return errors.NewValidationError("period", p.String(), "invalid period")
		}
	}
	return nil
}

// DiffNew returns the links of catalog whose period is not yet known for
// their category. An empty category considers every category. The cache is
// never modified.
func (s *Store) DiffNew(category catalogs.Category, catalog *catalogs.Catalog) *catalogs.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return diff(s.known, category, catalog)
}

// DiffNew is the store-free form of Store.DiffNew, for diffing against a
// snapshot.
func DiffNew(k Known, category catalogs.Category, catalog *catalogs.Catalog) *catalogs.Catalog {
	return diff(k, category, catalog)
}

func diff(k Known, category catalogs.Category, catalog *catalogs.Catalog) *catalogs.Catalog {
	return catalog.FilterFunc(func(l catalogs.DiscoveredLink) bool {
		if category != "" && l.Category != category {
			return false
		}
		return l.Category.IsKnown() && !k.Has(l.Category, l.Period)
	})
}

// Close releases the store. Every mutation is already durable, so there is
// nothing to flush. Further calls on the store return errors.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// persist writes next and makes it the in-memory state once the write has
// succeeded. A failed write leaves the previous state untouched. Callers
// hold the write lock.
func (s *Store) persist(next Known) error {
	data, err := encode(next, s.format)
	if err == nil {
		err = writeAtomic(s.path, data)
	}
	s.metrics.ObserveCacheWrite(err)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to persist known periods")
		return err
	}

	s.known = next
	s.updateGauges()
	s.logger.Debug().Str("path", s.path).Int("periods", s.known.Len()).Msg("Persisted known periods")
	return nil
}

func (s *Store) updateGauges() {
	s.metrics.ResetKnownPeriods()
	for c, ps := range s.known {
		s.metrics.SetKnownPeriods(c.String(), len(ps))
	}
}
