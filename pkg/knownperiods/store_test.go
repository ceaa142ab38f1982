package knownperiods_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/knownperiods"
	"github.com/agentstation/periodmap/pkg/logging"
	"github.com/agentstation/periodmap/pkg/period"
)

func p(year int, month time.Month) period.Period {
	return period.New(year, month)
}

func link(c catalogs.Category, year int, month time.Month) catalogs.DiscoveredLink {
	return catalogs.DiscoveredLink{
		Category: c,
		Period:   p(year, month),
		URL:      "https://example.gov/" + c.Lower() + "_" + p(year, month).String() + ".xls",
		Source:   catalogs.SourceLive,
	}
}

func openTemp(t *testing.T, name string, opts ...knownperiods.Option) *knownperiods.Store {
	t.Helper()
	s, err := knownperiods.Open(filepath.Join(t.TempDir(), name), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	s := openTemp(t, "known.yaml")
	assert.Equal(t, 0, s.Snapshot().Len())

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "open must not create the file")
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := knownperiods.Open("")
	assert.True(t, errors.IsValidationError(err))
}

func TestMarkKnownPersists(t *testing.T) {
	for _, name := range []string{"known.yaml", "known.json"} {
		t.Run(name, func(t *testing.T) {
			s := openTemp(t, name)

			added, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, time.March), p(2023, time.April), p(2024, time.March))
			require.NoError(t, err)
			assert.Equal(t, 2, added)

			added, err = s.MarkKnown(catalogs.CategoryPMC, p(2023, time.April))
			require.NoError(t, err)
			assert.Equal(t, 0, added)

			reopened, err := knownperiods.Open(s.Path())
			require.NoError(t, err)
			defer func() { _ = reopened.Close() }()

			assert.Equal(t, []period.Period{p(2023, time.April), p(2024, time.March)}, reopened.Periods(catalogs.CategoryPMC))
		})
	}
}

func TestFileLayout(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		s := openTemp(t, "known.yaml")
		_, err := s.MarkKnown(catalogs.CategoryPMVG, p(2024, time.February), p(2024, time.January))
		require.NoError(t, err)

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Contains(t, string(data), "PMVG:\n- year: 2024\n  month: 1\n- year: 2024\n  month: 2")
	})

	t.Run("json", func(t *testing.T) {
		s := openTemp(t, "known.json")
		_, err := s.MarkKnown(catalogs.CategoryPF, p(2024, time.January))
		require.NoError(t, err)

		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.JSONEq(t, `{"PF":[{"year":2024,"month":1}]}`, string(data))
	})
}

func TestRoundTripIsFixedPoint(t *testing.T) {
	s := openTemp(t, "known.yaml")
	want := knownperiods.Known{
		catalogs.CategoryPMC:  {p(2024, time.March), p(2023, time.January), p(2023, time.January)},
		catalogs.CategoryPMVG: {p(2022, time.December)},
	}
	require.NoError(t, s.Save(want))

	first, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(first))
	second, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []period.Period{p(2023, time.January), p(2024, time.March)}, first[catalogs.CategoryPMC])
}

func TestRejectsUnresolvedCategories(t *testing.T) {
	s := openTemp(t, "known.yaml")

	for _, c := range []catalogs.Category{"", catalogs.CategoryUnknown} {
		_, err := s.MarkKnown(c, p(2024, time.January))
		assert.True(t, errors.IsValidationError(err), c)
	}
	err := s.Save(knownperiods.Known{catalogs.CategoryUnknown: {p(2024, time.January)}})
	assert.True(t, errors.IsValidationError(err))

	_, err = s.MarkKnown(catalogs.CategoryPMC, period.Period{Year: 2024, Month: 13})
	assert.True(t, errors.IsValidationError(err))
}

func TestDiffNew(t *testing.T) {
	s := openTemp(t, "known.yaml")
	_, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, time.January))
	require.NoError(t, err)

	catalog := catalogs.New(
		link(catalogs.CategoryPMC, 2024, time.January),
		link(catalogs.CategoryPMC, 2024, time.February),
		link(catalogs.CategoryPMVG, 2024, time.January),
	)

	fresh := s.DiffNew(catalogs.CategoryPMC, catalog)
	require.Equal(t, 1, fresh.Len())
	assert.Equal(t, p(2024, time.February), fresh.Links()[0].Period)

	all := s.DiffNew("", catalog)
	assert.Equal(t, 2, all.Len())

	// DiffNew never mutates the cache.
	assert.Equal(t, 1, s.Snapshot().Len())

	_, err = s.MarkKnown(catalogs.CategoryPMC, catalog.Periods(catalogs.CategoryPMC)...)
	require.NoError(t, err)
	assert.True(t, s.DiffNew(catalogs.CategoryPMC, catalog).IsEmpty())
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PMC: [this is: not: valid"), 0o644))

	tl := logging.NewTestLogger(t)
	s, err := knownperiods.Open(path, knownperiods.WithLogger(tl.Logger))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Equal(t, 0, s.Snapshot().Len())
	assert.True(t, tl.Contains("corrupt"))

	_, err = s.MarkKnown(catalogs.CategoryPF, p(2024, time.May))
	require.NoError(t, err)

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, reloaded.Has(catalogs.CategoryPF, p(2024, time.May)))
}

func TestUnknownCategoryInFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known.yaml")
	require.NoError(t, os.WriteFile(path, []byte("UNKNOWN:\n- year: 2024\n  month: 1\n"), 0o644))

	s, err := knownperiods.Open(path, knownperiods.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	assert.Equal(t, 0, s.Snapshot().Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := openTemp(t, "known.yaml")
	_, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, time.January))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap[catalogs.CategoryPMC][0] = p(1999, time.January)
	delete(snap, catalogs.CategoryPMC)

	assert.True(t, s.Snapshot().Has(catalogs.CategoryPMC, p(2024, time.January)))
}

func TestClosedStore(t *testing.T) {
	s, err := knownperiods.Open(filepath.Join(t.TempDir(), "known.yaml"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.MarkKnown(catalogs.CategoryPMC, p(2024, time.January))
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, err = s.Load()
	assert.ErrorIs(t, err, errors.ErrClosed)
}

func TestUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s, err := knownperiods.Open(filepath.Join(blocker, "known.yaml"), knownperiods.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)

	_, err = s.MarkKnown(catalogs.CategoryPMC, p(2024, time.January))
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
	assert.NoError(t, s.Close())
}

func TestFailedWriteKeepsPeriodsNew(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s, err := knownperiods.Open(filepath.Join(blocker, "known.yaml"), knownperiods.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	defer s.Close()

	catalog := catalogs.New(link(catalogs.CategoryPMC, 2024, time.May))

	added, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, time.May))
	require.Error(t, err)
	assert.Zero(t, added)
	assert.False(t, s.Snapshot().Has(catalogs.CategoryPMC, p(2024, time.May)))
	assert.Equal(t, 1, s.DiffNew(catalogs.CategoryPMC, catalog).Len())

	err = s.Save(knownperiods.Known{catalogs.CategoryPMC: {p(2024, time.May)}})
	require.Error(t, err)
	assert.Equal(t, 0, s.Snapshot().Len())
	assert.Equal(t, 1, s.DiffNew("", catalog).Len())
}

func TestSaveRejectsInvalidPeriods(t *testing.T) {
	s := openTemp(t, "known.yaml")
	require.NoError(t, s.Save(knownperiods.Known{catalogs.CategoryPMC: {p(2023, time.January)}}))

	err := s.Save(knownperiods.Known{
		catalogs.CategoryPMC: {p(2023, time.January), p(2024, 13)},
	})
	assert.True(t, errors.IsValidationError(err))

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.True(t, reloaded.Has(catalogs.CategoryPMC, p(2023, time.January)))
	assert.Equal(t, 1, reloaded.Len())
}

func TestConcurrentMarkKnown(t *testing.T) {
	s := openTemp(t, "known.yaml")

	var wg sync.WaitGroup
	for m := time.January; m <= time.December; m++ {
		wg.Add(2)
		go func(m time.Month) {
			defer wg.Done()
			_, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, m))
			assert.NoError(t, err)
		}(m)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
			_ = s.DiffNew(catalogs.CategoryPMC, catalogs.New())
		}()
	}
	wg.Wait()

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, reloaded[catalogs.CategoryPMC], 12)
}

func TestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := openTemp(t, "known.yaml", knownperiods.WithMetrics(m))

	_, err := s.MarkKnown(catalogs.CategoryPMVG, p(2024, time.January), p(2024, time.February))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWrites.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.KnownPeriods.WithLabelValues("PMVG")))
}

func TestMetricsResetOnCorruptReload(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := openTemp(t, "known.yaml", knownperiods.WithMetrics(m), knownperiods.WithLogger(logging.NewNopLogger()))

	_, err := s.MarkKnown(catalogs.CategoryPMVG, p(2024, time.January))
	require.NoError(t, err)
	require.Equal(t, 1, testutil.CollectAndCount(m.KnownPeriods))

	require.NoError(t, os.WriteFile(s.Path(), []byte("PMC: [this is: not: valid"), 0o600))
	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
	assert.Equal(t, 0, testutil.CollectAndCount(m.KnownPeriods))
}

func TestMarkKnownAll(t *testing.T) {
	s := openTemp(t, "known.yaml")
	_, err := s.MarkKnown(catalogs.CategoryPMC, p(2024, time.January))
	require.NoError(t, err)

	added, err := s.MarkKnownAll(knownperiods.Known{
		catalogs.CategoryPMC:  {p(2024, time.January), p(2024, time.February)},
		catalogs.CategoryPMVG: {p(2024, time.January)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	_, err = s.MarkKnownAll(knownperiods.Known{
		catalogs.CategoryPF:      {p(2024, time.March)},
		catalogs.CategoryUnknown: {p(2024, time.March)},
	})
	assert.True(t, errors.IsValidationError(err))

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Len())
	assert.False(t, reloaded.Has(catalogs.CategoryPF, p(2024, time.March)))
}
