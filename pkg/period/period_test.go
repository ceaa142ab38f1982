package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodOrdering(t *testing.T) {
	a := New(2023, time.December)
	b := New(2024, time.January)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(New(2023, time.December)))
	assert.Equal(t, b, a.Next())
	assert.Equal(t, a, b.Prev())
	assert.Equal(t, New(2022, time.November), a.AddMonths(-13))
	assert.Equal(t, "2023-12", a.String())
}

func TestParse(t *testing.T) {
	p, err := Parse("2024-03")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.March), p)

	p, err = Parse("2024/11")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.November), p)

	_, err = Parse("2024-13")
	assert.Error(t, err)

	_, err = Parse("march")
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	t.Run("rolls over the year", func(t *testing.T) {
		got := Range(New(2023, time.November), New(2024, time.February))
		assert.Equal(t, []Period{
			New(2023, time.November),
			New(2023, time.December),
			New(2024, time.January),
			New(2024, time.February),
		}, got)
	})

	t.Run("single month", func(t *testing.T) {
		assert.Len(t, Range(New(2023, time.May), New(2023, time.May)), 1)
	})

	t.Run("start after end", func(t *testing.T) {
		assert.Empty(t, Range(New(2024, time.May), New(2023, time.May)))
		assert.Equal(t, 0, MonthsBetween(New(2024, time.May), New(2023, time.May)))
	})

	t.Run("count matches", func(t *testing.T) {
		start, end := New(2020, time.January), New(2030, time.December)
		assert.Len(t, Range(start, end), MonthsBetween(start, end))
		assert.Equal(t, 132, MonthsBetween(start, end))
	})
}

func TestBounds(t *testing.T) {
	b := DefaultBounds()
	assert.True(t, b.Contains(New(2020, time.January)))
	assert.True(t, b.Contains(New(2030, time.December)))
	assert.False(t, b.Contains(New(2019, time.December)))
	assert.False(t, b.Contains(New(2031, time.January)))
	assert.False(t, b.Contains(New(2024, 13)))
	assert.NoError(t, b.Validate())
	assert.Error(t, Bounds{MinYear: 2030, MaxYear: 2020}.Validate())
}

func TestMonthNames(t *testing.T) {
	assert.Equal(t, "março", MonthName(time.March))
	assert.Equal(t, "", MonthName(0))

	for _, name := range []string{"marco", "março", "MARÇO", "Marco"} {
		m, ok := LookupMonth(name)
		require.True(t, ok, name)
		assert.Equal(t, time.March, m)
	}
	_, ok := LookupMonth("march")
	assert.False(t, ok)
}
