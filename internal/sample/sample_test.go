package sample

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurostyle/datagen/internal/config"
)

func TestPick_SingleCategoryAlwaysReturned(t *testing.T) {
	s := New(1)
	spec := []config.Weight{{Label: "only", Weight: 3}}
	for i := 0; i < 20; i++ {
		got, err := s.Pick(spec)
		require.NoError(t, err)
		assert.Equal(t, "only", got)
	}
}

func TestPick_ZeroWeightNeverDrawn(t *testing.T) {
	s := New(7)
	spec := []config.Weight{
		{Label: "never", Weight: 0},
		{Label: "a", Weight: 1},
		{Label: "b", Weight: 1},
	}
	for i := 0; i < 500; i++ {
		got, err := s.Pick(spec)
		require.NoError(t, err)
		assert.NotEqual(t, "never", got)
	}
}

func TestPick_AllZeroWeightsIsError(t *testing.T) {
	s := New(1)
	_, err := s.Pick([]config.Weight{{Label: "a"}, {Label: "b"}})
	assert.Error(t, err)
}

func TestPick_WeightsBiasDraws(t *testing.T) {
	s := New(42)
	spec := []config.Weight{
		{Label: "heavy", Weight: 90},
		{Label: "light", Weight: 10},
	}
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		got, err := s.Pick(spec)
		require.NoError(t, err)
		counts[got]++
	}
	assert.Greater(t, counts["heavy"], counts["light"]*4)
}

func TestSampler_SameSeedSameSequence(t *testing.T) {
	spec := []config.Weight{
		{Label: "a", Weight: 1},
		{Label: "b", Weight: 2},
		{Label: "c", Weight: 3},
	}

	s1, s2 := New(99), New(99)
	seq1, err := s1.PickN(spec, 100)
	require.NoError(t, err)
	seq2, err := s2.PickN(spec, 100)
	require.NoError(t, err)
	assert.Equal(t, seq1, seq2)

	assert.True(t, New(5).Amount(10, 200).Equal(New(5).Amount(10, 200)))
}

func TestAmount_WithinRangeAndTwoDecimals(t *testing.T) {
	s := New(3)
	for i := 0; i < 200; i++ {
		v := s.Amount(15, 400)
		assert.True(t, v.GreaterThanOrEqual(decimalFrom(15)), "got %s", v)
		assert.True(t, v.LessThanOrEqual(decimalFrom(400)), "got %s", v)
		assert.LessOrEqual(t, int(-v.Exponent()), 2)
	}
}

func TestNormalClamped_StaysInside(t *testing.T) {
	s := New(11)
	for i := 0; i < 500; i++ {
		v := s.NormalClamped(50, 40, 0, 100)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestIntBetween_Inclusive(t *testing.T) {
	s := New(13)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		v := s.IntBetween(1, 4)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 4, "all inclusive bounds should appear")
}

func TestTimeInDay_BusinessHours(t *testing.T) {
	s := New(17)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		ts := s.TimeInDay(day)
		assert.Equal(t, day.Day(), ts.Day())
		assert.GreaterOrEqual(t, ts.Hour(), 8)
		assert.Less(t, ts.Hour(), 20)
	}
}

// decimalFrom keeps range assertions readable.
func decimalFrom(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
