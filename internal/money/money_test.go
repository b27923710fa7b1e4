package money

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(t *testing.T, got []decimal.Decimal) []string {
	t.Helper()
	out := make([]string, len(got))
	for i, v := range got {
		out[i] = v.StringFixed(Places)
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		total string
		count int
		want  []string
	}{
		{
			name:  "hundred in three",
			total: "100.00",
			count: 3,
			want:  []string{"33.33", "33.33", "33.34"},
		},
		{
			name:  "fifty in three",
			total: "50.00",
			count: 3,
			want:  []string{"16.66", "16.66", "16.68"},
		},
		{
			name:  "exact division",
			total: "11000.00",
			count: 11,
			want:  []string{"1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00", "1000.00"},
		},
		{
			name:  "single part",
			total: "12.34",
			count: 1,
			want:  []string{"12.34"},
		},
		{
			name:  "less than a cent each",
			total: "0.02",
			count: 3,
			want:  []string{"0.00", "0.00", "0.02"},
		},
		{
			name:  "zero total",
			total: "0",
			count: 2,
			want:  []string{"0.00", "0.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(decimal.RequireFromString(tt.total), tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(t, got))
		})
	}
}

func TestSplitInvalid(t *testing.T) {
	_, err := Split(decimal.NewFromInt(10), 0)
	assert.ErrorIs(t, err, ErrInvalidSplit)

	_, err = Split(decimal.NewFromInt(-10), 2)
	assert.ErrorIs(t, err, ErrInvalidSplit)
}

func TestSplitProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		total := decimal.New(rng.Int63n(10_000_000), -2)
		count := 1 + rng.Intn(120)

		parts, err := Split(total, count)
		require.NoError(t, err)
		require.Len(t, parts, count)

		assert.True(t, Sum(parts...).Equal(total), "sum of %d parts of %s", count, total)
		for _, p := range parts {
			assert.False(t, p.IsNegative(), "negative part for %s/%d", total, count)
			assert.LessOrEqual(t, -p.Exponent(), Places)
		}
	}
}

func TestRoundingPolicies(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		aggregate  string
		distribute string
	}{
		{name: "half", input: "1.005", aggregate: "1.01", distribute: "1.00"},
		{name: "below half", input: "2.344", aggregate: "2.34", distribute: "2.34"},
		{name: "above half", input: "2.349", aggregate: "2.35", distribute: "2.34"},
		{name: "exact", input: "7.10", aggregate: "7.10", distribute: "7.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := decimal.RequireFromString(tt.input)
			assert.Equal(t, tt.aggregate, AggregateRound(in).StringFixed(Places))
			assert.Equal(t, tt.distribute, DistributeRound(in).StringFixed(Places))
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(decimal.Zero))
	assert.True(t, WithinTolerance(decimal.RequireFromString("0.009")))
	assert.True(t, WithinTolerance(decimal.RequireFromString("-0.009")))
	assert.False(t, WithinTolerance(decimal.RequireFromString("0.01")))
	assert.False(t, WithinTolerance(decimal.RequireFromString("-15")))
}

func TestParse(t *testing.T) {
	got, err := Parse(" 1234,565 ")
	require.NoError(t, err)
	assert.Equal(t, "1234.57", got.StringFixed(Places))

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFromFloat(t *testing.T) {
	got, err := FromFloat(1000.1)
	require.NoError(t, err)
	assert.Equal(t, "1000.10", got.StringFixed(Places))

	_, err = FromFloat(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
