package stats

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-rotation/internal/models"
)

func TestReturns(t *testing.T) {
	r := Returns([]float64{100, 110, 99, 0, 50})
	require.Len(t, r, 4)
	assert.InDelta(t, 0.10, r[0], 1e-12)
	assert.InDelta(t, -0.10, r[1], 1e-12)
	assert.InDelta(t, -1.0, r[2], 1e-12)
	assert.Equal(t, 0.0, r[3])

	assert.Empty(t, Returns([]float64{100}))
}

func TestFlatSeriesHasZeroRisk(t *testing.T) {
	r := Returns([]float64{100, 100, 100, 100})
	assert.Equal(t, 0.0, AnnualizedVolatility(r))
	assert.Equal(t, 0.0, Sharpe(r, 0.05))
	_, ok := Beta(r, r)
	assert.False(t, ok)
	assert.Equal(t, 0.0, Correlation(r, r))
}

func TestBetaOfScaledSeries(t *testing.T) {
	market := []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.012}
	asset := make([]float64, len(market))
	for i, r := range market {
		asset[i] = 1.5 * r
	}

	beta, ok := Beta(asset, market)
	require.True(t, ok)
	assert.InDelta(t, 1.5, beta, 1e-9)
	assert.InDelta(t, 1.0, Correlation(asset, market), 1e-9)
}

func TestDailyRate(t *testing.T) {
	d := DailyRate(0.06)
	assert.InDelta(t, 1.06, math.Pow(1+d, TradingDays), 1e-12)
	assert.Equal(t, 0.0, DailyRate(0))
}

func TestAlignedReturnsSkipsGaps(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	a := []models.Candle{
		{Timestamp: day(1), Close: 100},
		{Timestamp: day(2), Close: 110},
		{Timestamp: day(3), Close: 121},
		{Timestamp: day(4), Close: 133.1},
	}
	b := []models.Candle{
		{Timestamp: day(1), Close: 50},
		{Timestamp: day(2), Close: 55},
		{Timestamp: day(4), Close: 66},
	}

	ra, rb := AlignedReturns(a, b)
	require.Len(t, ra, 2)
	require.Len(t, rb, 2)
	assert.InDelta(t, 0.10, ra[0], 1e-12)
	assert.InDelta(t, 0.10, rb[0], 1e-12)
	// Day 2 to day 4 is the next shared pair.
	assert.InDelta(t, 0.21, ra[1], 1e-12)
	assert.InDelta(t, 0.20, rb[1], 1e-12)
}

func TestTail(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{3, 4}, Tail(data, 2))
	assert.Equal(t, data, Tail(data, 10))
	assert.Equal(t, data, Tail(data, 0))
}

// Property: annualized volatility is non-negative and scales linearly
// with the returns.
func TestProperty_VolatilityScaling(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("vol(k·r) = k·vol(r)", prop.ForAll(
		func(returns []float64, k float64) bool {
			scaled := make([]float64, len(returns))
			for i, r := range returns {
				scaled[i] = k * r
			}
			v := AnnualizedVolatility(returns)
			return v >= 0 && math.Abs(AnnualizedVolatility(scaled)-k*v) <= 1e-9*(1+k*v)
		},
		gen.SliceOfN(30, gen.Float64Range(-0.1, 0.1)),
		gen.Float64Range(0.1, 5),
	))

	properties.TestingRun(t)
}
