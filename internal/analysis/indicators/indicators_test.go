package indicators

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

func candlesFrom(closes []float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    int64(1000 * (i + 1)),
		}
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestInsufficientData(t *testing.T) {
	short := candlesFrom(linear(10, 100, 1))

	_, err := NewRSI(14).Calculate(short)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewSMA(20).Calculate(short)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewMACD(12, 26, 9).Calculate(short)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewBollingerBands(20, 2).Calculate(short)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = NewAverageVolume(21).Calculate(short)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestInvalidPeriod(t *testing.T) {
	candles := candlesFrom(linear(60, 100, 1))

	_, err := NewRSI(0).Calculate(candles)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = NewMACD(26, 12, 9).Calculate(candles)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = NewBollingerBands(20, 0).Calculate(candles)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRSIExtremes(t *testing.T) {
	rising, err := NewRSI(14).Calculate(candlesFrom(linear(40, 100, 1)))
	require.NoError(t, err)
	assert.InDelta(t, 100, Last(rising), 1e-9)

	falling, err := NewRSI(14).Calculate(candlesFrom(linear(40, 200, -1)))
	require.NoError(t, err)
	assert.InDelta(t, 0, Last(falling), 1e-9)

	flat, err := NewRSI(14).Calculate(candlesFrom(linear(40, 100, 0)))
	require.NoError(t, err)
	assert.Equal(t, 50.0, Last(flat))
}

func TestSMAMatchesMean(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16}
	sma, err := NewSMA(3).Calculate(candlesFrom(closes))
	require.NoError(t, err)

	require.Len(t, sma, len(closes))
	assert.InDelta(t, 15.0, Last(sma), 1e-9)
	assert.InDelta(t, 14.0, Prev(sma), 1e-9)
}

func TestEMAOfConstant(t *testing.T) {
	ema, err := NewEMA(10).Calculate(candlesFrom(linear(30, 42, 0)))
	require.NoError(t, err)
	assert.InDelta(t, 42.0, Last(ema), 1e-9)
}

func TestMACDOnUptrend(t *testing.T) {
	out, err := NewMACD(12, 26, 9).Calculate(candlesFrom(linear(80, 100, 0.5)))
	require.NoError(t, err)

	assert.Greater(t, Last(out["macd"]), 0.0)
	assert.InDelta(t, Last(out["macd"])-Last(out["signal"]), Last(out["histogram"]), 1e-9)
}

func TestBollingerCollapsedBands(t *testing.T) {
	out, err := NewBollingerBands(20, 2).Calculate(candlesFrom(linear(25, 100, 0)))
	require.NoError(t, err)
	assert.Equal(t, 0.5, Last(out["percent_b"]))
	assert.InDelta(t, 100.0, Last(out["middle"]), 1e-9)
}

func TestAverageVolume(t *testing.T) {
	// Volumes are 1000, 2000, ... 30000; the last 5 average 28000.
	avg, err := NewAverageVolume(5).Calculate(candlesFrom(linear(30, 100, 1)))
	require.NoError(t, err)
	assert.InDelta(t, 28000.0, Last(avg), 1e-6)
}

func TestLastEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(Last(nil)))
	assert.True(t, math.IsNaN(Prev([]float64{1})))
}

// Property: RSI values after the lookback lie in [0, 100] and Bollinger
// bands are ordered lower <= middle <= upper.
func TestProperty_IndicatorBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	closesGen := gen.SliceOfN(60, gen.Float64Range(50, 500))

	properties.Property("RSI within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			rsi := NewRSI(14)
			values, err := rsi.Calculate(candlesFrom(closes))
			if err != nil {
				return false
			}
			for i := 14; i < len(values); i++ {
				if values[i] < -1e-9 || values[i] > 100+1e-9 {
					return false
				}
			}
			return true
		},
		closesGen,
	))

	properties.Property("Bollinger bands ordered", prop.ForAll(
		func(closes []float64) bool {
			out, err := NewBollingerBands(20, 2).Calculate(candlesFrom(closes))
			if err != nil {
				return false
			}
			for i := 19; i < len(closes); i++ {
				if out["lower"][i] > out["middle"][i]+1e-9 || out["middle"][i] > out["upper"][i]+1e-9 {
					return false
				}
			}
			return true
		},
		closesGen,
	))

	properties.TestingRun(t)
}
