package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSeries() PriceSeries {
	return PriceSeries{
		Symbol: "TCS",
		Candles: []Candle{
			{Timestamp: day(2024, 1, 1), Close: 100},
			{Timestamp: day(2024, 1, 2), Close: 101},
			{Timestamp: day(2024, 1, 4), Close: 103},
			{Timestamp: day(2024, 1, 5), Close: 104},
		},
	}
}

func TestPriceSeriesBefore(t *testing.T) {
	s := testSeries()

	assert.Len(t, s.Before(day(2024, 1, 4)), 2)
	assert.Len(t, s.Before(day(2024, 1, 3)), 2)
	assert.Empty(t, s.Before(day(2024, 1, 1)))
	assert.Len(t, s.Before(day(2025, 1, 1)), 4)
}

func TestPriceSeriesAtOrBefore(t *testing.T) {
	s := testSeries()

	c, ok := s.AtOrBefore(day(2024, 1, 3))
	require.True(t, ok)
	assert.Equal(t, 101.0, c.Close)

	_, ok = s.AtOrBefore(day(2023, 12, 31))
	assert.False(t, ok)

	_, ok = s.On(day(2024, 1, 3))
	assert.False(t, ok, "no bar on a holiday")

	c, ok = s.On(day(2024, 1, 4))
	require.True(t, ok)
	assert.Equal(t, 103.0, c.Close)
}

func TestPriceSeriesBetween(t *testing.T) {
	s := testSeries()

	bars := s.Between(day(2024, 1, 2), day(2024, 1, 4))
	assert.Equal(t, []float64{101, 103}, Closes(bars))
	assert.Nil(t, s.Between(day(2024, 2, 1), day(2024, 3, 1)))
}

func TestPriceSeriesValidate(t *testing.T) {
	s := testSeries()
	require.NoError(t, s.Validate())

	s.Candles = append(s.Candles, Candle{Timestamp: day(2024, 1, 5), Close: 105})
	assert.Error(t, s.Validate())
}

func TestTargetAllocationTotals(t *testing.T) {
	ta := TargetAllocation{
		Core:      []Allocation{{Symbol: "A", Weight: 0.2}, {Symbol: "B", Weight: 0.4}},
		Satellite: []Allocation{{Symbol: "A", Weight: 0.4}},
		Weights:   map[string]float64{"A": 0.6, "B": 0.4},
	}

	assert.InDelta(t, 0.6, ta.SleeveTotal(SleeveCore), 1e-12)
	assert.InDelta(t, 0.4, ta.SleeveTotal(SleeveSatellite), 1e-12)
	assert.InDelta(t, 1.0, ta.Total(), 1e-12)
}
