package rotation

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

var day0 = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func series(symbol string, closes []float64) models.PriceSeries {
	s := models.PriceSeries{Symbol: symbol}
	for i, c := range closes {
		s.Candles = append(s.Candles, models.Candle{Timestamp: day0.AddDate(0, 0, i), Close: c, Volume: 1})
	}
	return s
}

func growth(n int, rate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 * math.Pow(1+rate, float64(i))
	}
	return out
}

// crashAndRebound has the strongest recent momentum of any test sector but
// its fast average sits below its slow average.
func crashAndRebound() []float64 {
	out := make([]float64, 260)
	for i := range out {
		switch {
		case i < 100:
			out[i] = 300
		case i < 240:
			out[i] = 100
		default:
			out[i] = 100 + 60*float64(i-239)/20
		}
	}
	return out
}

func newRanker(k int) *Ranker {
	cfg := config.Default()
	return NewRanker(cfg.Momentum, cfg.Trend, k, zerolog.Nop())
}

func TestRankTrendFilterExcludesHighestMomentum(t *testing.T) {
	asOf := day0.AddDate(0, 0, 260)
	inputs := []SectorInput{
		{Sector: "METAL", Series: series("NIFTYMETAL", crashAndRebound())},
		{Sector: "IT", Series: series("NIFTYIT", growth(260, 0.002))},
		{Sector: "FMCG", Series: series("NIFTYFMCG", growth(260, 0.001))},
	}

	ranking := newRanker(2).Rank(asOf, inputs)

	var metal models.SectorScore
	for _, s := range ranking.Scores {
		if s.Sector == "METAL" {
			metal = s
		}
	}
	require.Equal(t, "METAL", metal.Sector)
	assert.False(t, metal.TrendPass)
	assert.Equal(t, 0, metal.Rank)
	for _, s := range ranking.Scores {
		if s.Sector != "METAL" {
			assert.Greater(t, metal.Composite, s.Composite)
		}
	}

	assert.Equal(t, []string{"IT", "FMCG"}, ranking.TopSectors())
	assert.Equal(t, 1, ranking.Top[0].Rank)
	assert.Equal(t, 2, ranking.Top[1].Rank)
	require.Len(t, ranking.Exclusions, 1)
	assert.Equal(t, "METAL", ranking.Exclusions[0].Symbol)
}

func TestRankMomentumUsesBarsBeforeAsOf(t *testing.T) {
	closes := growth(300, 0.001)
	asOf := day0.AddDate(0, 0, 200)
	cfg := config.Default()
	cfg.Trend.Enabled = false

	ranking := NewRanker(cfg.Momentum, cfg.Trend, 3, zerolog.Nop()).
		Rank(asOf, []SectorInput{{Sector: "IT", Series: series("NIFTYIT", closes)}})

	require.Len(t, ranking.Top, 1)
	// The last visible bar is index 199.
	s := ranking.Top[0]
	assert.InDelta(t, closes[199]/closes[199-21]-1, s.Returns[0], 1e-12)
	assert.InDelta(t, closes[199]/closes[199-126]-1, s.LongestReturn(), 1e-12)
	want := 0.25*s.Returns[0] + 0.35*s.Returns[1] + 0.40*s.Returns[2]
	assert.InDelta(t, want, s.Composite, 1e-12)
}

func TestRankExcludesShortHistory(t *testing.T) {
	asOf := day0.AddDate(0, 0, 400)
	ranking := newRanker(3).Rank(asOf, []SectorInput{
		{Sector: "NEW", Series: series("NIFTYNEW", growth(100, 0.002))},
		{Sector: "IT", Series: series("NIFTYIT", growth(260, 0.002))},
	})

	assert.Equal(t, []string{"IT"}, ranking.TopSectors())
	require.Len(t, ranking.Exclusions, 1)
	assert.Equal(t, "NEW", ranking.Exclusions[0].Symbol)
	assert.Contains(t, ranking.Exclusions[0].Reason, "insufficient history")
	// Excluded sectors are not scored as zero.
	assert.Len(t, ranking.Scores, 1)
}

func TestRankExcludesZeroLookbackClose(t *testing.T) {
	cfg := config.Default()
	cfg.Trend.Enabled = false
	broken := growth(200, 0.002)
	broken[199-63] = 0

	ranking := NewRanker(cfg.Momentum, cfg.Trend, 3, zerolog.Nop()).Rank(day0.AddDate(0, 0, 200), []SectorInput{
		{Sector: "BANK", Series: series("NIFTYBANK", broken)},
		{Sector: "IT", Series: series("NIFTYIT", growth(200, 0.001))},
	})

	assert.Equal(t, []string{"IT"}, ranking.TopSectors())
	require.Len(t, ranking.Scores, 1)
	require.Len(t, ranking.Exclusions, 1)
	assert.Equal(t, "BANK", ranking.Exclusions[0].Symbol)
	assert.Contains(t, ranking.Exclusions[0].Reason, "63-bar lookback")
}

func TestRankTieBreak(t *testing.T) {
	cfg := config.Default()
	cfg.Trend.Enabled = false
	closes := growth(200, 0.001)

	ranking := NewRanker(cfg.Momentum, cfg.Trend, 3, zerolog.Nop()).Rank(day0.AddDate(0, 0, 200), []SectorInput{
		{Sector: "B", Series: series("NIFTYB", closes)},
		{Sector: "A", Series: series("NIFTYA", closes)},
	})
	assert.Equal(t, []string{"A", "B"}, ranking.TopSectors())
}

func TestWeights(t *testing.T) {
	top := []models.SectorScore{
		{Sector: "IT", Composite: 0.3},
		{Sector: "FMCG", Composite: 0.1},
		{Sector: "AUTO", Composite: -0.2},
	}

	equal := Weights(top, 0.6, "equal")
	assert.InDelta(t, 0.2, equal["IT"], 1e-12)
	assert.InDelta(t, 0.2, equal["AUTO"], 1e-12)

	byScore := Weights(top, 0.6, "score")
	assert.InDelta(t, 0.45, byScore["IT"], 1e-12)
	assert.InDelta(t, 0.15, byScore["FMCG"], 1e-12)
	assert.Equal(t, 0.0, byScore["AUTO"])

	negative := []models.SectorScore{{Sector: "A", Composite: -0.1}, {Sector: "B", Composite: -0.3}}
	fallback := Weights(negative, 0.6, "score")
	assert.InDelta(t, 0.3, fallback["A"], 1e-12)

	assert.Empty(t, Weights(nil, 0.6, "equal"))
}

func TestTransitions(t *testing.T) {
	tr := Transitions([]string{"IT", "FMCG", "AUTO"}, []string{"PHARMA", "IT", "BANK"})
	assert.Equal(t, []string{"BANK", "PHARMA"}, tr.Added)
	assert.Equal(t, []string{"AUTO", "FMCG"}, tr.Removed)
	assert.Equal(t, []string{"IT"}, tr.Maintained)

	first := Transitions(nil, []string{"IT"})
	assert.Equal(t, []string{"IT"}, first.Added)
	assert.Empty(t, first.Removed)
}
