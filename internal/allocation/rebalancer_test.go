package allocation

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-rotation/internal/analysis/scoring"
	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/models"
	"nifty-rotation/internal/rotation"
)

var date = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func strategy() config.StrategyConfig {
	s := config.Default().Strategy
	s.TopSectors = 2
	s.StocksPerSector = 2
	s.SatelliteTop = 3
	return s
}

// universe returns ranked records: IT1 > IT2 > PH1 > IT3 > PH2 > AU1.
func universe() []models.ScoreRecord {
	recs := []models.ScoreRecord{
		{Symbol: "IT1", Sector: "IT", Composite: 0.90},
		{Symbol: "IT2", Sector: "IT", Composite: 0.85},
		{Symbol: "PH1", Sector: "PHARMA", Composite: 0.80},
		{Symbol: "IT3", Sector: "IT", Composite: 0.75},
		{Symbol: "PH2", Sector: "PHARMA", Composite: 0.70},
		{Symbol: "AU1", Sector: "AUTO", Composite: 0.65},
	}
	scoring.Rank(recs)
	return recs
}

func sectorWeights(s config.StrategyConfig, sectors ...string) map[string]float64 {
	top := make([]models.SectorScore, len(sectors))
	for i, name := range sectors {
		top[i] = models.SectorScore{Sector: name}
	}
	return rotation.Weights(top, s.CoreFraction, "equal")
}

func TestBuildSumPolicy(t *testing.T) {
	s := strategy()
	r := NewRebalancer(s, zerolog.Nop())

	target, err := r.Build(date, []string{"IT", "PHARMA"}, sectorWeights(s, "IT", "PHARMA"), universe())
	require.NoError(t, err)

	assert.InDelta(t, 0.6, target.SleeveTotal(models.SleeveCore), 1e-12)
	assert.InDelta(t, 0.4, target.SleeveTotal(models.SleeveSatellite), 1e-12)
	assert.InDelta(t, 1.0, target.Total(), 1e-12)

	// IT1, IT2 and PH1 are in both sleeves.
	assert.Equal(t, []string{"IT1", "IT2", "PH1"}, target.Overlaps)
	assert.InDelta(t, 0.15+0.4/3, target.Weights["IT1"], 1e-12)
	assert.InDelta(t, 0.15, target.Weights["PH2"], 1e-12)
	assert.NotContains(t, target.Weights, "IT3")
	assert.Equal(t, OverlapSum, target.OverlapPolicy)
}

func TestBuildCapPolicy(t *testing.T) {
	s := strategy()
	s.OverlapPolicy = OverlapCap
	s.OverlapCap = 0.2

	target, err := NewRebalancer(s, zerolog.Nop()).Build(date, []string{"IT", "PHARMA"}, sectorWeights(s, "IT", "PHARMA"), universe())
	require.NoError(t, err)

	assert.InDelta(t, 0.2, target.Weights["IT1"], 1e-12)
	assert.InDelta(t, 0.15, target.Weights["PH2"], 1e-12)
	assert.Less(t, target.Total(), 1.0)
}

func TestBuildDedupePolicy(t *testing.T) {
	s := strategy()
	s.OverlapPolicy = OverlapDedupe

	target, err := NewRebalancer(s, zerolog.Nop()).Build(date, []string{"IT", "PHARMA"}, sectorWeights(s, "IT", "PHARMA"), universe())
	require.NoError(t, err)

	assert.Empty(t, target.Overlaps)
	sat := make([]string, 0, len(target.Satellite))
	for _, a := range target.Satellite {
		sat = append(sat, a.Symbol)
	}
	// The Satellite skips the Core picks and stays fully invested.
	assert.Equal(t, []string{"IT3", "AU1"}, sat[:2])
	assert.Len(t, sat, 2)
	assert.InDelta(t, 0.4, target.SleeveTotal(models.SleeveSatellite), 1e-12)
	assert.InDelta(t, 0.15, target.Weights["IT1"], 1e-12)
}

func TestBuildEmptySectorStaysCash(t *testing.T) {
	s := strategy()
	target, err := NewRebalancer(s, zerolog.Nop()).Build(date, []string{"IT", "ENERGY"}, sectorWeights(s, "IT", "ENERGY"), universe())
	require.NoError(t, err)

	assert.InDelta(t, 0.3, target.SleeveTotal(models.SleeveCore), 1e-12)
	for _, a := range target.Core {
		assert.Equal(t, "IT", a.Sector)
	}
}

func TestBuildOnlyUsesScoredStocks(t *testing.T) {
	s := strategy()
	// PH2 was excluded by eligibility and so never reaches the rebalancer.
	ranked := []models.ScoreRecord{}
	for _, rec := range universe() {
		if rec.Symbol != "PH2" {
			ranked = append(ranked, rec)
		}
	}

	target, err := NewRebalancer(s, zerolog.Nop()).Build(date, []string{"IT", "PHARMA"}, sectorWeights(s, "IT", "PHARMA"), ranked)
	require.NoError(t, err)
	assert.NotContains(t, target.Weights, "PH2")
	assert.InDelta(t, 0.3, target.Weights["PH1"]-0.4/3, 1e-12)
}

func TestBuildScoreWeightedSatellite(t *testing.T) {
	s := strategy()
	s.SatelliteWeighting = "score"

	target, err := NewRebalancer(s, zerolog.Nop()).Build(date, nil, nil, universe())
	require.NoError(t, err)

	assert.Empty(t, target.Core)
	total := 0.90 + 0.85 + 0.80
	assert.InDelta(t, 0.4*0.90/total, target.Weights["IT1"], 1e-12)
	assert.InDelta(t, 0.4, target.Total(), 1e-12)
}

func TestBuildUnknownPolicy(t *testing.T) {
	s := strategy()
	s.OverlapPolicy = "max"
	_, err := NewRebalancer(s, zerolog.Nop()).Build(date, nil, nil, universe())
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownPolicy))
}

// Property: each sleeve's weights sum to at most its fraction, and no
// merged weight is negative.
func TestProperty_SleeveSums(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	sectors := []string{"IT", "PHARMA", "AUTO", "BANK"}
	policies := []string{OverlapSum, OverlapCap, OverlapDedupe}

	properties.Property("sleeve totals bounded", prop.ForAll(
		func(scores []float64, core float64, k, n, m, policy int, byScore bool) bool {
			s := config.Default().Strategy
			s.CoreFraction, s.SatelliteFraction = core, 1-core
			s.TopSectors, s.StocksPerSector, s.SatelliteTop = k, n, m
			s.OverlapPolicy = policies[policy]
			if byScore {
				s.SatelliteWeighting = "score"
			}

			ranked := make([]models.ScoreRecord, len(scores))
			for i, c := range scores {
				ranked[i] = models.ScoreRecord{
					Symbol:    fmt.Sprintf("S%03d", i),
					Sector:    sectors[i%len(sectors)],
					Composite: c,
				}
			}
			scoring.Rank(ranked)

			top := make([]models.SectorScore, 0, k)
			for _, name := range sectors[:min(k, len(sectors))] {
				top = append(top, models.SectorScore{Sector: name})
			}
			names := make([]string, len(top))
			for i, ss := range top {
				names[i] = ss.Sector
			}

			target, err := NewRebalancer(s, zerolog.Nop()).Build(date, names, rotation.Weights(top, core, "equal"), ranked)
			if err != nil {
				return false
			}
			const eps = 1e-9
			for _, w := range target.Weights {
				if w < 0 {
					return false
				}
			}
			return target.SleeveTotal(models.SleeveCore) <= s.CoreFraction+eps &&
				target.SleeveTotal(models.SleeveSatellite) <= s.SatelliteFraction+eps &&
				target.Total() <= 1+eps
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
		gen.Float64Range(0, 1),
		gen.IntRange(1, 4),
		gen.IntRange(1, 6),
		gen.IntRange(1, 20),
		gen.IntRange(0, 2),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
