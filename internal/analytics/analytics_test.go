package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func analyzer(rf float64, basis string) *Analyzer {
	return NewAnalyzer(config.AnalysisConfig{RiskFreeRate: rf, YearBasis: basis}, zerolog.Nop())
}

func snapshots(values []float64) []models.PortfolioSnapshot {
	out := make([]models.PortfolioSnapshot, len(values))
	for i, v := range values {
		out[i] = models.PortfolioSnapshot{Date: day0.AddDate(0, 0, i), TotalValue: v, Cash: v}
	}
	return out
}

func TestAnalyzeFlatSeries(t *testing.T) {
	values := make([]float64, 253)
	for i := range values {
		values[i] = 1_000_000
	}
	r, err := analyzer(0, YearBasisTrading).Analyze(Input{Snapshots: snapshots(values), InitialCapital: 1_000_000})
	require.NoError(t, err)

	assert.Zero(t, r.TotalReturn.Value)
	assert.Zero(t, r.CAGR.Value)
	assert.Zero(t, r.Volatility.Value)
	assert.Zero(t, r.Sharpe.Value)
	assert.Zero(t, r.Sortino.Value)
	assert.Zero(t, r.Calmar.Value)
	assert.Zero(t, r.MaxDrawdown.Value)
	assert.Empty(t, r.Drawdowns)
	assert.Zero(t, r.Days.Positive)
}

func TestAnalyzeLinearDoubling(t *testing.T) {
	values := make([]float64, 253)
	for i := range values {
		values[i] = 100 + 100*float64(i)/252
	}
	r, err := analyzer(0.065, YearBasisTrading).Analyze(Input{Snapshots: snapshots(values), InitialCapital: 100})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, r.Years, 1e-12)
	assert.InDelta(t, 1.0, r.TotalReturn.Value, 1e-12)
	assert.InDelta(t, 1.0, r.CAGR.Value, 1e-12)
	assert.True(t, r.CAGR.Annualized)
	assert.False(t, r.TotalReturn.Annualized)
	assert.Zero(t, r.MaxDrawdown.Value)
	assert.Zero(t, r.Calmar.Value)
	assert.Equal(t, 252, r.Days.Positive)
	assert.Equal(t, 1.0, r.Days.PositiveRatio)
}

func TestAnalyzeTotalLoss(t *testing.T) {
	values := make([]float64, 253)
	for i := range values {
		values[i] = 100 - 100*float64(i)/252
	}
	rf := 0.065
	r, err := analyzer(rf, YearBasisTrading).Analyze(Input{Snapshots: snapshots(values), InitialCapital: 100})
	require.NoError(t, err)

	assert.InDelta(t, -1.0, r.TotalReturn.Value, 1e-12)
	assert.Equal(t, -1.0, r.CAGR.Value)
	assert.InDelta(t, -1.0, r.MaxDrawdown.Value, 1e-12)
	assert.InDelta(t, -1.0, r.Calmar.Value, 1e-12)
	require.NotZero(t, r.Volatility.Value)
	assert.InDelta(t, (-1-rf)/r.Volatility.Value, r.Sharpe.Value, 1e-9)
	assert.Less(t, r.Sharpe.Value, 0.0)
}

func TestAnnualReturn(t *testing.T) {
	assert.Equal(t, -1.0, annualReturn(-1, 3))
	assert.Equal(t, -1.0, annualReturn(-1.2, 0.5))
	assert.Zero(t, annualReturn(0.5, 0))
	assert.InDelta(t, 0.5, annualReturn(1.25, 2), 1e-12)
}

func TestRatiosShareTheCAGRNumerator(t *testing.T) {
	values := make([]float64, 400)
	for i := range values {
		values[i] = 100 * math.Exp(0.0005*float64(i)+0.05*math.Sin(float64(i)/9))
	}
	rf := 0.065
	r, err := analyzer(rf, YearBasisTrading).Analyze(Input{Snapshots: snapshots(values), InitialCapital: 100})
	require.NoError(t, err)

	require.NotZero(t, r.Volatility.Value)
	require.NotZero(t, r.DownsideDeviation.Value)
	require.Negative(t, r.MaxDrawdown.Value)

	assert.InDelta(t, r.CAGR.Value-rf, r.Sharpe.Value*r.Volatility.Value, 1e-12)
	assert.InDelta(t, r.CAGR.Value-rf, r.Sortino.Value*r.DownsideDeviation.Value, 1e-12)
	assert.InDelta(t, r.CAGR.Value, r.Calmar.Value*math.Abs(r.MaxDrawdown.Value), 1e-12)
	for _, s := range []Stat{r.Volatility, r.DownsideDeviation, r.Sharpe, r.Sortino, r.Calmar} {
		assert.True(t, s.Annualized)
	}
}

func TestYearsOverrideAndCalendarBasis(t *testing.T) {
	values := []float64{100, 110}
	snaps := snapshots(values)
	snaps[1].Date = day0.AddDate(1, 0, 0)

	r, err := analyzer(0, YearBasisCalendar).Analyze(Input{Snapshots: snaps, InitialCapital: 100})
	require.NoError(t, err)
	assert.InDelta(t, 365/365.25, r.Years, 1e-12)

	r, err = analyzer(0, YearBasisCalendar).Analyze(Input{Snapshots: snaps, InitialCapital: 100, Years: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, r.Years)
	assert.InDelta(t, math.Sqrt(1.1)-1, r.CAGR.Value, 1e-12)
}

func TestAnnualizeRefusesAnnualStat(t *testing.T) {
	s, err := annualizeDeviation(Daily(0.01))
	require.NoError(t, err)
	assert.InDelta(t, 0.01*math.Sqrt(252), s.Value, 1e-15)

	_, err = annualizeDeviation(s)
	assert.ErrorIs(t, err, ErrAlreadyAnnualized)
}

func TestDrawdownPeriods(t *testing.T) {
	values := []float64{100, 110, 99, 105, 111, 100}
	dates := make([]time.Time, len(values))
	for i := range dates {
		dates[i] = day0.AddDate(0, 0, i)
	}

	assert.InDelta(t, -0.1, MaxDrawdown(values), 1e-12)

	periods := DrawdownPeriods(dates, values)
	require.Len(t, periods, 2)

	first := periods[0]
	assert.Equal(t, dates[1], first.Peak)
	assert.Equal(t, dates[2], first.Trough)
	assert.Equal(t, dates[4], first.Recovery)
	assert.Equal(t, 3, first.Days)
	assert.True(t, first.Recovered)
	assert.InDelta(t, -0.1, first.Depth, 1e-12)

	open := periods[1]
	assert.False(t, open.Recovered)
	assert.Equal(t, dates[5], open.Recovery)
	assert.Equal(t, 1, open.Days)
}

func TestMonthlyReturns(t *testing.T) {
	dates := []time.Time{
		time.Date(2023, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	values := []float64{105, 110, 121, 133.1}

	monthly := MonthlyReturns(dates, values, 100)
	require.Len(t, monthly, 3)
	assert.Equal(t, time.January, monthly[0].Month)
	for _, m := range monthly {
		assert.InDelta(t, 0.1, m.Return, 1e-12)
	}

	table := MonthlyTable(monthly)
	require.Len(t, table, 1)
	assert.Equal(t, 2023, table[0].Year)
	assert.InDelta(t, 0.331, table[0].Total, 1e-12)
	require.NotNil(t, table[0].Months[1])
	assert.Nil(t, table[0].Months[3])
}

func TestBenchmarkComparison(t *testing.T) {
	bench := models.PriceSeries{Symbol: "NIFTY50"}
	values := make([]float64, 60)
	for i := range values {
		px := 100 * math.Exp(0.001*float64(i)+0.02*math.Sin(float64(i)/5))
		bench.Candles = append(bench.Candles, models.Candle{Timestamp: day0.AddDate(0, 0, i), Close: px})
		values[i] = 2 * px
	}

	r, err := analyzer(0.05, YearBasisTrading).Analyze(Input{
		Snapshots:      snapshots(values),
		InitialCapital: values[0],
		Benchmark:      &bench,
	})
	require.NoError(t, err)
	require.NotNil(t, r.Benchmark)

	b := r.Benchmark
	assert.Equal(t, "NIFTY50", b.Symbol)
	assert.Equal(t, 59, b.Observations)
	assert.InDelta(t, 1.0, b.Beta, 1e-9)
	assert.InDelta(t, 1.0, b.Correlation, 1e-9)
	assert.InDelta(t, 0.0, b.Alpha.Value, 1e-9)
	assert.InDelta(t, 0.0, b.ExcessReturn, 1e-9)
	assert.Zero(t, b.TrackingError.Value)
	assert.Zero(t, b.InformationRatio.Value)
	assert.Zero(t, b.WinRate)
}

func TestTradeStatsAndRebalanceLog(t *testing.T) {
	snaps := snapshots([]float64{1000, 1000, 1000})
	snaps[0].Cycle = &models.CycleDetail{
		TopSectors: []string{"IT"},
		Transition: models.SectorTransition{Added: []string{"IT"}},
		Trades: []models.Trade{
			{Side: models.OrderSideBuy, Notional: 300, Commission: 0.3, Slippage: 0.15},
			{Side: models.OrderSideBuy, Notional: 100, Commission: 0.1, Slippage: 0.05, Scaled: true},
		},
	}
	snaps[2].Cycle = &models.CycleDetail{
		TopSectors: []string{"BANK"},
		Trades:     []models.Trade{{Side: models.OrderSideSell, Notional: 200, Commission: 0.2, Taxes: 0.2}},
	}

	r, err := analyzer(0, YearBasisTrading).Analyze(Input{Snapshots: snaps, InitialCapital: 1000})
	require.NoError(t, err)

	ts := r.Trades
	assert.Equal(t, 3, ts.Count)
	assert.Equal(t, 2, ts.Buys)
	assert.Equal(t, 1, ts.Sells)
	assert.Equal(t, 1, ts.Scaled)
	assert.InDelta(t, 600.0, ts.Notional, 1e-12)
	assert.InDelta(t, 0.6, ts.Commission, 1e-12)
	assert.InDelta(t, 0.2, ts.Taxes, 1e-12)
	assert.InDelta(t, 200.0, ts.AverageTradeSize, 1e-12)
	assert.InDelta(t, 0.6, ts.Turnover, 1e-12)
	assert.Equal(t, 2, ts.Rebalances)
	assert.Equal(t, 1.5, ts.TradesPerCycle)

	require.Len(t, r.Rebalances, 2)
	assert.Equal(t, []string{"IT"}, r.Rebalances[0].Added)
	assert.Equal(t, 2, r.Rebalances[0].Trades)
	assert.Equal(t, snaps[2].Date, r.Rebalances[1].Date)
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	_, err := analyzer(0, YearBasisTrading).Analyze(Input{InitialCapital: 100})
	assert.Error(t, err)

	_, err = analyzer(0, YearBasisTrading).Analyze(Input{Snapshots: snapshots([]float64{1}), InitialCapital: 0})
	assert.Error(t, err)
}

// Property: drawdowns lie in [-1, 0] for any positive value series and
// the maximum drawdown is the smallest of them.
func TestProperty_DrawdownBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("drawdown within [-1, 0]", prop.ForAll(
		func(values []float64) bool {
			worst := 0.0
			for _, d := range Drawdowns(values) {
				if d > 0 || d < -1 {
					return false
				}
				worst = math.Min(worst, d)
			}
			return MaxDrawdown(values) == worst
		},
		gen.SliceOfN(50, gen.Float64Range(1, 1000)),
	))

	properties.TestingRun(t)
}
