package analytics

import (
	"math"
	"time"

	"nifty-rotation/internal/analysis/stats"
	"nifty-rotation/internal/models"
)

// BenchmarkStats compares the strategy with a benchmark over the dates
// both have values for.
type BenchmarkStats struct {
	Symbol           string  `json:"symbol"`
	Observations     int     `json:"observations"`
	Beta             float64 `json:"beta"`
	Alpha            Stat    `json:"alpha"`
	Correlation      float64 `json:"correlation"`
	TrackingError    Stat    `json:"tracking_error"`
	InformationRatio Stat    `json:"information_ratio"`
	CAGR             Stat    `json:"cagr"`
	StrategyReturn   float64 `json:"strategy_return"`
	BenchmarkReturn  float64 `json:"benchmark_return"`
	ExcessReturn     float64 `json:"excess_return"`
	WinRate          float64 `json:"win_rate"`
}

// compareBenchmark needs at least two aligned returns; otherwise it
// returns nil.
func compareBenchmark(dates []time.Time, values []float64, bench *models.PriceSeries, cagr Stat, years, rf float64) (*BenchmarkStats, error) {
	equity := make([]models.Candle, len(values))
	for i := range values {
		equity[i] = models.Candle{Timestamp: dates[i], Close: values[i]}
	}
	ra, rb := stats.AlignedReturns(equity, bench.Between(dates[0], dates[len(dates)-1]))
	if len(ra) < 2 {
		return nil, nil
	}

	b := &BenchmarkStats{
		Symbol:          bench.Symbol,
		Observations:    len(ra),
		Correlation:     stats.Correlation(ra, rb),
		StrategyReturn:  compound(ra),
		BenchmarkReturn: compound(rb),
	}
	b.ExcessReturn = b.StrategyReturn - b.BenchmarkReturn
	if beta, ok := stats.Beta(ra, rb); ok {
		b.Beta = beta
	}

	b.CAGR = Annual(annualReturn(b.BenchmarkReturn, years))
	b.Alpha = Annual((cagr.Value - rf) - b.Beta*(b.CAGR.Value-rf))

	active := make([]float64, len(ra))
	wins := 0
	for i := range ra {
		active[i] = ra[i] - rb[i]
		if ra[i] > rb[i] {
			wins++
		}
	}
	b.WinRate = float64(wins) / float64(len(ra))

	te, err := annualizeDeviation(Daily(stats.StdDev(active)))
	if err != nil {
		return nil, err
	}
	b.TrackingError = te
	b.InformationRatio = ratio(Annual(cagr.Value-b.CAGR.Value), te)
	return b, nil
}

func compound(returns []float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	return growth - 1
}

// annualReturn converts a total return over years into a yearly rate.
// A total loss stays at -1 for any horizon.
func annualReturn(total, years float64) float64 {
	if years <= 0 {
		return 0
	}
	if total <= -1 {
		return -1
	}
	return math.Pow(1+total, 1/years) - 1
}
