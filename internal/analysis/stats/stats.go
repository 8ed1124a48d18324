// Package stats holds the return statistics shared by the stock scorer and
// the performance analyzer.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"nifty-rotation/internal/models"
)

// TradingDays is the number of trading sessions per year.
const TradingDays = 252

// Returns converts prices to simple period returns. A zero prior price
// yields a zero return for that step.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = prices[i]/prices[i-1] - 1
		}
	}
	return returns
}

// Mean is stat.Mean with an empty-slice guard.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev is the sample standard deviation, 0 with fewer than two points.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility is StdDev(daily returns) × √252.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDays)
}

// Sharpe is the annualized excess mean return over annualized volatility,
// computed from daily returns. Returns 0 when volatility is 0.
func Sharpe(dailyReturns []float64, riskFree float64) float64 {
	vol := AnnualizedVolatility(dailyReturns)
	if vol == 0 {
		return 0
	}
	return (Mean(dailyReturns)*TradingDays - riskFree) / vol
}

// Beta is Cov(asset, market)/Var(market). ok is false when the inputs are
// too short, mismatched or the market has no variance.
func Beta(asset, market []float64) (beta float64, ok bool) {
	if len(asset) < 2 || len(asset) != len(market) {
		return 0, false
	}
	v := stat.Variance(market, nil)
	if v == 0 {
		return 0, false
	}
	return stat.Covariance(asset, market, nil) / v, true
}

// Correlation is the Pearson correlation, 0 for degenerate inputs.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// DailyRate converts an annual rate to its compounded daily equivalent.
func DailyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/TradingDays) - 1
}

// AlignedReturns pairs the daily returns of two series over the dates
// both contain. A return is only formed between two consecutive shared
// dates, so gaps in either series never produce a multi-day return.
func AlignedReturns(a, b []models.Candle) (ra, rb []float64) {
	bByDay := make(map[int64]float64, len(b))
	for _, c := range b {
		bByDay[dayKey(c)] = c.Close
	}

	var prevA, prevB float64
	havePrev := false
	for _, c := range a {
		closeB, ok := bByDay[dayKey(c)]
		if !ok {
			continue
		}
		if havePrev && prevA != 0 && prevB != 0 {
			ra = append(ra, c.Close/prevA-1)
			rb = append(rb, closeB/prevB-1)
		}
		prevA, prevB, havePrev = c.Close, closeB, true
	}
	return ra, rb
}

// Tail returns the last n elements of data, or all of it when shorter.
func Tail(data []float64, n int) []float64 {
	if n <= 0 || n >= len(data) {
		return data
	}
	return data[len(data)-n:]
}

func dayKey(c models.Candle) int64 {
	y, m, d := c.Timestamp.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
