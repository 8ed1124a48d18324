// Package analytics computes performance statistics from a backtest's
// daily portfolio snapshots.
package analytics

import (
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"nifty-rotation/internal/analysis/stats"
	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
)

// Year bases for deriving elapsed years.
const (
	YearBasisTrading  = "trading"
	YearBasisCalendar = "calendar"
)

// daysPerYear is the calendar year length used by the calendar basis.
const daysPerYear = 365.25

// Input is everything a report is computed from.
type Input struct {
	Snapshots      []models.PortfolioSnapshot
	InitialCapital float64
	// Years overrides the elapsed years derived from the year basis.
	Years     float64
	Benchmark *models.PriceSeries
}

// DayStats summarizes the daily return distribution.
type DayStats struct {
	Best          float64 `json:"best"`
	Worst         float64 `json:"worst"`
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	PositiveRatio float64 `json:"positive_ratio"`
}

// Report is the full performance analysis of one run.
type Report struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	TradingDays    int       `json:"trading_days"`
	Years          float64   `json:"years"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	RiskFreeRate   float64   `json:"risk_free_rate"`

	TotalReturn       Stat `json:"total_return"`
	CAGR              Stat `json:"cagr"`
	Volatility        Stat `json:"volatility"`
	DownsideDeviation Stat `json:"downside_deviation"`
	Sharpe            Stat `json:"sharpe"`
	Sortino           Stat `json:"sortino"`
	Calmar            Stat `json:"calmar"`
	MaxDrawdown       Stat `json:"max_drawdown"`

	Drawdowns  []DrawdownPeriod `json:"drawdowns"`
	Days       DayStats         `json:"days"`
	Monthly    []MonthlyReturn  `json:"monthly"`
	YearTable  []YearRow        `json:"year_table"`
	Benchmark  *BenchmarkStats  `json:"benchmark,omitempty"`
	Trades     TradeStats       `json:"trades"`
	Rebalances []RebalanceRow   `json:"rebalances"`
}

// Analyzer computes reports.
type Analyzer struct {
	cfg    config.AnalysisConfig
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg config.AnalysisConfig, logger zerolog.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, logger: logging.WithOperation(logger, "analytics")}
}

// Analyze computes the report for a snapshot series.
func (a *Analyzer) Analyze(in Input) (*Report, error) {
	if len(in.Snapshots) == 0 {
		return nil, apperrors.NewDataError("snapshots", "", "no snapshots to analyze", apperrors.ErrInsufficientData)
	}
	if in.InitialCapital <= 0 {
		return nil, apperrors.NewValidationError("initial_capital", in.InitialCapital, "must be positive")
	}

	dates := make([]time.Time, len(in.Snapshots))
	values := make([]float64, len(in.Snapshots))
	for i, s := range in.Snapshots {
		dates[i] = s.Date
		values[i] = s.TotalValue
	}
	returns := stats.Returns(values)
	rf := a.cfg.RiskFreeRate

	r := &Report{
		Start:          dates[0],
		End:            dates[len(dates)-1],
		TradingDays:    len(values),
		InitialCapital: in.InitialCapital,
		FinalValue:     values[len(values)-1],
		RiskFreeRate:   rf,
	}
	r.Years = a.years(in.Years, len(returns), r.Start, r.End)

	total := r.FinalValue/in.InitialCapital - 1
	r.TotalReturn = Stat{Value: total}
	r.CAGR = Annual(annualReturn(total, r.Years))

	var err error
	if r.Volatility, err = annualizeDeviation(Daily(stats.StdDev(returns))); err != nil {
		return nil, err
	}
	dailyRF := stats.DailyRate(rf)
	var downside []float64
	for _, x := range returns {
		if x < dailyRF {
			downside = append(downside, x)
		}
	}
	if r.DownsideDeviation, err = annualizeDeviation(Daily(stats.StdDev(downside))); err != nil {
		return nil, err
	}

	excess := Annual(r.CAGR.Value - rf)
	r.Sharpe = ratio(excess, r.Volatility)
	r.Sortino = ratio(excess, r.DownsideDeviation)

	r.MaxDrawdown = Stat{Value: MaxDrawdown(values)}
	r.Calmar = ratio(r.CAGR, Annual(-r.MaxDrawdown.Value))
	r.Drawdowns = DrawdownPeriods(dates, values)

	r.Days = dayStats(returns)
	r.Monthly = MonthlyReturns(dates, values, in.InitialCapital)
	r.YearTable = MonthlyTable(r.Monthly)

	if in.Benchmark != nil {
		if r.Benchmark, err = compareBenchmark(dates, values, in.Benchmark, r.CAGR, r.Years, rf); err != nil {
			return nil, err
		}
	}

	r.Trades = tradeStats(in.Snapshots, stats.Mean(values))
	r.Rebalances = RebalanceLog(in.Snapshots)

	a.logger.Debug().
		Float64("cagr", r.CAGR.Value).
		Float64("sharpe", r.Sharpe.Value).
		Float64("max_drawdown", r.MaxDrawdown.Value).
		Int("trades", r.Trades.Count).
		Msg("Report computed")
	return r, nil
}

// years returns the override when positive, otherwise the elapsed years
// under the configured basis.
func (a *Analyzer) years(override float64, intervals int, start, end time.Time) float64 {
	if override > 0 {
		return override
	}
	if a.cfg.YearBasis == YearBasisCalendar {
		return end.Sub(start).Hours() / 24 / daysPerYear
	}
	return float64(intervals) / stats.TradingDays
}

func dayStats(returns []float64) DayStats {
	var d DayStats
	if len(returns) == 0 {
		return d
	}
	d.Best = floats.Max(returns)
	d.Worst = floats.Min(returns)
	for _, r := range returns {
		switch {
		case r > 0:
			d.Positive++
		case r < 0:
			d.Negative++
		}
	}
	d.PositiveRatio = float64(d.Positive) / float64(len(returns))
	return d
}
