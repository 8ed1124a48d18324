package scoring

import (
	"fmt"
	"math"

	"nifty-rotation/internal/analysis/stats"
	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// minBetaObservations is the fewest aligned returns a beta is estimated from.
const minBetaObservations = 20

// StatisticalScorer scores trailing risk-adjusted return, volatility and
// market sensitivity.
type StatisticalScorer struct {
	cfg config.StatisticalConfig
}

// NewStatisticalScorer creates a statistical scorer.
func NewStatisticalScorer(cfg config.StatisticalConfig) *StatisticalScorer {
	return &StatisticalScorer{cfg: cfg}
}

// Score computes the statistical sub-score over the trailing lookback.
// benchmark may be nil; the beta weight is then spread over Sharpe and
// volatility in proportion to their weights.
func (s *StatisticalScorer) Score(candles, benchmark []models.Candle) (models.StatisticalScore, error) {
	var ss models.StatisticalScore
	if len(candles) < s.cfg.ShortLookback+1 {
		return ss, fmt.Errorf("statistical score needs %d bars, have %d", s.cfg.ShortLookback+1, len(candles))
	}

	window := candles
	if len(window) > s.cfg.Lookback+1 {
		window = window[len(window)-s.cfg.Lookback-1:]
	}
	returns := stats.Returns(models.Closes(window))

	short := stats.Sharpe(stats.Tail(returns, s.cfg.ShortLookback), s.cfg.RiskFreeRate)
	long := stats.Sharpe(returns, s.cfg.RiskFreeRate)
	ss.RawSharpe = 0.4*short + 0.6*long
	ss.Sharpe = clip((ss.RawSharpe + 1) / 3)

	ss.RawVolatility = stats.AnnualizedVolatility(returns)
	ss.InvVolatility = clip(1 - ss.RawVolatility/s.cfg.VolCeiling)

	if s.cfg.UseBeta && len(benchmark) > 0 {
		ra, rb := stats.AlignedReturns(window, benchmark)
		if len(ra) >= minBetaObservations {
			if beta, ok := stats.Beta(ra, rb); ok {
				ss.RawBeta = beta
				ss.HasBeta = true
				ss.InvBeta = clip(1 - math.Abs(beta-1))
			}
		}
	}

	sw, vw, bw := s.cfg.SharpeWeight, s.cfg.VolatilityWeight, s.cfg.BetaWeight
	if !ss.HasBeta {
		if sw+vw > 0 {
			sw, vw = sw/(sw+vw), vw/(sw+vw)
		}
		bw = 0
	}
	ss.Score = clip(sw*ss.Sharpe + vw*ss.InvVolatility + bw*ss.InvBeta)
	return ss, nil
}
