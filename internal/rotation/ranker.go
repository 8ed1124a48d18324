// Package rotation ranks sectors by blended multi-period momentum and
// selects the ones the Core sleeve rotates into.
package rotation

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nifty-rotation/internal/analysis/indicators"
	"nifty-rotation/internal/config"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
)

// SectorInput is the index series tracking one sector. The series may
// extend past the ranking date; only bars strictly before it are read.
type SectorInput struct {
	Sector string
	Series models.PriceSeries
}

// Ranking is the outcome of one ranking pass.
type Ranking struct {
	AsOf time.Time
	// Scores holds every sector with enough history, ranked sectors first.
	// Sectors failing the trend filter keep Rank 0.
	Scores []models.SectorScore
	// Top holds at most K trend-passing sectors in rank order.
	Top        []models.SectorScore
	Exclusions []models.Exclusion
}

// TopSectors returns the names of the selected sectors in rank order.
func (r Ranking) TopSectors() []string {
	out := make([]string, len(r.Top))
	for i, s := range r.Top {
		out[i] = s.Sector
	}
	return out
}

// Ranker scores sectors by momentum and applies the trend filter.
type Ranker struct {
	momentum config.MomentumConfig
	trend    config.TrendConfig
	topK     int
	logger   zerolog.Logger
}

// NewRanker creates a sector ranker.
func NewRanker(momentum config.MomentumConfig, trend config.TrendConfig, topK int, logger zerolog.Logger) *Ranker {
	return &Ranker{
		momentum: momentum,
		trend:    trend,
		topK:     topK,
		logger:   logging.WithOperation(logger, "sector_ranking"),
	}
}

// Rank scores every sector as of asOf and keeps the top K that pass the
// trend filter. Ties break on the longest-window return, then symbol.
func (r *Ranker) Rank(asOf time.Time, inputs []SectorInput) Ranking {
	res := Ranking{AsOf: asOf}

	var passing, failing []models.SectorScore
	for _, in := range inputs {
		score, reason := r.score(asOf, in)
		if reason != "" {
			logging.LogExclusion(r.logger, in.Sector, reason)
			res.Exclusions = append(res.Exclusions, models.Exclusion{Symbol: in.Sector, Reason: reason})
			if score == nil {
				continue
			}
		}
		if score.TrendPass {
			passing = append(passing, *score)
		} else {
			failing = append(failing, *score)
		}
	}

	sortScores(passing)
	sortScores(failing)
	for i := range passing {
		passing[i].Rank = i + 1
	}

	k := r.topK
	if k > len(passing) {
		k = len(passing)
	}
	res.Top = append([]models.SectorScore(nil), passing[:k]...)
	res.Scores = append(passing, failing...)
	sort.Slice(res.Exclusions, func(i, j int) bool { return res.Exclusions[i].Symbol < res.Exclusions[j].Symbol })

	r.logger.Debug().
		Time("as_of", asOf).
		Strs("top", res.TopSectors()).
		Int("ranked", len(passing)).
		Int("trend_failed", len(failing)).
		Msg("Sectors ranked")
	return res
}

// score returns nil with a reason when the sector lacks history for the
// longest window or has no usable price at a lookback, or a score plus a
// reason when it fails the trend filter.
func (r *Ranker) score(asOf time.Time, in SectorInput) (*models.SectorScore, string) {
	bars := in.Series.Before(asOf)
	windows := r.momentum.Windows
	longest := windows[len(windows)-1]
	if len(bars) < longest+1 {
		return nil, fmt.Sprintf("insufficient history: %d bars, need %d", len(bars), longest+1)
	}

	closes := models.Closes(bars)
	last := closes[len(closes)-1]
	s := &models.SectorScore{
		Sector:  in.Sector,
		Symbol:  in.Series.Symbol,
		AsOf:    asOf,
		Returns: make([]float64, len(windows)),
	}
	for i, w := range windows {
		past := closes[len(closes)-1-w]
		if past <= 0 {
			return nil, fmt.Sprintf("non-positive close %.2f at %d-bar lookback", past, w)
		}
		s.Returns[i] = last/past - 1
		s.Composite += r.momentum.Weights[i] * s.Returns[i]
	}

	if !r.trend.Enabled {
		s.TrendPass = true
		return s, ""
	}
	pass, strength, reason := r.checkTrend(bars)
	s.TrendPass = pass
	s.TrendStrength = strength
	return s, reason
}

// checkTrend requires price > SMA(fast) > SMA(slow) and a minimum distance
// above the slow average.
func (r *Ranker) checkTrend(bars []models.Candle) (bool, float64, string) {
	slow, err := indicators.NewSMA(r.trend.Slow).Calculate(bars)
	if err != nil {
		return false, 0, fmt.Sprintf("trend filter: need %d bars for SMA(%d)", r.trend.Slow, r.trend.Slow)
	}
	fast, err := indicators.NewSMA(r.trend.Fast).Calculate(bars)
	if err != nil {
		return false, 0, fmt.Sprintf("trend filter: need %d bars for SMA(%d)", r.trend.Fast, r.trend.Fast)
	}

	price := bars[len(bars)-1].Close
	f, sl := indicators.Last(fast), indicators.Last(slow)
	var strength float64
	if sl != 0 {
		strength = price/sl - 1
	}

	switch {
	case !(price > f && f > sl):
		return false, strength, "trend filter: price/SMA alignment failed"
	case strength < r.trend.MinStrength:
		return false, strength, fmt.Sprintf("trend filter: strength %.4f below %.4f", strength, r.trend.MinStrength)
	}
	return true, strength, ""
}

func sortScores(scores []models.SectorScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.LongestReturn() != b.LongestReturn() {
			return a.LongestReturn() > b.LongestReturn()
		}
		return a.Symbol < b.Symbol
	})
}

// Weights returns the Core weight of each selected sector. "equal" splits
// coreFraction evenly; "score" splits it by positive composite, falling
// back to equal when no composite is positive.
func Weights(top []models.SectorScore, coreFraction float64, method string) map[string]float64 {
	out := make(map[string]float64, len(top))
	if len(top) == 0 {
		return out
	}

	if method == "score" {
		var total float64
		for _, s := range top {
			if s.Composite > 0 {
				total += s.Composite
			}
		}
		if total > 0 {
			for _, s := range top {
				out[s.Sector] = coreFraction * max(s.Composite, 0) / total
			}
			return out
		}
	}

	each := coreFraction / float64(len(top))
	for _, s := range top {
		out[s.Sector] = each
	}
	return out
}
