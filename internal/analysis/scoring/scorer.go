// Package scoring ranks stocks by a weighted blend of technical,
// fundamental and statistical sub-scores.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
	"nifty-rotation/internal/pool"
)

// Weights blends the three sub-scores into the composite.
type Weights struct {
	Fundamental float64
	Technical   float64
	Statistical float64
}

// DefaultWeights returns the default group weights.
func DefaultWeights() Weights {
	return Weights{
		Fundamental: 0.45,
		Technical:   0.35,
		Statistical: 0.20,
	}
}

// Candidate is one instrument offered for scoring. Series may extend past
// the evaluation date; the scorer only reads bars strictly before it.
type Candidate struct {
	Instrument   models.Instrument
	Series       models.PriceSeries
	Fundamentals *models.Fundamentals
}

// Result holds the ranked records and exclusions of one scoring pass.
type Result struct {
	AsOf       time.Time
	Records    []models.ScoreRecord
	Exclusions []models.Exclusion
}

// Scorer computes composite scores for a universe.
type Scorer struct {
	weights     Weights
	technical   *TechnicalScorer
	fundamental *FundamentalScorer
	statistical *StatisticalScorer
	eligibility *Eligibility
	workers     int
	logger      zerolog.Logger
}

// NewScorer creates a scorer from configuration.
func NewScorer(cfg config.ScoringConfig, elig config.EligibilityConfig, logger zerolog.Logger) *Scorer {
	return &Scorer{
		weights: Weights{
			Fundamental: cfg.Fundamental,
			Technical:   cfg.Technical,
			Statistical: cfg.Statistical,
		},
		technical:   NewTechnicalScorer(cfg.TechnicalParams),
		fundamental: NewFundamentalScorer(cfg.FundamentalParams),
		statistical: NewStatisticalScorer(cfg.StatisticalParams),
		eligibility: NewEligibility(elig),
		workers:     cfg.Workers,
		logger:      logging.WithOperation(logger, "scoring"),
	}
}

type outcome struct {
	record    models.ScoreRecord
	exclusion *models.Exclusion
}

// ScoreUniverse scores every candidate as of asOf on a bounded worker pool
// and returns the records ranked by composite descending, then symbol.
// benchmark may be nil.
func (s *Scorer) ScoreUniverse(ctx context.Context, asOf time.Time, candidates []Candidate, benchmark *models.PriceSeries) (Result, error) {
	var bench []models.Candle
	if benchmark != nil {
		bench = benchmark.Before(asOf)
	}

	outcomes, err := pool.Map(ctx, s.workers, candidates, func(_ context.Context, c Candidate) (outcome, error) {
		return s.scoreOne(asOf, c, bench)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{AsOf: asOf}
	for _, o := range outcomes {
		if o.exclusion != nil {
			logging.LogExclusion(s.logger, o.exclusion.Symbol, o.exclusion.Reason)
			res.Exclusions = append(res.Exclusions, *o.exclusion)
			continue
		}
		res.Records = append(res.Records, o.record)
	}
	Rank(res.Records)
	sort.Slice(res.Exclusions, func(i, j int) bool { return res.Exclusions[i].Symbol < res.Exclusions[j].Symbol })

	s.logger.Debug().
		Time("as_of", asOf).
		Int("scored", len(res.Records)).
		Int("excluded", len(res.Exclusions)).
		Msg("Universe scored")
	return res, nil
}

func (s *Scorer) scoreOne(asOf time.Time, c Candidate, bench []models.Candle) (outcome, error) {
	symbol := c.Instrument.Symbol
	if c.Fundamentals != nil && c.Fundamentals.AsOf.After(asOf) {
		return outcome{}, apperrors.NewDataError("fundamentals", symbol,
			fmt.Sprintf("snapshot dated %s used on %s", c.Fundamentals.AsOf.Format("2006-01-02"), asOf.Format("2006-01-02")),
			apperrors.ErrLookAhead)
	}

	history := c.Series.Before(asOf)
	exclude := func(reason string) (outcome, error) {
		return outcome{exclusion: &models.Exclusion{Symbol: symbol, Reason: reason}}, nil
	}

	if reason := s.eligibility.Check(history, c.Fundamentals); reason != "" {
		return exclude(reason)
	}

	tech, err := s.technical.Score(history)
	if err != nil {
		return exclude(err.Error())
	}
	stat, err := s.statistical.Score(history, bench)
	if err != nil {
		return exclude(err.Error())
	}
	fund := s.fundamental.Score(c.Fundamentals)

	return outcome{record: models.ScoreRecord{
		Symbol:      symbol,
		Sector:      c.Instrument.Sector,
		AsOf:        asOf,
		Technical:   tech,
		Fundamental: fund,
		Statistical: stat,
		Composite:   s.Composite(tech.Score, fund.Score, stat.Score),
	}}, nil
}

// Composite blends the sub-scores with the group weights.
func (s *Scorer) Composite(technical, fundamental, statistical float64) float64 {
	return clip(s.weights.Technical*technical +
		s.weights.Fundamental*fundamental +
		s.weights.Statistical*statistical)
}

// Rank sorts records by composite descending, then symbol ascending, and
// assigns 1-based ranks in place.
func Rank(records []models.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Composite != records[j].Composite {
			return records[i].Composite > records[j].Composite
		}
		return records[i].Symbol < records[j].Symbol
	})
	for i := range records {
		records[i].Rank = i + 1
	}
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
