// Package allocation turns sector selections and stock scores into
// Core/Satellite target weights.
package allocation

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
)

// Overlap policies for a stock selected by both sleeves.
const (
	OverlapSum    = "sum"
	OverlapCap    = "cap"
	OverlapDedupe = "dedupe"
)

// Rebalancer builds the target allocation of a cycle.
type Rebalancer struct {
	cfg    config.StrategyConfig
	logger zerolog.Logger
}

// NewRebalancer creates a rebalancer.
func NewRebalancer(cfg config.StrategyConfig, logger zerolog.Logger) *Rebalancer {
	return &Rebalancer{
		cfg:    cfg,
		logger: logging.WithOperation(logger, "allocation"),
	}
}

// Build computes the target allocation.
//
// topSectors lists the selected sectors in rank order and sectorWeights
// their Core weights. ranked is the scored universe ordered best first.
func (r *Rebalancer) Build(date time.Time, topSectors []string, sectorWeights map[string]float64, ranked []models.ScoreRecord) (models.TargetAllocation, error) {
	target := models.TargetAllocation{
		Date:          date,
		OverlapPolicy: r.cfg.OverlapPolicy,
		Weights:       make(map[string]float64),
	}

	target.Core = r.core(topSectors, sectorWeights, ranked)

	inCore := make(map[string]bool, len(target.Core))
	for _, a := range target.Core {
		inCore[a.Symbol] = true
	}

	switch r.cfg.OverlapPolicy {
	case OverlapSum, OverlapCap:
		target.Satellite = r.satellite(ranked, nil)
	case OverlapDedupe:
		target.Satellite = r.satellite(ranked, inCore)
	default:
		return target, apperrors.Wrapf(apperrors.ErrUnknownPolicy, "overlap policy %q", r.cfg.OverlapPolicy)
	}

	for _, a := range target.Core {
		target.Weights[a.Symbol] += a.Weight
	}
	for _, a := range target.Satellite {
		if inCore[a.Symbol] {
			target.Overlaps = append(target.Overlaps, a.Symbol)
		}
		target.Weights[a.Symbol] += a.Weight
	}
	sort.Strings(target.Overlaps)

	if r.cfg.OverlapPolicy == OverlapCap {
		for _, sym := range target.Overlaps {
			target.Weights[sym] = min(target.Weights[sym], r.cfg.OverlapCap)
		}
	}

	r.logger.Debug().
		Time("date", date).
		Int("core", len(target.Core)).
		Int("satellite", len(target.Satellite)).
		Int("overlaps", len(target.Overlaps)).
		Float64("invested", target.Total()).
		Msg("Targets built")
	return target, nil
}

// core picks the top N stocks of each selected sector. A sector's weight
// is split over the stocks actually selected; a sector with no eligible
// stock leaves its weight in cash.
func (r *Rebalancer) core(topSectors []string, sectorWeights map[string]float64, ranked []models.ScoreRecord) []models.Allocation {
	var out []models.Allocation
	for _, sector := range topSectors {
		var picks []models.ScoreRecord
		for _, rec := range ranked {
			if rec.Sector == sector {
				picks = append(picks, rec)
				if len(picks) == r.cfg.StocksPerSector {
					break
				}
			}
		}
		if len(picks) == 0 {
			r.logger.Debug().Str("sector", sector).Msg("No eligible stocks in sector; weight held as cash")
			continue
		}

		each := sectorWeights[sector] / float64(len(picks))
		for _, rec := range picks {
			out = append(out, models.Allocation{
				Symbol: rec.Symbol,
				Sector: sector,
				Sleeve: models.SleeveCore,
				Weight: each,
				Score:  rec.Composite,
			})
		}
	}
	return out
}

// satellite picks the top M of the whole universe, skipping symbols in
// exclude so the slot passes to the next-best stock.
func (r *Rebalancer) satellite(ranked []models.ScoreRecord, exclude map[string]bool) []models.Allocation {
	var picks []models.ScoreRecord
	for _, rec := range ranked {
		if len(picks) == r.cfg.SatelliteTop {
			break
		}
		if exclude[rec.Symbol] {
			continue
		}
		picks = append(picks, rec)
	}
	if len(picks) == 0 {
		return nil
	}

	fraction := r.cfg.SatelliteFraction
	var total float64
	if r.cfg.SatelliteWeighting == "score" {
		for _, rec := range picks {
			total += max(rec.Composite, 0)
		}
	}

	out := make([]models.Allocation, len(picks))
	for i, rec := range picks {
		w := fraction / float64(len(picks))
		if total > 0 {
			w = fraction * max(rec.Composite, 0) / total
		}
		out[i] = models.Allocation{
			Symbol: rec.Symbol,
			Sector: rec.Sector,
			Sleeve: models.SleeveSatellite,
			Weight: w,
			Score:  rec.Composite,
		}
	}
	return out
}
