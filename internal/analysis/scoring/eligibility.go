package scoring

import (
	"fmt"

	"nifty-rotation/internal/analysis/indicators"
	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// Eligibility filters instruments before scoring.
type Eligibility struct {
	cfg config.EligibilityConfig
}

// NewEligibility creates an eligibility filter.
func NewEligibility(cfg config.EligibilityConfig) *Eligibility {
	return &Eligibility{cfg: cfg}
}

// Check returns an empty reason when the instrument may be scored.
// A missing market cap passes.
func (e *Eligibility) Check(candles []models.Candle, fund *models.Fundamentals) string {
	if len(candles) < e.cfg.MinHistory {
		return fmt.Sprintf("insufficient history: %d bars, need %d", len(candles), e.cfg.MinHistory)
	}

	avg, err := indicators.NewAverageVolume(e.cfg.VolumeWindow).Calculate(candles)
	if err != nil {
		return fmt.Sprintf("insufficient history for %d-day volume", e.cfg.VolumeWindow)
	}
	if v := indicators.Last(avg); v < e.cfg.MinAvgVolume {
		return fmt.Sprintf("average volume %.0f below minimum %.0f", v, e.cfg.MinAvgVolume)
	}

	if fund != nil && fund.MarketCap != nil && *fund.MarketCap < e.cfg.MinMarketCap {
		return fmt.Sprintf("market cap %.0f below minimum %.0f", *fund.MarketCap, e.cfg.MinMarketCap)
	}
	return ""
}
