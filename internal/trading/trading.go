// Package trading simulates the rebalance cycle: order generation, cost-aware
// execution, daily mark-to-market and the backtest fold that ties them
// together.
package trading

import (
	"context"
	"time"

	"nifty-rotation/internal/models"
)

// FundamentalsSource returns the latest fundamental snapshot dated on or
// before asOf. A nil snapshot with a nil error means none is available.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, symbol string, asOf time.Time) (*models.Fundamentals, error)
}

// MarketData is the preloaded, read-only price history a backtest runs on.
type MarketData struct {
	Universe models.Universe
	// Stocks is keyed by stock symbol.
	Stocks map[string]models.PriceSeries
	// Sectors is keyed by sector name.
	Sectors map[string]models.PriceSeries
	// Benchmark is optional.
	Benchmark *models.PriceSeries
}

// TradingDays returns every distinct date with a bar in any series, in
// order, restricted to [start, end]. Zero bounds are open.
func (m *MarketData) TradingDays(start, end time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	add := func(s models.PriceSeries) {
		for _, c := range s.Candles {
			d := truncateDay(c.Timestamp)
			if (!start.IsZero() && d.Before(start)) || (!end.IsZero() && d.After(end)) {
				continue
			}
			seen[d] = true
		}
	}
	for _, s := range m.Stocks {
		add(s)
	}
	for _, s := range m.Sectors {
		add(s)
	}
	if m.Benchmark != nil {
		add(*m.Benchmark)
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sortTimes(days)
	return days
}

// FirstBar returns the earliest bar date across the stock series.
func (m *MarketData) FirstBar() time.Time {
	var first time.Time
	for _, s := range m.Stocks {
		if len(s.Candles) == 0 {
			continue
		}
		if t := s.Candles[0].Timestamp; first.IsZero() || t.Before(first) {
			first = t
		}
	}
	return truncateDay(first)
}

// Prices returns a price book over the stock series.
func (m *MarketData) Prices() PriceBook {
	return PriceBook{series: m.Stocks}
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
