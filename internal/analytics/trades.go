package analytics

import (
	"time"

	"nifty-rotation/internal/models"
)

// TradeStats summarizes executed trades and their costs. Turnover is
// traded notional over the average portfolio value.
type TradeStats struct {
	Count            int     `json:"count"`
	Buys             int     `json:"buys"`
	Sells            int     `json:"sells"`
	Scaled           int     `json:"scaled"`
	Notional         float64 `json:"notional"`
	Commission       float64 `json:"commission"`
	Taxes            float64 `json:"taxes"`
	Slippage         float64 `json:"slippage"`
	AverageTradeSize float64 `json:"average_trade_size"`
	Turnover         float64 `json:"turnover"`
	Rebalances       int     `json:"rebalances"`
	TradesPerCycle   float64 `json:"trades_per_cycle"`
}

// RebalanceRow is one line of the rebalance log.
type RebalanceRow struct {
	Date     time.Time `json:"date"`
	Sectors  []string  `json:"sectors"`
	Added    []string  `json:"added,omitempty"`
	Removed  []string  `json:"removed,omitempty"`
	Holdings int       `json:"holdings"`
	Trades   int       `json:"trades"`
	Skipped  int       `json:"skipped"`
	Value    float64   `json:"value"`
	Cash     float64   `json:"cash"`
}

func tradeStats(snapshots []models.PortfolioSnapshot, averageValue float64) TradeStats {
	var ts TradeStats
	for _, s := range snapshots {
		if s.Cycle == nil {
			continue
		}
		ts.Rebalances++
		for _, t := range s.Cycle.Trades {
			ts.Count++
			if t.Side == models.OrderSideBuy {
				ts.Buys++
			} else {
				ts.Sells++
			}
			if t.Scaled {
				ts.Scaled++
			}
			ts.Notional += t.Notional
			ts.Commission += t.Commission
			ts.Taxes += t.Taxes
			ts.Slippage += t.Slippage
		}
	}
	if ts.Count > 0 {
		ts.AverageTradeSize = ts.Notional / float64(ts.Count)
	}
	if averageValue > 0 {
		ts.Turnover = ts.Notional / averageValue
	}
	if ts.Rebalances > 0 {
		ts.TradesPerCycle = float64(ts.Count) / float64(ts.Rebalances)
	}
	return ts
}

// RebalanceLog returns one row per rebalance cycle.
func RebalanceLog(snapshots []models.PortfolioSnapshot) []RebalanceRow {
	var rows []RebalanceRow
	for _, s := range snapshots {
		c := s.Cycle
		if c == nil {
			continue
		}
		rows = append(rows, RebalanceRow{
			Date:     s.Date,
			Sectors:  c.TopSectors,
			Added:    c.Transition.Added,
			Removed:  c.Transition.Removed,
			Holdings: len(s.Positions),
			Trades:   len(c.Trades),
			Skipped:  len(c.Skipped),
			Value:    s.TotalValue,
			Cash:     s.Cash,
		})
	}
	return rows
}
