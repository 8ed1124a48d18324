package models

import "time"

// Trade represents an executed order.
type Trade struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Symbol         string    `json:"symbol"`
	Side           OrderSide `json:"side"`
	Quantity       float64   `json:"quantity"`
	ReferencePrice float64   `json:"reference_price"`
	FillPrice      float64   `json:"fill_price"`
	Notional       float64   `json:"notional"`
	Slippage       float64   `json:"slippage"`
	Commission     float64   `json:"commission"`
	Taxes          float64   `json:"taxes"`
	CashFlow       float64   `json:"cash_flow"`
	Scaled         bool      `json:"scaled,omitempty"`
}

// Costs returns the total transaction cost of the trade.
func (t Trade) Costs() float64 {
	return t.Slippage + t.Commission + t.Taxes
}

// SkippedOrder records an order that was generated but not executed.
type SkippedOrder struct {
	Symbol string    `json:"symbol"`
	Side   OrderSide `json:"side"`
	Delta  float64   `json:"delta"`
	Reason string    `json:"reason"`
}

// SectorTransition describes how the selected sector set changed between
// consecutive cycles.
type SectorTransition struct {
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
	Maintained []string `json:"maintained"`
}

// CycleDetail is the audit trail of one rebalance cycle.
type CycleDetail struct {
	Sectors     []SectorScore    `json:"sectors"`
	TopSectors  []string         `json:"top_sectors"`
	Transition  SectorTransition `json:"transition"`
	Scores      []ScoreRecord    `json:"scores"`
	Exclusions  []Exclusion      `json:"exclusions,omitempty"`
	Targets     TargetAllocation `json:"targets"`
	Trades      []Trade          `json:"trades"`
	Skipped     []SkippedOrder   `json:"skipped,omitempty"`
	CashBefore  float64          `json:"cash_before"`
	CashAfter   float64          `json:"cash_after"`
	ValueBefore float64          `json:"value_before"`
}

// PortfolioSnapshot is the portfolio state at the close of a trading day.
// Cycle is non-nil on rebalance days.
type PortfolioSnapshot struct {
	Date       time.Time      `json:"date"`
	TotalValue float64        `json:"total_value"`
	Cash       float64        `json:"cash"`
	Positions  []PositionMark `json:"positions"`
	Cycle      *CycleDetail   `json:"cycle,omitempty"`
}

// IsRebalance reports whether the snapshot was recorded by a rebalance cycle.
func (s PortfolioSnapshot) IsRebalance() bool {
	return s.Cycle != nil
}
