package models

import "time"

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Sleeve identifies an allocation bucket.
type Sleeve string

const (
	SleeveCore      Sleeve = "CORE"
	SleeveSatellite Sleeve = "SATELLITE"
)

// Allocation is one desired weight for an instrument within a sleeve.
type Allocation struct {
	Symbol string  `json:"symbol"`
	Sector string  `json:"sector"`
	Sleeve Sleeve  `json:"sleeve"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// TargetAllocation is the merged set of desired weights for a cycle.
type TargetAllocation struct {
	Date          time.Time          `json:"date"`
	Core          []Allocation       `json:"core"`
	Satellite     []Allocation       `json:"satellite"`
	Weights       map[string]float64 `json:"weights"`
	OverlapPolicy string             `json:"overlap_policy"`
	Overlaps      []string           `json:"overlaps,omitempty"`
}

// SleeveTotal returns the sum of weights in one sleeve.
func (t TargetAllocation) SleeveTotal(s Sleeve) float64 {
	list := t.Core
	if s == SleeveSatellite {
		list = t.Satellite
	}
	var total float64
	for _, a := range list {
		total += a.Weight
	}
	return total
}

// Total returns the sum of merged weights.
func (t TargetAllocation) Total() float64 {
	var total float64
	for _, w := range t.Weights {
		total += w
	}
	return total
}

// Order is a buy or sell instruction generated for a cycle.
type Order struct {
	Symbol         string    `json:"symbol"`
	Side           OrderSide `json:"side"`
	Quantity       float64   `json:"quantity"`
	ReferencePrice float64   `json:"reference_price"`
	TargetWeight   float64   `json:"target_weight"`
	Delta          float64   `json:"delta"`
	FullExit       bool      `json:"full_exit"`
}

// Position represents a held quantity of an instrument.
type Position struct {
	Symbol   string  `json:"symbol"`
	Sector   string  `json:"sector,omitempty"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// PositionMark is a position valued at a mark price.
type PositionMark struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
}
