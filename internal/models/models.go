// Package models provides domain models for the sector rotation engine.
package models

import (
	"fmt"
	"sort"
	"time"
)

// InstrumentKind distinguishes tradable stocks from sector indices.
type InstrumentKind string

const (
	InstrumentStock       InstrumentKind = "STOCK"
	InstrumentSectorIndex InstrumentKind = "SECTOR_INDEX"
	InstrumentBenchmark   InstrumentKind = "BENCHMARK"
)

// Instrument represents a stock or a sector index.
type Instrument struct {
	Symbol string         `json:"symbol" yaml:"symbol"`
	Name   string         `json:"name,omitempty" yaml:"name"`
	Sector string         `json:"sector" yaml:"sector"`
	Kind   InstrumentKind `json:"kind" yaml:"kind"`
}

// Candle represents OHLCV data for a trading day.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// PriceSeries is the ordered daily history of one instrument.
// Timestamps are strictly increasing.
type PriceSeries struct {
	Symbol  string
	Candles []Candle
}

// Len returns the number of bars.
func (p PriceSeries) Len() int {
	return len(p.Candles)
}

// Validate checks that timestamps are strictly increasing.
func (p PriceSeries) Validate() error {
	for i := 1; i < len(p.Candles); i++ {
		if !p.Candles[i].Timestamp.After(p.Candles[i-1].Timestamp) {
			return fmt.Errorf("%s: bar %d (%s) not after bar %d (%s)", p.Symbol,
				i, p.Candles[i].Timestamp.Format("2006-01-02"),
				i-1, p.Candles[i-1].Timestamp.Format("2006-01-02"))
		}
	}
	return nil
}

// Before returns the bars strictly before t. The returned slice shares the
// underlying array and must not be modified.
func (p PriceSeries) Before(t time.Time) []Candle {
	idx := sort.Search(len(p.Candles), func(i int) bool {
		return !p.Candles[i].Timestamp.Before(t)
	})
	return p.Candles[:idx]
}

// AtOrBefore returns the latest bar with timestamp <= t.
func (p PriceSeries) AtOrBefore(t time.Time) (Candle, bool) {
	idx := sort.Search(len(p.Candles), func(i int) bool {
		return p.Candles[i].Timestamp.After(t)
	})
	if idx == 0 {
		return Candle{}, false
	}
	return p.Candles[idx-1], true
}

// On returns the bar dated exactly on t's calendar day.
func (p PriceSeries) On(t time.Time) (Candle, bool) {
	c, ok := p.AtOrBefore(t)
	if !ok || !SameDay(c.Timestamp, t) {
		return Candle{}, false
	}
	return c, true
}

// Between returns the bars with start <= timestamp <= end.
func (p PriceSeries) Between(start, end time.Time) []Candle {
	lo := sort.Search(len(p.Candles), func(i int) bool {
		return !p.Candles[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(p.Candles), func(i int) bool {
		return p.Candles[i].Timestamp.After(end)
	})
	if lo >= hi {
		return nil
	}
	return p.Candles[lo:hi]
}

// Closes extracts close prices.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Fundamentals is a point-in-time fundamental snapshot. Nil fields are
// missing data.
type Fundamentals struct {
	Symbol       string    `json:"symbol"`
	AsOf         time.Time `json:"as_of"`
	ROE          *float64  `json:"roe,omitempty"`
	ROCE         *float64  `json:"roce,omitempty"`
	EPSCAGR      *float64  `json:"eps_cagr,omitempty"`
	PE           *float64  `json:"pe,omitempty"`
	PB           *float64  `json:"pb,omitempty"`
	DebtToEquity *float64  `json:"debt_to_equity,omitempty"`
	CurrentRatio *float64  `json:"current_ratio,omitempty"`
	MarketCap    *float64  `json:"market_cap,omitempty"`
}

// Float returns a pointer to v. Used to populate optional fundamentals.
func Float(v float64) *float64 {
	return &v
}
