package trading

import (
	"math"
	"sort"
	"time"

	"nifty-rotation/internal/models"
)

// quantityEpsilon is the residual share count treated as a closed position.
const quantityEpsilon = 1e-9

// Portfolio is the cash and holdings carried from one day to the next.
// It is a value: every mutation returns a new Portfolio and leaves the
// receiver untouched.
type Portfolio struct {
	Cash      float64
	Positions map[string]models.Position
	// lastPrice remembers the most recent mark of each holding so a
	// missing bar carries forward.
	lastPrice map[string]float64
}

// NewPortfolio creates an all-cash portfolio.
func NewPortfolio(cash float64) Portfolio {
	return Portfolio{
		Cash:      cash,
		Positions: make(map[string]models.Position),
		lastPrice: make(map[string]float64),
	}
}

// Clone returns a deep copy.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{
		Cash:      p.Cash,
		Positions: make(map[string]models.Position, len(p.Positions)),
		lastPrice: make(map[string]float64, len(p.lastPrice)),
	}
	for k, v := range p.Positions {
		out.Positions[k] = v
	}
	for k, v := range p.lastPrice {
		out.lastPrice[k] = v
	}
	return out
}

// Quantity returns the held quantity of symbol.
func (p Portfolio) Quantity(symbol string) float64 {
	return p.Positions[symbol].Quantity
}

// Symbols returns the held symbols, sorted.
func (p Portfolio) Symbols() []string {
	out := make([]string, 0, len(p.Positions))
	for s := range p.Positions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Price returns the mark price of symbol on date, falling back to the last
// recorded mark when the book has no bar yet.
func (p Portfolio) Price(book PriceBook, symbol string, date time.Time) (float64, bool) {
	if px, ok := book.Close(symbol, date); ok {
		return px, true
	}
	px, ok := p.lastPrice[symbol]
	return px, ok
}

// Valuation is a portfolio marked to market on one date.
type Valuation struct {
	Date      time.Time
	Cash      float64
	Total     float64
	Positions []models.PositionMark
}

// Mark values every holding at its latest close and returns the valuation
// together with the portfolio carrying the updated marks.
func (p Portfolio) Mark(book PriceBook, date time.Time) (Portfolio, Valuation) {
	next := p.Clone()
	v := Valuation{Date: date, Cash: p.Cash, Total: p.Cash}

	for _, sym := range p.Symbols() {
		pos := p.Positions[sym]
		px, ok := p.Price(book, sym, date)
		if !ok {
			// Never bought without a price, so this is unreachable for
			// positions opened by the executor.
			px = pos.AvgCost
		}
		next.lastPrice[sym] = px
		value := pos.Quantity * px
		v.Total += value
		v.Positions = append(v.Positions, models.PositionMark{
			Symbol:   sym,
			Quantity: pos.Quantity,
			AvgCost:  pos.AvgCost,
			Price:    px,
			Value:    value,
		})
	}
	if v.Total > 0 {
		for i := range v.Positions {
			v.Positions[i].Weight = v.Positions[i].Value / v.Total
		}
	}
	return next, v
}

// apply books an executed trade. Callers own the receiver.
func (p *Portfolio) apply(t models.Trade, sector string) {
	p.Cash += t.CashFlow
	pos := p.Positions[t.Symbol]
	pos.Symbol = t.Symbol
	if sector != "" {
		pos.Sector = sector
	}

	switch t.Side {
	case models.OrderSideBuy:
		cost := pos.AvgCost*pos.Quantity + t.FillPrice*t.Quantity
		pos.Quantity += t.Quantity
		pos.AvgCost = cost / pos.Quantity
	case models.OrderSideSell:
		pos.Quantity -= t.Quantity
	}

	if math.Abs(pos.Quantity) < quantityEpsilon {
		delete(p.Positions, t.Symbol)
		delete(p.lastPrice, t.Symbol)
		return
	}
	p.Positions[t.Symbol] = pos
	p.lastPrice[t.Symbol] = t.ReferencePrice
}
