package trading

import (
	"fmt"
	"math"
	"sort"
	"time"

	"nifty-rotation/internal/config"
	"nifty-rotation/internal/models"
)

// OrderPlan is the outcome of diffing targets against holdings.
type OrderPlan struct {
	Orders  []models.Order
	Skipped []models.SkippedOrder
	// Value is the portfolio value the targets were sized against.
	Value float64
}

// GenerateOrders diffs target weights against the current holdings at the
// date's reference prices. Deltas below the minimum trade value are
// skipped, except full exits of symbols no longer targeted.
func GenerateOrders(p Portfolio, weights map[string]float64, book PriceBook, date time.Time, cfg config.ExecutionConfig) OrderPlan {
	_, val := p.Mark(book, date)
	plan := OrderPlan{Value: val.Total}

	symbols := make(map[string]bool, len(weights)+len(p.Positions))
	for s := range weights {
		symbols[s] = true
	}
	for s := range p.Positions {
		symbols[s] = true
	}
	ordered := make([]string, 0, len(symbols))
	for s := range symbols {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	for _, sym := range ordered {
		held := p.Quantity(sym)
		target := weights[sym]

		ref, ok := p.Price(book, sym, date)
		if !ok {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{
				Symbol: sym, Side: unpricedSide(held, target), Reason: "no reference price",
			})
			continue
		}

		if target <= 0 && held > 0 {
			plan.Orders = append(plan.Orders, models.Order{
				Symbol:         sym,
				Side:           models.OrderSideSell,
				Quantity:       held,
				ReferencePrice: ref,
				Delta:          -held * ref,
				FullExit:       true,
			})
			continue
		}

		delta := target*val.Total - held*ref
		side := models.OrderSideBuy
		if delta < 0 {
			side = models.OrderSideSell
		}
		if math.Abs(delta) < cfg.MinTradeValue {
			if delta != 0 {
				plan.Skipped = append(plan.Skipped, models.SkippedOrder{
					Symbol: sym, Side: side, Delta: delta,
					Reason: fmt.Sprintf("below minimum trade value %.2f", cfg.MinTradeValue),
				})
			}
			continue
		}

		qty := shares(math.Abs(delta)/ref, cfg.FractionalShares)
		if side == models.OrderSideSell {
			qty = math.Min(qty, held)
		}
		if qty <= 0 {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{
				Symbol: sym, Side: side, Delta: delta, Reason: "rounds to zero shares",
			})
			continue
		}

		plan.Orders = append(plan.Orders, models.Order{
			Symbol:         sym,
			Side:           side,
			Quantity:       qty,
			ReferencePrice: ref,
			TargetWeight:   target,
			Delta:          delta,
		})
	}
	return plan
}

// shares floors a quantity to whole shares unless fractional shares are
// allowed.
func shares(q float64, fractional bool) float64 {
	if fractional {
		return q
	}
	// Absorb representation error so 10.000000000001 stays 10 and
	// 9.9999999999 becomes 10.
	return math.Floor(q + 1e-9)
}

// unpricedSide is the side of an order that could not be priced. Resizing
// an existing holding has no known direction without a price.
func unpricedSide(held, target float64) models.OrderSide {
	switch {
	case held > 0 && target <= 0:
		return models.OrderSideSell
	case held <= 0 && target > 0:
		return models.OrderSideBuy
	}
	return ""
}
