package trading

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
)

// Cash policies applied when cash after sells cannot fund every buy.
const (
	CashPolicyScale = "scale"
	CashPolicySkip  = "skip"
)

// cashEpsilon absorbs floating-point residue in the cash invariant check.
const cashEpsilon = 1e-6

// Executor fills orders against reference prices with slippage, market
// impact, commission and STT.
type Executor struct {
	cfg       config.ExecutionConfig
	namespace uuid.UUID
	logger    zerolog.Logger
}

// NewExecutor creates an executor. Trade IDs are derived from namespace so
// identical runs produce identical IDs.
func NewExecutor(cfg config.ExecutionConfig, namespace uuid.UUID, logger zerolog.Logger) *Executor {
	return &Executor{
		cfg:       cfg,
		namespace: namespace,
		logger:    logging.WithOperation(logger, "execution"),
	}
}

// Execution is the result of executing one order plan.
type Execution struct {
	Portfolio Portfolio
	Trades    []models.Trade
	Skipped   []models.SkippedOrder
}

// Execute runs all sells in symbol order, then funds buys under the cash
// policy and runs them in symbol order. sectors tags new positions.
func (e *Executor) Execute(p Portfolio, orders []models.Order, date time.Time, sectors map[string]string) (Execution, error) {
	next := p.Clone()
	var res Execution

	var sells, buys []models.Order
	for _, o := range orders {
		if o.Side == models.OrderSideSell {
			sells = append(sells, o)
		} else {
			buys = append(buys, o)
		}
	}
	bySymbol := func(os []models.Order) {
		sort.Slice(os, func(i, j int) bool { return os[i].Symbol < os[j].Symbol })
	}
	bySymbol(sells)

	for _, o := range sells {
		t := e.fill(o, o.Quantity, date)
		next.apply(t, sectors[o.Symbol])
		res.Trades = append(res.Trades, t)
		logging.LogTrade(e.logger, t.Symbol, string(t.Side), t.Quantity, t.FillPrice, t.Costs())
	}

	requested := make(map[string]float64, len(buys))
	for _, o := range buys {
		requested[o.Symbol] = o.Quantity
	}
	funded, skipped := e.fund(buys, next.Cash)
	res.Skipped = append(res.Skipped, skipped...)
	bySymbol(funded)

	for _, o := range funded {
		qty := o.Quantity
		perShare := e.buyPrice(o.ReferencePrice) * (1 + e.cfg.Commission)
		if qty*perShare > next.Cash {
			// Only reachable through rounding with fractional shares.
			qty = next.Cash / perShare
			if !e.cfg.FractionalShares {
				qty = math.Floor(qty)
			}
		}
		if qty <= 0 {
			res.Skipped = append(res.Skipped, e.unfunded(o, perShare, next.Cash))
			continue
		}
		t := e.fill(o, qty, date)
		t.Scaled = qty < requested[o.Symbol]
		next.apply(t, sectors[o.Symbol])
		res.Trades = append(res.Trades, t)
		logging.LogTrade(e.logger, t.Symbol, string(t.Side), t.Quantity, t.FillPrice, t.Costs())
	}

	if next.Cash < -cashEpsilon {
		return res, apperrors.NewInvariantError("cash >= 0", next.Cash, 0, apperrors.ErrNegativeCash)
	}
	if next.Cash < 0 {
		next.Cash = 0
	}
	res.Portfolio = next
	return res, nil
}

// fund decides which buys execute and at what size given available cash.
func (e *Executor) fund(buys []models.Order, cash float64) ([]models.Order, []models.SkippedOrder) {
	var required float64
	for _, o := range buys {
		required += o.Quantity * e.buyPrice(o.ReferencePrice) * (1 + e.cfg.Commission)
	}
	if required <= cash || len(buys) == 0 {
		return buys, nil
	}

	var funded []models.Order
	var skipped []models.SkippedOrder

	switch e.cfg.CashPolicy {
	case CashPolicySkip:
		sort.Slice(buys, func(i, j int) bool {
			if buys[i].TargetWeight != buys[j].TargetWeight {
				return buys[i].TargetWeight > buys[j].TargetWeight
			}
			return buys[i].Symbol < buys[j].Symbol
		})
		remaining := cash
		for _, o := range buys {
			cost := o.Quantity * e.buyPrice(o.ReferencePrice) * (1 + e.cfg.Commission)
			if cost > remaining {
				skipped = append(skipped, e.unfunded(o, cost, remaining))
				continue
			}
			remaining -= cost
			funded = append(funded, o)
		}

	default:
		factor := cash / required
		for _, o := range buys {
			scaled := o
			scaled.Quantity = shares(o.Quantity*factor, e.cfg.FractionalShares)
			if scaled.Quantity <= 0 {
				skipped = append(skipped, models.SkippedOrder{
					Symbol: o.Symbol, Side: o.Side, Delta: o.Delta, Reason: "scaled to zero shares",
				})
				continue
			}
			funded = append(funded, scaled)
		}
		e.logger.Debug().
			Float64("required", required).
			Float64("cash", cash).
			Float64("factor", factor).
			Msg("Buys scaled to available cash")
	}
	return funded, skipped
}

// unfunded records a buy that cash cannot cover.
func (e *Executor) unfunded(o models.Order, need, have float64) models.SkippedOrder {
	err := insufficientFunds(o, need, have)
	e.logger.Debug().Err(err).Msg("Buy skipped")
	return models.SkippedOrder{Symbol: o.Symbol, Side: o.Side, Delta: o.Delta, Reason: err.Reason}
}

func insufficientFunds(o models.Order, need, have float64) *apperrors.ExecutionError {
	return apperrors.NewExecutionError(o.Symbol, string(o.Side),
		fmt.Sprintf("insufficient cash: need %.2f, have %.2f", need, have), apperrors.ErrInsufficientFunds)
}

func (e *Executor) buyPrice(ref float64) float64 {
	return ref * (1 + e.cfg.Slippage + e.cfg.MarketImpact)
}

func (e *Executor) sellPrice(ref float64) float64 {
	return ref * (1 - e.cfg.Slippage - e.cfg.MarketImpact)
}

// fill prices qty shares of o and computes its costs and signed cash flow.
func (e *Executor) fill(o models.Order, qty float64, date time.Time) models.Trade {
	t := models.Trade{
		ID:             e.tradeID(date, o.Symbol, o.Side).String(),
		Timestamp:      date,
		Symbol:         o.Symbol,
		Side:           o.Side,
		Quantity:       qty,
		ReferencePrice: o.ReferencePrice,
	}

	if o.Side == models.OrderSideBuy {
		t.FillPrice = e.buyPrice(o.ReferencePrice)
		t.Notional = qty * t.FillPrice
		t.Slippage = qty * (t.FillPrice - o.ReferencePrice)
		t.Commission = t.Notional * e.cfg.Commission
		t.CashFlow = -(t.Notional + t.Commission)
		return t
	}

	t.FillPrice = e.sellPrice(o.ReferencePrice)
	t.Notional = qty * t.FillPrice
	t.Slippage = qty * (o.ReferencePrice - t.FillPrice)
	t.Commission = t.Notional * e.cfg.Commission
	t.Taxes = t.Notional * e.cfg.STT
	t.CashFlow = t.Notional - t.Commission - t.Taxes
	return t
}

func (e *Executor) tradeID(date time.Time, symbol string, side models.OrderSide) uuid.UUID {
	return uuid.NewSHA1(e.namespace, []byte(date.Format("2006-01-02")+"/"+symbol+"/"+string(side)))
}
