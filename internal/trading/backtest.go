package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nifty-rotation/internal/allocation"
	"nifty-rotation/internal/analysis/scoring"
	"nifty-rotation/internal/config"
	apperrors "nifty-rotation/internal/errors"
	"nifty-rotation/internal/logging"
	"nifty-rotation/internal/models"
	"nifty-rotation/internal/rotation"
)

// runNamespace scopes run IDs derived from backtest inputs.
var runNamespace = uuid.MustParse("6f1c2a8e-3d4b-5e6f-8a9b-0c1d2e3f4a5b")

// Result is the output of one backtest run.
type Result struct {
	RunID          string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	RebalanceDates []time.Time
	Snapshots      []models.PortfolioSnapshot
}

// Trades returns every trade in execution order.
func (r *Result) Trades() []models.Trade {
	var out []models.Trade
	for _, s := range r.Snapshots {
		if s.Cycle != nil {
			out = append(out, s.Cycle.Trades...)
		}
	}
	return out
}

// Equity returns the daily dates and total values.
func (r *Result) Equity() ([]time.Time, []float64) {
	dates := make([]time.Time, len(r.Snapshots))
	values := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		dates[i] = s.Date
		values[i] = s.TotalValue
	}
	return dates, values
}

// Engine runs the rebalance fold over a date range.
type Engine struct {
	cfg        *config.Config
	schedule   *Schedule
	ranker     *rotation.Ranker
	scorer     *scoring.Scorer
	rebalancer *allocation.Rebalancer
	logger     zerolog.Logger
}

// NewEngine wires the ranker, scorer and rebalancer from configuration.
func NewEngine(cfg *config.Config, logger zerolog.Logger) (*Engine, error) {
	schedule, err := NewSchedule(cfg.Strategy.RebalanceSchedule)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		schedule:   schedule,
		ranker:     rotation.NewRanker(cfg.Momentum, cfg.Trend, cfg.Strategy.TopSectors, logger),
		scorer:     scoring.NewScorer(cfg.Scoring, cfg.Eligibility, logger),
		rebalancer: allocation.NewRebalancer(cfg.Strategy, logger),
		logger:     logging.WithOperation(logger, "backtest"),
	}, nil
}

// RunID derives a stable identifier from the inputs that determine a run.
func (e *Engine) RunID(data *MarketData, start, end time.Time) string {
	c := e.cfg
	key := fmt.Sprintf("%+v|%+v|%+v|%+v|%+v|%+v|%s|%s|%v",
		c.Strategy, c.Momentum, c.Trend, c.Scoring, c.Eligibility, c.Execution,
		start.Format("2006-01-02"), end.Format("2006-01-02"), data.Universe.Symbols())
	return uuid.NewSHA1(runNamespace, []byte(key)).String()
}

// Period resolves the simulated date range. Missing bounds default to the
// data range, and rebalancing starts after the warm-up.
func (e *Engine) Period(data *MarketData) (start, end, firstRebalance time.Time, err error) {
	start, end, err = e.cfg.Period()
	if err != nil {
		return
	}
	days := data.TradingDays(time.Time{}, time.Time{})
	if len(days) == 0 {
		err = apperrors.NewDataError("prices", "", "no bars loaded", apperrors.ErrInsufficientData)
		return
	}

	warm := data.FirstBar().AddDate(0, 0, e.cfg.Strategy.WarmupDays)
	if start.IsZero() {
		start = warm
	}
	if end.IsZero() || end.After(days[len(days)-1]) {
		end = days[len(days)-1]
	}
	firstRebalance = start
	if warm.After(firstRebalance) {
		firstRebalance = warm
	}
	if !end.After(start) {
		err = apperrors.NewValidationError("strategy.end", end.Format("2006-01-02"), "no trading days after start")
	}
	return
}

// Run simulates the strategy over data. The portfolio is threaded through
// the trading days as a value; rebalance days run a full cycle and every
// day records a snapshot.
func (e *Engine) Run(ctx context.Context, data *MarketData, fundamentals FundamentalsSource) (*Result, error) {
	start, end, firstRebalance, err := e.Period(data)
	if err != nil {
		return nil, err
	}
	days := data.TradingDays(start, end)
	rebalance, err := e.schedule.Dates(days, firstRebalance, end)
	if err != nil {
		return nil, err
	}

	runID := e.RunID(data, start, end)
	logger := logging.WithRun(e.logger, runID)
	executor := NewExecutor(e.cfg.Execution, uuid.MustParse(runID), logger)
	book := data.Prices()

	res := &Result{
		RunID:          runID,
		Start:          start,
		End:            end,
		InitialCapital: e.cfg.Execution.InitialCapital,
		RebalanceDates: rebalance,
		Snapshots:      make([]models.PortfolioSnapshot, 0, len(days)),
	}

	logger.Info().
		Time("start", start).
		Time("end", end).
		Int("trading_days", len(days)).
		Int("rebalances", len(rebalance)).
		Msg("Backtest started")

	portfolio := NewPortfolio(e.cfg.Execution.InitialCapital)
	var previous []string
	next := 0

	for _, day := range days {
		var detail *models.CycleDetail
		var cycle *Cycle

		if next < len(rebalance) && rebalance[next].Equal(day) {
			next++
			if err := ctx.Err(); err != nil {
				return res, err
			}
			cycle = &Cycle{}
			portfolio, detail, err = e.runCycle(ctx, cycle, day, portfolio, previous, data, fundamentals, executor, book)
			if err != nil {
				return res, fmt.Errorf("cycle %s: %w", day.Format("2006-01-02"), err)
			}
			previous = detail.TopSectors
		}

		var val Valuation
		portfolio, val = portfolio.Mark(book, day)
		if val.Total < 0 {
			return res, apperrors.NewInvariantError("value >= 0", val.Total, 0, apperrors.ErrNegativeValue)
		}
		res.Snapshots = append(res.Snapshots, models.PortfolioSnapshot{
			Date:       day,
			TotalValue: val.Total,
			Cash:       val.Cash,
			Positions:  val.Positions,
			Cycle:      detail,
		})

		if cycle != nil {
			if err := cycle.Advance(PhaseSnapshotRecorded); err != nil {
				return res, err
			}
			if err := cycle.Advance(PhaseIdle); err != nil {
				return res, err
			}
			logging.LogCycle(logging.WithCycle(logger, day), detail.TopSectors, len(val.Positions),
				len(detail.Trades), val.Total, val.Cash)
		}
	}

	logger.Info().
		Int("snapshots", len(res.Snapshots)).
		Int("trades", len(res.Trades())).
		Msg("Backtest complete")
	return res, nil
}

func (e *Engine) runCycle(
	ctx context.Context,
	cycle *Cycle,
	day time.Time,
	p Portfolio,
	previous []string,
	data *MarketData,
	fundamentals FundamentalsSource,
	executor *Executor,
	book PriceBook,
) (Portfolio, *models.CycleDetail, error) {
	if err := cycle.Advance(PhaseScoring); err != nil {
		return p, nil, err
	}

	sectors := make([]rotation.SectorInput, 0, len(data.Universe.Sectors))
	for _, def := range data.Universe.Sectors {
		s, ok := data.Sectors[def.Name]
		if !ok {
			logging.LogExclusion(e.logger, def.Name, "no index series")
			continue
		}
		sectors = append(sectors, rotation.SectorInput{Sector: def.Name, Series: s})
	}
	ranking := e.ranker.Rank(day, sectors)

	candidates, err := e.candidates(ctx, day, data, fundamentals)
	if err != nil {
		return p, nil, err
	}
	scores, err := e.scorer.ScoreUniverse(ctx, day, candidates, data.Benchmark)
	if err != nil {
		return p, nil, err
	}

	if err := cycle.Advance(PhaseTargetComputed); err != nil {
		return p, nil, err
	}
	weights := rotation.Weights(ranking.Top, e.cfg.Strategy.CoreFraction, e.cfg.Strategy.SectorWeighting)
	target, err := e.rebalancer.Build(day, ranking.TopSectors(), weights, scores.Records)
	if err != nil {
		return p, nil, err
	}

	if err := cycle.Advance(PhaseOrdersGenerated); err != nil {
		return p, nil, err
	}
	plan := GenerateOrders(p, target.Weights, book, day, e.cfg.Execution)

	if err := cycle.Advance(PhaseOrdersExecuted); err != nil {
		return p, nil, err
	}
	sectorOf := make(map[string]string, len(data.Universe.Stocks))
	for _, s := range data.Universe.Stocks {
		sectorOf[s.Symbol] = s.Sector
	}
	exec, err := executor.Execute(p, plan.Orders, day, sectorOf)
	if err != nil {
		return p, nil, err
	}

	exclusions := append(append([]models.Exclusion(nil), ranking.Exclusions...), scores.Exclusions...)
	detail := &models.CycleDetail{
		Sectors:     ranking.Scores,
		TopSectors:  ranking.TopSectors(),
		Transition:  rotation.Transitions(previous, ranking.TopSectors()),
		Scores:      scores.Records,
		Exclusions:  exclusions,
		Targets:     target,
		Trades:      exec.Trades,
		Skipped:     append(plan.Skipped, exec.Skipped...),
		CashBefore:  p.Cash,
		CashAfter:   exec.Portfolio.Cash,
		ValueBefore: plan.Value,
	}
	return exec.Portfolio, detail, nil
}

// candidates pairs each stock with its history and point-in-time
// fundamentals.
func (e *Engine) candidates(ctx context.Context, day time.Time, data *MarketData, fundamentals FundamentalsSource) ([]scoring.Candidate, error) {
	out := make([]scoring.Candidate, 0, len(data.Universe.Stocks))
	for _, inst := range data.Universe.Stocks {
		series, ok := data.Stocks[inst.Symbol]
		if !ok {
			continue
		}
		c := scoring.Candidate{Instrument: inst, Series: series}
		if fundamentals != nil {
			f, err := fundamentals.Fundamentals(ctx, inst.Symbol, day)
			if err != nil && !apperrors.Is(err, apperrors.ErrDataNotFound) {
				return nil, apperrors.NewDataError("fundamentals", inst.Symbol, "lookup failed", err)
			}
			c.Fundamentals = f
		}
		out = append(out, c)
	}
	return out, nil
}
